package console

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/router"
)

const (
	correlationIDKey = "correlation_id"
	routeMatchKey    = "route_match"
)

// CorrelationMiddleware tags every request with an X-Correlation-ID, reusing
// the one sent by the caller when present.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header("X-Correlation-ID", correlationID)

		c.Next()
	}
}

func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(correlationIDKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}

// LogWithCorrelation creates a logrus entry carrying the request's correlation ID.
func LogWithCorrelation(c *gin.Context) *logrus.Entry {
	return logrus.WithField("correlation_id", GetCorrelationID(c))
}

// NavigationMiddleware runs the request path through the router. A navigation
// that ends on another route is answered with a redirect to it; otherwise the
// resolved match is stored for the handler.
func (s *Server) NavigationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nav, err := s.App.Router.Navigate(c.Request.Context(), c.Request.URL.RequestURI())
		if err != nil {
			if errors.Is(err, router.ErrNotFound) {
				s.getErrorPage(c, http.StatusNotFound, "Page not found", err)
				return
			}
			if errors.Is(err, router.ErrNotSettled) {
				s.getErrorPage(c, http.StatusServiceUnavailable, "Session is still loading", err)
				return
			}
			s.getErrorPage(c, http.StatusInternalServerError, "Navigation failed", err)
			return
		}

		if nav.Redirected() {
			LogWithCorrelation(c).WithFields(logrus.Fields{
				"from": c.Request.URL.RequestURI(),
				"to":   nav.Match.FullPath,
			}).Debugln("Navigation redirected")

			c.Redirect(http.StatusFound, nav.Match.FullPath)
			c.Abort()
			return
		}

		c.Set(routeMatchKey, nav.Match)
		c.Next()
	}
}

// GuardRoute applies the access rules of a named route to requests that are
// not navigations themselves, such as form submissions.
func (s *Server) GuardRoute(name string) gin.HandlerFunc {
	table := s.App.Router.Table()

	meta, ok := table.Meta(name)
	if !ok {
		logrus.WithField("route", name).Fatalln("Route missing from table")
	}

	returnPath, err := table.PathFor(name, nil)
	if err != nil {
		returnPath = router.HomePath
	}

	return func(c *gin.Context) {
		decision, err := s.App.Router.Guard().Check(c.Request.Context(), &router.Match{
			Name:     name,
			Meta:     meta,
			FullPath: returnPath,
		})
		if err != nil {
			s.getErrorPage(c, http.StatusServiceUnavailable, "Session is still loading", err)
			return
		}

		switch decision.Outcome {
		case router.Allow:
			c.Next()
		case router.RedirectLogin:
			if canAcceptHtml(c) || isFormPost(c) {
				s.setFlash(c, "Please log in to continue")
				c.Redirect(http.StatusFound, decision.Target)
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":    "login required",
					"redirect": decision.Target,
				})
			}
			c.Abort()
		default:
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
		}
	}
}

func getRouteMatch(c *gin.Context) *router.Match {
	if value, exists := c.Get(routeMatchKey); exists {
		if match, ok := value.(*router.Match); ok {
			return match
		}
	}
	return nil
}

func isFormPost(c *gin.Context) bool {
	return c.Request.Method == http.MethodPost && c.ContentType() == "application/x-www-form-urlencoded"
}
