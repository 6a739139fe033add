package console

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/client"
	"github.com/inkpress/desk/internal/models"
)

const flashSessionKey = "_desk_flash"

// TemplateData is shared by every page.
type TemplateData struct {
	ServiceName   string
	Version       string
	Path          string
	RouteName     string
	User          *models.User
	Authenticated bool
	Flash         string
	Notice        string
	CSRFToken     string
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"error"`
}

type ErrorPageData struct {
	TemplateData
	Error ErrorResponse
}

func (s *Server) GetTemplateData(c *gin.Context) TemplateData {
	state := s.App.Session.State()

	data := TemplateData{
		ServiceName:   "Inkpress Desk",
		Version:       s.GetVersion(),
		Path:          c.Request.URL.RequestURI(),
		User:          state.Identity,
		Authenticated: state.Authenticated(),
	}

	if match := getRouteMatch(c); match != nil {
		data.RouteName = match.Name
	}

	// Recovery can render before the cookie session is attached
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return data
	}

	csrfToken, err := ensureCSRFToken(c)
	if err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to create CSRF token")
	}
	data.CSRFToken = csrfToken

	data.Flash, data.Notice = s.popFlash(c)

	return data
}

func (s *Server) renderHtml(c *gin.Context, code int, template string, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(code)

	err := s.TemplateEngine.ExecuteTemplate(c.Writer, template, data)
	if err != nil {
		LogWithCorrelation(c).WithError(err).Errorln("Failed to render page")
		c.String(http.StatusInternalServerError, "Error rendering page: %v", err)
		return
	}
}

func (s *Server) getErrorPage(c *gin.Context, code int, message string, err ...error) {
	var messages []string

	if len(err) == 0 {
		LogWithCorrelation(c).WithField("code", code).Warnln(message)
	}

	for _, e := range err {
		if e == nil {
			continue
		}
		LogWithCorrelation(c).WithError(e).WithField("code", code).Warnln(message)
		messages = append(messages, e.Error())
	}

	errorMessage := strings.Join(messages, ". ")

	// Don't show error details for 500 status codes
	if code >= http.StatusInternalServerError {
		errorMessage = fmt.Sprintf("An internal error occurred. Details are available in the logs at: %s.",
			time.Now().UTC().Format("2006-01-02 15:04:05"))
	}

	response := ErrorResponse{
		Code:    code,
		Title:   message,
		Message: errorMessage,
	}

	if canAcceptHtml(c) {
		s.renderHtml(c, code, "error.html", ErrorPageData{
			TemplateData: s.GetTemplateData(c),
			Error:        response,
		})
	} else {
		c.JSON(code, response)
	}

	c.Abort()
}

// apiErrorPage maps a content API failure onto the matching console error.
func (s *Server) apiErrorPage(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, client.ErrNotFound):
		s.getErrorPage(c, http.StatusNotFound, message, err)
	case errors.Is(err, client.ErrUnauthorized):
		// The credential stopped working; drop it so the guard sends the
		// author back to the login page
		s.App.Session.RefreshProfile(c.Request.Context())
		s.getErrorPage(c, http.StatusUnauthorized, message, err)
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			s.getErrorPage(c, apiErr.StatusCode, message, err)
			return
		}
		s.getErrorPage(c, http.StatusBadGateway, message, err)
	}
}

// setFlash stores an error message shown on the next rendered page.
func (s *Server) setFlash(c *gin.Context, message string) {
	s.saveFlash(c, "error", message)
}

// setNotice stores a success message shown on the next rendered page.
func (s *Server) setNotice(c *gin.Context, message string) {
	s.saveFlash(c, "notice", message)
}

func (s *Server) saveFlash(c *gin.Context, kind string, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, flashSessionKey+kind)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Warnln("Failed to save flash message")
	}
}

func (s *Server) popFlash(c *gin.Context) (string, string) {
	session := sessions.Default(c)

	read := func(kind string) string {
		var messages []string
		for _, flash := range session.Flashes(flashSessionKey + kind) {
			if message, ok := flash.(string); ok {
				messages = append(messages, message)
			}
		}
		return strings.Join(messages, " ")
	}

	flash, notice := read("error"), read("notice")

	if len(flash) > 0 || len(notice) > 0 {
		if err := session.Save(); err != nil {
			logrus.WithError(err).Warnln("Failed to clear flash messages")
		}
	}

	return flash, notice
}
