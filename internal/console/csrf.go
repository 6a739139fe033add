package console

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/inkpress/desk/internal/common"
)

const (
	csrfSessionKey  = "_desk_csrf"
	csrfFormField   = "csrf_token"
	csrfHeader      = "X-CSRF-Token"
	csrfTokenLength = 32
)

var errCSRFMismatch = errors.New("the form has expired, reload the page and try again")

// ensureCSRFToken returns the token of the console session, creating it on
// first use. Every form rendered in the session carries it.
func ensureCSRFToken(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	if token, ok := session.Get(csrfSessionKey).(string); ok && len(token) > 0 {
		return token, nil
	}

	token, err := common.GenerateSecureRandomString(csrfTokenLength)
	if err != nil {
		return "", err
	}

	session.Set(csrfSessionKey, token)
	if err := session.Save(); err != nil {
		return "", err
	}

	LogWithCorrelation(c).Debugln("CSRF token generated and stored in session")

	return token, nil
}

func validCSRFToken(c *gin.Context, token string) bool {
	stored, ok := sessions.Default(c).Get(csrfSessionKey).(string)
	if !ok || len(stored) == 0 || len(token) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}

// CSRFMiddleware rejects state changing requests that do not echo the
// session's CSRF token in the form or the X-CSRF-Token header.
func (s *Server) CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		token := c.PostForm(csrfFormField)
		if len(token) == 0 {
			token = c.GetHeader(csrfHeader)
		}

		if !validCSRFToken(c, token) {
			LogWithCorrelation(c).WithField("path", c.Request.URL.Path).
				Warnln("CSRF validation failed")
			s.getErrorPage(c, http.StatusForbidden, "Forbidden", errCSRFMismatch)
			return
		}

		c.Next()
	}
}
