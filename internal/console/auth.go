package console

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
)

type AuthPageData struct {
	TemplateData
	Redirect string
	Username string
}

func (s *Server) getLoginPage(c *gin.Context) {
	s.renderHtml(c, http.StatusOK, "login.html", AuthPageData{
		TemplateData: s.GetTemplateData(c),
		Redirect:     router.SafeRedirect(c.Query(router.RedirectParam)),
		Username:     c.Query("username"),
	})
}

func (s *Server) getRegisterPage(c *gin.Context) {
	s.renderHtml(c, http.StatusOK, "register.html", AuthPageData{
		TemplateData: s.GetTemplateData(c),
		Redirect:     router.SafeRedirect(c.Query(router.RedirectParam)),
	})
}

// backToForm returns path with the redirect target preserved.
func backToForm(path string, redirect string, username string) string {
	query := url.Values{}
	if redirect != router.HomePath {
		query.Set(router.RedirectParam, redirect)
	}
	if len(username) > 0 {
		query.Set("username", username)
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func (s *Server) postLogin(c *gin.Context) {
	redirect := router.SafeRedirect(c.PostForm(router.RedirectParam))
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if len(username) == 0 || len(password) == 0 {
		s.setFlash(c, "Username and password are required")
		c.Redirect(http.StatusFound, backToForm(router.LoginPath, redirect, username))
		return
	}

	if _, err := s.App.Session.Login(c.Request.Context(), username, password); err != nil {
		// The store keeps the generic message for display
		s.setFlash(c, s.App.Session.State().LastError)
		c.Redirect(http.StatusFound, backToForm(router.LoginPath, redirect, username))
		return
	}

	c.Redirect(http.StatusFound, redirect)
}

func (s *Server) postRegister(c *gin.Context) {
	redirect := router.SafeRedirect(c.PostForm(router.RedirectParam))

	req := models.RegisterRequest{
		Username:    strings.TrimSpace(c.PostForm("username")),
		Password:    c.PostForm("password"),
		Email:       strings.TrimSpace(c.PostForm("email")),
		DisplayName: strings.TrimSpace(c.PostForm("displayName")),
	}

	registerPath, _ := s.App.Router.Table().PathFor(router.RouteRegister, nil)

	switch {
	case len(req.Username) == 0 || len(req.Password) == 0:
		s.setFlash(c, "Username and password are required")
	case len(req.Email) > 0 && !common.IsValidEmail(req.Email):
		s.setFlash(c, "Email address is not valid")
	case req.Password != c.PostForm("confirmPassword"):
		s.setFlash(c, "Passwords do not match")
	default:
		if _, err := s.App.Session.Register(c.Request.Context(), req); err != nil {
			s.setFlash(c, s.App.Session.State().LastError)
			break
		}
		c.Redirect(http.StatusFound, redirect)
		return
	}

	c.Redirect(http.StatusFound, backToForm(registerPath, redirect, ""))
}

func (s *Server) postLogout(c *gin.Context) {
	s.App.Session.Logout()
	s.setNotice(c, "You have been logged out")

	if canAcceptHtml(c) || isFormPost(c) {
		c.Redirect(http.StatusFound, router.HomePath)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}
