// Package console serves the desk web console: a small gin application on
// localhost that renders the content site for the signed-in author. Pages are
// mounted on the route table and every navigation goes through the router, so
// the console applies the same access rules as the CLI.
package console

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/app"
	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/router"
)

//go:embed static/*
var staticFiles embed.FS

const cookieName = "desk_console"

// Server represents the web console
type Server struct {
	App            *app.App
	TemplateEngine *template.Template
	StartTime      time.Time
	TotalRequests  int64

	secret   string
	server   *http.Server
	attempts *AttemptLimiter
}

func NewServer(application *app.App) (*Server, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t any) string {
			switch value := t.(type) {
			case time.Time:
				return value.Format("Jan 2, 2006")
			case *time.Time:
				if value == nil {
					return ""
				}
				return value.Format("Jan 2, 2006")
			}
			return ""
		},
		"add": func(a, b int) int {
			return a + b
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(staticFiles, "static/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	secret := application.Config.Server.Secret
	if len(secret) == 0 {
		// Cookies only need to survive this process
		secret, err = common.GenerateSecureRandomString(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate cookie secret: %w", err)
		}
	}

	server := &Server{
		App:            application,
		TemplateEngine: tmpl,
		StartTime:      time.Now().UTC(),
		secret:         secret,
	}

	limits := application.Config.Server.Limits
	if limits.AuthRate > 0 {
		server.attempts = NewAttemptLimiter(limits.AuthRate, limits.AuthBurst)
	}

	return server, nil
}

func (s *Server) GetVersion() string {
	version, gitCommit, ok := common.GetModuleBuildInfo()
	if ok {
		return fmt.Sprintf("%s (git: %s)", version, gitCommit)
	}
	return "unknown"
}

// Engine builds the gin engine with every middleware and route mounted.
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()

	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("%v", recovered)
		}
		s.getErrorPage(c, http.StatusInternalServerError, "Internal Server Error", err)
	}))
	engine.Use(CorrelationMiddleware())
	engine.Use(s.requestLoggerMiddleware())
	engine.Use(s.requestCounterMiddleware())
	engine.Use(sessions.Sessions(cookieName, getSessionStore(s.secret)))

	engine.SetHTMLTemplate(s.TemplateEngine)

	s.setupRoutes(engine)

	return engine
}

// Start restores the session, then serves the console until Stop is called.
// It returns once the listener is up.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	// Pages are only mounted after the session settles
	s.App.Initialize(ctx)

	cfg := s.App.Config
	addr := cfg.GetServerAddress()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Engine(),
		ReadTimeout:  cfg.Server.Limits.ReadTimeout,
		WriteTimeout: cfg.Server.Limits.WriteTimeout,
		IdleTimeout:  cfg.Server.Limits.IdleTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start console: %w", err)
	case <-time.After(100 * time.Millisecond):
		logrus.WithFields(logrus.Fields{
			"address": cfg.GetLocalServerURL(),
		}).Infoln("Console started")
		return nil
	}
}

func (s *Server) Stop() {
	if s.attempts != nil {
		s.attempts.Stop()
	}

	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warnln("Console shutdown failed")
	}
	logrus.Infoln("Console stopped")
}

func (s *Server) requestCounterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&s.TotalRequests, 1)
		c.Next()
	}
}

func (s *Server) requestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		LogWithCorrelation(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debugln("Console request")
	}
}

func (s *Server) setupRoutes(engine *gin.Engine) {
	table := s.App.Router.Table()
	pattern := func(name string) string {
		path, ok := table.Pattern(name)
		if !ok {
			logrus.WithField("route", name).Fatalln("Route missing from table")
		}
		return path
	}

	engine.GET("/styles.css", s.getStyle)

	// Pages resolve through the router; redirects are decided there
	pages := engine.Group("")
	pages.Use(s.NavigationMiddleware())
	{
		pages.GET(pattern(router.RouteHome), s.getHomePage)
		pages.GET(pattern(router.RoutePostDetail), s.getPostPage)
		pages.GET(pattern(router.RouteCategoryPosts), s.getCategoryPage)
		pages.GET(pattern(router.RouteTagPosts), s.getTagPage)
		pages.GET(pattern(router.RouteLogin), s.getLoginPage)
		pages.GET(pattern(router.RouteRegister), s.getRegisterPage)
		pages.GET(pattern(router.RouteDashboard), s.getHomePage) // always redirected
		pages.GET(pattern(router.RouteDashboardPosts), s.getDashboardPostsPage)
		pages.GET(pattern(router.RouteDashboardCategories), s.getDashboardCategoriesPage)
		pages.GET(pattern(router.RouteDashboardTags), s.getDashboardTagsPage)
	}

	// Form submissions are guarded by the route of the page they belong to
	forms := engine.Group("")
	forms.Use(s.CSRFMiddleware())
	{
		forms.POST(pattern(router.RoutePostDetail)+"/comments", s.postComment)

		forms.POST(pattern(router.RouteLogin), s.GuardRoute(router.RouteLogin), s.LimitAttempts(), s.postLogin)
		forms.POST(pattern(router.RouteRegister), s.GuardRoute(router.RouteRegister), s.LimitAttempts(), s.postRegister)
		forms.POST("/logout", s.postLogout)

		dashboardPosts := pattern(router.RouteDashboardPosts)
		forms.POST(dashboardPosts, s.GuardRoute(router.RouteDashboardPosts), s.postDashboardPost)
		forms.POST(dashboardPosts+"/:id/status", s.GuardRoute(router.RouteDashboardPosts), s.postDashboardPostStatus)
		forms.POST(dashboardPosts+"/:id/delete", s.GuardRoute(router.RouteDashboardPosts), s.postDashboardPostDelete)

		dashboardCategories := pattern(router.RouteDashboardCategories)
		forms.POST(dashboardCategories, s.GuardRoute(router.RouteDashboardCategories), s.postDashboardCategory)
		forms.POST(dashboardCategories+"/:id/delete", s.GuardRoute(router.RouteDashboardCategories), s.postDashboardCategoryDelete)

		dashboardTags := pattern(router.RouteDashboardTags)
		forms.POST(dashboardTags, s.GuardRoute(router.RouteDashboardTags), s.postDashboardTag)
		forms.POST(dashboardTags+"/:id/delete", s.GuardRoute(router.RouteDashboardTags), s.postDashboardTagDelete)
	}

	api := engine.Group("/api")
	api.Use(cors.New(s.corsConfig()))
	{
		api.GET("/health", s.healthHandler)
		api.GET("/session", s.getSession)
		api.GET("/session/events", s.getSessionEvents)
		api.POST("/session/refresh", s.postSessionRefresh)
		api.GET("/logs", s.GuardRoute(router.RouteDashboard), s.getLogs)

		// Preflight requests are answered by the cors middleware
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	}

	engine.NoRoute(func(c *gin.Context) {
		s.getErrorPage(c, http.StatusNotFound, "Page not found")
	})
}

func (s *Server) corsConfig() cors.Config {
	cfg := s.App.Config.Server.Cors

	allowedOrigins := append([]string{s.App.Config.GetLocalServerURL()}, cfg.AllowedOrigins...)

	logrus.WithFields(logrus.Fields{
		"allowedOrigins": allowedOrigins,
	}).Debugln("CORS configuration")

	return cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     append([]string{"Origin", "Accept"}, cfg.AllowedHeaders...),
		AllowCredentials: false,
		AllowWildcard:    true,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}
}

func getSessionStore(secret string) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400, // 1 day
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func (s *Server) getStyle(c *gin.Context) {
	data, err := staticFiles.ReadFile("static/styles.css")
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", data)
}

func canAcceptHtml(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
