package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/desk/internal/config"
	"github.com/inkpress/desk/internal/router"
	"github.com/inkpress/desk/internal/session"
	"github.com/inkpress/desk/internal/storage"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"token": "fresh-token",
			"user":  gin.H{"id": 1, "username": "alice"},
		})
	})
	engine.GET("/api/me", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer fresh-token" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": 1, "username": "alice"}})
	})

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func testConfig(endpoint string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.Endpoint = endpoint
	return cfg
}

func TestApp_LoginNavigateLogout(t *testing.T) {
	server := newBackend(t)
	backing := storage.NewMemoryStorage()

	application, err := NewWithStorage(testConfig(server.URL), backing)
	require.NoError(t, err)
	defer application.Close()

	ctx := context.Background()

	nav, err := application.Router.Navigate(ctx, "/dashboard/tags")
	require.NoError(t, err)
	assert.Equal(t, router.RouteLogin, nav.Match.Name)
	assert.True(t, application.Session.Initialized())

	_, err = application.Session.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	nav, err = application.Router.Navigate(ctx, "/dashboard/tags")
	require.NoError(t, err)
	assert.Equal(t, router.RouteDashboardTags, nav.Match.Name)

	// The bearer credential now flows through the client
	user, err := application.Client.FetchProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	application.Session.Logout()

	nav, err = application.Router.Navigate(ctx, "/dashboard/tags")
	require.NoError(t, err)
	assert.Equal(t, router.RouteLogin, nav.Match.Name)

	_, ok := backing.Get(session.TokenStorageKey)
	assert.False(t, ok)
}

func TestApp_RestartWithExpiredCredential(t *testing.T) {
	server := newBackend(t)
	dir := t.TempDir()

	cfg := testConfig(server.URL)
	cfg.Storage.Driver = string(storage.DriverFile)
	cfg.Storage.Path = dir

	first, err := New(cfg)
	require.NoError(t, err)

	backing, err := storage.NewFileStorage(dir, cfg.GetAPIHostname())
	require.NoError(t, err)
	require.NoError(t, backing.Set(session.TokenStorageKey, "stale-token"))

	first.Initialize(context.Background())

	assert.True(t, first.Session.Initialized())
	assert.False(t, first.Session.Authenticated())

	_, ok := backing.Get(session.TokenStorageKey)
	assert.False(t, ok)

	nav, err := first.Router.Navigate(context.Background(), "/login")
	require.NoError(t, err)
	assert.Equal(t, router.RouteLogin, nav.Match.Name)
	assert.False(t, nav.Redirected())
}

func TestApp_RestoresValidCredential(t *testing.T) {
	server := newBackend(t)
	backing := storage.NewMemoryStorage()
	require.NoError(t, backing.Set(session.TokenStorageKey, "fresh-token"))

	application, err := NewWithStorage(testConfig(server.URL), backing)
	require.NoError(t, err)

	nav, err := application.Router.Navigate(context.Background(), "/register")
	require.NoError(t, err)
	assert.Equal(t, router.RouteHome, nav.Match.Name)
	assert.Equal(t, router.RedirectHome, nav.Decision.Outcome)
	assert.Equal(t, "alice", application.Session.State().Identity.Username)
}

func TestApp_UnknownStorageDriver(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Storage.Driver = "etcd"

	_, err := New(cfg)
	assert.Error(t, err)
}
