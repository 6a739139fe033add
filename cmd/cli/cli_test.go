package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/desk/internal/app"
	"github.com/inkpress/desk/internal/config"
	"github.com/inkpress/desk/internal/router"
	"github.com/inkpress/desk/internal/storage"
)

func newTestBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"token": "cli-token",
			"user":  gin.H{"id": 1, "username": "alice"},
		})
	})
	engine.GET("/api/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": 1, "username": "alice"}})
	})

	backend := httptest.NewServer(engine)
	t.Cleanup(backend.Close)
	return backend.URL
}

func useTestApplication(t *testing.T) {
	t.Helper()

	cfg = config.DefaultConfig()
	cfg.API.Endpoint = newTestBackend(t)

	var err error
	application, err = app.NewWithStorage(cfg, storage.NewMemoryStorage())
	require.NoError(t, err)

	t.Cleanup(func() {
		closeApplication()
		cfg = nil
	})
}

func commandFor(route string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	if len(route) > 0 {
		cmd.Annotations = map[string]string{routeAnnotation: route}
	}
	cmd.SetContext(context.Background())
	return cmd
}

func TestGuardCommand(t *testing.T) {
	useTestApplication(t)

	// Tests do not run on a terminal, so no prompt is shown
	require.False(t, isInteractive())

	assert.NoError(t, guardCommand(commandFor("")))
	assert.NoError(t, guardCommand(commandFor(router.RouteHome)))
	assert.NoError(t, guardCommand(commandFor(router.RoutePostDetail)))
	assert.NoError(t, guardCommand(commandFor(router.RouteLogin)))
	assert.ErrorIs(t, guardCommand(commandFor(router.RouteDashboardPosts)), ErrLoginRequired)
	assert.True(t, application.Session.Initialized())

	_, err := application.Session.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.NoError(t, guardCommand(commandFor(router.RouteDashboardPosts)))
	assert.NoError(t, guardCommand(commandFor(router.RouteDashboardTags)))
	assert.ErrorIs(t, guardCommand(commandFor(router.RouteLogin)), errAlreadySignedIn)
	assert.ErrorIs(t, guardCommand(commandFor(router.RouteRegister)), errAlreadySignedIn)
}

// closingStorage counts Close calls on top of memory storage.
type closingStorage struct {
	*storage.MemoryStorage
	closed int
}

func (c *closingStorage) Close() error {
	c.closed++
	return nil
}

func TestExecute_ClosesStorageWhenGuardStopsCommand(t *testing.T) {
	endpoint := newTestBackend(t)
	tracked := &closingStorage{MemoryStorage: storage.NewMemoryStorage()}

	newApplication = func(c *config.Config) (*app.App, error) {
		a, err := app.NewWithStorage(c, tracked)
		if err != nil {
			return nil, err
		}
		if _, err := a.Session.Login(context.Background(), "alice", "pw"); err != nil {
			return nil, err
		}
		return a, nil
	}
	t.Cleanup(func() {
		newApplication = app.New
		rootCmd.SetArgs(nil)
		closeApplication()
		cfg = nil
	})

	// Signed in already, so the guest-only login command stops in pre-run
	rootCmd.SetArgs([]string{"login", "--api-endpoint", endpoint})
	require.NoError(t, Execute())

	assert.Equal(t, 1, tracked.closed)
	assert.Nil(t, application)
}

func TestCommandRoutesExist(t *testing.T) {
	table, err := router.NewTable(router.DefaultRoutes())
	require.NoError(t, err)

	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		if name, ok := cmd.Annotations[routeAnnotation]; ok {
			_, found := table.Meta(name)
			assert.True(t, found, "%s is annotated with unknown route %q", cmd.CommandPath(), name)
		}
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}
	walk(rootCmd)
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		value    string
		expected string
		wantErr  bool
	}{
		{"", outputText, false},
		{"text", outputText, false},
		{"JSON", outputJSON, false},
		{"yml", outputYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			cmd.Flags().String("output", tt.value, "")

			format, err := outputFormat(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{72 * time.Hour, "3d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.duration))
	}
}
