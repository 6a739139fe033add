package console

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/desk/internal/app"
	"github.com/inkpress/desk/internal/config"
	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/session"
	"github.com/inkpress/desk/internal/storage"
)

const backendToken = "console-token"

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContentBackend(t *testing.T) *httptest.Server {
	t.Helper()

	engine := gin.New()
	api := engine.Group("/api")

	requireAuth := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+backendToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}

	api.POST("/auth/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username != "alice" || req.Password != "pw" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": backendToken,
			"user":  gin.H{"id": 1, "username": "alice", "displayName": "Alice"},
		})
	})

	api.GET("/me", requireAuth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": 1, "username": "alice", "displayName": "Alice"}})
	})

	api.GET("/me/posts", requireAuth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"data":     []gin.H{{"id": 4, "title": "Draft notes", "slug": "draft-notes", "status": "draft"}},
			"page":     1,
			"pageSize": 10,
			"total":    1,
		})
	})

	api.GET("/posts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"data": []gin.H{{
				"id":     1,
				"title":  "Hello world",
				"slug":   "hello",
				"status": "published",
				"author": gin.H{"id": 1, "username": "alice"},
				"tags":   []gin.H{{"id": 2, "name": "go", "slug": "go"}},
			}},
			"page":     1,
			"pageSize": 10,
			"total":    1,
		})
	})

	api.GET("/posts/slug/:slug", func(c *gin.Context) {
		if c.Param("slug") != "hello" {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"id":      1,
			"title":   "Hello world",
			"slug":    "hello",
			"content": "First post",
			"status":  "published",
			"author":  gin.H{"id": 1, "username": "alice"},
		}})
	})

	api.GET("/posts/:id/comments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []gin.H{{"id": 7, "authorName": "bob", "body": "Nice read"}}})
	})

	api.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []gin.H{{"id": 1, "name": "Engineering", "slug": "engineering"}}})
	})

	api.GET("/tags", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []gin.H{{"id": 2, "name": "golang", "slug": "golang"}}})
	})

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

type consoleHarness struct {
	app    *app.App
	server *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T) *consoleHarness {
	t.Helper()

	backend := newContentBackend(t)

	cfg := config.DefaultConfig()
	cfg.API.Endpoint = backend.URL
	cfg.Server.Secret = "console-test-secret"

	application, err := app.NewWithStorage(cfg, storage.NewMemoryStorage())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	consoleServer, err := NewServer(application)
	require.NoError(t, err)
	t.Cleanup(consoleServer.Stop)

	server := httptest.NewServer(consoleServer.Engine())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &consoleHarness{
		app:    application,
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *consoleHarness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")

	return h.do(t, req)
}

func (h *consoleHarness) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")

	return h.do(t, req)
}

func (h *consoleHarness) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

// csrfToken loads a page and returns the token embedded in its forms.
func (h *consoleHarness) csrfToken(t *testing.T, path string) string {
	t.Helper()

	resp, body := h.get(t, path)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	found := csrfPattern.FindStringSubmatch(body)
	require.Len(t, found, 2, "page %s has no csrf token", path)
	return found[1]
}

func TestConsole_PublicPages(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello world")
	assert.Contains(t, body, "/tags/go")

	resp, body = h.get(t, "/posts/hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "First post")
	assert.Contains(t, body, "Nice read")

	resp, body = h.get(t, "/posts/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Post not found")

	resp, _ = h.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConsole_DashboardRedirectsToLogin(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		path     string
		location string
	}{
		{"/dashboard", "/login?redirect=%2Fdashboard%2Fposts"},
		{"/dashboard/tags", "/login?redirect=%2Fdashboard%2Ftags"},
		{"/dashboard/posts?page=2", "/login?redirect=%2Fdashboard%2Fposts%3Fpage%3D2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, _ := h.get(t, tt.path)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}

	assert.True(t, h.app.Session.Initialized())
}

func TestConsole_LoginFlow(t *testing.T) {
	h := newHarness(t)

	token := h.csrfToken(t, "/login?redirect=%2Fdashboard%2Ftags")

	// Wrong password goes back to the form with the target preserved
	resp, _ := h.postForm(t, "/login", url.Values{
		"csrf_token": {token},
		"username":   {"alice"},
		"password":   {"wrong"},
		"redirect":   {"/dashboard/tags"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Ftags&username=alice", resp.Header.Get("Location"))
	assert.False(t, h.app.Session.Authenticated())

	resp, body := h.get(t, resp.Header.Get("Location"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, session.LoginFailedMessage)

	// Flashes are shown once
	_, body = h.get(t, "/login")
	assert.NotContains(t, body, session.LoginFailedMessage)

	resp, _ = h.postForm(t, "/login", url.Values{
		"csrf_token": {token},
		"username":   {"alice"},
		"password":   {"pw"},
		"redirect":   {"/dashboard/tags"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard/tags", resp.Header.Get("Location"))
	assert.True(t, h.app.Session.Authenticated())

	resp, body = h.get(t, "/dashboard/tags")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "golang")
	assert.Contains(t, body, "Alice")

	resp, body = h.get(t, "/dashboard/posts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Draft notes")
	assert.Contains(t, body, "Engineering")

	// Guest pages send an authenticated author home
	resp, _ = h.get(t, "/login")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestConsole_LoginRejectsOffsiteRedirect(t *testing.T) {
	h := newHarness(t)

	token := h.csrfToken(t, "/login")

	resp, _ := h.postForm(t, "/login", url.Values{
		"csrf_token": {token},
		"username":   {"alice"},
		"password":   {"pw"},
		"redirect":   {"//evil.example.com/phish"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestConsole_FormsRequireCSRF(t *testing.T) {
	h := newHarness(t)

	// Establish a console session first
	h.csrfToken(t, "/login")

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong", "not-the-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := h.postForm(t, "/login", url.Values{
				"csrf_token": {tt.token},
				"username":   {"alice"},
				"password":   {"pw"},
			})
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Contains(t, body, "Forbidden")
		})
	}

	assert.False(t, h.app.Session.Authenticated())
}

func TestConsole_DashboardFormsRequireLogin(t *testing.T) {
	h := newHarness(t)

	token := h.csrfToken(t, "/login")

	resp, _ := h.postForm(t, "/dashboard/tags", url.Values{
		"csrf_token": {token},
		"name":       {"go"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Ftags", resp.Header.Get("Location"))

	_, body := h.get(t, "/login")
	assert.Contains(t, body, "Please log in to continue")
}

func TestConsole_Logout(t *testing.T) {
	h := newHarness(t)

	_, err := h.app.Session.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	token := h.csrfToken(t, "/")

	resp, _ := h.postForm(t, "/logout", url.Values{"csrf_token": {token}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.False(t, h.app.Session.Authenticated())

	_, body := h.get(t, "/")
	assert.Contains(t, body, "You have been logged out")
}

func TestConsole_SessionAPI(t *testing.T) {
	h := newHarness(t)

	fetch := func() SessionResponse {
		resp, body := h.do(t, mustRequest(t, http.MethodGet, h.server.URL+"/api/session"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotContains(t, body, backendToken)

		var response SessionResponse
		require.NoError(t, json.Unmarshal([]byte(body), &response))
		return response
	}

	response := fetch()
	assert.True(t, response.Initialized)
	assert.False(t, response.Authenticated)
	assert.Nil(t, response.User)

	_, err := h.app.Session.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	response = fetch()
	assert.True(t, response.Authenticated)
	require.NotNil(t, response.User)
	assert.Equal(t, "alice", response.User.Username)
	assert.Nil(t, response.ExpiresAt)
}

func TestConsole_HealthAndLogs(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, mustRequest(t, http.MethodGet, h.server.URL+"/api/health"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Positive(t, health.TotalRequests)

	// Logs need a session
	resp, body = h.do(t, mustRequest(t, http.MethodGet, h.server.URL+"/api/logs?limit=5"))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "login required")

	_, err := h.app.Session.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	resp, body = h.do(t, mustRequest(t, http.MethodGet, h.server.URL+"/api/logs?limit=5"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs struct {
		Logs []json.RawMessage `json:"logs"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &logs))
	assert.NotNil(t, logs.Logs)
}

func TestNewSessionResponse(t *testing.T) {
	user := &models.User{ID: 1, Username: "alice"}

	response := newSessionResponse(session.State{
		Credential:  "opaque",
		Identity:    user,
		Initialized: true,
		LastError:   "",
	})
	assert.True(t, response.Authenticated)
	assert.Equal(t, user, response.User)
	assert.Nil(t, response.ExpiresAt)

	response = newSessionResponse(session.State{
		Initialized: true,
		LastError:   session.LoginFailedMessage,
	})
	assert.False(t, response.Authenticated)
	assert.Equal(t, session.LoginFailedMessage, response.Error)
}

func mustRequest(t *testing.T, method string, target string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	return req
}
