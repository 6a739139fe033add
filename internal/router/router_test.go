package router

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	authenticated bool
	initCalls     atomic.Int32
	initialized   atomic.Bool

	// settle, when set, holds initialization until it is closed
	settle chan struct{}
}

func (f *fakeAuth) Initialize(ctx context.Context) {
	f.initCalls.Add(1)
	if f.settle != nil {
		select {
		case <-f.settle:
		case <-ctx.Done():
			return
		}
	}
	f.initialized.Store(true)
}

func (f *fakeAuth) Initialized() bool {
	return f.initialized.Load()
}

func (f *fakeAuth) Authenticated() bool {
	return f.authenticated
}

func defaultTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)
	return table
}

func TestDecide(t *testing.T) {
	protected := Meta{RequiresAuth: true}
	guestOnly := Meta{GuestOnly: true}
	open := Meta{}

	tests := []struct {
		name          string
		meta          Meta
		authenticated bool
		fullPath      string
		expected      Decision
	}{
		{
			name:     "protected route without session",
			meta:     protected,
			fullPath: "/dashboard/posts",
			expected: Decision{Outcome: RedirectLogin, Target: "/login?redirect=%2Fdashboard%2Fposts"},
		},
		{
			name:          "protected route with session",
			meta:          protected,
			authenticated: true,
			fullPath:      "/dashboard/posts",
			expected:      Decision{Outcome: Allow},
		},
		{
			name:     "guest only route without session",
			meta:     guestOnly,
			fullPath: "/login",
			expected: Decision{Outcome: Allow},
		},
		{
			name:          "guest only route with session",
			meta:          guestOnly,
			authenticated: true,
			fullPath:      "/login",
			expected:      Decision{Outcome: RedirectHome, Target: "/"},
		},
		{
			name:     "open route without session",
			meta:     open,
			fullPath: "/posts/hello",
			expected: Decision{Outcome: Allow},
		},
		{
			name:          "open route with session",
			meta:          open,
			authenticated: true,
			fullPath:      "/posts/hello",
			expected:      Decision{Outcome: Allow},
		},
		{
			name:     "query string is kept in the return path",
			meta:     protected,
			fullPath: "/dashboard/posts?page=2",
			expected: Decision{Outcome: RedirectLogin, Target: "/login?redirect=%2Fdashboard%2Fposts%3Fpage%3D2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.meta, tt.authenticated, tt.fullPath))
		})
	}
}

func TestTable_Resolve(t *testing.T) {
	table := defaultTable(t)

	tests := []struct {
		path     string
		name     string
		meta     Meta
		params   map[string]string
		redirect string
	}{
		{path: "/", name: RouteHome, params: map[string]string{}},
		{path: "/posts/hello-world", name: RoutePostDetail, params: map[string]string{"slug": "hello-world"}},
		{path: "/posts/caf%C3%A9", name: RoutePostDetail, params: map[string]string{"slug": "café"}},
		{path: "/categories/go", name: RouteCategoryPosts, params: map[string]string{"slug": "go"}},
		{path: "/tags/testing/", name: RouteTagPosts, params: map[string]string{"slug": "testing"}},
		{path: "/login", name: RouteLogin, meta: Meta{GuestOnly: true}, params: map[string]string{}},
		{path: "/register", name: RouteRegister, meta: Meta{GuestOnly: true}, params: map[string]string{}},
		{path: "/dashboard", name: RouteDashboard, meta: Meta{RequiresAuth: true}, params: map[string]string{}, redirect: RouteDashboardPosts},
		{path: "/dashboard/posts", name: RouteDashboardPosts, meta: Meta{RequiresAuth: true}, params: map[string]string{}},
		{path: "/dashboard/categories", name: RouteDashboardCategories, meta: Meta{RequiresAuth: true}, params: map[string]string{}},
		{path: "/dashboard/tags?page=3", name: RouteDashboardTags, meta: Meta{RequiresAuth: true}, params: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			match, err := table.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.name, match.Name)
			assert.Equal(t, tt.meta, match.Meta)
			assert.Equal(t, tt.params, match.Params)
			assert.Equal(t, tt.redirect, match.Redirect)
			assert.Equal(t, tt.path, match.FullPath)
		})
	}

	match, err := table.Resolve("/dashboard/tags?page=3")
	require.NoError(t, err)
	assert.Equal(t, "3", match.Query.Get("page"))

	for _, path := range []string{"/nope", "/posts", "/posts/a/b", "https://evil.example.com/", "//evil.example.com/login"} {
		_, err := table.Resolve(path)
		assert.ErrorIs(t, err, ErrNotFound, path)
	}
}

func TestTable_PathFor(t *testing.T) {
	table := defaultTable(t)

	path, err := table.PathFor(RouteHome, nil)
	require.NoError(t, err)
	assert.Equal(t, "/", path)

	path, err = table.PathFor(RouteDashboardTags, nil)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/tags", path)

	path, err = table.PathFor(RoutePostDetail, map[string]string{"slug": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/posts/a%20b", path)

	_, err = table.PathFor(RoutePostDetail, nil)
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = table.PathFor("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable([]Route{
		{Name: "a", Path: "/a"},
		{Name: "a", Path: "/b"},
	})
	assert.Error(t, err)

	_, err = NewTable([]Route{
		{Name: "a", Path: "/a", Redirect: "missing"},
	})
	assert.Error(t, err)
}

func TestGuard_CheckInitializesFirst(t *testing.T) {
	table := defaultTable(t)
	auth := &fakeAuth{}
	guard := NewGuard(auth)

	match, err := table.Resolve("/dashboard/tags")
	require.NoError(t, err)

	decision, err := guard.Check(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision.Outcome)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Ftags", decision.Target)
	assert.Equal(t, int32(1), auth.initCalls.Load())
}

func TestGuard_CheckWithoutSettledSession(t *testing.T) {
	table := defaultTable(t)
	auth := &fakeAuth{authenticated: true, settle: make(chan struct{})}
	guard := NewGuard(auth)

	match, err := table.Resolve("/dashboard/posts")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	decision, err := guard.Check(ctx, match)
	assert.ErrorIs(t, err, ErrNotSettled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEqual(t, RedirectLogin, decision.Outcome)
	assert.Empty(t, decision.Target)

	_, err = New(table, auth).Navigate(ctx, "/dashboard/posts")
	assert.ErrorIs(t, err, ErrNotSettled)

	close(auth.settle)

	decision, err = guard.Check(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Outcome)
}

func TestRouter_Navigate(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authenticated bool
		route         string
		redirects     []string
		outcome       Outcome
	}{
		{
			name:      "dashboard without session lands on login",
			path:      "/dashboard",
			route:     RouteLogin,
			redirects: []string{"/dashboard", "/dashboard/posts"},
			outcome:   RedirectLogin,
		},
		{
			name:          "dashboard with session lands on posts",
			path:          "/dashboard",
			authenticated: true,
			route:         RouteDashboardPosts,
			redirects:     []string{"/dashboard"},
			outcome:       Allow,
		},
		{
			name:          "login with session goes home",
			path:          "/login?redirect=%2Fdashboard",
			authenticated: true,
			route:         RouteHome,
			redirects:     []string{"/login?redirect=%2Fdashboard"},
			outcome:       RedirectHome,
		},
		{
			name:    "public post",
			path:    "/posts/hello",
			route:   RoutePostDetail,
			outcome: Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{authenticated: tt.authenticated}
			router := New(defaultTable(t), auth)

			nav, err := router.Navigate(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.route, nav.Match.Name)
			assert.Equal(t, tt.redirects, nav.Redirects)
			assert.Equal(t, tt.outcome, nav.Decision.Outcome)
			assert.Positive(t, auth.initCalls.Load())
		})
	}
}

func TestRouter_NavigateReturnPath(t *testing.T) {
	router := New(defaultTable(t), &fakeAuth{})

	nav, err := router.Navigate(context.Background(), "/dashboard/categories?page=2")
	require.NoError(t, err)
	require.Equal(t, RouteLogin, nav.Match.Name)
	assert.Equal(t, "/dashboard/categories?page=2", nav.Match.Query.Get(RedirectParam))
}

func TestRouter_RedirectLoop(t *testing.T) {
	table, err := NewTable([]Route{
		{Name: "a", Path: "/a", Redirect: "b"},
		{Name: "b", Path: "/b", Redirect: "a"},
	})
	require.NoError(t, err)

	_, err = New(table, &fakeAuth{}).Navigate(context.Background(), "/a")
	assert.ErrorIs(t, err, ErrRedirectLoop)
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                          "/",
		"/dashboard/posts":          "/dashboard/posts",
		"/dashboard/posts?page=2":   "/dashboard/posts?page=2",
		"dashboard":                 "/",
		"//evil.example.com":        "/",
		"/\\evil.example.com":       "/",
		"https://evil.example.com/": "/",
		"javascript:alert(1)":       "/",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, SafeRedirect(input), input)
	}
}
