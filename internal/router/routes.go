// Package router maps navigation targets to named routes and decides, through
// the session, whether a transition may proceed.
package router

// Route names of the default table.
const (
	RouteHome                = "home"
	RoutePostDetail          = "post-detail"
	RouteCategoryPosts       = "category-posts"
	RouteTagPosts            = "tag-posts"
	RouteLogin               = "login"
	RouteRegister            = "register"
	RouteDashboard           = "dashboard"
	RouteDashboardPosts      = "dashboard-posts"
	RouteDashboardCategories = "dashboard-categories"
	RouteDashboardTags       = "dashboard-tags"
)

// Meta carries the access flags of a route. A route with neither flag is
// open to everyone.
type Meta struct {
	RequiresAuth bool `json:"requiresAuth,omitempty" yaml:"requires_auth,omitempty"`
	GuestOnly    bool `json:"guestOnly,omitempty" yaml:"guest_only,omitempty"`
}

func (m Meta) merge(parent Meta) Meta {
	return Meta{
		RequiresAuth: m.RequiresAuth || parent.RequiresAuth,
		GuestOnly:    m.GuestOnly || parent.GuestOnly,
	}
}

// Route is a node of the route table. Child paths are relative to the parent;
// an empty child path matches the parent path itself. Redirect names the route
// a match is forwarded to.
type Route struct {
	Name     string
	Path     string
	Meta     Meta
	Redirect string
	Children []Route
}

// DefaultRoutes is the route table of the desk console and CLI.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/"},
		{Name: RoutePostDetail, Path: "/posts/:slug"},
		{Name: RouteCategoryPosts, Path: "/categories/:slug"},
		{Name: RouteTagPosts, Path: "/tags/:slug"},
		{Name: RouteLogin, Path: "/login", Meta: Meta{GuestOnly: true}},
		{Name: RouteRegister, Path: "/register", Meta: Meta{GuestOnly: true}},
		{
			Path: "/dashboard",
			Meta: Meta{RequiresAuth: true},
			Children: []Route{
				{Name: RouteDashboard, Path: "", Redirect: RouteDashboardPosts},
				{Name: RouteDashboardPosts, Path: "posts"},
				{Name: RouteDashboardCategories, Path: "categories"},
				{Name: RouteDashboardTags, Path: "tags"},
			},
		},
	}
}
