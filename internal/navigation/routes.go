package navigation

// Meta flags a route's access requirements.
type Meta struct {
	RequiresAuth bool
	Guest        bool
}

// Route is a navigable path. A route with Redirect set is a static redirect
// record and has no view of its own.
type Route struct {
	Path     string
	Name     string
	Meta     Meta
	Redirect string
}

// Named route targets used by the guard.
const (
	LoginRoute   = "login"
	LandingRoute = "dashboard"
)

// DefaultRoutes returns the application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Redirect: "/home"},
		{Path: "/home", Name: "home", Meta: Meta{RequiresAuth: true}},
		{Path: "/login", Name: LoginRoute, Meta: Meta{Guest: true}},
		{Path: "/register", Name: "register", Meta: Meta{Guest: true}},
		{Path: "/dashboard", Name: LandingRoute, Meta: Meta{RequiresAuth: true}},
	}
}
