// Package navigation gates route changes on the client's authentication
// state, restoring the session from the server when it is unknown.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/authstore"
)

// MaxRedirects bounds the redirect chain of a single navigation.
const MaxRedirects = 10

var (
	ErrNotFound      = errors.New("navigation: route not found")
	ErrRedirectLoop  = errors.New("navigation: too many redirects")
	ErrUnknownTarget = errors.New("navigation: redirect target not registered")
)

// AuthState is the part of the auth store the guard reads and drives.
type AuthState interface {
	HasUser() bool
	Loading() bool
	IsAuthenticated() bool
	FetchUser(ctx context.Context) authstore.FetchResult
}

// Result describes where a navigation ended.
type Result struct {
	Route Route
	// Path is the final resolved path.
	Path string
	// Redirects lists every path visited before Path, in order.
	Redirects []string
}

// Redirected reports whether the navigation ended somewhere other than the
// requested path.
func (r Result) Redirected() bool {
	return len(r.Redirects) > 0
}

type Router struct {
	state  AuthState
	byPath map[string]Route
	byName map[string]Route
	log    zerolog.Logger
}

// New builds a router over routes. Login and landing routes must be present
// by name.
func New(state AuthState, routes []Route, log zerolog.Logger) (*Router, error) {
	r := &Router{
		state:  state,
		byPath: make(map[string]Route, len(routes)),
		byName: make(map[string]Route, len(routes)),
		log:    log.With().Str("component", "navigation").Logger(),
	}
	for _, route := range routes {
		path := normalize(route.Path)
		if _, dup := r.byPath[path]; dup {
			return nil, fmt.Errorf("navigation: duplicate path %q", path)
		}
		route.Path = path
		r.byPath[path] = route
		if route.Name != "" {
			r.byName[route.Name] = route
		}
	}
	for _, name := range []string{LoginRoute, LandingRoute} {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
		}
	}
	return r, nil
}

// Lookup resolves path to its route without running the guard.
func (r *Router) Lookup(path string) (Route, bool) {
	route, ok := r.byPath[normalize(path)]
	return route, ok
}

// Navigate resolves path, following static redirects and guard redirects
// until a route is allowed.
func (r *Router) Navigate(ctx context.Context, path string) (Result, error) {
	current := normalize(path)
	var visited []string

	for hops := 0; ; hops++ {
		if hops > MaxRedirects {
			return Result{Path: current, Redirects: visited}, ErrRedirectLoop
		}

		route, ok := r.byPath[current]
		if !ok {
			return Result{Path: current, Redirects: visited}, fmt.Errorf("%w: %s", ErrNotFound, current)
		}

		next := route.Redirect
		if next == "" {
			next = r.guard(ctx, route)
		}
		if next == "" {
			r.log.Debug().
				Str("path", current).
				Strs("redirects", visited).
				Msg("navigation allowed")
			return Result{Route: route, Path: current, Redirects: visited}, nil
		}

		visited = append(visited, current)
		current = normalize(next)
	}
}

// guard returns the path to redirect to, or "" to allow the route.
func (r *Router) guard(ctx context.Context, to Route) string {
	if !r.state.HasUser() && !r.state.Loading() && !to.Meta.Guest {
		res := r.state.FetchUser(ctx)
		r.log.Debug().
			Str("path", to.Path).
			Stringer("outcome", res.Outcome).
			Msg("session restore before navigation")
	}

	authenticated := r.state.IsAuthenticated()
	switch {
	case to.Meta.RequiresAuth && !authenticated:
		return r.byName[LoginRoute].Path
	case to.Meta.Guest && authenticated:
		return r.byName[LandingRoute].Path
	default:
		return ""
	}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
