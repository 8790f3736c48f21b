// Package nav is the routing state machine: it decides whether a URL renders
// as a full page or as a modal stacked over a remembered background location,
// and gates protected destinations on session state. It owns no state of its
// own — transitions are pure functions over the two-slot navigation record.
package nav

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Route string

const (
	RouteHome           Route = "home"
	RouteLogin          Route = "login"
	RouteRegister       Route = "register"
	RouteForgotPassword Route = "forgot-password"
	RouteResetPassword  Route = "reset-password"
	RouteProfile        Route = "profile"
	RouteProfileOrders  Route = "profile-orders"
	RouteProfileOrder   Route = "profile-order"
	RouteFeed           Route = "feed"
	RouteFeedOrder      Route = "feed-order"
	RouteIngredient     Route = "ingredient"
	RouteNotFound       Route = "not-found"
)

// Record is the two-slot navigation state: the location that renders and,
// when a modal is open, the location remembered behind it.
type Record struct {
	Location   string
	Background string
}

func (r Record) IsOverlay() bool {
	return r.Background != ""
}

// Close leaves the overlay, navigating back to the remembered background.
// Closing a non-overlay record is a no-op.
func (r Record) Close() Record {
	if !r.IsOverlay() {
		return r
	}
	return Record{Location: r.Background}
}

// Match is a resolved location: the route plus its URL parameters.
type Match struct {
	Route  Route
	Params map[string]string
}

// Router matches paths against the application route table. The chi tree does
// the pattern matching; no HTTP server is involved.
type Router struct {
	mux      *chi.Mux
	patterns map[string]Route
}

var overlayEligible = map[Route]bool{
	RouteIngredient:   true,
	RouteFeedOrder:    true,
	RouteProfileOrder: true,
}

var protected = map[Route]bool{
	RouteProfile:       true,
	RouteProfileOrders: true,
	RouteProfileOrder:  true,
}

var guestOnly = map[Route]bool{
	RouteLogin:          true,
	RouteRegister:       true,
	RouteForgotPassword: true,
	RouteResetPassword:  true,
}

func NewRouter() *Router {
	r := &Router{
		mux:      chi.NewRouter(),
		patterns: make(map[string]Route),
	}

	noop := func(http.ResponseWriter, *http.Request) {}
	register := func(pattern string, route Route) {
		r.mux.Get(pattern, noop)
		r.patterns[pattern] = route
	}

	register("/", RouteHome)
	register("/login", RouteLogin)
	register("/register", RouteRegister)
	register("/forgot-password", RouteForgotPassword)
	register("/reset-password", RouteResetPassword)
	register("/profile", RouteProfile)
	register("/profile/orders", RouteProfileOrders)
	register("/profile/orders/{number}", RouteProfileOrder)
	register("/feed", RouteFeed)
	register("/feed/{number}", RouteFeedOrder)
	register("/ingredients/{id}", RouteIngredient)

	return r
}

// Resolve matches a path against the route table. Unknown paths resolve to
// RouteNotFound — the catch-all page, not an error.
func (r *Router) Resolve(path string) Match {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Match{Route: RouteNotFound}
	}

	route, ok := r.patterns[rctx.RoutePattern()]
	if !ok {
		return Match{Route: RouteNotFound}
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return Match{Route: route, Params: params}
}

func (r *Router) OverlayEligible(path string) bool {
	return overlayEligible[r.Resolve(path).Route]
}

// Navigate is the transition function of the overlay state machine.
//
// Moving to an overlay-eligible path from somewhere records the left location
// as background (an already-open overlay keeps its original background, so
// stacked modals all close back to the same page). Entering an
// overlay-eligible path directly — deep link or refresh — has no background
// and renders as a full page.
func (r *Router) Navigate(prev Record, to string) Record {
	if !r.OverlayEligible(to) {
		return Record{Location: to}
	}
	if prev.Location == "" {
		return Record{Location: to}
	}

	background := prev.Location
	if prev.Background != "" {
		background = prev.Background
	}
	return Record{Location: to, Background: background}
}

type Shape int

const (
	ShapeFullPage Shape = iota
	ShapeModal
)

// Render chooses the render shape for a record: overlay-eligible locations
// with a remembered background render as a modal, everything else as a full
// page.
func (r *Router) Render(rec Record) (Match, Shape) {
	m := r.Resolve(rec.Location)
	if rec.IsOverlay() && overlayEligible[m.Route] {
		return m, ShapeModal
	}
	return m, ShapeFullPage
}

// AuthState is the read-only view of the session container the guards need.
type AuthState struct {
	Checked       bool
	Authenticated bool
}

type Access int

const (
	// AccessPending suspends the rendering decision until the
	// authentication-checked latch closes.
	AccessPending Access = iota
	AccessGranted
	AccessRedirect
)

// Decision is the outcome of a route guard. On redirect, From preserves the
// originally intended destination for the post-login return.
type Decision struct {
	Access Access
	Target string
	From   string
}

// Authorize gates a destination on session state. Protected routes redirect
// unauthenticated users to /login; guest-only routes redirect authenticated
// users home.
func (r *Router) Authorize(path string, auth AuthState) Decision {
	route := r.Resolve(path).Route

	switch {
	case protected[route]:
		if !auth.Checked {
			return Decision{Access: AccessPending}
		}
		if !auth.Authenticated {
			return Decision{Access: AccessRedirect, Target: "/login", From: path}
		}
	case guestOnly[route]:
		if !auth.Checked {
			return Decision{Access: AccessPending}
		}
		if auth.Authenticated {
			return Decision{Access: AccessRedirect, Target: "/"}
		}
	}
	return Decision{Access: AccessGranted}
}
