// Package routing defines the route registry for Shotwall. Handlers declare
// their routes as plain data -- (path, methods, name, handler selector)
// tuples -- independent of server construction order. The registry performs
// no dispatch itself: it is inert until bound to a concrete handler owner
// and applied to a live Echo instance.
//
// Binding is pure: Bind never mutates the registry, so the same table can be
// bound to multiple owners (e.g., one per test) without interference.
package routing

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Entry describes one route before it is bound to a handler owner. The
// Handler field selects a method from the owner rather than holding a closed
// handler, which keeps the table declarable at package init time.
type Entry[T any] struct {
	// Name is an optional route name used for logging and reverse lookup.
	Name string

	// Path is the Echo route path (e.g., "/images", "/files/*").
	Path string

	// Methods lists the allowed HTTP methods. Empty means GET.
	Methods []string

	// Handler selects the handler from a bound owner.
	Handler func(T) echo.HandlerFunc

	// Middleware is applied to this route only (e.g., rate limiting).
	Middleware []echo.MiddlewareFunc
}

// Registry is an ordered collection of route entries for handlers owned by T.
type Registry[T any] struct {
	entries []Entry[T]
}

// New creates a registry from an explicit ordered table of entries.
func New[T any](entries ...Entry[T]) *Registry[T] {
	r := &Registry[T]{entries: make([]Entry[T], len(entries))}
	copy(r.entries, entries)
	return r
}

// Add appends an entry. Intended for table construction, before any Bind.
func (r *Registry[T]) Add(e Entry[T]) {
	r.entries = append(r.entries, e)
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Bind materializes every entry against a concrete owner, returning a new
// immutable view. The registry itself is left untouched: binding the same
// registry to two owners produces two independent route sets.
func (r *Registry[T]) Bind(owner T) Bound {
	routes := make([]Route, 0, len(r.entries))
	for _, e := range r.entries {
		methods := e.Methods
		if len(methods) == 0 {
			methods = []string{http.MethodGet}
		}
		routes = append(routes, Route{
			Name:       e.Name,
			Path:       e.Path,
			Methods:    methods,
			Handler:    e.Handler(owner),
			Middleware: e.Middleware,
		})
	}
	return Bound{routes: routes}
}

// Route is a single materialized route: concrete handler, ready to register.
type Route struct {
	Name       string
	Path       string
	Methods    []string
	Handler    echo.HandlerFunc
	Middleware []echo.MiddlewareFunc
}

// Bound is an immutable set of materialized routes.
type Bound struct {
	routes []Route
}

// Routes returns the materialized routes in declaration order.
func (b Bound) Routes() []Route {
	out := make([]Route, len(b.routes))
	copy(out, b.routes)
	return out
}

// Apply registers every (method, path) pair on the given Echo instance.
// Returns an error for entries with an unsupported HTTP method so wiring
// mistakes surface at startup rather than as silent 404s.
func (b Bound) Apply(e *echo.Echo) error {
	for _, rt := range b.routes {
		for _, method := range rt.Methods {
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
				http.MethodDelete, http.MethodHead, http.MethodOptions:
				route := e.Add(method, rt.Path, rt.Handler, rt.Middleware...)
				if rt.Name != "" {
					route.Name = rt.Name
				}
			default:
				return fmt.Errorf("route %q: unsupported method %q", rt.Path, method)
			}
		}
	}
	return nil
}
