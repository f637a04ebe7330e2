package web

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shotwall/shotwall/internal/middleware"
	"github.com/shotwall/shotwall/internal/routing"
)

// Routes returns the route table for the gallery surface. The table is plain
// data: it is built fresh on every call and binds to any *Handler, so tests
// can materialize it against their own handler instances without touching a
// shared registry.
//
// POST endpoints exposed to credential guessing or device floods are rate
// limited per IP.
func Routes() *routing.Registry[*Handler] {
	return routing.New(
		routing.Entry[*Handler]{
			Name:    "index",
			Path:    "/",
			Handler: func(h *Handler) echo.HandlerFunc { return h.Index },
		},
		routing.Entry[*Handler]{
			Name:    "login",
			Path:    "/login",
			Methods: []string{http.MethodGet, http.MethodPost},
			Handler: func(h *Handler) echo.HandlerFunc { return h.loginDispatch },
			Middleware: []echo.MiddlewareFunc{
				middleware.RateLimit(10, time.Minute),
			},
		},
		routing.Entry[*Handler]{
			Name:    "logout",
			Path:    "/logout",
			Handler: func(h *Handler) echo.HandlerFunc { return h.Logout },
		},
		routing.Entry[*Handler]{
			Name:    "dirs",
			Path:    "/dirs",
			Handler: func(h *Handler) echo.HandlerFunc { return h.Dirs },
		},
		routing.Entry[*Handler]{
			Name:    "images",
			Path:    "/images",
			Handler: func(h *Handler) echo.HandlerFunc { return h.Images },
		},
		routing.Entry[*Handler]{
			Name:    "last-uploads",
			Path:    "/last-uploads",
			Handler: func(h *Handler) echo.HandlerFunc { return h.LastUploads },
		},
		routing.Entry[*Handler]{
			Name:    "upload",
			Path:    "/upload",
			Methods: []string{http.MethodPost},
			Handler: func(h *Handler) echo.HandlerFunc { return h.Upload },
			Middleware: []echo.MiddlewareFunc{
				middleware.RateLimit(60, time.Minute),
			},
		},
		routing.Entry[*Handler]{
			Name:    "files",
			Path:    "/files/*",
			Handler: func(h *Handler) echo.HandlerFunc { return h.Files },
		},
	)
}

// loginDispatch splits GET (render form) from POST (process submission) on
// the shared /login path.
func (h *Handler) loginDispatch(c echo.Context) error {
	if c.Request().Method == http.MethodPost {
		return h.Login(c)
	}
	return h.LoginForm(c)
}
