// Package app is the application bootstrap and dependency injection root.
// It creates and holds the shared infrastructure (Redis client, Echo
// instance) and wires the gallery's handlers onto the server.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/shotwall/shotwall/internal/apperror"
	"github.com/shotwall/shotwall/internal/config"
	"github.com/shotwall/shotwall/internal/middleware"
)

// App holds the shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Redis is the Redis client backing the session store.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP. Critical here: the upload whitelist and rate limiting both
	// key off the peer address, and a forged X-Forwarded-For from an
	// untrusted peer must never substitute for it.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config: cfg,
		Redis:  rdb,
		Echo:   e,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (CSRF) runs last.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from everything else.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- method, path, status, latency per request.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options.
	a.Echo.Use(middleware.SecurityHeaders())

	// CSRF -- double-submit cookie on state-changing requests. The upload
	// endpoint is skipped: camera devices POST without cookies and are
	// gated by the network whitelist instead.
	a.Echo.Use(middleware.CSRF("/upload"))
}

// Start begins listening on the configured port. Blocks until the server
// stops.
func (a *App) Start() error {
	return a.Echo.Start(fmt.Sprintf(":%d", a.Config.Port))
}

// jsonPaths are the endpoints whose clients consume JSON. Everything else on
// the surface is a browser page.
var jsonPaths = map[string]bool{
	"/dirs":         true,
	"/images":       true,
	"/last-uploads": true,
	"/healthz":      true,
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to HTTP responses: JSON for the listing endpoints, a /login
// redirect for unauthorized browser requests, and a plain status page
// otherwise. The upload endpoint is special-cased to the device protocol,
// which expects a parseable status body on every outcome.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		} else {
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	path := c.Request().URL.Path

	// Devices parse the upload response body, not the status code.
	if path == "/upload" {
		c.JSON(http.StatusOK, map[string]string{"status": "FAIL"})
		return
	}

	if jsonPaths[path] || strings.HasPrefix(path, "/files/") {
		c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
		return
	}

	// Browser 401 -- redirect to the login page.
	if code == http.StatusUnauthorized {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	c.String(code, fmt.Sprintf("%d %s", code, message))
}
