package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shotwall/shotwall/internal/authz"
	"github.com/shotwall/shotwall/internal/gallery"
	"github.com/shotwall/shotwall/internal/identity"
	"github.com/shotwall/shotwall/internal/session"
	"github.com/shotwall/shotwall/internal/web"
)

// RegisterRoutes constructs the gallery's services and binds the whole HTTP
// surface onto the server. This is the single place where all routes are
// aggregated.
func (a *App) RegisterRoutes() error {
	cfg := a.Config

	store := gallery.NewStore(cfg.DataDir, cfg.Upload.ThumbSize, cfg.Upload.Workers)

	whitelist, err := authz.NewWhitelist(cfg.UploadNetworks)
	if err != nil {
		return err
	}

	// Record lookups are cached per identity; IP resolution stays uncached
	// so a device can be re-pointed without a server restart.
	resolver := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.Timeout)
	cache := identity.NewCache(resolver)
	gate := authz.NewUploadGate(whitelist, resolver)

	sessions := session.NewService(cfg.CredentialsFile, a.Redis, cfg.Session.TTL)

	// Every request resolves its session cookie; individual handlers decide
	// what an absent session means.
	a.Echo.Use(session.Load(sessions))

	handler := web.NewHandler(cfg, store, cache, gate, sessions)
	if err := web.Routes().Bind(handler).Apply(a.Echo); err != nil {
		return err
	}

	// Health check endpoint for container health monitoring. Reports the
	// session store's reachability; the image store is plain filesystem.
	a.Echo.GET("/healthz", func(c echo.Context) error {
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return nil
}
