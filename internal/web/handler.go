// Package web implements the HTTP surface of the gallery: login and browse
// pages, the JSON listing endpoints, the device upload endpoint, and gated
// static serving of the stored images. Handlers are thin -- authorization
// decisions live in internal/authz, storage in internal/gallery.
package web

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shotwall/shotwall/internal/apperror"
	"github.com/shotwall/shotwall/internal/authz"
	"github.com/shotwall/shotwall/internal/config"
	"github.com/shotwall/shotwall/internal/gallery"
	"github.com/shotwall/shotwall/internal/identity"
	"github.com/shotwall/shotwall/internal/middleware"
	"github.com/shotwall/shotwall/internal/sanitize"
	"github.com/shotwall/shotwall/internal/session"
)

// filesPrefix is where stored images are served from. Image listings return
// filenames already prefixed with their bucket path under it.
const filesPrefix = "/files/"

// uploadStatus is the device-facing upload response. Camera firmware parses
// the body, not the status code, so both outcomes ship as HTTP 200.
type uploadStatus struct {
	Status string `json:"status"`
}

var (
	statusOK   = uploadStatus{Status: "OK"}
	statusFail = uploadStatus{Status: "FAIL"}
)

// Dir is one visible folder in the /dirs response.
type Dir struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Group       string `json:"group"`
	AvatarURL   string `json:"avatar_url"`
}

// Handler owns the request handlers for the whole HTTP surface.
type Handler struct {
	cfg      *config.Config
	store    *gallery.Store
	cache    *identity.Cache
	gate     *authz.UploadGate
	sessions session.Service
}

// NewHandler wires the handler set with its dependencies.
func NewHandler(cfg *config.Config, store *gallery.Store, cache *identity.Cache, gate *authz.UploadGate, sessions session.Service) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		gate:     gate,
		sessions: sessions,
	}
}

// Index renders the gallery page (GET /). Unauthenticated visitors are sent
// to the login page.
func (h *Handler) Index(c echo.Context) error {
	sess := session.Get(c)
	if sess == nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	return render(c, http.StatusOK, "index.html", indexData{
		Username: sess.Username,
	})
}

// LoginForm renders the login page (GET /login). An already authenticated
// visitor is sent straight to the gallery.
func (h *Handler) LoginForm(c echo.Context) error {
	if session.Get(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return render(c, http.StatusOK, "login.html", loginData{
		CSRFToken: middleware.GetCSRFToken(c),
	})
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return render(c, http.StatusOK, "login.html", loginData{
			CSRFToken: middleware.GetCSRFToken(c),
			Username:  username,
			Error:     "username and password are required",
		})
	}

	token, err := h.sessions.Login(c.Request().Context(), username, password)
	if err != nil {
		return render(c, http.StatusOK, "login.html", loginData{
			CSRFToken: middleware.GetCSRFToken(c),
			Username:  username,
			Error:     apperror.SafeMessage(err),
		})
	}

	session.SetCookie(c, token)
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout destroys the session and clears the cookie (GET /logout).
func (h *Handler) Logout(c echo.Context) error {
	if token := session.Token(c); token != "" {
		_ = h.sessions.Destroy(c.Request().Context(), token)
	}
	session.ClearCookie(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Dirs lists the folders visible to the session (GET /dirs). Folders the
// browse decision denies are filtered out, not errored on.
func (h *Handler) Dirs(c echo.Context) error {
	sess := session.Get(c)
	if sess == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	ctx := c.Request().Context()
	groups := h.store.Groups()

	visible := make([]Dir, 0)
	for _, name := range h.store.Folders() {
		rec, resolved := h.cache.Resolve(ctx, name)

		group := ""
		if resolved {
			group = rec.Group
		}
		if !authz.BrowsePermitted(sess.Allowed, name, group) {
			continue
		}

		dir := Dir{Name: name, DisplayName: name, Group: group}
		if meta, ok := h.store.Meta(name); ok {
			if meta.DisplayName != "" {
				dir.DisplayName = meta.DisplayName
			}
			dir.AvatarURL = meta.AvatarURL
		}
		// The directory record wins over the on-disk stub.
		if resolved {
			dir.DisplayName = rec.DisplayName(name)
		}
		if title, ok := groups[name]; ok {
			dir.Group = title
		}

		dir.DisplayName = sanitize.DisplayString(dir.DisplayName)
		dir.Group = sanitize.DisplayString(dir.Group)
		dir.AvatarURL = sanitize.DisplayString(dir.AvatarURL)

		visible = append(visible, dir)
	}

	return c.JSON(http.StatusOK, visible)
}

// Images lists one date bucket (GET /images?dir=&date=). A denied or
// missing bucket yields an empty array, never an error page.
func (h *Handler) Images(c echo.Context) error {
	sess := session.Get(c)
	if sess == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	dir := c.QueryParam("dir")
	date := c.QueryParam("date")

	group := ""
	if rec, ok := h.cache.Resolve(c.Request().Context(), dir); ok {
		group = rec.Group
	}
	if !authz.BrowsePermitted(sess.Allowed, dir, group) {
		return c.JSON(http.StatusOK, []gallery.Image{})
	}

	prefix := filesPrefix + dir + "/" + date + "/"
	return c.JSON(http.StatusOK, h.store.ListImages(dir, date, prefix))
}

// LastUploads reports per-folder staleness (GET /last-uploads).
func (h *Handler) LastUploads(c echo.Context) error {
	if session.Get(c) == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, h.store.ListLastUploads(time.Now()))
}

// Upload stores a device image (POST /upload). No session: the peer must
// pass the network whitelist, and its IP must resolve to an identity -- the
// resolved identity is the destination folder. The response is always a
// structured status, never an error page, and no folder is created before
// both checks pass.
func (h *Handler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	decision := h.gate.Decide(ctx, c.RealIP())
	if !decision.Allowed {
		return c.JSON(http.StatusOK, statusFail)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusOK, statusFail)
	}
	if fh.Size > h.cfg.Upload.MaxSize {
		return c.JSON(http.StatusOK, statusFail)
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusOK, statusFail)
	}
	defer src.Close()

	suffix := c.QueryParam("name")
	if err := h.store.SaveImage(ctx, decision.Identity, time.Now(), src, suffix); err != nil {
		return c.JSON(http.StatusOK, statusFail)
	}
	return c.JSON(http.StatusOK, statusOK)
}

// Files serves stored originals and thumbnails (GET /files/*), gated by the
// browse decision on the folder segment.
func (h *Handler) Files(c echo.Context) error {
	sess := session.Get(c)
	if sess == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	rel := path.Clean("/" + c.Param("*"))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." || strings.Contains(rel, "..") {
		return apperror.NewNotFound("no such file")
	}

	folder := rel
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		folder = rel[:i]
	}

	group := ""
	if rec, ok := h.cache.Resolve(c.Request().Context(), folder); ok {
		group = rec.Group
	}
	if !authz.BrowsePermitted(sess.Allowed, folder, group) {
		return apperror.NewDenied("folder not accessible")
	}

	return c.File(path.Join(h.store.Root(), rel))
}
