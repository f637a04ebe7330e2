package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shotwall/shotwall/internal/apperror"
)

// cookieName is the HTTP cookie used to store the session token.
const cookieName = "shotwall_session"

// contextKey stores the validated session in the Echo context.
const contextKey = "shotwall.session"

// Load returns middleware that resolves the session cookie into a *Session
// in the request context when valid. It never rejects by itself -- handlers
// and guards decide what an absent session means (the upload endpoint, for
// one, is sessionless on purpose). A stale cookie is cleared.
func Load(service Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := Token(c); token != "" {
				sess, err := service.Validate(c.Request().Context(), token)
				if err == nil {
					c.Set(contextKey, sess)
				} else if apperror.SafeCode(err) == http.StatusUnauthorized {
					ClearCookie(c)
				}
			}
			return next(c)
		}
	}
}

// Require returns middleware that rejects requests without a valid session.
// The central error handler turns the 401 into a /login redirect for
// browser requests.
func Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Get(c) == nil {
				return apperror.NewUnauthorized("authentication required")
			}
			return next(c)
		}
	}
}

// Get retrieves the validated session from the Echo context, or nil when
// the request is unauthenticated.
func Get(c echo.Context) *Session {
	sess, ok := c.Get(contextKey).(*Session)
	if !ok {
		return nil
	}
	return sess
}

// Token reads the raw session token from the request cookie.
func Token(c echo.Context) string {
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetCookie attaches the session token to the response.
func SetCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
