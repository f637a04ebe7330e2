package web

import (
	"embed"
	"html/template"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds the parsed gallery pages. Parsed once at package init; a bad
// template is a programming error and should fail fast.
var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// loginData feeds the login page template.
type loginData struct {
	CSRFToken string
	Username  string
	Error     string
}

// indexData feeds the gallery page template.
type indexData struct {
	Username string
}

// render writes a named page template to the response.
func render(c echo.Context, code int, name string, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return pages.ExecuteTemplate(c.Response().Writer, name, data)
}
