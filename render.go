package cleanblog

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component is rendered into a buffer first so a template failure still
// produces a clean 500 instead of a truncated page.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// page builds the template context for the current request. Flashes are
// consumed here, so call it once per rendered response.
func (a *App) page(c echo.Context, title string) Page {
	return Page{
		Site:      a.Config.Site(),
		Title:     title,
		Path:      c.Request().URL.Path,
		Identity:  CurrentIdentity(c),
		Flashes:   popFlashes(c),
		CSRFToken: CsrfToken(c),
	}
}
