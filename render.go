package inkpress

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component is rendered into a buffer first so a failure still reaches
// the error handler with nothing committed.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	b, err := renderBytes(c.Request().Context(), cmp)
	if err != nil {
		return err
	}
	return c.HTMLBlob(code, b)
}

func renderBytes(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// serveCached serves key from the page cache, rendering through fn on a
// miss. bypass renders fresh without touching the cache; preview requests
// set it.
func (a *App) serveCached(c echo.Context, key, contentType string, bypass bool, fn RenderFunc) error {
	var (
		body   []byte
		header map[string]string
		err    error
	)
	if bypass {
		body, header, err = fn()
	} else {
		body, header, err = a.Cache.GetOrRender(key, fn)
	}
	if err != nil {
		return err
	}
	for k, v := range header {
		c.Response().Header().Set(k, v)
	}
	return c.Blob(http.StatusOK, contentType, body)
}
