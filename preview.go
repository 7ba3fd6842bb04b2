package inkpress

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	previewSessionName = "preview_session"
	previewRefKey      = "ref"
)

// handlePreview opens a preview session. The token doubles as the draft
// ref: it must resolve documentId to a page, otherwise the request is
// rejected with 401.
func (a *App) handlePreview(c echo.Context) error {
	ip := c.RealIP()
	if !a.previewLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "Too many attempts"})
	}

	token := c.QueryParam("token")
	documentID := c.QueryParam("documentId")
	target, err := a.Content.PreviewResolver(token, documentID).Resolve(c.Request().Context(), a.resolveDocument)
	if err != nil {
		a.previewLimiter.Record(ip)
		a.Log.Warn().Err(err).Str("ip", ip).Str("document_id", documentID).Msg("preview rejected")
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
	}

	if err := a.setPreviewRef(c, token); err != nil {
		return err
	}
	return Render(c, a.Views.PreviewRedirect(target))
}

// handleExitPreview clears the marker and sends the viewer back to
// published content.
func (a *App) handleExitPreview(c echo.Context) error {
	if err := clearPreviewRef(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// previewRef returns the draft ref of the current request's preview
// session. ok is false for ordinary published-ref requests.
func (a *App) previewRef(c echo.Context) (ref string, ok bool) {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return "", false
	}
	ref, ok = sess.Values[previewRefKey].(string)
	return ref, ok && ref != ""
}

func (a *App) setPreviewRef(c echo.Context, ref string) error {
	sess, err := session.Get(previewSessionName, c)
	if err != nil && sess == nil {
		return err
	}
	sess.Options.MaxAge = int(a.Config.PreviewMaxAge.Seconds())
	sess.Values[previewRefKey] = ref
	return sess.Save(c.Request(), c.Response())
}

func clearPreviewRef(c echo.Context) error {
	sess, err := session.Get(previewSessionName, c)
	if err != nil && sess == nil {
		return err
	}
	delete(sess.Values, previewRefKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
