package inkpress

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/posts"
	"github.com/eringen/inkpress/prismic"
	"github.com/eringen/inkpress/views"
)

// HeaderNextCursor carries the cursor for the following page on load-more
// responses. It is empty once the listing is exhausted.
const HeaderNextCursor = "X-Next-Cursor"

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	ref, preview := a.previewRef(c)
	return a.serveCached(c, "home", echo.MIMETextHTMLCharsetUTF8, preview, func() ([]byte, map[string]string, error) {
		page, err := a.Posts.FirstPage(ctx, ref)
		if err != nil {
			return nil, nil, err
		}
		b, err := renderBytes(ctx, a.Views.Home(a.site, page, preview))
		return b, nil, err
	})
}

// handleMore serves one "load more" step. A failed fetch is swallowed by
// the pager, so the response is an empty fragment that re-offers the same
// cursor.
func (a *App) handleMore(c echo.Context) error {
	ctx := c.Request().Context()
	cursor := prismic.Cursor(c.QueryParam("cursor"))
	pager := posts.NewPager(a.Posts, posts.Page{Next: cursor}, a.Log.With().Str("handler", "more").Logger())
	added, err := pager.LoadMore(ctx)
	if err != nil {
		return err
	}
	c.Response().Header().Set(HeaderNextCursor, string(pager.Cursor()))
	return Render(c, a.Views.PostItems(added))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	ref, preview := a.previewRef(c)
	err := a.serveCached(c, "post/"+slug, echo.MIMETextHTMLCharsetUTF8, preview, func() ([]byte, map[string]string, error) {
		view, err := a.Posts.Post(ctx, slug, ref)
		if err != nil {
			return nil, nil, err
		}
		b, err := renderBytes(ctx, a.Views.Post(a.site, view, preview))
		return b, nil, err
	})
	if errors.Is(err, posts.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
	}
	return err
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.serveCached(c, "sitemap.xml", "application/xml; charset=utf-8", false, func() ([]byte, map[string]string, error) {
		all, err := a.Posts.All(c.Request().Context())
		if err != nil {
			return nil, nil, err
		}
		b, err := a.sitemapXML(all)
		return b, nil, err
	})
}

func (a *App) handleFeed(c echo.Context) error {
	return a.serveCached(c, "feed.xml", "application/rss+xml; charset=utf-8", false, func() ([]byte, map[string]string, error) {
		all, err := a.Posts.All(c.Request().Context())
		if err != nil {
			return nil, nil, err
		}
		b, err := a.rssXML(all)
		return b, nil, err
	})
}

// handleRevalidate is the on-demand regeneration webhook. The secret comes
// from the X-Revalidate-Secret header or the secret query parameter.
func (a *App) handleRevalidate(c echo.Context) error {
	secret := c.Request().Header.Get("X-Revalidate-Secret")
	if secret == "" {
		secret = c.QueryParam("secret")
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.Config.RevalidateSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
	}
	a.Cache.Invalidate()
	a.Log.Info().Str("ip", c.RealIP()).Msg("page cache invalidated")
	return c.JSON(http.StatusOK, map[string]bool{"revalidated": true})
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

// handleRobots serves the user's robots.txt, or a permissive default that
// points at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	p := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(p); err == nil {
		return c.File(p)
	}
	body := "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " + views.BuildURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", code).
			Msg("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
