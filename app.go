// Package inkpress is a server-rendered blog front-end built with Go, Echo,
// and templ. Posts live in a Prismic repository; inkpress renders the
// listing and post pages, serves "load more" fragments, RSS and a sitemap,
// and runs the editorial preview flow.
//
// Templates are plain templ components. The defaults come from the views
// package and any of them can be replaced through ViewFuncs.
package inkpress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eringen/inkpress/posts"
	"github.com/eringen/inkpress/prismic"
	"github.com/eringen/inkpress/views"
)

// ViewFuncs holds the templ components the handlers render. Any nil field
// falls back to the views package.
type ViewFuncs struct {
	Home            func(site views.Site, page posts.Page, preview bool) templ.Component
	PostItems       func(items []posts.PostSummary) templ.Component
	Post            func(site views.Site, view posts.PostView, preview bool) templ.Component
	PreviewRedirect func(target string) templ.Component
	NotFound        func(site views.Site) templ.Component
	ServerError     func(site views.Site) templ.Component
}

// DefaultViews returns the built-in components.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:            views.Home,
		PostItems:       views.PostItems,
		Post:            views.Post,
		PreviewRedirect: views.PreviewRedirect,
		NotFound:        views.NotFound,
		ServerError:     views.ServerError,
	}
}

func (v ViewFuncs) withDefaults() ViewFuncs {
	d := DefaultViews()
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.PostItems == nil {
		v.PostItems = d.PostItems
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.PreviewRedirect == nil {
		v.PreviewRedirect = d.PreviewRedirect
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App is the central inkpress application. It wires together the content
// client, post pipelines, page cache, handlers, middleware, and templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Log     zerolog.Logger
	Content *prismic.Client
	Posts   *posts.Service
	Cache   *PageCache
	Views   ViewFuncs

	previewLimiter *AttemptLimiter
	httpClient     *http.Client
	customRoutes   []func(*App)
	staticDir      string
	site           views.Site
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Log:       zerolog.New(os.Stderr).With().Timestamp().Logger(),
		Views:     DefaultViews(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the config and builds the content client, cache,
// middleware, and routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Setup() error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	hc := a.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: a.Config.RequestTimeout}
	}
	content, err := prismic.New(a.Config.PrismicEndpoint,
		prismic.WithAccessToken(a.Config.PrismicAccessToken),
		prismic.WithHTTPClient(hc),
	)
	if err != nil {
		return fmt.Errorf("inkpress: init content client: %w", err)
	}
	a.Content = content
	a.Posts = posts.NewService(content, a.Config.PostType, a.Config.PageSize)
	a.Cache = NewPageCache(a.Config.PageCacheTTL)
	a.previewLimiter = NewAttemptLimiter(10, time.Minute)

	a.site = views.Site{
		Name:           a.Config.Name,
		URL:            a.Config.URL,
		Description:    a.Config.Description,
		Author:         a.Config.Author,
		UtterancesRepo: a.Config.UtterancesRepo,
		Link:           a.richTextLink,
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Log.Info().Str("addr", a.Config.Addr).Str("endpoint", a.Config.PrismicEndpoint).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded assets are served under /public/ ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/loadmore.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/more", a.handleMore)
	e.GET("/post/:slug", a.handlePost)

	e.GET("/api/preview", a.handlePreview)
	e.GET("/api/exit-preview", a.handleExitPreview)
	if a.Config.RevalidateSecret != "" {
		e.POST("/api/revalidate", a.handleRevalidate)
	}
}

// Shutdown gracefully stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.previewLimiter != nil {
		a.previewLimiter.Stop()
	}
	return a.Echo.Close()
}

// resolveDocument is the preview link resolver: posts map to their page,
// anything else to the listing.
func (a *App) resolveDocument(doc *prismic.Document) string {
	if doc == nil {
		return ""
	}
	return a.richTextLink(doc.Type, doc.UID)
}

func (a *App) richTextLink(docType, uid string) string {
	if docType == a.Config.PostType && uid != "" {
		return views.PostPath(uid)
	}
	return "/"
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "inkpress: required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return v
}
