package inkpress

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/eringen/inkpress/posts"
	"github.com/eringen/inkpress/prismic"
)

// SiteConfig holds all configuration for an inkpress site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Blog")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	Addr string `yaml:"addr"` // Listen address (default ":3000")

	PrismicEndpoint    string `yaml:"prismic_endpoint"`     // Required: repository URL, e.g. https://blog.cdn.prismic.io
	PrismicAccessToken string `yaml:"prismic_access_token"` // Optional for public repositories
	PostType           string `yaml:"post_type"`            // Custom type of posts (default "posts")
	PageSize           int    `yaml:"page_size"`            // Listing page size (default 5, max 100)

	SessionSecret string        `yaml:"session_secret"`  // Required: signs the preview cookie
	CookieSecure  bool          `yaml:"cookie_secure"`   // Set true for HTTPS
	PreviewMaxAge time.Duration `yaml:"preview_max_age"` // Preview session lifetime (default 1h)

	PageCacheTTL     time.Duration `yaml:"page_cache_ttl"`    // Regeneration interval for published pages (default 1min)
	RevalidateSecret string        `yaml:"revalidate_secret"` // Enables POST /api/revalidate when set

	UtterancesRepo string        `yaml:"utterances_repo"` // "owner/repo"; empty disables comments
	RequestTimeout time.Duration `yaml:"request_timeout"` // Content API timeout (default 10s)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PostType == "" {
		c.PostType = "posts"
	}
	if c.PageSize <= 0 {
		c.PageSize = posts.DefaultPageSize
	}
	if c.PageSize > prismic.MaxPageSize {
		c.PageSize = prismic.MaxPageSize
	}
	if c.PreviewMaxAge == 0 {
		c.PreviewMaxAge = time.Hour
	}
	if c.PageCacheTTL == 0 {
		c.PageCacheTTL = time.Minute
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
}

func (c SiteConfig) validate() error {
	if c.PrismicEndpoint == "" {
		return errors.New("inkpress: PrismicEndpoint is required")
	}
	if c.SessionSecret == "" {
		return errors.New("inkpress: SessionSecret is required")
	}
	return nil
}

// LoadConfig reads the YAML file at path, if any, and applies environment
// overrides on top. A missing path is not an error.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("inkpress: read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("inkpress: parse config %s: %w", path, err)
		}
	}

	cfg.Name = EnvOr("SITE_NAME", cfg.Name)
	cfg.URL = EnvOr("SITE_URL", cfg.URL)
	cfg.Description = EnvOr("SITE_DESCRIPTION", cfg.Description)
	cfg.Author = EnvOr("SITE_AUTHOR", cfg.Author)
	cfg.Addr = EnvOr("ADDR", cfg.Addr)
	cfg.PrismicEndpoint = EnvOr("PRISMIC_ENDPOINT", cfg.PrismicEndpoint)
	cfg.PrismicAccessToken = EnvOr("PRISMIC_ACCESS_TOKEN", cfg.PrismicAccessToken)
	cfg.PostType = EnvOr("POST_TYPE", cfg.PostType)
	cfg.SessionSecret = EnvOr("SESSION_SECRET", cfg.SessionSecret)
	cfg.RevalidateSecret = EnvOr("REVALIDATE_SECRET", cfg.RevalidateSecret)
	cfg.UtterancesRepo = EnvOr("UTTERANCES_REPO", cfg.UtterancesRepo)

	var err error
	if cfg.PageSize, err = envInt("PAGE_SIZE", cfg.PageSize); err != nil {
		return cfg, err
	}
	if cfg.CookieSecure, err = envBool("COOKIE_SECURE", cfg.CookieSecure); err != nil {
		return cfg, err
	}
	if cfg.PreviewMaxAge, err = envDuration("PREVIEW_MAX_AGE", cfg.PreviewMaxAge); err != nil {
		return cfg, err
	}
	if cfg.PageCacheTTL, err = envDuration("PAGE_CACHE_TTL", cfg.PageCacheTTL); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("inkpress: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("inkpress: %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("inkpress: %s: %w", key, err)
	}
	return d, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) {
		a.Log = log
	}
}

// WithViews overrides some or all of the default views. Nil fields keep
// the defaults.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v.withDefaults()
	}
}

// WithHTTPClient sets the client used for content API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}
