// Package prismic is a small client for the Prismic v2 REST content API.
//
// It covers what a read-only front-end needs: resolving the master ref,
// predicate queries with ordering and cursor pagination, lookups by UID or ID,
// and preview-token resolution. Every call is parameterized by an explicit
// content ref; an empty ref selects the published (master) state.
package prismic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	apiPath    = "/api/v2"
	searchPath = "/api/v2/documents/search"

	// masterRefTTL bounds how long a resolved master ref is reused.
	masterRefTTL = 5 * time.Second

	// MaxPageSize is the largest page the API will serve.
	MaxPageSize = 100
)

// Client queries a single Prismic repository.
type Client struct {
	endpoint    *url.URL
	accessToken string
	httpClient  *http.Client

	mu        sync.Mutex
	masterRef string
	fetched   time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the repository access token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the repository at endpoint, e.g.
// "https://my-repo.cdn.prismic.io". A trailing "/api/v2" is tolerated.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute http(s) URL", endpoint)
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), apiPath)
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		endpoint:   u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiInfo struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// Ref returns the repository's current master ref.
func (c *Client) Ref(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.masterRef != "" && time.Since(c.fetched) < masterRefTTL {
		ref := c.masterRef
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	var info apiInfo
	if err := c.get(ctx, c.urlFor(apiPath, nil), &info); err != nil {
		return "", fmt.Errorf("prismic: fetch api info: %w", err)
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.masterRef = r.Ref
			c.fetched = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", fmt.Errorf("prismic: api info has no master ref")
}

// QueryOptions shape a search request.
type QueryOptions struct {
	// Ref selects the content version; empty means the master ref.
	Ref string
	// PageSize is clamped to 1..MaxPageSize; zero leaves the API default.
	PageSize int
	// Page is 1-based; zero leaves the API default.
	Page int
	// After restricts results to documents following this document ID in
	// the requested ordering.
	After string
	// Orderings are rendered as "[a,b desc]".
	Orderings []Ordering
	// Fetch restricts the returned data fields, e.g. "posts.title".
	Fetch []string
}

// Ordering is a single sort key.
type Ordering struct {
	Field string
	Desc  bool
}

func (o Ordering) String() string {
	if o.Desc {
		return o.Field + " desc"
	}
	return o.Field
}

func orderingsParam(os []Ordering) string {
	parts := make([]string, len(os))
	for i, o := range os {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Query runs a predicate search.
func (c *Client) Query(ctx context.Context, predicates Predicates, opts QueryOptions) (*Response, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.Ref(ctx)
		if err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("ref", ref)
	if len(predicates) > 0 {
		params.Set("q", predicates.String())
	}
	if opts.PageSize > 0 {
		size := opts.PageSize
		if size > MaxPageSize {
			size = MaxPageSize
		}
		params.Set("pageSize", strconv.Itoa(size))
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}
	if len(opts.Orderings) > 0 {
		params.Set("orderings", orderingsParam(opts.Orderings))
	}
	if len(opts.Fetch) > 0 {
		params.Set("fetch", strings.Join(opts.Fetch, ","))
	}

	var resp Response
	if err := c.get(ctx, c.urlFor(searchPath, params), &resp); err != nil {
		return nil, fmt.Errorf("prismic: query %s: %w", predicates, err)
	}
	resp.Next = cursorOf(resp.NextPage)
	return &resp, nil
}

// GetByUID returns the document of docType with the given UID.
func (c *Client) GetByUID(ctx context.Context, docType, uid, ref string) (*Document, error) {
	resp, err := c.Query(ctx, Predicates{At("my."+docType+".uid", uid)}, QueryOptions{Ref: ref, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("prismic: %s %q: %w", docType, uid, ErrNotFound)
	}
	return &resp.Results[0], nil
}

// GetByID returns the document with the given ID.
func (c *Client) GetByID(ctx context.Context, id, ref string) (*Document, error) {
	resp, err := c.Query(ctx, Predicates{At("document.id", id)}, QueryOptions{Ref: ref, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("prismic: document %q: %w", id, ErrNotFound)
	}
	return &resp.Results[0], nil
}

// Page fetches the result page a cursor points at. The cursor must be a
// search URL of this repository; anything else is ErrInvalidCursor.
func (c *Client) Page(ctx context.Context, cursor Cursor) (*Response, error) {
	u, err := c.validateCursor(cursor)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := c.get(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("prismic: fetch page: %w", err)
	}
	resp.Next = cursorOf(resp.NextPage)
	return &resp, nil
}

func (c *Client) validateCursor(cursor Cursor) (*url.URL, error) {
	if cursor == "" {
		return nil, ErrInvalidCursor
	}
	u, err := url.Parse(string(cursor))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if u.Scheme != c.endpoint.Scheme || u.Host != c.endpoint.Host || u.Path != c.endpoint.Path+searchPath {
		return nil, ErrInvalidCursor
	}
	q := u.Query()
	q.Del("access_token")
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u, nil
}

// cursorOf strips credentials from a next_page URL so it can leave the server.
func cursorOf(nextPage string) Cursor {
	if nextPage == "" {
		return ""
	}
	u, err := url.Parse(nextPage)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Del("access_token")
	u.RawQuery = q.Encode()
	return Cursor(u.String())
}

func (c *Client) urlFor(p string, params url.Values) string {
	u := *c.endpoint
	u.Path = c.endpoint.Path + p
	if params == nil {
		params = url.Values{}
	}
	if c.accessToken != "" {
		params.Set("access_token", c.accessToken)
	}
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return newAPIError(resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
