package posts

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eringen/inkpress/prismic"
)

// ErrLoadInFlight is returned by LoadMore while a previous load is still
// running.
var ErrLoadInFlight = errors.New("posts: load already in flight")

// PageFetcher fetches the page a cursor points at.
type PageFetcher interface {
	NextPage(ctx context.Context, cursor prismic.Cursor) (Page, error)
}

// Pager accumulates listing pages for "load more". At most one load runs at
// a time; a failed load leaves the accumulated posts and cursor untouched.
type Pager struct {
	fetcher PageFetcher
	log     zerolog.Logger

	mu       sync.Mutex
	posts    []PostSummary
	next     prismic.Cursor
	inFlight bool
}

// NewPager starts a Pager from an already-rendered page.
func NewPager(fetcher PageFetcher, first Page, log zerolog.Logger) *Pager {
	posts := make([]PostSummary, len(first.Results))
	copy(posts, first.Results)
	return &Pager{
		fetcher: fetcher,
		log:     log,
		posts:   posts,
		next:    first.Next,
	}
}

// Posts returns a copy of the accumulated posts.
func (p *Pager) Posts() []PostSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PostSummary, len(p.posts))
	copy(out, p.posts)
	return out
}

// Cursor returns the current next-page cursor.
func (p *Pager) Cursor() prismic.Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// CanLoadMore reports whether the load-more control should be offered.
func (p *Pager) CanLoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next != "" && !p.inFlight
}

// LoadMore fetches the next page and appends it. It returns the posts that
// were added. With no cursor it does nothing. A fetch failure is logged and
// swallowed: the result is empty and the state is unchanged.
func (p *Pager) LoadMore(ctx context.Context) ([]PostSummary, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	cursor := p.next
	if cursor == "" {
		p.mu.Unlock()
		return nil, nil
	}
	p.inFlight = true
	p.mu.Unlock()

	page, err := p.fetcher.NextPage(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if err != nil {
		p.log.Warn().Err(err).Str("cursor", string(cursor)).Msg("load more failed")
		return nil, nil
	}
	p.posts = append(p.posts, page.Results...)
	p.next = page.Next
	return page.Results, nil
}
