package posts

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/eringen/inkpress/prismic"
)

// ErrNotFound is returned for a slug outside the known set of posts.
var ErrNotFound = errors.New("posts: not found")

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = 5

// Source is the slice of the content client the pipelines use.
type Source interface {
	Query(ctx context.Context, predicates prismic.Predicates, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid, ref string) (*prismic.Document, error)
	Page(ctx context.Context, cursor prismic.Cursor) (*prismic.Response, error)
}

// Service runs the listing and detail pipelines against a Source. The
// content ref is passed explicitly on every call; an empty ref selects the
// published state.
type Service struct {
	src      Source
	docType  string
	pageSize int
}

// NewService creates a Service for documents of docType.
func NewService(src Source, docType string, pageSize int) *Service {
	if docType == "" {
		docType = "posts"
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > prismic.MaxPageSize {
		pageSize = prismic.MaxPageSize
	}
	return &Service{src: src, docType: docType, pageSize: pageSize}
}

// DocType returns the document type the service reads.
func (s *Service) DocType() string {
	return s.docType
}

// newestFirst orders by first publication, with the document ID breaking
// ties so both directions agree on adjacency. document.id is not a
// documented ordering field; the API accepts it, and if it were ignored
// ties would fall back to the API's own order.
func newestFirst() []prismic.Ordering {
	return []prismic.Ordering{
		{Field: "document.first_publication_date", Desc: true},
		{Field: "document.id", Desc: true},
	}
}

func oldestFirst() []prismic.Ordering {
	return []prismic.Ordering{
		{Field: "document.first_publication_date"},
		{Field: "document.id"},
	}
}

func (s *Service) summaryFields() []string {
	return []string{s.docType + ".title", s.docType + ".subtitle", s.docType + ".author"}
}

// FirstPage returns the newest posts and the cursor for the rest.
func (s *Service) FirstPage(ctx context.Context, ref string) (Page, error) {
	resp, err := s.src.Query(ctx, prismic.Predicates{prismic.DocumentType(s.docType)}, prismic.QueryOptions{
		Ref:       ref,
		PageSize:  s.pageSize,
		Orderings: newestFirst(),
		Fetch:     s.summaryFields(),
	})
	if err != nil {
		return Page{}, fmt.Errorf("posts: first page: %w", err)
	}
	return decodePage(resp)
}

// NextPage fetches the page a cursor points at.
func (s *Service) NextPage(ctx context.Context, cursor prismic.Cursor) (Page, error) {
	resp, err := s.src.Page(ctx, cursor)
	if err != nil {
		return Page{}, fmt.Errorf("posts: next page: %w", err)
	}
	return decodePage(resp)
}

func decodePage(resp *prismic.Response) (Page, error) {
	page := Page{
		Results: make([]PostSummary, 0, len(resp.Results)),
		Next:    resp.Next,
	}
	for _, doc := range resp.Results {
		summary, err := DecodeSummary(doc)
		if err != nil {
			return Page{}, err
		}
		page.Results = append(page.Results, summary)
	}
	return page, nil
}

// All walks every page and returns all published posts, newest first.
func (s *Service) All(ctx context.Context) ([]PostSummary, error) {
	var all []PostSummary
	for page := 1; ; page++ {
		resp, err := s.src.Query(ctx, prismic.Predicates{prismic.DocumentType(s.docType)}, prismic.QueryOptions{
			PageSize:  prismic.MaxPageSize,
			Page:      page,
			Orderings: newestFirst(),
			Fetch:     s.summaryFields(),
		})
		if err != nil {
			return nil, fmt.Errorf("posts: list page %d: %w", page, err)
		}
		decoded, err := decodePage(resp)
		if err != nil {
			return nil, err
		}
		all = append(all, decoded.Results...)
		if resp.NextPage == "" || len(resp.Results) == 0 {
			return all, nil
		}
	}
}

// Slugs returns the UID of every published post. It is the set of paths the
// detail page can render.
func (s *Service) Slugs(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(all))
	for _, p := range all {
		if p.UID != "" {
			slugs = append(slugs, p.UID)
		}
	}
	return slugs, nil
}

// Post resolves slug under ref together with its chronological neighbors.
// A slug outside Slugs is ErrNotFound.
func (s *Service) Post(ctx context.Context, slug, ref string) (PostView, error) {
	slugs, err := s.Slugs(ctx)
	if err != nil {
		return PostView{}, err
	}
	if !slices.Contains(slugs, slug) {
		return PostView{}, fmt.Errorf("%w: %q", ErrNotFound, slug)
	}

	doc, err := s.src.GetByUID(ctx, s.docType, slug, ref)
	if err != nil {
		if errors.Is(err, prismic.ErrNotFound) {
			return PostView{}, fmt.Errorf("%w: %q", ErrNotFound, slug)
		}
		return PostView{}, fmt.Errorf("posts: get %q: %w", slug, err)
	}
	post, err := DecodeDetail(*doc)
	if err != nil {
		return PostView{}, err
	}

	next, err := s.neighbor(ctx, doc.ID, ref, newestFirst())
	if err != nil {
		return PostView{}, err
	}
	prev, err := s.neighbor(ctx, doc.ID, ref, oldestFirst())
	if err != nil {
		return PostView{}, err
	}

	return PostView{
		Post:        post,
		Prev:        prev,
		Next:        next,
		ReadingTime: ReadingTime(post.Content),
	}, nil
}

// neighbor returns the single document after id in the given ordering, or
// nil at either end of the listing.
func (s *Service) neighbor(ctx context.Context, id, ref string, orderings []prismic.Ordering) (*Neighbor, error) {
	resp, err := s.src.Query(ctx, prismic.Predicates{prismic.DocumentType(s.docType)}, prismic.QueryOptions{
		Ref:       ref,
		PageSize:  1,
		After:     id,
		Orderings: orderings,
		Fetch:     []string{s.docType + ".title"},
	})
	if err != nil {
		return nil, fmt.Errorf("posts: neighbor of %s: %w", id, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return decodeNeighbor(resp.Results[0])
}
