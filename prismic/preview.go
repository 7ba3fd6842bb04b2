package prismic

import (
	"context"
	"fmt"
	"strings"
)

// LinkResolver maps a document to the site URL that renders it.
type LinkResolver func(doc *Document) string

// PreviewResolver turns an editor's preview session into a redirect URL.
type PreviewResolver struct {
	client     *Client
	token      string
	documentID string
}

// PreviewResolver returns a resolver for the preview token (which doubles as
// the draft ref) and the document being previewed.
func (c *Client) PreviewResolver(token, documentID string) *PreviewResolver {
	return &PreviewResolver{client: c, token: token, documentID: documentID}
}

// Resolve fetches the previewed document under the draft ref and maps it
// through linkResolver. Any failure, including an empty URL, is reported as
// ErrPreviewUnresolved.
func (p *PreviewResolver) Resolve(ctx context.Context, linkResolver LinkResolver) (string, error) {
	if strings.TrimSpace(p.token) == "" || strings.TrimSpace(p.documentID) == "" {
		return "", ErrPreviewUnresolved
	}
	doc, err := p.client.GetByID(ctx, p.documentID, p.token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPreviewUnresolved, err)
	}
	u := linkResolver(doc)
	if u == "" {
		return "", ErrPreviewUnresolved
	}
	return u, nil
}
