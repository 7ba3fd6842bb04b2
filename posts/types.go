// Package posts turns content documents into blog posts: the paginated
// listing, single-post resolution with chronological neighbors, and the
// derived reading time.
package posts

import (
	"time"

	"github.com/eringen/inkpress/prismic"
	"github.com/eringen/inkpress/richtext"
)

// PostSummary is the listing view of a post. UID identifies it.
type PostSummary struct {
	UID                  string
	FirstPublicationDate *time.Time
	Title                string
	Subtitle             string
	Author               string
}

// PostDetail is a full post.
type PostDetail struct {
	PostSummary
	LastPublicationDate *time.Time
	BannerURL           string
	Content             []ContentBlock
}

// ContentBlock is a headed section of a post body. HasHeading is false when
// the document's heading is null, as opposed to an empty string.
type ContentBlock struct {
	Heading    string
	HasHeading bool
	Body       []richtext.Block
}

// Page is the accumulated listing plus the cursor for the remainder.
// Next is empty once the listing is exhausted.
type Page struct {
	Results []PostSummary
	Next    prismic.Cursor
}

// HasMore reports whether a further page can be loaded.
func (p Page) HasMore() bool {
	return p.Next != ""
}

// Neighbor is the navigation link to an adjacent post.
type Neighbor struct {
	UID   string
	Title string
}

// PostView is everything the post page renders.
type PostView struct {
	Post        PostDetail
	Prev        *Neighbor
	Next        *Neighbor
	ReadingTime int
}
