package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/inkpress/posts"
	"github.com/eringen/inkpress/richtext"
)

// Home renders the first listing page. The load-more control is only
// offered while the cursor is non-empty.
func Home(site Site, page posts.Page, preview bool) templ.Component {
	meta := PageMeta{
		Title:       site.Name,
		Description: site.Description,
		URL:         BuildURL(site.URL),
		OGType:      "website",
	}
	return layout(site, meta, WebsiteJsonLD(site), preview, func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="container posts"><div id="posts">`)
		writePostItems(buf, page.Results)
		buf.WriteString(`</div>`)
		if page.HasMore() {
			writeLoadMore(buf, string(page.Next))
		}
		buf.WriteString(`</main>`)
		return nil
	})
}

// PostItems renders listing entries without the page shell; it is the body
// of a load-more response.
func PostItems(items []posts.PostSummary) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		writePostItems(buf, items)
		return nil
	})
}

func writePostItems(buf *bytes.Buffer, items []posts.PostSummary) {
	for _, p := range items {
		buf.WriteString(`<article class="post-item" data-uid="` + esc(p.UID) + `">`)
		buf.WriteString(`<a href="` + esc(PostPath(p.UID)) + `"><h2>` + esc(p.Title) + `</h2></a>`)
		if p.Subtitle != "" {
			buf.WriteString(`<p>` + esc(p.Subtitle) + `</p>`)
		}
		buf.WriteString(`<div class="info">`)
		if d := FormatDate(p.FirstPublicationDate); d != "" {
			buf.WriteString(`<time datetime="` + esc(isoDate(p.FirstPublicationDate)) + `">` + esc(d) + `</time>`)
		}
		if p.Author != "" {
			buf.WriteString(`<span class="author">` + esc(p.Author) + `</span>`)
		}
		buf.WriteString(`</div></article>`)
	}
}

func writeLoadMore(buf *bytes.Buffer, cursor string) {
	buf.WriteString(`<button type="button" class="load-more" data-target="posts" data-endpoint="/posts/more" data-cursor="` + esc(cursor) + `">Load more posts</button>`)
}

// Post renders a single post with reading time and prev/next navigation.
func Post(site Site, view posts.PostView, preview bool) templ.Component {
	p := view.Post
	meta := PageMeta{
		Title:       p.Title,
		Description: p.Subtitle,
		URL:         BuildURL(site.URL, "post", p.UID),
		OGType:      "article",
		Image:       p.BannerURL,
	}
	link := site.Link
	if link == nil {
		link = func(docType, uid string) string {
			if uid == "" {
				return "/"
			}
			return PostPath(uid)
		}
	}
	return layout(site, meta, BlogPostingJsonLD(site, p), preview, func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<article class="container post">`)
		if p.BannerURL != "" {
			buf.WriteString(`<img class="banner" src="` + safeURL(p.BannerURL) + `" alt="` + esc(p.Title) + `"/>`)
		}
		buf.WriteString(`<h1>` + esc(p.Title) + `</h1>`)
		buf.WriteString(`<div class="info"><div>`)
		if d := FormatDate(p.FirstPublicationDate); d != "" {
			buf.WriteString(`<time datetime="` + esc(isoDate(p.FirstPublicationDate)) + `">` + esc(d) + `</time>`)
		}
		if p.Author != "" {
			buf.WriteString(`<span class="author">` + esc(p.Author) + `</span>`)
		}
		buf.WriteString(`<span class="reading-time">` + strconv.Itoa(view.ReadingTime) + ` min</span>`)
		buf.WriteString(`</div>`)
		if e := FormatEdited(p.LastPublicationDate); e != "" {
			buf.WriteString(`<p class="edited">` + esc(e) + `</p>`)
		}
		buf.WriteString(`</div>`)

		buf.WriteString(`<div class="content">`)
		for _, block := range p.Content {
			buf.WriteString(`<section>`)
			if block.Heading != "" {
				buf.WriteString(`<h2>` + esc(block.Heading) + `</h2>`)
			}
			buf.WriteString(`<div class="body">`)
			richtext.RenderHTML(buf, block.Body, link)
			buf.WriteString(`</div></section>`)
		}
		buf.WriteString(`</div><hr/>`)

		buf.WriteString(`<nav class="post-navigation">`)
		writeNeighbor(buf, view.Prev, "prev", "Previous post")
		writeNeighbor(buf, view.Next, "next", "Next post")
		buf.WriteString(`</nav>`)

		if repo := strings.TrimSpace(site.UtterancesRepo); repo != "" {
			buf.WriteString(`<div class="comments" id="comments">`)
			buf.WriteString(`<script src="https://utteranc.es/client.js" repo="` + esc(repo) + `" issue-term="pathname" theme="github-dark" crossorigin="anonymous" async></script>`)
			buf.WriteString(`</div>`)
		}
		buf.WriteString(`</article>`)
		return nil
	})
}

func writeNeighbor(buf *bytes.Buffer, n *posts.Neighbor, class, label string) {
	if n == nil {
		buf.WriteString(`<div></div>`)
		return
	}
	buf.WriteString(`<a class="` + class + `" href="` + esc(PostPath(n.UID)) + `"><span>` + esc(n.Title) + `</span><span>` + esc(label) + `</span></a>`)
}

// NotFound is the 404 page.
func NotFound(site Site) templ.Component {
	return layout(site, PageMeta{Title: "Not found"}, "", false, func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="container error"><h1>404</h1><p>This page does not exist.</p><a href="/">Back to posts</a></main>`)
		return nil
	})
}

// ServerError is the 5xx page.
func ServerError(site Site) templ.Component {
	return layout(site, PageMeta{Title: "Error"}, "", false, func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="container error"><h1>Something went wrong</h1><p>Please try again in a moment.</p></main>`)
		return nil
	})
}

// PreviewRedirect is the micro-document sent after a preview session is
// opened: an immediate meta refresh with a script fallback.
func PreviewRedirect(target string) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		safe := string(templ.URL(target))
		js, err := json.Marshal(safe)
		if err != nil {
			return err
		}
		buf.WriteString(`<!DOCTYPE html><html><head>`)
		buf.WriteString(`<meta http-equiv="Refresh" content="0; url=` + esc(safe) + `"/>`)
		buf.WriteString(`<script>window.location.href = ` + string(js) + `</script>`)
		buf.WriteString(`</head></html>`)
		return nil
	})
}
