// Package views holds the HTML components the blog renders.
package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

func esc(s string) string { return templ.EscapeString(s) }

// component adapts a buffer-writing function to templ.Component. Output is
// buffered so a failing render never leaves half a page on the wire.
func component(fn func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// safeURL neutralises non-http(s) schemes and escapes for an attribute.
func safeURL(u string) string {
	return esc(string(templ.URL(u)))
}

// layout wraps body in the site shell. preview adds the exit banner.
func layout(site Site, meta PageMeta, jsonLD string, preview bool, body func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		buf.WriteString("<title>" + esc(title) + "</title>")
		if meta.Description != "" {
			buf.WriteString(`<meta name="description" content="` + esc(meta.Description) + `"/>`)
			buf.WriteString(`<meta property="og:description" content="` + esc(meta.Description) + `"/>`)
		}
		if meta.URL != "" {
			buf.WriteString(`<link rel="canonical" href="` + safeURL(meta.URL) + `"/>`)
			buf.WriteString(`<meta property="og:url" content="` + safeURL(meta.URL) + `"/>`)
		}
		buf.WriteString(`<meta property="og:title" content="` + esc(title) + `"/>`)
		buf.WriteString(`<meta property="og:type" content="` + esc(ogType) + `"/>`)
		if meta.Image != "" {
			buf.WriteString(`<meta property="og:image" content="` + safeURL(meta.Image) + `"/>`)
		}
		if preview {
			buf.WriteString(`<meta name="robots" content="noindex"/>`)
		}
		buf.WriteString(`<link rel="stylesheet" href="/public/styles.css"/>`)
		buf.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + esc(site.Name) + `" href="/feed.xml"/>`)
		if jsonLD != "" {
			// json.Marshal escapes <, > and &, so the payload cannot close the tag.
			buf.WriteString(`<script type="application/ld+json">` + jsonLD + `</script>`)
		}
		buf.WriteString(`</head><body>`)
		buf.WriteString(`<header class="site-header"><a href="/" class="logo">` + esc(site.Name) + `</a></header>`)

		if err := body(ctx, buf); err != nil {
			return err
		}

		if preview {
			writePreviewBanner(buf)
		}
		buf.WriteString(`<script src="/public/loadmore.js" defer></script>`)
		buf.WriteString(`</body></html>`)
		return nil
	})
}

func writePreviewBanner(buf *bytes.Buffer) {
	buf.WriteString(`<aside class="preview"><a href="/api/exit-preview">Exit preview mode</a></aside>`)
}

// PreviewBanner is the fixed link back to published content.
func PreviewBanner() templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		writePreviewBanner(buf)
		return nil
	})
}
