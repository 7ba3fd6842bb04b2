// Package richtext renders structured rich text fields as HTML templ components.
package richtext

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
)

// Block is one structured text element: a paragraph, heading, list item,
// preformatted run, image or embed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
	Label      string      `json:"label,omitempty"`
}

// Span marks up Text[Start:End], measured in UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Embed struct {
	Type     string `json:"type,omitempty"`
	EmbedURL string `json:"embed_url,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// LinkResolver maps a document link (type and uid) to a site URL.
type LinkResolver func(docType, uid string) string

// Render returns a templ.Component that writes blocks as HTML.
func Render(blocks []Block, lr LinkResolver) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, blocks, lr)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// AsHTML is RenderHTML into a string.
func AsHTML(blocks []Block, lr LinkResolver) string {
	var buf bytes.Buffer
	RenderHTML(&buf, blocks, lr)
	return buf.String()
}

// AsText joins the plain text of every block with newlines.
func AsText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// RenderHTML writes the HTML representation of blocks to buf. Consecutive
// list items are grouped into a single ul or ol.
func RenderHTML(buf *bytes.Buffer, blocks []Block, lr LinkResolver) {
	openList := ""
	closeList := func() {
		if openList != "" {
			buf.WriteString("</" + openList + ">")
			openList = ""
		}
	}

	for _, b := range blocks {
		switch b.Type {
		case "list-item", "o-list-item":
			want := "ul"
			if b.Type == "o-list-item" {
				want = "ol"
			}
			if openList != want {
				closeList()
				buf.WriteString("<" + want + ">")
				openList = want
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans, lr))
			buf.WriteString("</li>")
			continue
		}
		closeList()

		switch b.Type {
		case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
			tag := "h" + strings.TrimPrefix(b.Type, "heading")
			buf.WriteString("<" + tag + ">" + FormatSpans(b.Text, b.Spans, lr) + "</" + tag + ">")
		case "preformatted":
			buf.WriteString("<pre>" + templ.EscapeString(b.Text) + "</pre>")
		case "image":
			writeImage(buf, b)
		case "embed":
			writeEmbed(buf, b)
		default:
			buf.WriteString("<p")
			if b.Label != "" {
				buf.WriteString(` class="` + templ.EscapeString(b.Label) + `"`)
			}
			buf.WriteString(">" + FormatSpans(b.Text, b.Spans, lr) + "</p>")
		}
	}
	closeList()
}

func writeImage(buf *bytes.Buffer, b Block) {
	if b.URL == "" {
		return
	}
	buf.WriteString(`<p class="block-img"><img src="` + templ.EscapeString(string(templ.URL(b.URL))) + `" alt="` + templ.EscapeString(b.Alt) + `"`)
	if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
		buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
	}
	buf.WriteString(` loading="lazy" /></p>`)
}

// writeEmbed emits the provider's oEmbed markup, which is editor-controlled.
func writeEmbed(buf *bytes.Buffer, b Block) {
	if b.Oembed == nil || b.Oembed.HTML == "" {
		return
	}
	buf.WriteString(`<div data-oembed="` + templ.EscapeString(b.Oembed.EmbedURL) + `" data-oembed-type="` + templ.EscapeString(b.Oembed.Type) + `">`)
	buf.WriteString(b.Oembed.HTML)
	buf.WriteString("</div>")
}

// FormatSpans escapes text and wraps the marked-up ranges in their tags.
// Overlapping spans are split at every boundary so the output nests cleanly.
func FormatSpans(text string, spans []Span, lr LinkResolver) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	bounds := map[int]struct{}{0: {}, n: {}}
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > n || s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
		bounds[s.Start] = struct{}{}
		bounds[s.End] = struct{}{}
	}
	// Wider spans open first so they enclose narrower ones.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	points := make([]int, 0, len(bounds))
	for p := range bounds {
		points = append(points, p)
	}
	sort.Ints(points)

	var b strings.Builder
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		segment := escapeText(string(utf16.Decode(units[from:to])))

		var open, closing []string
		for _, s := range valid {
			if s.Start <= from && s.End >= to {
				o, c := spanTags(s, lr)
				if o == "" {
					continue
				}
				open = append(open, o)
				closing = append([]string{c}, closing...)
			}
		}
		b.WriteString(strings.Join(open, ""))
		b.WriteString(segment)
		b.WriteString(strings.Join(closing, ""))
	}
	return b.String()
}

func spanTags(s Span, lr LinkResolver) (string, string) {
	switch s.Type {
	case "strong":
		return "<strong>", "</strong>"
	case "em":
		return "<em>", "</em>"
	case "label":
		if s.Data == nil || s.Data.Label == "" {
			return "", ""
		}
		return `<span class="` + templ.EscapeString(s.Data.Label) + `">`, "</span>"
	case "hyperlink":
		href := linkHref(s.Data, lr)
		if href == "" {
			return "", ""
		}
		open := `<a href="` + templ.EscapeString(href) + `"`
		if s.Data.Target != "" {
			open += ` target="` + templ.EscapeString(s.Data.Target) + `" rel="noopener noreferrer"`
		}
		return open + ">", "</a>"
	}
	return "", ""
}

func linkHref(d *SpanData, lr LinkResolver) string {
	if d == nil {
		return ""
	}
	switch d.LinkType {
	case "Document":
		if lr == nil {
			return ""
		}
		return lr(d.Type, d.UID)
	default:
		if d.URL == "" {
			return ""
		}
		return string(templ.URL(d.URL))
	}
}

// escapeText escapes HTML and keeps soft line breaks.
func escapeText(s string) string {
	return strings.ReplaceAll(templ.EscapeString(s), "\n", "<br />")
}
