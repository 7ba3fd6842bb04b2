package inkpress

import (
	"bytes"
	"encoding/xml"

	"github.com/eringen/inkpress/posts"
	"github.com/eringen/inkpress/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemapXML lists the listing page and every post path Slugs would return.
func (a *App) sitemapXML(items []posts.PostSummary) ([]byte, error) {
	urls := []sitemapURL{
		{Loc: views.BuildURL(a.Config.URL)},
	}
	for _, p := range items {
		if p.UID == "" {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     a.postURL(p.UID),
			LastMod: formatTime(p.FirstPublicationDate, "2006-01-02"),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(sitemap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
