package views

import "github.com/eringen/inkpress/richtext"

// Site holds site-wide settings every page needs. It is built once from
// the application config so nothing is hardcoded in templates.
type Site struct {
	Name           string // SITE_NAME
	URL            string // SITE_URL
	Description    string // SITE_DESCRIPTION
	Author         string // SITE_AUTHOR
	UtterancesRepo string // UTTERANCES_REPO, "owner/repo"; empty disables comments

	// Link maps document links inside rich text to site URLs.
	Link richtext.LinkResolver
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
