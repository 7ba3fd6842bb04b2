package inkpress

import "embed"

// EmbeddedAssets contains static assets shipped with inkpress: loadmore.js.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
