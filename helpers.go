package inkpress

import (
	"time"

	"github.com/eringen/inkpress/views"
)

func (a *App) postURL(uid string) string {
	return views.BuildURL(a.Config.URL, "post", uid)
}

// formatTime renders t with layout, or "" for an unpublished document.
func formatTime(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(layout)
}
