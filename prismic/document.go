package prismic

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used for publication dates.
const TimeLayout = "2006-01-02T15:04:05-0700"

// Cursor is an opaque pointer to the next unread result page. It carries no
// credentials and may be handed to browsers. The zero value means exhausted.
type Cursor string

// Response is one page of search results.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"`
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`

	// Next is NextPage with credentials removed.
	Next Cursor `json:"-"`
}

// Document is a content document as returned by the API. Data is kept raw
// so callers can validate and decode it against their own custom type.
type Document struct {
	ID                   string
	UID                  string
	Type                 string
	Tags                 []string
	Lang                 string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Data                 json.RawMessage
}

type documentJSON struct {
	ID                   string          `json:"id"`
	UID                  *string         `json:"uid"`
	Type                 string          `json:"type"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the wire form, parsing the nullable timestamps.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	first, err := parseTime(raw.FirstPublicationDate)
	if err != nil {
		return fmt.Errorf("document %s: first_publication_date: %w", raw.ID, err)
	}
	last, err := parseTime(raw.LastPublicationDate)
	if err != nil {
		return fmt.Errorf("document %s: last_publication_date: %w", raw.ID, err)
	}
	*d = Document{
		ID:                   raw.ID,
		Type:                 raw.Type,
		Tags:                 raw.Tags,
		Lang:                 raw.Lang,
		FirstPublicationDate: first,
		LastPublicationDate:  last,
		Data:                 raw.Data,
	}
	if raw.UID != nil {
		d.UID = *raw.UID
	}
	return nil
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(TimeLayout, *s)
	if err != nil {
		// Some endpoints emit RFC 3339 with a colon in the offset.
		t, err = time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}
