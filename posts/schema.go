package posts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/eringen/inkpress/prismic"
	"github.com/eringen/inkpress/richtext"
)

// ErrMalformed is returned when a document's data does not match the
// expected shape of a post.
var ErrMalformed = errors.New("posts: malformed document")

// summarySchema covers the projected listing fields. Fields may be null
// when an editor leaves them blank.
const summarySchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title":    {"type": ["string", "null"]},
    "subtitle": {"type": ["string", "null"]},
    "author":   {"type": ["string", "null"]}
  }
}`

const detailSchema = `{
  "type": "object",
  "required": ["title", "content"],
  "properties": {
    "title":    {"type": ["string", "null"]},
    "subtitle": {"type": ["string", "null"]},
    "author":   {"type": ["string", "null"]},
    "banner": {
      "type": ["object", "null"],
      "properties": {"url": {"type": ["string", "null"]}}
    },
    "content": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "heading": {"type": ["string", "null"]},
          "body": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["type"],
              "properties": {
                "type":  {"type": "string"},
                "text":  {"type": "string"},
                "spans": {"type": "array"}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	summaryValidator = mustSchema(summarySchema)
	detailValidator  = mustSchema(detailSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("posts: compile schema: %v", err))
	}
	return schema
}

// validate checks raw document data against a compiled schema.
func validate(schema *gojsonschema.Schema, doc prismic.Document) error {
	if len(doc.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformed, doc.ID)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc.Data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, doc.ID, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrMalformed, doc.ID, strings.Join(msgs, "; "))
	}
	return nil
}

type summaryData struct {
	Title    *string `json:"title"`
	Subtitle *string `json:"subtitle"`
	Author   *string `json:"author"`
}

type detailData struct {
	summaryData
	Banner *struct {
		URL *string `json:"url"`
	} `json:"banner"`
	Content []struct {
		Heading *string          `json:"heading"`
		Body    []richtext.Block `json:"body"`
	} `json:"content"`
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DecodeSummary validates and converts a listing document.
func DecodeSummary(doc prismic.Document) (PostSummary, error) {
	if err := validate(summaryValidator, doc); err != nil {
		return PostSummary{}, err
	}
	var d summaryData
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return PostSummary{}, fmt.Errorf("%w: %s: %v", ErrMalformed, doc.ID, err)
	}
	return summaryOf(doc, d), nil
}

// DecodeDetail validates and converts a full post document.
func DecodeDetail(doc prismic.Document) (PostDetail, error) {
	if err := validate(detailValidator, doc); err != nil {
		return PostDetail{}, err
	}
	var d detailData
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return PostDetail{}, fmt.Errorf("%w: %s: %v", ErrMalformed, doc.ID, err)
	}
	post := PostDetail{
		PostSummary:         summaryOf(doc, d.summaryData),
		LastPublicationDate: doc.LastPublicationDate,
		Content:             make([]ContentBlock, 0, len(d.Content)),
	}
	if d.Banner != nil {
		post.BannerURL = str(d.Banner.URL)
	}
	for _, c := range d.Content {
		post.Content = append(post.Content, ContentBlock{
			Heading:    str(c.Heading),
			HasHeading: c.Heading != nil,
			Body:       c.Body,
		})
	}
	return post, nil
}

// decodeNeighbor keeps only what navigation needs.
func decodeNeighbor(doc prismic.Document) (*Neighbor, error) {
	s, err := DecodeSummary(doc)
	if err != nil {
		return nil, err
	}
	return &Neighbor{UID: s.UID, Title: s.Title}, nil
}

func summaryOf(doc prismic.Document, d summaryData) PostSummary {
	return PostSummary{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		Title:                str(d.Title),
		Subtitle:             str(d.Subtitle),
		Author:               str(d.Author),
	}
}
