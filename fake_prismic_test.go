package inkpress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"
)

const masterRef = "master"

type fakePost struct {
	ID      string
	UID     string
	Title   string
	Date    time.Time
	Edited  *time.Time
	Heading string
	Body    string
}

func (p fakePost) document() map[string]any {
	doc := map[string]any{
		"id":                     p.ID,
		"uid":                    p.UID,
		"type":                   "posts",
		"lang":                   "en-us",
		"tags":                   []string{},
		"first_publication_date": p.Date.Format("2006-01-02T15:04:05-0700"),
		"last_publication_date":  nil,
		"data": map[string]any{
			"title":    p.Title,
			"subtitle": "About " + p.Title,
			"author":   "Ana",
			"banner":   map[string]any{"url": "https://images.example.com/" + p.UID + ".png"},
			"content": []any{
				map[string]any{
					"heading": p.Heading,
					"body": []any{
						map[string]any{"type": "paragraph", "text": p.Body, "spans": []any{}},
					},
				},
			},
		},
	}
	if p.Edited != nil {
		doc["last_publication_date"] = p.Edited.Format("2006-01-02T15:04:05-0700")
	}
	return doc
}

// fakePrismic serves the subset of the content API the app uses: refs,
// type/uid/id predicates, orderings by publication date then id, after,
// and page/pageSize pagination with next_page links.
type fakePrismic struct {
	srv *httptest.Server

	mu        sync.Mutex
	published []fakePost
	drafts    map[string]map[string]fakePost // ref -> id -> edited post
	failPages bool                           // 500 for any page after the first
	searches  int
}

var atPredicate = regexp.MustCompile(`at\(([^,]+),"([^"]*)"\)`)

func newFakePrismic(t *testing.T, posts ...fakePost) *fakePrismic {
	t.Helper()
	f := &fakePrismic{published: posts, drafts: map[string]map[string]fakePost{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

// seedPosts returns n posts, post-1 oldest, one day apart.
func seedPosts(n int) []fakePost {
	base := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]fakePost, n)
	for i := range out {
		out[i] = fakePost{
			ID:      fmt.Sprintf("id-%02d", i+1),
			UID:     fmt.Sprintf("post-%d", i+1),
			Title:   fmt.Sprintf("Post %d", i+1),
			Date:    base.AddDate(0, 0, i),
			Heading: "Section",
			Body:    strings.Repeat("word ", 199) + "word",
		}
	}
	return out
}

func (f *fakePrismic) setFailPages(v bool) {
	f.mu.Lock()
	f.failPages = v
	f.mu.Unlock()
}

func (f *fakePrismic) addDraft(ref string, p fakePost) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.drafts[ref] == nil {
		f.drafts[ref] = map[string]fakePost{}
	}
	f.drafts[ref][p.ID] = p
}

func (f *fakePrismic) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

func (f *fakePrismic) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v2":
		writeJSON(w, http.StatusOK, map[string]any{
			"refs": []any{map[string]any{"id": "master", "ref": masterRef, "isMasterRef": true}},
		})
	case "/api/v2/documents/search":
		f.search(w, r.URL.Query())
	default:
		http.NotFound(w, r)
	}
}

func (f *fakePrismic) search(w http.ResponseWriter, q url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	if f.failPages && page > 1 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		return
	}

	ref := q.Get("ref")
	var overlay map[string]fakePost
	if ref != masterRef {
		var ok bool
		if overlay, ok = f.drafts[ref]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "ref not found"})
			return
		}
	}
	docs := make([]fakePost, 0, len(f.published))
	for _, p := range f.published {
		if d, ok := overlay[p.ID]; ok {
			p = d
		}
		docs = append(docs, p)
	}

	for _, m := range atPredicate.FindAllStringSubmatch(q.Get("q"), -1) {
		field, value := m[1], m[2]
		kept := docs[:0:0]
		for _, p := range docs {
			switch {
			case field == "document.type" && value == "posts",
				field == "my.posts.uid" && p.UID == value,
				field == "document.id" && p.ID == value:
				kept = append(kept, p)
			}
		}
		docs = kept
	}

	desc := strings.Contains(q.Get("orderings"), "desc")
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date) != desc
		}
		return (a.ID < b.ID) != desc
	})

	if after := q.Get("after"); after != "" {
		for i, p := range docs {
			if p.ID == after {
				docs = docs[i+1:]
				break
			}
		}
	}

	size, _ := strconv.Atoi(q.Get("pageSize"))
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start > len(docs) {
		start = len(docs)
	}
	end := start + size
	if end > len(docs) {
		end = len(docs)
	}

	results := make([]any, 0, end-start)
	for _, p := range docs[start:end] {
		results = append(results, p.document())
	}
	var next any
	if end < len(docs) {
		nq := url.Values{}
		for k, v := range q {
			nq[k] = v
		}
		nq.Set("page", strconv.Itoa(page+1))
		next = f.srv.URL + "/api/v2/documents/search?" + nq.Encode()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":               page,
		"results_per_page":   size,
		"results_size":       len(results),
		"total_results_size": len(docs),
		"next_page":          next,
		"results":            results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// findAll returns every element in the tree matching pred.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
