package search

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"equity-advisor/internal/api"
	"equity-advisor/internal/types"
)

// Params configures the HTTP-backed providers. Zero values select the public endpoints.
type Params struct {
	APIKey   string
	CX       string
	Endpoint string
	Region   string
	Limit    int
	Timeout  time.Duration
	Client   *api.Client
}

func (p Params) client() *api.Client {
	if p.Client != nil {
		return p.Client
	}
	return api.NewClient(api.WithTimeout(p.Timeout), api.WithLogging(true))
}

func (p Params) limit() int {
	if p.Limit <= 0 || p.Limit > 10 {
		return 10
	}
	return p.Limit
}

func (p Params) endpoint(def string) string {
	if p.Endpoint != "" {
		return p.Endpoint
	}
	return def
}

func unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrSearchUnavailable, provider, err)
}

// hit is the union of field names used by the search APIs we read.
type hit struct {
	Title           string
	Name            string
	Snippet         string
	Description     string
	Summary         string
	URL             string
	Link            string
	Source          string
	Domain          string
	DisplayLink     string
	DisplayURL      string
	Date            string
	PublishedAt     string
	DatePublished   string
	DateLastCrawled string
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.0000000Z",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// normalize maps a provider hit onto a RawArticle. Hits without a title or URL are dropped.
func normalize(h hit) (types.RawArticle, bool) {
	a := types.RawArticle{
		Title:   strings.TrimSpace(first(h.Title, h.Name)),
		Snippet: strings.TrimSpace(first(h.Snippet, h.Description, h.Summary)),
		URL:     strings.TrimSpace(first(h.URL, h.Link)),
		Source:  strings.TrimSpace(first(h.Source, h.Domain, h.DisplayLink, hostOf(h.DisplayURL))),
	}
	if a.Title == "" || a.URL == "" {
		return types.RawArticle{}, false
	}
	if a.Source == "" {
		a.Source = hostOf(a.URL)
	}
	if ts, ok := parseDate(first(h.Date, h.PublishedAt, h.DatePublished, h.DateLastCrawled)); ok {
		a.PublishedAt = &ts
	}
	return a, true
}

func first(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// hostOf tolerates scheme-less display URLs like "www.reuters.com/markets".
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
