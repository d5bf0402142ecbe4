package search

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"equity-advisor/internal/api"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// Google queries the Custom Search JSON API.
type Google struct {
	client   *api.Client
	endpoint string
	apiKey   string
	cx       string
	region   string
	limit    int
}

var _ interfaces.Searcher = (*Google)(nil)

func NewGoogle(p Params) (*Google, error) {
	if p.APIKey == "" || p.CX == "" {
		return nil, errors.New("google search requires an api key and a cx id")
	}
	return &Google{
		client:   p.client(),
		endpoint: p.endpoint(googleEndpoint),
		apiKey:   p.APIKey,
		cx:       p.CX,
		region:   p.Region,
		limit:    p.limit(),
	}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("cx", g.cx)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(g.limit))
	q.Set("dateRestrict", "w1")
	if g.region != "" {
		q.Set("gl", g.region)
	}

	var body struct {
		Items []struct {
			Title       string `json:"title"`
			Snippet     string `json:"snippet"`
			Link        string `json:"link"`
			DisplayLink string `json:"displayLink"`
			Pagemap     struct {
				Metatags []map[string]string `json:"metatags"`
			} `json:"pagemap"`
		} `json:"items"`
	}
	if err := g.client.GetJSON(ctx, g.endpoint, q, &body); err != nil {
		return nil, unavailable(g.Name(), err)
	}

	out := make([]types.RawArticle, 0, len(body.Items))
	for _, it := range body.Items {
		h := hit{Title: it.Title, Snippet: it.Snippet, Link: it.Link, DisplayLink: it.DisplayLink}
		if len(it.Pagemap.Metatags) > 0 {
			h.PublishedAt = it.Pagemap.Metatags[0]["article:published_time"]
		}
		if a, ok := normalize(h); ok {
			out = append(out, a)
		}
	}
	return out, nil
}
