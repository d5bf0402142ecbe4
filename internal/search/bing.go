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

const bingEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// Bing queries the Bing Web Search v7 API.
type Bing struct {
	client   *api.Client
	endpoint string
	apiKey   string
	market   string
	limit    int
}

var _ interfaces.Searcher = (*Bing)(nil)

func NewBing(p Params) (*Bing, error) {
	if p.APIKey == "" {
		return nil, errors.New("bing search requires an api key")
	}
	market := ""
	if p.Region != "" {
		market = "en-" + p.Region
	}
	return &Bing{
		client:   p.client(),
		endpoint: p.endpoint(bingEndpoint),
		apiKey:   p.APIKey,
		market:   market,
		limit:    p.limit(),
	}, nil
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(b.limit))
	q.Set("freshness", "Week")
	if b.market != "" {
		q.Set("mkt", b.market)
	}

	resp, err := b.client.GET(ctx, b.endpoint, q, map[string]string{"Ocp-Apim-Subscription-Key": b.apiKey})
	if err != nil {
		return nil, unavailable(b.Name(), err)
	}

	var body struct {
		WebPages struct {
			Value []struct {
				Name            string `json:"name"`
				Snippet         string `json:"snippet"`
				URL             string `json:"url"`
				DisplayURL      string `json:"displayUrl"`
				DatePublished   string `json:"datePublished"`
				DateLastCrawled string `json:"dateLastCrawled"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := resp.ParseJSON(&body); err != nil {
		return nil, unavailable(b.Name(), err)
	}

	out := make([]types.RawArticle, 0, len(body.WebPages.Value))
	for _, v := range body.WebPages.Value {
		a, ok := normalize(hit{
			Name:            v.Name,
			Snippet:         v.Snippet,
			URL:             v.URL,
			DisplayURL:      v.DisplayURL,
			DatePublished:   v.DatePublished,
			DateLastCrawled: v.DateLastCrawled,
		})
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}
