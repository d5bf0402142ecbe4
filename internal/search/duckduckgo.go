package search

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"equity-advisor/internal/api"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

const duckEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the key-less HTML results page.
type DuckDuckGo struct {
	client   *api.Client
	endpoint string
	region   string
	limit    int
}

var _ interfaces.Searcher = (*DuckDuckGo)(nil)

func NewDuckDuckGo(p Params) *DuckDuckGo {
	region := ""
	if p.Region != "" {
		region = strings.ToLower(p.Region) + "-en"
	}
	return &DuckDuckGo{
		client:   p.client(),
		endpoint: p.endpoint(duckEndpoint),
		region:   region,
		limit:    p.limit(),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("df", "w")
	if d.region != "" {
		q.Set("kl", d.region)
	}

	resp, err := d.client.GET(ctx, d.endpoint, q, api.BrowserHeaders())
	if err != nil {
		return nil, unavailable(d.Name(), err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, unavailable(d.Name(), err)
	}
	return parseDuckResults(doc, d.limit), nil
}

func parseDuckResults(doc *goquery.Document, limit int) []types.RawArticle {
	var out []types.RawArticle
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		a, ok := normalize(hit{
			Title:      link.Text(),
			Snippet:    s.Find(".result__snippet").First().Text(),
			URL:        resolveDuckLink(href),
			DisplayURL: s.Find(".result__url").First().Text(),
		})
		if ok {
			out = append(out, a)
		}
		return len(out) < limit
	})
	return out
}

// resolveDuckLink unwraps the /l/?uddg= redirect used on result anchors.
func resolveDuckLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
