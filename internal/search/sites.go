package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/types"
)

// Site describes a financial portal whose topic or search page lists articles.
type Site struct {
	Name      string
	// BaseURL is scheme and host, without a trailing slash.
	BaseURL   string
	// Path contains {symbol} or {query}.
	Path      string
	Container string
	Title     string
	Link      string
	Summary   string
	Date      string
}

// DefaultSites returns the Indian market portals scraped by the sites provider.
func DefaultSites() []Site {
	return []Site{
		{
			Name:      "moneycontrol.com",
			BaseURL:   "https://www.moneycontrol.com",
			Path:      "/news/tags/{symbol}.html",
			Container: "li.clearfix",
			Title:     "h2 a, h3 a",
			Link:      "h2 a, h3 a",
			Summary:   "p",
			Date:      "span.ago",
		},
		{
			Name:      "economictimes.indiatimes.com",
			BaseURL:   "https://economictimes.indiatimes.com",
			Path:      "/topic/{symbol}",
			Container: "div.story-box",
			Title:     "a",
			Link:      "a",
			Summary:   "p",
			Date:      "time",
		},
		{
			Name:      "business-standard.com",
			BaseURL:   "https://www.business-standard.com",
			Path:      "/search?q={query}",
			Container: "div.listing-txt",
			Title:     "a.Hdng",
			Link:      "a.Hdng",
			Summary:   "p",
			Date:      "span.listing-date",
		},
	}
}

// Sites scrapes article listings from a fixed set of portals. A query fails
// only when every site fails.
type Sites struct {
	sites   []Site
	timeout time.Duration
	limit   int
}

var _ interfaces.Searcher = (*Sites)(nil)

func NewSites(p Params, sites []Site) *Sites {
	if len(sites) == 0 {
		sites = DefaultSites()
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Sites{sites: sites, timeout: timeout, limit: p.limit()}
}

func (s *Sites) Name() string { return "sites" }

func (s *Sites) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	symbol := strings.ToLower(strings.Fields(query + " _")[0])

	var (
		out    []types.RawArticle
		failed int
		last   error
	)
	perSite := max(s.limit/len(s.sites), 1)
	for _, site := range s.sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		arts, err := s.scrape(ctx, site, symbol, query, perSite)
		if err != nil {
			failed++
			last = err
			logger.Debug(ctx, "Site scrape failed", "site", site.Name, "error", err)
			continue
		}
		out = append(out, arts...)
	}
	if failed == len(s.sites) {
		return nil, unavailable(s.Name(), last)
	}
	if len(out) > s.limit {
		out = out[:s.limit]
	}
	return out, nil
}

func (s *Sites) scrape(ctx context.Context, site Site, symbol, query string, limit int) ([]types.RawArticle, error) {
	var (
		mu        sync.Mutex
		articles  []types.RawArticle
		scrapeErr error
	)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	c.SetRequestTimeout(s.timeout)
	c.WithTransport(&ctxTransport{ctx: ctx, base: http.DefaultTransport})

	c.OnHTML(site.Container, func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(articles) >= limit {
			return
		}
		link := e.ChildAttr(site.Link, "href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = site.BaseURL + "/" + strings.TrimPrefix(link, "/")
		}
		a, ok := normalize(hit{
			Title:       e.ChildText(site.Title),
			Summary:     e.ChildText(site.Summary),
			Link:        link,
			Source:      site.Name,
			PublishedAt: e.ChildAttr(site.Date, "datetime"),
		})
		if ok {
			articles = append(articles, a)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
	})

	path := strings.NewReplacer(
		"{symbol}", url.PathEscape(symbol),
		"{query}", url.QueryEscape(query),
	).Replace(site.Path)
	if err := c.Visit(site.BaseURL + path); err != nil && scrapeErr == nil {
		scrapeErr = err
	}
	c.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if scrapeErr != nil {
		return nil, fmt.Errorf("%s: %w", site.Name, scrapeErr)
	}
	return articles, nil
}
