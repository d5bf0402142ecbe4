package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/types"
)

const googleNewsEndpoint = "https://news.google.com/rss/search"

// GoogleNews reads the Google News RSS search feed with colly.
type GoogleNews struct {
	endpoint string
	region   string
	timeout  time.Duration
	limit    int
}

var _ interfaces.Searcher = (*GoogleNews)(nil)

func NewGoogleNews(p Params) *GoogleNews {
	region := p.Region
	if region == "" {
		region = "IN"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleNews{
		endpoint: p.endpoint(googleNewsEndpoint),
		region:   strings.ToUpper(region),
		timeout:  timeout,
		limit:    p.limit(),
	}
}

func (g *GoogleNews) Name() string { return "googlenews" }

func (g *GoogleNews) feedURL(query string) string {
	q := url.Values{}
	q.Set("q", query+" when:7d")
	q.Set("hl", "en-"+g.region)
	q.Set("gl", g.region)
	q.Set("ceid", g.region+":en")
	return g.endpoint + "?" + q.Encode()
}

func (g *GoogleNews) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	var (
		mu        sync.Mutex
		articles  []types.RawArticle
		scrapeErr error
	)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	)
	c.SetRequestTimeout(g.timeout)
	c.WithTransport(&ctxTransport{ctx: ctx, base: http.DefaultTransport})

	c.OnXML("//item", func(e *colly.XMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(articles) >= g.limit {
			return
		}
		title, source := splitPublisher(e.ChildText("title"), e.ChildText("source"))
		a, ok := normalize(hit{
			Title:       title,
			Description: stripHTML(e.ChildText("description")),
			Link:        e.ChildText("link"),
			Source:      source,
			PublishedAt: e.ChildText("pubDate"),
		})
		if ok {
			articles = append(articles, a)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
		logger.Debug(ctx, "Google News fetch failed", "status", r.StatusCode, "error", err)
	})

	if err := c.Visit(g.feedURL(query)); err != nil && scrapeErr == nil {
		scrapeErr = err
	}
	c.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if scrapeErr != nil {
		return nil, unavailable(g.Name(), fmt.Errorf("failed to read feed: %w", scrapeErr))
	}
	return articles, nil
}

// splitPublisher removes the " - Publisher" suffix Google appends to feed titles.
func splitPublisher(title, source string) (string, string) {
	title = strings.TrimSpace(title)
	source = strings.TrimSpace(source)
	if i := strings.LastIndex(title, " - "); i > 0 {
		suffix := strings.TrimSpace(title[i+3:])
		if source == "" || strings.EqualFold(suffix, source) {
			return strings.TrimSpace(title[:i]), first(source, suffix)
		}
	}
	return title, source
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ctxTransport aborts colly requests once ctx is done.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
