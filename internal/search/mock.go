package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

// Mock returns symbol-templated articles chosen by the angle of the query.
// It is only used when selected explicitly in configuration.
type Mock struct {
	base time.Time
}

var _ interfaces.Searcher = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{base: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (m *Mock) Name() string { return "mock" }

type mockArticle struct {
	title, snippet, host, source string
	daysAgo                      int
}

var (
	mockEarnings = []mockArticle{
		{"%s Beats Q4 Earnings Expectations with Strong Revenue Growth", "%s reported Q4 EPS ahead of consensus. Revenue grew 12%% YoY on demand across segments.", "seekingalpha.com", "Seeking Alpha", 0},
		{"%s Stock Surges 8%% After Earnings Beat", "Shares of %s jumped after better-than-expected quarterly results and raised full-year guidance.", "marketwatch.com", "MarketWatch", 0},
	}
	mockAnalyst = []mockArticle{
		{"Goldman Sachs Upgrades %s to Buy, Raises Price Target", "Goldman Sachs upgraded %s from Hold to Buy with a higher price target, citing operational efficiency.", "finance.yahoo.com", "Yahoo Finance", 1},
		{"Why 5 Analysts Just Raised Their %s Price Targets", "Following strong quarterly results, several brokers increased their price targets for %s.", "fool.com", "The Motley Fool", 1},
	}
	mockCorporate = []mockArticle{
		{"BREAKING: %s Announces Share Buyback Program", "%s announced a new share repurchase program, signalling confidence in its long-term outlook.", "reuters.com", "Reuters", 2},
		{"%s Partners with AI Leader for Next-Gen Innovation", "%s entered a strategic partnership to integrate AI capabilities across its products.", "businesswire.com", "Business Wire", 3},
		{"%s CEO Discusses Strategy at Industry Conference", "The CEO highlighted %s's competitive advantages and expansion plans.", "cnbc.com", "CNBC", 4},
	}
	mockGeneral = []mockArticle{
		{"%s Options Activity Shows Bullish Sentiment", "Unusual options activity in %s suggests institutions are positioning for upside.", "benzinga.com", "Benzinga", 5},
		{"Technical Analysis: %s Breaks Key Resistance Level", "%s broke above its 200-day moving average on heavy volume.", "tradingview.com", "TradingView", 6},
	}
)

func (m *Mock) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return nil, nil
	}
	symbol := types.NormalizeSymbol(fields[0])
	lower := strings.ToLower(query)

	earnings := containsAny(lower, "earnings", "results", "financial")
	analyst := containsAny(lower, "analyst", "upgrade", "downgrade", "target")
	corporate := containsAny(lower, "breaking", "announcement", "merger")

	var picked []mockArticle
	if earnings {
		picked = append(picked, mockEarnings...)
	}
	if analyst {
		picked = append(picked, mockAnalyst...)
	}
	if corporate || !(earnings || analyst) {
		picked = append(picked, mockCorporate...)
	}
	picked = append(picked, mockGeneral...)

	out := make([]types.RawArticle, len(picked))
	for i, p := range picked {
		published := m.base.AddDate(0, 0, -p.daysAgo)
		slug := strings.ToLower(strings.ReplaceAll(fmt.Sprintf(p.title, symbol), " ", "-"))
		out[i] = types.RawArticle{
			Title:       fmt.Sprintf(p.title, symbol),
			Snippet:     fmt.Sprintf(p.snippet, symbol),
			Source:      p.source,
			URL:         "https://" + p.host + "/" + slug,
			PublishedAt: &published,
		}
	}
	return out, nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
