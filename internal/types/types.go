package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Action is the recommended position for a symbol.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// SignalKind names one of the three independent analytical dimensions.
type SignalKind string

const (
	SignalNews        SignalKind = "news"
	SignalTechnical   SignalKind = "technical"
	SignalFundamental SignalKind = "fundamental"
)

// AllSignals lists the signal kinds in synthesis order.
var AllSignals = []SignalKind{SignalNews, SignalTechnical, SignalFundamental}

// RawArticle is a single untrusted search hit.
type RawArticle struct {
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	URL         string     `json:"url"`
}

// ScoredArticle is a RawArticle that matched at least one financial keyword.
type ScoredArticle struct {
	RawArticle
	RelevanceScore  float64  `json:"relevance_score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// EvidenceSet is ordered by descending relevance and is never mutated after construction.
type EvidenceSet struct {
	Symbol   string          `json:"symbol"`
	Articles []ScoredArticle `json:"articles"`
}

func (e EvidenceSet) Empty() bool { return len(e.Articles) == 0 }

// Top returns at most n leading articles.
func (e EvidenceSet) Top(n int) []ScoredArticle {
	if n >= len(e.Articles) {
		return e.Articles
	}
	return e.Articles[:n]
}

type SignalScore struct {
	Kind      SignalKind `json:"kind"`
	Value     float64    `json:"value"`
	Rationale string     `json:"rationale"`
}

// TechnicalSnapshot holds indicators derived from the recent price series.
// Fields are NaN-free; unavailable values are nil.
type TechnicalSnapshot struct {
	CurrentPrice   float64  `json:"current_price"`
	MA20           *float64 `json:"ma_20,omitempty"`
	MA50           *float64 `json:"ma_50,omitempty"`
	RSI            *float64 `json:"rsi,omitempty"`
	PriceVsMA20Pct *float64 `json:"price_vs_ma20_percent,omitempty"`
	PriceVsMA50Pct *float64 `json:"price_vs_ma50_percent,omitempty"`
	VolumeRatio    *float64 `json:"volume_ratio,omitempty"`
	Momentum1WPct  *float64 `json:"momentum_1w_percent,omitempty"`
	Momentum1MPct  *float64 `json:"momentum_1m_percent,omitempty"`
	BollingerUpper *float64 `json:"bollinger_upper,omitempty"`
	BollingerLower *float64 `json:"bollinger_lower,omitempty"`
	ATR            *float64 `json:"atr,omitempty"`
	Bars           int      `json:"bars"`
}

// Fundamentals holds the latest valuation, growth and leverage metrics. Nil means unknown.
type Fundamentals struct {
	CompanyName    string   `json:"company_name,omitempty"`
	Sector         string   `json:"sector,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	PreviousClose  *float64 `json:"previous_close,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	TrailingPE     *float64 `json:"pe_ratio,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	PEG            *float64 `json:"peg_ratio,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	ROE            *float64 `json:"roe,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	TargetPrice    *float64 `json:"target_price,omitempty"`
}

// Known reports whether at least one numeric metric is present.
func (f Fundamentals) Known() bool {
	for _, v := range []*float64{f.MarketCap, f.TrailingPE, f.ForwardPE, f.PEG, f.PriceToBook,
		f.DebtToEquity, f.ROE, f.RevenueGrowth, f.EarningsGrowth, f.DividendYield, f.Beta, f.TargetPrice} {
		if v != nil {
			return true
		}
	}
	return false
}

type Recommendation struct {
	ID                  string             `json:"id"`
	Symbol              string             `json:"symbol"`
	Action              Action             `json:"action"`
	Confidence          float64            `json:"confidence"`
	Composite           float64            `json:"composite"`
	NewsSentiment       *float64           `json:"news_sentiment"`
	TechnicalScore      *float64           `json:"technical_score"`
	FundamentalScore    *float64           `json:"fundamental_score"`
	Reasoning           string             `json:"reasoning"`
	MissingSignals      []SignalKind       `json:"missing_signals,omitempty"`
	RecentNews          []ScoredArticle    `json:"recent_news,omitempty"`
	TechnicalIndicators *TechnicalSnapshot `json:"technical_indicators,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// Score returns the stored value for a signal kind, nil when the signal was unavailable.
func (r Recommendation) Score(kind SignalKind) *float64 {
	switch kind {
	case SignalNews:
		return r.NewsSentiment
	case SignalTechnical:
		return r.TechnicalScore
	case SignalFundamental:
		return r.FundamentalScore
	}
	return nil
}

type RecommendationChange struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	RecommendationID string    `json:"recommendation_id"`
	PreviousAction   Action    `json:"previous_action"`
	NewAction        Action    `json:"new_action"`
	Confidence       float64   `json:"confidence"`
	DetectedAt       time.Time `json:"detected_at"`
}

// Prompt is the structured context handed to a reasoning service.
type Prompt struct {
	Kind   SignalKind         `json:"kind"`
	Symbol string             `json:"symbol"`
	System string             `json:"system"`
	User   string             `json:"user"`
	Facts  map[string]float64 `json:"facts,omitempty"`
	Texts  []string           `json:"texts,omitempty"`
}

type Inference struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Fact keys carried in Prompt.Facts.
const (
	FactPrice          = "price"
	FactRSI            = "rsi"
	FactPriceVsMA20    = "price_vs_ma20_pct"
	FactPriceVsMA50    = "price_vs_ma50_pct"
	FactMomentum1W     = "momentum_1w_pct"
	FactMomentum1M     = "momentum_1m_pct"
	FactVolumeRatio    = "volume_ratio"
	FactTrailingPE     = "trailing_pe"
	FactForwardPE      = "forward_pe"
	FactPEG            = "peg"
	FactPriceToBook    = "price_to_book"
	FactDebtToEquity   = "debt_to_equity"
	FactROE            = "roe"
	FactRevenueGrowth  = "revenue_growth"
	FactEarningsGrowth = "earnings_growth"
	FactDividendYield  = "dividend_yield"
	FactTargetUpside   = "target_upside_pct"
	FactArticles       = "articles"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.&_-]{0,19}$`)

// ValidateSymbol normalizes s and rejects anything that is not a plausible ticker.
func ValidateSymbol(s string) (string, error) {
	sym := NormalizeSymbol(s)
	if !symbolPattern.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}
