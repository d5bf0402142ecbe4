package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"equity-advisor/internal/api"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

const yahooEndpoint = "https://query1.finance.yahoo.com"

// Yahoo reads the public chart and quoteSummary endpoints.
type Yahoo struct {
	client   *api.Client
	endpoint string
	suffix   string
}

var _ interfaces.MarketData = (*Yahoo)(nil)

// NewYahoo appends suffix (e.g. ".NS") to symbols that carry no exchange suffix.
func NewYahoo(client *api.Client, endpoint, suffix string) *Yahoo {
	if endpoint == "" {
		endpoint = yahooEndpoint
	}
	return &Yahoo{client: client, endpoint: strings.TrimRight(endpoint, "/"), suffix: suffix}
}

func (y *Yahoo) ticker(symbol string) string {
	s := types.NormalizeSymbol(symbol)
	if strings.Contains(s, ".") || y.suffix == "" {
		return s
	}
	return s + y.suffix
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) chart(ctx context.Context, symbol, rng string) (*chartResponse, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", rng)

	var out chartResponse
	if err := y.client.GetJSON(ctx, y.endpoint+"/v8/finance/chart/"+url.PathEscape(y.ticker(symbol)), q, &out); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, types.ErrNotFound)
	}
	return &out, nil
}

func (y *Yahoo) Price(ctx context.Context, symbol string) (float64, error) {
	out, err := y.chart(ctx, symbol, "1d")
	if err != nil {
		return 0, err
	}
	p := out.Chart.Result[0].Meta.RegularMarketPrice
	if p <= 0 {
		return 0, fmt.Errorf("yahoo chart %s: no market price", symbol)
	}
	return p, nil
}

// History returns daily candles oldest first; bars with missing values are skipped.
func (y *Yahoo) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	out, err := y.chart(ctx, symbol, chartRange(days))
	if err != nil {
		return nil, err
	}
	res := out.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no quotes", symbol)
	}
	q := res.Indicators.Quote[0]

	cs := make([]types.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, h, l, c, v := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i), at(q.Volume, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		vol := 0.0
		if v != nil {
			vol = *v
		}
		cs = append(cs, types.Candle{Ts: ts, Open: *o, High: *h, Low: *l, Close: *c, Vol: vol})
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, types.ErrNotFound)
	}
	if days > 0 && len(cs) > days {
		cs = cs[len(cs)-days:]
	}
	return cs, nil
}

func chartRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	}
	return "2y"
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

type raw struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName                   string `json:"longName"`
				ShortName                  string `json:"shortName"`
				RegularMarketPrice         raw    `json:"regularMarketPrice"`
				RegularMarketPreviousClose raw    `json:"regularMarketPreviousClose"`
				MarketCap                  raw    `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE    raw `json:"trailingPE"`
				ForwardPE     raw `json:"forwardPE"`
				DividendYield raw `json:"dividendYield"`
				Beta          raw `json:"beta"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				PegRatio    raw `json:"pegRatio"`
				PriceToBook raw `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				TargetMeanPrice raw `json:"targetMeanPrice"`
				DebtToEquity    raw `json:"debtToEquity"`
				ReturnOnEquity  raw `json:"returnOnEquity"`
				RevenueGrowth   raw `json:"revenueGrowth"`
				EarningsGrowth  raw `json:"earningsGrowth"`
			} `json:"financialData"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

var errNoFundamentals = errors.New("no fundamental metrics available")

func (y *Yahoo) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	q := url.Values{}
	q.Set("modules", "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile")

	var out summaryResponse
	if err := y.client.GetJSON(ctx, y.endpoint+"/v10/finance/quoteSummary/"+url.PathEscape(y.ticker(symbol)), q, &out); err != nil {
		return types.Fundamentals{}, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}
	if out.QuoteSummary.Error != nil {
		return types.Fundamentals{}, fmt.Errorf("yahoo quoteSummary %s: %s", symbol, out.QuoteSummary.Error.Description)
	}
	if len(out.QuoteSummary.Result) == 0 {
		return types.Fundamentals{}, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, types.ErrNotFound)
	}
	r := out.QuoteSummary.Result[0]

	f := types.Fundamentals{
		CompanyName:    first(r.Price.LongName, r.Price.ShortName),
		Sector:         r.AssetProfile.Sector,
		Industry:       r.AssetProfile.Industry,
		Price:          r.Price.RegularMarketPrice.Raw,
		PreviousClose:  r.Price.RegularMarketPreviousClose.Raw,
		MarketCap:      r.Price.MarketCap.Raw,
		TrailingPE:     r.SummaryDetail.TrailingPE.Raw,
		ForwardPE:      r.SummaryDetail.ForwardPE.Raw,
		PEG:            r.DefaultKeyStatistics.PegRatio.Raw,
		PriceToBook:    r.DefaultKeyStatistics.PriceToBook.Raw,
		DebtToEquity:   r.FinancialData.DebtToEquity.Raw,
		ROE:            r.FinancialData.ReturnOnEquity.Raw,
		RevenueGrowth:  r.FinancialData.RevenueGrowth.Raw,
		EarningsGrowth: r.FinancialData.EarningsGrowth.Raw,
		DividendYield:  r.SummaryDetail.DividendYield.Raw,
		Beta:           r.SummaryDetail.Beta.Raw,
		TargetPrice:    r.FinancialData.TargetMeanPrice.Raw,
	}
	if !f.Known() {
		return f, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, errNoFundamentals)
	}
	return f, nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
