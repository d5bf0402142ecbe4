package market

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

// Static generates deterministic, symbol-seeded daily candles and fundamentals.
// The same symbol always yields the same series relative to the clock's day.
type Static struct {
	now func() time.Time
}

var _ interfaces.MarketData = (*Static)(nil)

func NewStatic() *Static {
	return &Static{now: time.Now}
}

func seed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(types.NormalizeSymbol(symbol)))
	return int64(h.Sum64() & math.MaxInt64)
}

func (s *Static) Price(ctx context.Context, symbol string) (float64, error) {
	cs, err := s.History(ctx, symbol, 1)
	if err != nil {
		return 0, err
	}
	return cs[len(cs)-1].Close, nil
}

func (s *Static) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	const total = 260
	if days <= 0 || days > total {
		days = total
	}

	r := rand.New(rand.NewSource(seed(symbol)))
	price := 200 + r.Float64()*2800
	drift := (r.Float64() - 0.5) * 0.004
	baseVol := 1e5 + r.Float64()*9e5

	end := s.now().UTC().Truncate(24 * time.Hour)
	cs := make([]types.Candle, 0, total)
	for i := total - 1; i >= 0; i-- {
		open := price
		price *= 1 + drift + (r.Float64()-0.5)*0.03
		hi := math.Max(open, price) * (1 + r.Float64()*0.01)
		lo := math.Min(open, price) * (1 - r.Float64()*0.01)
		cs = append(cs, types.Candle{
			Ts:    end.AddDate(0, 0, -i).Unix(),
			Open:  round2(open),
			High:  round2(hi),
			Low:   round2(lo),
			Close: round2(price),
			Vol:   math.Round(baseVol * (0.5 + r.Float64())),
		})
	}
	return cs[total-days:], nil
}

func (s *Static) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	cs, err := s.History(ctx, symbol, 2)
	if err != nil {
		return types.Fundamentals{}, err
	}
	r := rand.New(rand.NewSource(seed(symbol) ^ 0x5eed))
	price, prev := cs[1].Close, cs[0].Close

	return types.Fundamentals{
		CompanyName:    types.NormalizeSymbol(symbol) + " Ltd",
		Sector:         "Diversified",
		Industry:       "Conglomerate",
		Price:          ptr(price),
		PreviousClose:  ptr(prev),
		MarketCap:      ptr(math.Round(price * (1e8 + r.Float64()*5e9))),
		TrailingPE:     ptr(round2(8 + r.Float64()*50)),
		ForwardPE:      ptr(round2(8 + r.Float64()*40)),
		PEG:            ptr(round2(0.5 + r.Float64()*2.5)),
		PriceToBook:    ptr(round2(0.8 + r.Float64()*8)),
		DebtToEquity:   ptr(round2(r.Float64() * 200)),
		ROE:            ptr(round2(r.Float64()*0.35 - 0.05)),
		RevenueGrowth:  ptr(round2(r.Float64()*0.4 - 0.1)),
		EarningsGrowth: ptr(round2(r.Float64()*0.5 - 0.15)),
		DividendYield:  ptr(round2(r.Float64() * 0.04)),
		Beta:           ptr(round2(0.5 + r.Float64())),
		TargetPrice:    ptr(round2(price * (0.85 + r.Float64()*0.35))),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 { return &v }
