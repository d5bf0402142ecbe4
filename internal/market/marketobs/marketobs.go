package marketobs

import (
	"context"
	"time"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/trace"
	"equity-advisor/internal/types"
)

// observableMarket wraps MarketData with logging, tracing and latency metrics
type observableMarket struct {
	md  interfaces.MarketData
	rec *metrics.Recorder
}

var _ interfaces.MarketData = (*observableMarket)(nil)

func Wrap(md interfaces.MarketData, rec *metrics.Recorder) interfaces.MarketData {
	return &observableMarket{md: md, rec: rec}
}

func (om *observableMarket) Price(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "market.Price")
	defer span.End()
	start := time.Now()

	logger.DebugSkip(ctx, 1, "Fetching price", "symbol", symbol)

	price, err := om.md.Price(ctx, symbol)
	om.rec.RecordLatency("market.price", time.Since(start).Seconds())
	if err != nil {
		trace.Fail(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch price", err, "symbol", symbol)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Price fetched", "symbol", symbol, "price", price)
	return price, nil
}

func (om *observableMarket) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "market.History")
	defer span.End()
	start := time.Now()

	logger.DebugSkip(ctx, 1, "Fetching daily history", "symbol", symbol, "days", days)

	candles, err := om.md.History(ctx, symbol, days)
	om.rec.RecordLatency("market.history", time.Since(start).Seconds())
	if err != nil {
		trace.Fail(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch history", err, "symbol", symbol, "days", days)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "History fetched", "symbol", symbol, "count", len(candles))
	return candles, nil
}

func (om *observableMarket) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	ctx, span := trace.StartSpan(ctx, "market.Fundamentals")
	defer span.End()
	start := time.Now()

	logger.DebugSkip(ctx, 1, "Fetching fundamentals", "symbol", symbol)

	f, err := om.md.Fundamentals(ctx, symbol)
	om.rec.RecordLatency("market.fundamentals", time.Since(start).Seconds())
	if err != nil {
		trace.Fail(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch fundamentals", err, "symbol", symbol)
		return f, err
	}

	logger.DebugSkip(ctx, 1, "Fundamentals fetched", "symbol", symbol, "company", f.CompanyName)
	return f, nil
}
