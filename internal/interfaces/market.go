package interfaces

import (
	"context"

	"equity-advisor/internal/types"
)

// MarketData is read-only from the engine's perspective.
type MarketData interface {
	Price(ctx context.Context, symbol string) (float64, error)
	History(ctx context.Context, symbol string, days int) ([]types.Candle, error)
	Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error)
}
