package market

import (
	"context"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

// Composite takes prices and history from one source and fundamentals from another.
type Composite struct {
	quotes interfaces.MarketData
	funds  interfaces.MarketData
}

var _ interfaces.MarketData = (*Composite)(nil)

func NewComposite(quotes, funds interfaces.MarketData) *Composite {
	return &Composite{quotes: quotes, funds: funds}
}

func (c *Composite) Price(ctx context.Context, symbol string) (float64, error) {
	return c.quotes.Price(ctx, symbol)
}

func (c *Composite) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	return c.quotes.History(ctx, symbol, days)
}

// Fundamentals overrides the fundamentals source's price with the quote source's when it is available.
func (c *Composite) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	f, err := c.funds.Fundamentals(ctx, symbol)
	if err != nil {
		return f, err
	}
	if p, perr := c.quotes.Price(ctx, symbol); perr == nil {
		f.Price = &p
	}
	return f, nil
}
