package search

import (
	"context"

	"golang.org/x/time/rate"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

// Throttled shares one token bucket across all queries sent to a provider.
type Throttled struct {
	next    interfaces.Searcher
	limiter *rate.Limiter
}

var _ interfaces.Searcher = (*Throttled)(nil)

// Throttle wraps s with a limiter; perSec <= 0 disables throttling.
func Throttle(s interfaces.Searcher, perSec float64, burst int) interfaces.Searcher {
	if perSec <= 0 {
		return s
	}
	return &Throttled{next: s, limiter: rate.NewLimiter(rate.Limit(perSec), max(burst, 1))}
}

func (t *Throttled) Name() string { return t.next.Name() }

func (t *Throttled) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, unavailable(t.Name(), err)
	}
	return t.next.Search(ctx, query)
}
