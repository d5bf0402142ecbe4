package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/types"
)

// Cached memoizes market lookups in a byte cache as JSON. Cache errors are logged and bypassed.
type Cached struct {
	inner interfaces.MarketData
	cache interfaces.Cache
	ttl   time.Duration
}

var _ interfaces.MarketData = (*Cached)(nil)

// NewCached returns inner unchanged when cache is nil or ttl is not positive.
func NewCached(inner interfaces.MarketData, cache interfaces.Cache, ttl time.Duration) interfaces.MarketData {
	if cache == nil || ttl <= 0 {
		return inner
	}
	return &Cached{inner: inner, cache: cache, ttl: ttl}
}

func (c *Cached) Price(ctx context.Context, symbol string) (float64, error) {
	var p float64
	err := c.load(ctx, "price:"+types.NormalizeSymbol(symbol), &p, func() (any, error) {
		return c.inner.Price(ctx, symbol)
	})
	return p, err
}

func (c *Cached) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	var cs []types.Candle
	key := fmt.Sprintf("history:%s:%d", types.NormalizeSymbol(symbol), days)
	err := c.load(ctx, key, &cs, func() (any, error) {
		return c.inner.History(ctx, symbol, days)
	})
	return cs, err
}

func (c *Cached) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	var f types.Fundamentals
	err := c.load(ctx, "fund:"+types.NormalizeSymbol(symbol), &f, func() (any, error) {
		return c.inner.Fundamentals(ctx, symbol)
	})
	return f, err
}

// load decodes a hit into dst, or calls fetch and stores its result. Failed fetches are not cached.
func (c *Cached) load(ctx context.Context, key string, dst any, fetch func() (any, error)) error {
	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		logger.Warn(ctx, "Market cache read failed", "key", key, "error", err)
	} else if ok {
		if err := json.Unmarshal(b, dst); err == nil {
			return nil
		}
		logger.Warn(ctx, "Discarding undecodable market cache entry", "key", key)
	}

	v, err := fetch()
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		logger.Warn(ctx, "Market cache write failed", "key", key, "error", err)
	}
	return nil
}
