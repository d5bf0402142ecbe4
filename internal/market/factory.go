package market

import (
	"context"
	"fmt"
	"io"
	"os"

	"equity-advisor/internal/api"
	"equity-advisor/internal/cache"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/store"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the configured market data source behind the configured cache.
// The returned closer releases the cache.
func New(ctx context.Context, cfg *store.Config) (interfaces.MarketData, io.Closer, error) {
	mc := cfg.Market

	yahoo := func() *Yahoo {
		return NewYahoo(api.NewClient(
			api.WithHeaders(api.YahooFinanceHeaders()),
			api.WithTimeout(cfg.Search.Timeout),
			api.WithRetry(&api.RetryConfig{
				MaxAttempts: cfg.Retry.MaxAttempts,
				InitialWait: cfg.Retry.InitialWait,
				MaxWait:     cfg.Retry.MaxWait,
			}),
		), mc.YahooURL, mc.Suffix)
	}

	var md interfaces.MarketData
	switch mc.Provider {
	case "static":
		md = NewStatic()
	case "yahoo":
		md = yahoo()
	case "kite":
		k, err := NewKite(KiteParams{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    mc.Exchange,
			Timeout:     cfg.Search.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		md = NewComposite(k, yahoo())
	default:
		return nil, nil, fmt.Errorf("unknown market provider %q", mc.Provider)
	}

	switch mc.Cache.Backend {
	case "none":
		return md, nopCloser{}, nil
	case "memory":
		c := cache.NewMemory(mc.Cache.TTL)
		return NewCached(md, c, mc.Cache.TTL), c, nil
	case "redis":
		c, err := cache.NewRedis(ctx, mc.Cache.RedisURL, "advisor:market:")
		if err != nil {
			return nil, nil, err
		}
		return NewCached(md, c, mc.Cache.TTL), c, nil
	}
	return nil, nil, fmt.Errorf("unknown market cache backend %q", mc.Cache.Backend)
}
