package search

import (
	"fmt"
	"os"

	"equity-advisor/internal/api"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/store"
)

// New builds the configured provider, throttled to search.rate_per_sec.
func New(cfg *store.Config) (interfaces.Searcher, error) {
	sc := cfg.Search
	p := Params{
		APIKey:  os.Getenv(sc.APIKeyEnv),
		CX:      sc.GoogleCX,
		Region:  sc.Region,
		Limit:   cfg.News.PerQueryLimit,
		Timeout: sc.Timeout,
		Client: api.NewClient(
			api.WithTimeout(sc.Timeout),
			api.WithLogging(true),
			api.WithRetry(&api.RetryConfig{
				MaxAttempts: cfg.Retry.MaxAttempts,
				InitialWait: cfg.Retry.InitialWait,
				MaxWait:     cfg.Retry.MaxWait,
			}),
		),
	}

	var (
		s   interfaces.Searcher
		err error
	)
	switch sc.Provider {
	case "mock":
		return NewMock(), nil
	case "google":
		p.Endpoint = sc.GoogleURL
		s, err = NewGoogle(p)
	case "bing":
		p.Endpoint = sc.BingURL
		s, err = NewBing(p)
	case "duckduckgo":
		p.Endpoint = sc.DuckURL
		s = NewDuckDuckGo(p)
	case "googlenews":
		p.Endpoint = sc.GoogleNewsURL
		s = NewGoogleNews(p)
	case "sites":
		s = NewSites(p, nil)
	default:
		return nil, fmt.Errorf("unknown search provider %q", sc.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Throttle(s, sc.RatePerSec, sc.Burst), nil
}
