package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"equity-advisor/internal/news"
)

// DefaultConfigPath is used when ADVISOR_CONFIG is unset.
const DefaultConfigPath = "config.yaml"

type Config struct {
	Server struct {
		Addr         string        `yaml:"addr" default:":8080"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"150s"`
	} `yaml:"server"`

	Search struct {
		Provider      string        `yaml:"provider" default:"mock" validate:"oneof=mock google bing duckduckgo googlenews sites"`
		Timeout       time.Duration `yaml:"timeout" default:"15s"`
		RatePerSec    float64       `yaml:"rate_per_sec" default:"2" validate:"gte=0"`
		Burst         int           `yaml:"burst" default:"2" validate:"gte=1"`
		GoogleCX      string        `yaml:"google_cx"`
		Region        string        `yaml:"region" default:"IN"`
		APIKeyEnv     string        `yaml:"api_key_env" default:"SEARCH_API_KEY"`
		GoogleURL     string        `yaml:"google_url"`
		BingURL       string        `yaml:"bing_url"`
		DuckURL       string        `yaml:"duckduckgo_url"`
		GoogleNewsURL string        `yaml:"googlenews_url"`
	} `yaml:"search"`

	News struct {
		Templates      []string           `yaml:"templates"`
		Keywords       map[string]float64 `yaml:"keywords"`
		DedupThreshold float64            `yaml:"dedup_threshold" default:"0.8" validate:"gt=0,lte=1"`
		DedupMeasure   string             `yaml:"dedup_measure" default:"containment" validate:"oneof=containment jaccard"`
		SourceCap      int                `yaml:"source_cap" default:"2" validate:"gte=0"`
		MaxArticles    int                `yaml:"max_articles" default:"10" validate:"gte=1"`
		PerQueryLimit  int                `yaml:"per_query_limit" default:"10" validate:"gte=0"`
	} `yaml:"news"`

	LLM struct {
		Provider    string  `yaml:"provider" default:"heuristic" validate:"oneof=openai claude gemini heuristic noop"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens" default:"512" validate:"gte=64"`
		Temperature float32 `yaml:"temperature" default:"0.1" validate:"gte=0,lte=2"`
		System      string  `yaml:"system"`
		BaseURL     string  `yaml:"base_url"`
	} `yaml:"llm"`

	Market struct {
		Provider    string        `yaml:"provider" default:"static" validate:"oneof=static yahoo kite"`
		Exchange    string        `yaml:"exchange" default:"NSE"`
		Suffix      string        `yaml:"suffix" default:".NS"`
		HistoryDays int           `yaml:"history_days" default:"120" validate:"gte=60"`
		YahooURL    string        `yaml:"yahoo_url"`
		Cache       struct {
			Backend  string        `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
			TTL      time.Duration `yaml:"ttl" default:"10m"`
			RedisURL string        `yaml:"redis_url" default:"redis://localhost:6379/0"`
		} `yaml:"cache"`
	} `yaml:"market"`

	Engine struct {
		BranchTimeout time.Duration `yaml:"branch_timeout" default:"45s"`
		Budget        time.Duration `yaml:"budget" default:"90s"`
		BuyThreshold  float64       `yaml:"buy_threshold" default:"0.3" validate:"gt=0,lt=1"`
		SellThreshold float64       `yaml:"sell_threshold" default:"-0.3" validate:"lt=0,gt=-1"`
		Weights       struct {
			News        float64 `yaml:"news" default:"1" validate:"gte=0"`
			Technical   float64 `yaml:"technical" default:"1" validate:"gte=0"`
			Fundamental float64 `yaml:"fundamental" default:"1" validate:"gte=0"`
		} `yaml:"weights"`
	} `yaml:"engine"`

	Retry struct {
		MaxAttempts int           `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
		InitialWait time.Duration `yaml:"initial_wait" default:"500ms"`
		MaxWait     time.Duration `yaml:"max_wait" default:"4s"`
	} `yaml:"retry"`

	Storage struct {
		Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite badger memory"`
		Path   string `yaml:"path" default:"data/advisor.db"`
	} `yaml:"storage"`

	Refresh struct {
		Workers   int      `yaml:"workers" default:"5" validate:"gte=1"`
		Schedule  string   `yaml:"schedule"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"refresh"`

	Journal struct {
		Dir           string `yaml:"dir" default:"logs"`
		RetentionDays int    `yaml:"retention_days" default:"14" validate:"gte=0"`
	} `yaml:"journal"`
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Engine.SellThreshold >= c.Engine.BuyThreshold {
		return fmt.Errorf("engine.sell_threshold (%.2f) must be below engine.buy_threshold (%.2f)",
			c.Engine.SellThreshold, c.Engine.BuyThreshold)
	}
	w := c.Engine.Weights
	if w.News+w.Technical+w.Fundamental <= 0 {
		return errors.New("engine.weights must have a positive sum")
	}
	if c.Engine.BranchTimeout <= 0 || c.Engine.Budget <= 0 {
		return errors.New("engine.branch_timeout and engine.budget must be positive")
	}
	if c.Retry.InitialWait < 0 || c.Retry.MaxWait < c.Retry.InitialWait {
		return fmt.Errorf("retry.max_wait (%s) must be >= retry.initial_wait (%s)", c.Retry.MaxWait, c.Retry.InitialWait)
	}
	if c.Search.Provider == "google" && c.Search.GoogleCX == "" {
		return errors.New("search.google_cx is required for the google provider")
	}
	for kw, weight := range c.News.Keywords {
		if weight < 0 {
			return fmt.Errorf("news.keywords[%q] must be non-negative, got %.2f", kw, weight)
		}
	}
	for _, t := range c.News.Templates {
		if !strings.Contains(t, "{symbol}") {
			return fmt.Errorf("news.templates entry %q lacks {symbol}", t)
		}
	}
	return nil
}

// setDefaults fills fields from `default` tags. It runs before the file is decoded
// so explicit zeros in the file survive.
func (c *Config) setDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	return nil
}

// normalize fills the built-in keyword table and templates when absent and
// canonicalizes the watchlist.
func (c *Config) normalize() {
	if len(c.News.Keywords) == 0 {
		c.News.Keywords = news.DefaultKeywords()
	}
	if len(c.News.Templates) == 0 {
		c.News.Templates = news.DefaultTemplates()
	}
	for i, s := range c.Refresh.Watchlist {
		c.Refresh.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// Default returns a configuration built only from defaults.
func Default() *Config {
	var c Config
	if err := c.setDefaults(); err != nil {
		panic(err)
	}
	c.normalize()
	return &c
}

// ConfigPath resolves the config file location from ADVISOR_CONFIG.
func ConfigPath() string {
	if p := os.Getenv("ADVISOR_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig reads the yaml file at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if err := c.setDefaults(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// FilterConfig projects the news section onto the evidence filter's settings.
func (c *Config) FilterConfig() news.FilterConfig {
	return news.FilterConfig{
		DedupThreshold: c.News.DedupThreshold,
		DedupMeasure:   c.News.DedupMeasure,
		SourceCap:      c.News.SourceCap,
		MaxArticles:    c.News.MaxArticles,
	}
}
