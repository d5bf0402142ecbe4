package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"equity-advisor/internal/analysis"
	"equity-advisor/internal/api"
	"equity-advisor/internal/changelog"
	"equity-advisor/internal/engine"
	"equity-advisor/internal/engine/engineobs"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/llm/claude"
	"equity-advisor/internal/llm/gemini"
	"equity-advisor/internal/llm/heuristic"
	"equity-advisor/internal/llm/llmobs"
	"equity-advisor/internal/llm/noop"
	"equity-advisor/internal/llm/openai"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/market"
	"equity-advisor/internal/market/marketobs"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/news"
	"equity-advisor/internal/repository"
	"equity-advisor/internal/search"
	"equity-advisor/internal/search/searchobs"
	"equity-advisor/internal/service"
	"equity-advisor/internal/store"
	"equity-advisor/internal/trace"
)

// app holds everything main needs after wiring.
type app struct {
	cfg     *store.Config
	rec     *metrics.Recorder
	advisor *service.Advisor
	journal *changelog.Journal
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initializeSystem loads .env and starts the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := store.ConfigPath()
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

func initializeReasoner(ctx context.Context, cfg *store.Config, rec *metrics.Recorder) (interfaces.Reasoner, error) {
	var (
		r   interfaces.Reasoner
		err error
	)
	switch cfg.LLM.Provider {
	case "openai":
		r, err = openai.NewReasoner(cfg)
	case "claude":
		r, err = claude.NewReasoner(cfg)
	case "gemini":
		r, err = gemini.NewReasoner(ctx, cfg)
	case "noop":
		logger.Warn(ctx, "Noop reasoner configured; every signal will be neutral")
		r = noop.NewReasoner()
	default:
		logger.Info(ctx, "Using the offline heuristic reasoner")
		r = heuristic.NewReasoner()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s reasoner: %w", cfg.LLM.Provider, err)
	}
	return llmobs.Wrap(r, rec), nil
}

func initializeCollector(cfg *store.Config, rec *metrics.Recorder) (*news.Collector, error) {
	s, err := search.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search: %w", err)
	}
	lx := news.NewLexicon(cfg.News.Keywords, cfg.News.Templates)
	return news.NewCollector(
		news.NewPlanner(lx),
		searchobs.Wrap(s, rec),
		news.NewFilter(lx, cfg.FilterConfig()),
		cfg.News.PerQueryLimit,
	), nil
}

// bootstrap wires the advisor. The returned app must be closed.
func bootstrap(ctx context.Context, cfg *store.Config) (*app, error) {
	a := &app{cfg: cfg, rec: metrics.New()}

	reasoner, err := initializeReasoner(ctx, cfg, a.rec)
	if err != nil {
		return nil, err
	}

	collector, err := initializeCollector(cfg, a.rec)
	if err != nil {
		return nil, err
	}

	md, mdCloser, err := market.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market data: %w", err)
	}
	a.closers = append(a.closers, mdCloser)
	md = marketobs.Wrap(md, a.rec)
	logger.Info(ctx, "Market data ready",
		"provider", cfg.Market.Provider,
		"cache", cfg.Market.Cache.Backend,
	)

	retry := &api.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		InitialWait: cfg.Retry.InitialWait,
		MaxWait:     cfg.Retry.MaxWait,
	}
	orch := engineobs.Wrap(engine.NewOrchestrator(engine.Params{
		Collector:     collector,
		News:          analysis.NewNews(reasoner, retry, cfg.LLM.System),
		Technical:     analysis.NewTechnical(reasoner, md, cfg.Market.HistoryDays, retry, cfg.LLM.System),
		Fundamental:   analysis.NewFundamental(reasoner, md, retry, cfg.LLM.System),
		BranchTimeout: cfg.Engine.BranchTimeout,
		Budget:        cfg.Engine.Budget,
		Metrics:       a.rec,
	}), a.rec)

	w := cfg.Engine.Weights
	synth := engine.NewSynthesizer(
		engine.Weights{News: w.News, Technical: w.Technical, Fundamental: w.Fundamental},
		cfg.Engine.BuyThreshold,
		cfg.Engine.SellThreshold,
	)

	st, err := repository.New(cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Driver, err)
	}
	a.closers = append(a.closers, st)
	logger.Info(ctx, "Recommendation store ready", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	a.journal = changelog.New(cfg.Journal.Dir)
	a.advisor = service.New(service.Params{
		Orchestrator: orch,
		Synthesizer:  synth,
		Store:        st,
		Journal:      a.journal,
		Metrics:      a.rec,
		Watchlist:    cfg.Refresh.Watchlist,
		Workers:      cfg.Refresh.Workers,
	})
	return a, nil
}

// compressOldLogs gzips journal files older than the retention window.
func compressOldLogs(ctx context.Context, j *changelog.Journal, days int) {
	if days <= 0 {
		return
	}
	n, err := j.CompressOlder(days)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "Compressed old journal files", "count", n)
	}
}
