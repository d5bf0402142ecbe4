package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"equity-advisor/internal/changelog"
	"equity-advisor/internal/engine"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/tracker"
	"equity-advisor/internal/types"
)

// Advisor analyzes symbols, persists recommendations and answers history queries.
type Advisor struct {
	orch      interfaces.Orchestrator
	synth     *engine.Synthesizer
	tracker   *tracker.Tracker
	store     interfaces.RecommendationStore
	journal   *changelog.Journal
	rec       *metrics.Recorder
	watchlist []string
	workers   int
	now       func() time.Time
	locks     sync.Map // symbol -> *sync.Mutex
}

type Params struct {
	Orchestrator interfaces.Orchestrator
	Synthesizer  *engine.Synthesizer
	Store        interfaces.RecommendationStore
	Journal      *changelog.Journal
	Metrics      *metrics.Recorder
	Watchlist    []string
	Workers      int
}

func New(p Params) *Advisor {
	if p.Workers <= 0 {
		p.Workers = 5
	}
	return &Advisor{
		orch:      p.Orchestrator,
		synth:     p.Synthesizer,
		tracker:   tracker.New(p.Store, p.Metrics),
		store:     p.Store,
		journal:   p.Journal,
		rec:       p.Metrics,
		watchlist: p.Watchlist,
		workers:   p.Workers,
		now:       time.Now,
	}
}

type Result struct {
	Recommendation types.Recommendation        `json:"recommendation"`
	Change         *types.RecommendationChange `json:"change,omitempty"`
}

// AnalyzeSymbol runs one full analysis and persists the outcome. Nothing is
// persisted when the analysis or synthesis fails or the caller cancels.
func (a *Advisor) AnalyzeSymbol(ctx context.Context, symbol string) (*Result, error) {
	an, err := a.orch.Analyze(ctx, symbol)
	if err != nil {
		return nil, err
	}
	rec, err := a.synth.Synthesize(an)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Recommendation(ctx, rec.Symbol, string(rec.Action), rec.Confidence, rec.Composite,
		"missing", rec.MissingSignals,
		"recommendation_id", rec.ID,
	)
	a.rec.RecordComposite(rec.Symbol, rec.Composite)

	return a.Persist(ctx, rec)
}

// Persist records drift and saves rec. It is safe to call again with the same
// recommendation after a *types.PersistenceError. Calls for one symbol are
// serialized so the read-latest, append-change, save sequence is atomic.
func (a *Advisor) Persist(ctx context.Context, rec types.Recommendation) (*Result, error) {
	unlock := a.lockSymbol(rec.Symbol)
	defer unlock()

	change, err := a.tracker.Record(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := a.store.SaveRecommendation(ctx, rec); err != nil {
		return nil, &types.PersistenceError{Op: "save", Symbol: rec.Symbol, Recommendation: &rec, Err: err}
	}

	if a.journal != nil {
		if err := a.journal.AppendRecommendation(rec); err != nil {
			logger.Warn(ctx, "Failed to journal recommendation", "symbol", rec.Symbol, "error", err)
		}
		if change != nil {
			if err := a.journal.AppendChange(*change); err != nil {
				logger.Warn(ctx, "Failed to journal change", "symbol", rec.Symbol, "error", err)
			}
		}
	}
	return &Result{Recommendation: rec, Change: change}, nil
}

func (a *Advisor) lockSymbol(symbol string) func() {
	v, _ := a.locks.LoadOrStore(types.NormalizeSymbol(symbol), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type RefreshSummary struct {
	Success      bool      `json:"success"`
	UpdatedCount int       `json:"updated_count"`
	ChangedCount int       `json:"changed_count"`
	TotalStocks  int       `json:"total_stocks"`
	Errors       []string  `json:"errors"`
	Timestamp    time.Time `json:"timestamp"`
}

// RefreshAll analyzes the watchlist plus every symbol with history on a bounded
// pool. Per-symbol failures are collected and never abort the batch.
func (a *Advisor) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	symbols, err := a.refreshSymbols(ctx)
	if err != nil {
		return RefreshSummary{}, err
	}
	sum := RefreshSummary{Success: true, TotalStocks: len(symbols), Errors: []string{}}
	if len(symbols) == 0 {
		sum.Timestamp = a.now().UTC()
		return sum, nil
	}

	workers := min(a.workers, len(symbols))
	op := logger.StartOperation(ctx, "service.RefreshAll", "symbols", len(symbols), "workers", workers)
	ctx = op.GetContext()

	jobs := make(chan string)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				res, err := a.AnalyzeSymbol(ctx, sym)

				mu.Lock()
				switch {
				case err != nil:
					sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", sym, err))
				default:
					sum.UpdatedCount++
					if res.Change != nil {
						sum.ChangedCount++
					}
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, sym := range symbols {
		select {
		case jobs <- sym:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Strings(sum.Errors)
	sum.Timestamp = a.now().UTC()
	logger.Info(ctx, "Refresh complete",
		"updated", sum.UpdatedCount,
		"changed", sum.ChangedCount,
		"total", sum.TotalStocks,
		"errors", len(sum.Errors),
	)
	if err := ctx.Err(); err != nil {
		a.rec.RecordLatency("refresh", op.EndWithError(err).Seconds())
		return sum, err
	}
	a.rec.RecordLatency("refresh", op.End("updated", sum.UpdatedCount).Seconds())
	return sum, nil
}

func (a *Advisor) refreshSymbols(ctx context.Context) ([]string, error) {
	stored, err := a.store.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w: %w", types.ErrPersistence, err)
	}
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a.watchlist...), stored...) {
		sym, err := types.ValidateSymbol(s)
		if err != nil || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

type ChangeView struct {
	types.RecommendationChange
	CurrentConfidence float64 `json:"current_confidence"`
	Reasoning         string  `json:"reasoning"`
}

// TopChanges lists drift events from the last daysBack days, newest first,
// joined with the symbol's latest recommendation.
func (a *Advisor) TopChanges(ctx context.Context, daysBack int) ([]ChangeView, error) {
	if daysBack <= 0 {
		daysBack = 7
	}
	changes, err := a.store.ChangesSince(ctx, a.now().AddDate(0, 0, -daysBack))
	if err != nil {
		return nil, fmt.Errorf("changes since: %w: %w", types.ErrPersistence, err)
	}

	latest := map[string]*types.Recommendation{}
	out := make([]ChangeView, 0, len(changes))
	for _, c := range changes {
		rec, ok := latest[c.Symbol]
		if !ok {
			rec, err = a.store.LatestRecommendation(ctx, c.Symbol)
			if err != nil {
				return nil, fmt.Errorf("latest %s: %w: %w", c.Symbol, types.ErrPersistence, err)
			}
			latest[c.Symbol] = rec
		}
		v := ChangeView{RecommendationChange: c, CurrentConfidence: 0.5, Reasoning: "No reasoning available"}
		if rec != nil {
			v.CurrentConfidence = rec.Confidence
			v.Reasoning = rec.Reasoning
		}
		out = append(out, v)
	}
	return out, nil
}

// Latest returns types.ErrNotFound when the symbol was never analyzed.
func (a *Advisor) Latest(ctx context.Context, symbol string) (*types.Recommendation, error) {
	sym, err := types.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	rec, err := a.store.LatestRecommendation(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("latest %s: %w: %w", sym, types.ErrPersistence, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("no recommendation for %s: %w", sym, types.ErrNotFound)
	}
	return rec, nil
}

// ListLatest returns the latest recommendation of every known symbol, by symbol.
func (a *Advisor) ListLatest(ctx context.Context) ([]types.Recommendation, error) {
	syms, err := a.store.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w: %w", types.ErrPersistence, err)
	}
	out := make([]types.Recommendation, 0, len(syms))
	for _, s := range syms {
		rec, err := a.Latest(ctx, s)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}
