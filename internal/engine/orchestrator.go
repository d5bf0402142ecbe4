package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/types"
)

// Orchestrator runs the news, technical and fundamental branches concurrently.
// Each branch has its own timeout and the join has an overall budget; a branch
// still pending when the budget expires counts as failed.
type Orchestrator struct {
	collector     interfaces.EvidenceCollector
	news          interfaces.NewsAnalyzer
	technical     interfaces.TechnicalAnalyzer
	fundamental   interfaces.FundamentalAnalyzer
	branchTimeout time.Duration
	budget        time.Duration
	rec           *metrics.Recorder
}

var _ interfaces.Orchestrator = (*Orchestrator)(nil)

type Params struct {
	Collector     interfaces.EvidenceCollector
	News          interfaces.NewsAnalyzer
	Technical     interfaces.TechnicalAnalyzer
	Fundamental   interfaces.FundamentalAnalyzer
	BranchTimeout time.Duration
	Budget        time.Duration
	Metrics       *metrics.Recorder
}

func NewOrchestrator(p Params) *Orchestrator {
	if p.BranchTimeout <= 0 {
		p.BranchTimeout = 45 * time.Second
	}
	if p.Budget <= 0 {
		p.Budget = 90 * time.Second
	}
	return &Orchestrator{
		collector:     p.Collector,
		news:          p.News,
		technical:     p.Technical,
		fundamental:   p.Fundamental,
		branchTimeout: p.BranchTimeout,
		budget:        p.Budget,
		rec:           p.Metrics,
	}
}

type branchResult struct {
	kind      types.SignalKind
	score     types.SignalScore
	evidence  *types.EvidenceSet
	technical *types.TechnicalSnapshot
	err       error
}

// Analyze fails with *types.AnalysisError when two or more branches fail, and with
// the caller's context error when the caller cancels. Branches write only their
// own result; the join happens on this goroutine.
func (o *Orchestrator) Analyze(ctx context.Context, symbol string) (*interfaces.Analysis, error) {
	sym, err := types.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	jctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	results := make(chan branchResult, len(types.AllSignals))
	for _, kind := range types.AllSignals {
		go o.runBranch(jctx, sym, kind, results)
	}

	out := &interfaces.Analysis{
		Symbol:   sym,
		Signals:  make(map[types.SignalKind]types.SignalScore, len(types.AllSignals)),
		Evidence: types.EvidenceSet{Symbol: sym},
	}
	failed := map[types.SignalKind]error{}

	pending := len(types.AllSignals)
join:
	for pending > 0 {
		select {
		case r := <-results:
			pending--
			if r.evidence != nil {
				out.Evidence = *r.evidence
			}
			if r.err != nil {
				failed[r.kind] = r.err
				continue
			}
			out.Signals[r.kind] = r.score
			if r.technical != nil {
				out.Technical = r.technical
			}
		case <-jctx.Done():
			break join
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, kind := range types.AllSignals {
		if _, ok := out.Signals[kind]; ok {
			continue
		}
		if _, ok := failed[kind]; !ok {
			failed[kind] = fmt.Errorf("%s branch still pending after %s: %w", kind, o.budget, context.DeadlineExceeded)
		}
		out.Missing = append(out.Missing, kind)
	}

	errs := make([]error, 0, len(failed))
	for _, kind := range out.Missing {
		err := failed[kind]
		errs = append(errs, err)
		o.rec.RecordBranchFailure(string(kind))
		logger.Warn(ctx, "Signal branch failed", "symbol", sym, "signal", kind, "error", err)
	}

	if len(out.Missing) >= 2 {
		return nil, &types.AnalysisError{Symbol: sym, Missing: out.Missing, Err: errors.Join(errs...)}
	}
	return out, nil
}

func (o *Orchestrator) runBranch(ctx context.Context, symbol string, kind types.SignalKind, results chan<- branchResult) {
	ctx, cancel := context.WithTimeout(ctx, o.branchTimeout)
	defer cancel()
	start := time.Now()

	r := branchResult{kind: kind}
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("%s branch panicked: %v", kind, p)
		}
		o.rec.RecordLatency("branch."+string(kind), time.Since(start).Seconds())
		results <- r
	}()

	switch kind {
	case types.SignalNews:
		ev := o.collector.Collect(ctx, symbol)
		o.rec.RecordEvidence(len(ev.Articles))
		r.evidence = &ev
		r.score, r.err = o.news.Score(ctx, ev)
	case types.SignalTechnical:
		r.score, r.technical, r.err = o.technical.Score(ctx, symbol)
	case types.SignalFundamental:
		r.score, r.err = o.fundamental.Score(ctx, symbol)
	default:
		r.err = fmt.Errorf("unknown signal kind %q", kind)
	}
	if r.err == nil && ctx.Err() != nil {
		r.err = ctx.Err()
	}
}
