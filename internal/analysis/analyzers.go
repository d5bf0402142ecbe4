package analysis

import (
	"context"
	"errors"
	"fmt"

	"equity-advisor/internal/api"
	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/llm"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/ta"
	"equity-advisor/internal/types"
)

// minBars is the shortest history the technical analyzer will score.
const minBars = 20

// reasoning wraps a Reasoner with the local retry budget shared by all analyzers.
type reasoning struct {
	reasoner interfaces.Reasoner
	retry    *api.RetryConfig
	system   string
}

func newReasoning(r interfaces.Reasoner, retry *api.RetryConfig, system string) reasoning {
	if system == "" {
		system = llm.DefaultSystem
	}
	return reasoning{reasoner: r, retry: retry, system: system}
}

func (r reasoning) infer(ctx context.Context, p types.Prompt) (types.SignalScore, error) {
	var inf types.Inference
	err := api.Retry(ctx, r.retry, "reasoner."+string(p.Kind), func(ctx context.Context) error {
		out, err := r.reasoner.Infer(ctx, p)
		if err != nil {
			return err
		}
		inf = out
		return nil
	})
	if err != nil {
		return types.SignalScore{}, unavailable(p.Symbol, p.Kind, err)
	}
	return types.SignalScore{
		Kind:      p.Kind,
		Value:     llm.Clamp(inf.Score),
		Rationale: inf.Rationale,
	}, nil
}

func unavailable(symbol string, kind types.SignalKind, err error) error {
	return &types.AnalysisError{Symbol: symbol, Missing: []types.SignalKind{kind}, Err: err}
}

// News scores an evidence set. An empty set is still scored.
type News struct {
	reasoning
}

var _ interfaces.NewsAnalyzer = (*News)(nil)

func NewNews(r interfaces.Reasoner, retry *api.RetryConfig, system string) *News {
	return &News{reasoning: newReasoning(r, retry, system)}
}

func (n *News) Score(ctx context.Context, ev types.EvidenceSet) (types.SignalScore, error) {
	s, err := n.infer(ctx, buildNewsPrompt(n.system, ev))
	if err == nil || !ev.Empty() || ctx.Err() != nil {
		return s, err
	}
	// nothing to judge, so the reasoning failure does not cost the signal
	logger.Warn(ctx, "Reasoner failed on empty evidence, using neutral news score",
		"symbol", ev.Symbol, "error", err)
	return types.SignalScore{
		Kind:      types.SignalNews,
		Value:     0,
		Rationale: "No recent relevant news, and the reasoning service was unavailable; neutral placeholder, not a model judgment.",
	}, nil
}

// Technical derives indicators from daily history and scores them.
type Technical struct {
	reasoning
	market interfaces.MarketData
	days   int
}

var _ interfaces.TechnicalAnalyzer = (*Technical)(nil)

func NewTechnical(r interfaces.Reasoner, md interfaces.MarketData, days int, retry *api.RetryConfig, system string) *Technical {
	return &Technical{reasoning: newReasoning(r, retry, system), market: md, days: days}
}

func (t *Technical) Score(ctx context.Context, symbol string) (types.SignalScore, *types.TechnicalSnapshot, error) {
	candles, err := t.market.History(ctx, symbol, t.days)
	if err != nil {
		return types.SignalScore{}, nil, unavailable(symbol, types.SignalTechnical, fmt.Errorf("price history: %w", err))
	}
	if len(candles) < minBars {
		return types.SignalScore{}, nil, unavailable(symbol, types.SignalTechnical,
			fmt.Errorf("price history: %d bars, need %d: %w", len(candles), minBars, types.ErrNotFound))
	}

	snap := ta.Snapshot(candles)
	s, err := t.infer(ctx, buildTechnicalPrompt(t.system, symbol, snap))
	if err != nil {
		return types.SignalScore{}, nil, err
	}
	return s, &snap, nil
}

// Fundamental scores the latest valuation, growth and leverage metrics.
type Fundamental struct {
	reasoning
	market interfaces.MarketData
}

var _ interfaces.FundamentalAnalyzer = (*Fundamental)(nil)

var errNoFundamentals = errors.New("no fundamental metrics")

func NewFundamental(r interfaces.Reasoner, md interfaces.MarketData, retry *api.RetryConfig, system string) *Fundamental {
	return &Fundamental{reasoning: newReasoning(r, retry, system), market: md}
}

func (f *Fundamental) Score(ctx context.Context, symbol string) (types.SignalScore, error) {
	funds, err := f.market.Fundamentals(ctx, symbol)
	if err != nil {
		return types.SignalScore{}, unavailable(symbol, types.SignalFundamental, fmt.Errorf("fundamentals: %w", err))
	}
	if !funds.Known() {
		return types.SignalScore{}, unavailable(symbol, types.SignalFundamental, errNoFundamentals)
	}
	return f.infer(ctx, buildFundamentalPrompt(f.system, symbol, funds))
}
