package interfaces

import (
	"context"

	"equity-advisor/internal/types"
)

// EvidenceCollector runs the plan → search → filter pipeline. It never fails; an empty set is valid.
type EvidenceCollector interface {
	Collect(ctx context.Context, symbol string) types.EvidenceSet
}

type NewsAnalyzer interface {
	Score(ctx context.Context, evidence types.EvidenceSet) (types.SignalScore, error)
}

type TechnicalAnalyzer interface {
	Score(ctx context.Context, symbol string) (types.SignalScore, *types.TechnicalSnapshot, error)
}

type FundamentalAnalyzer interface {
	Score(ctx context.Context, symbol string) (types.SignalScore, error)
}

// Analysis is the joined output of one orchestrated run.
type Analysis struct {
	Symbol    string
	Signals   map[types.SignalKind]types.SignalScore
	Missing   []types.SignalKind
	Evidence  types.EvidenceSet
	Technical *types.TechnicalSnapshot
}

type Orchestrator interface {
	Analyze(ctx context.Context, symbol string) (*Analysis, error)
}
