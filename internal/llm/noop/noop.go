package noop

import (
	"context"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/types"
)

// Reasoner is a fallback used when no reasoning provider is configured. It always scores 0.
type Reasoner struct{}

var _ interfaces.Reasoner = (*Reasoner)(nil)

func NewReasoner() *Reasoner {
	return &Reasoner{}
}

func (r *Reasoner) Name() string { return "noop" }

// Infer implements the Reasoner interface with a neutral score
func (r *Reasoner) Infer(ctx context.Context, p types.Prompt) (types.Inference, error) {
	logger.Debug(ctx, "Noop reasoner called - always neutral", "symbol", p.Symbol, "signal", p.Kind)
	return types.Inference{Score: 0, Rationale: "noop reasoner: no provider configured"}, nil
}
