package engineobs

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/trace"
	"equity-advisor/internal/types"
)

type observableOrchestrator struct {
	orch interfaces.Orchestrator
	rec  *metrics.Recorder
}

var _ interfaces.Orchestrator = (*observableOrchestrator)(nil)

func Wrap(orch interfaces.Orchestrator, rec *metrics.Recorder) interfaces.Orchestrator {
	return &observableOrchestrator{
		orch: orch,
		rec:  rec,
	}
}

func (oo *observableOrchestrator) Analyze(ctx context.Context, symbol string) (*interfaces.Analysis, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting analysis",
		"symbol", symbol,
	)

	a, err := oo.orch.Analyze(ctx, symbol)
	oo.rec.RecordLatency("analysis", time.Since(start).Seconds())
	if err != nil {
		trace.Fail(ctx, err)
		oo.rec.RecordAnalysis(outcome(err))
		logger.ErrorWithErrSkip(ctx, 1, "Analysis failed", err,
			"symbol", symbol,
			"missing", types.MissingSignals(err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	oo.rec.RecordAnalysis("ok")
	logger.InfoSkip(ctx, 1, "Analysis completed",
		"symbol", a.Symbol,
		"signals", len(a.Signals),
		"missing", a.Missing,
		"articles", len(a.Evidence.Articles),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return a, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, types.ErrAnalysisUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}
