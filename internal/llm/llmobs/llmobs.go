package llmobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/trace"
	"equity-advisor/internal/types"
)

// observableReasoner wraps a Reasoner with observability (logging, tracing & metrics)
type observableReasoner struct {
	reasoner interfaces.Reasoner
	rec      *metrics.Recorder
}

// Compile-time interface check
var _ interfaces.Reasoner = (*observableReasoner)(nil)

// Wrap wraps a reasoner with observability middleware
func Wrap(reasoner interfaces.Reasoner, rec *metrics.Recorder) interfaces.Reasoner {
	return &observableReasoner{
		reasoner: reasoner,
		rec:      rec,
	}
}

func (o *observableReasoner) Name() string { return o.reasoner.Name() }

// Infer asks the underlying provider for a score with observability
func (o *observableReasoner) Infer(ctx context.Context, p types.Prompt) (types.Inference, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Infer")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", o.reasoner.Name()),
		attribute.String("symbol", p.Symbol),
		attribute.String("signal", string(p.Kind)),
	)

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting inference",
		"provider", o.reasoner.Name(),
		"symbol", p.Symbol,
		"signal", p.Kind,
		"prompt_chars", len(p.User),
	)

	start := time.Now()
	inf, err := o.reasoner.Infer(ctx, p)
	o.rec.RecordLatency("llm."+string(p.Kind), time.Since(start).Seconds())
	o.rec.RecordReasonerCall(o.reasoner.Name(), err == nil)

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Inference failed", err,
			"provider", o.reasoner.Name(),
			"symbol", p.Symbol,
			"signal", p.Kind,
		)
		return types.Inference{}, err
	}

	span.SetAttributes(attribute.Float64("llm.score", inf.Score))
	logger.InfoSkip(ctx, 1, "Inference received",
		"provider", o.reasoner.Name(),
		"symbol", p.Symbol,
		"signal", p.Kind,
		"score", inf.Score,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return inf, nil
}
