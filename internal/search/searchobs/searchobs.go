package searchobs

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

// observableSearcher wraps a Searcher with logging, tracing and metrics
type observableSearcher struct {
	searcher interfaces.Searcher
	rec      *metrics.Recorder
}

var _ interfaces.Searcher = (*observableSearcher)(nil)

// Wrap wraps a searcher with observability middleware
func Wrap(s interfaces.Searcher, rec *metrics.Recorder) interfaces.Searcher {
	return &observableSearcher{searcher: s, rec: rec}
}

func (o *observableSearcher) Name() string { return o.searcher.Name() }

func (o *observableSearcher) Search(ctx context.Context, query string) ([]types.RawArticle, error) {
	ctx, span := trace.StartSpan(ctx, "search.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.provider", o.searcher.Name()),
		attribute.String("search.query", query),
	)

	start := time.Now()
	hits, err := o.searcher.Search(ctx, query)
	o.rec.RecordLatency("search", time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			o.rec.RecordSearchFailure(o.searcher.Name())
			logger.WarnSkip(ctx, 1, "Search failed",
				"provider", o.searcher.Name(),
				"query", query,
				"error", err,
			)
		}
		trace.Fail(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	logger.DebugSkip(ctx, 1, "Search completed",
		"provider", o.searcher.Name(),
		"query", query,
		"hits", len(hits),
		"duration", time.Since(start),
	)
	return hits, nil
}
