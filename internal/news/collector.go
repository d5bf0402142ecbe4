package news

import (
	"context"
	"errors"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/types"
)

// Collector runs plan → search → filter for one symbol. Queries are searched in order.
type Collector struct {
	planner  *Planner
	searcher interfaces.Searcher
	filter   *Filter
	perQuery int
}

var _ interfaces.EvidenceCollector = (*Collector)(nil)

// NewCollector builds a collector; perQuery bounds the hits taken from each query (0 = unbounded).
func NewCollector(planner *Planner, searcher interfaces.Searcher, filter *Filter, perQuery int) *Collector {
	return &Collector{planner: planner, searcher: searcher, filter: filter, perQuery: perQuery}
}

// Collect never fails: search errors and empty batches become empty input.
// Cancellation stops further queries and filters whatever was gathered.
func (c *Collector) Collect(ctx context.Context, symbol string) types.EvidenceSet {
	queries := c.planner.Plan(symbol)
	batches := make([][]types.RawArticle, 0, len(queries))

	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		hits, err := c.searcher.Search(ctx, q)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Warn(ctx, "Search query failed, treating as empty",
					"symbol", symbol,
					"provider", c.searcher.Name(),
					"query", q,
					"error", err,
				)
			}
			continue
		}
		if c.perQuery > 0 && len(hits) > c.perQuery {
			hits = hits[:c.perQuery]
		}
		batches = append(batches, hits)
	}

	evidence := c.filter.Build(symbol, batches...)
	logger.Debug(ctx, "Evidence collected",
		"symbol", symbol,
		"queries", len(queries),
		"articles", len(evidence.Articles),
	)
	return evidence
}
