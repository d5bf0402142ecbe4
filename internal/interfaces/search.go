package interfaces

import (
	"context"

	"equity-advisor/internal/types"
)

// Searcher returns raw hits for one query. Failures are recoverable; callers treat them as empty.
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.RawArticle, error)
	Name() string
}
