package interfaces

import (
	"context"
	"time"

	"equity-advisor/internal/types"
)

type RecommendationStore interface {
	// LatestRecommendation returns nil, nil when the symbol has no history.
	LatestRecommendation(ctx context.Context, symbol string) (*types.Recommendation, error)
	SaveRecommendation(ctx context.Context, rec types.Recommendation) error
	// AppendChange is idempotent on change ID.
	AppendChange(ctx context.Context, change types.RecommendationChange) error
	ChangesSince(ctx context.Context, since time.Time) ([]types.RecommendationChange, error)
	Symbols(ctx context.Context) ([]string, error)
	Close() error
}
