package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/metrics"
	"equity-advisor/internal/types"
)

// changeNamespace scopes change IDs derived from recommendation IDs.
var changeNamespace = uuid.MustParse("6f1c2a8e-3b7d-4f51-9a0e-2d4c8b1e7f30")

// Tracker records decision drift: a change is emitted only when the action
// differs from the previous recommendation's, never for score movement alone.
type Tracker struct {
	store interfaces.RecommendationStore
	rec   *metrics.Recorder
	now   func() time.Time
}

func New(store interfaces.RecommendationStore, rec *metrics.Recorder) *Tracker {
	return &Tracker{store: store, rec: rec, now: time.Now}
}

// ChangeID is deterministic in the recommendation ID, so replays append nothing new.
func ChangeID(recommendationID string) string {
	return uuid.NewSHA1(changeNamespace, []byte(recommendationID)).String()
}

// Record must run before rec is saved. Once rec is the stored latest, it returns nil.
func (t *Tracker) Record(ctx context.Context, rec types.Recommendation) (*types.RecommendationChange, error) {
	prev, err := t.store.LatestRecommendation(ctx, rec.Symbol)
	if err != nil {
		return nil, &types.PersistenceError{Op: "latest", Symbol: rec.Symbol, Recommendation: &rec, Err: err}
	}
	if prev == nil || prev.ID == rec.ID || prev.Action == rec.Action {
		return nil, nil
	}

	change := types.RecommendationChange{
		ID:               ChangeID(rec.ID),
		Symbol:           rec.Symbol,
		RecommendationID: rec.ID,
		PreviousAction:   prev.Action,
		NewAction:        rec.Action,
		Confidence:       rec.Confidence,
		DetectedAt:       t.now().UTC(),
	}
	if err := t.store.AppendChange(ctx, change); err != nil {
		return nil, &types.PersistenceError{Op: "append change", Symbol: rec.Symbol, Recommendation: &rec,
			Err: fmt.Errorf("change %s: %w", change.ID, err)}
	}

	t.rec.RecordChange(string(prev.Action), string(rec.Action))
	logger.Drift(ctx, rec.Symbol, string(prev.Action), string(rec.Action), rec.Confidence,
		"change_id", change.ID,
		"previous_recommendation", prev.ID,
	)
	return &change, nil
}
