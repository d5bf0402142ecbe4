package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

type recommendationRecord struct {
	ID        string `badgerhold:"key"`
	Symbol    string `badgerhold:"index"`
	CreatedAt time.Time
	Rec       types.Recommendation
}

type changeRecord struct {
	ID         string `badgerhold:"key"`
	DetectedNs int64
	Change     types.RecommendationChange
}

type symbolRecord struct {
	Symbol string `badgerhold:"key"`
}

// Badger persists history in an embedded badger directory through badgerhold.
type Badger struct {
	store *badgerhold.Store
}

var _ interfaces.RecommendationStore = (*Badger)(nil)

func OpenBadger(dir string) (*Badger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Badger{store: store}, nil
}

func (b *Badger) LatestRecommendation(ctx context.Context, symbol string) (*types.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var recs []recommendationRecord
	err := b.store.Find(&recs, badgerhold.Where("Symbol").Eq(types.NormalizeSymbol(symbol)).Index("Symbol"))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	latest := recs[0]
	for _, r := range recs[1:] {
		if !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	out := latest.Rec
	return &out, nil
}

func (b *Badger) SaveRecommendation(ctx context.Context, rec types.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if err := b.store.Upsert(rec.ID, recommendationRecord{
		ID:        rec.ID,
		Symbol:    rec.Symbol,
		CreatedAt: rec.CreatedAt,
		Rec:       rec,
	}); err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	if err := b.store.Upsert(rec.Symbol, symbolRecord{Symbol: rec.Symbol}); err != nil {
		return fmt.Errorf("failed to save symbol: %w", err)
	}
	return nil
}

func (b *Badger) AppendChange(ctx context.Context, c types.RecommendationChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.DetectedAt = c.DetectedAt.UTC()
	err := b.store.Insert(c.ID, changeRecord{ID: c.ID, DetectedNs: c.DetectedAt.UnixNano(), Change: c})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return nil
	}
	return err
}

func (b *Badger) ChangesSince(ctx context.Context, since time.Time) ([]types.RecommendationChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var recs []changeRecord
	if err := b.store.Find(&recs, badgerhold.Where("DetectedNs").Ge(since.UnixNano())); err != nil {
		return nil, err
	}
	out := make([]types.RecommendationChange, len(recs))
	for i, r := range recs {
		out[i] = r.Change
	}
	sortChanges(out)
	return out, nil
}

func (b *Badger) Symbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var recs []symbolRecord
	if err := b.store.Find(&recs, nil); err != nil {
		return nil, err
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Symbol
	}
	sort.Strings(out)
	return out, nil
}

func (b *Badger) Close() error {
	return b.store.Close()
}
