package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

// Memory keeps history in process. Data is lost on exit.
type Memory struct {
	mu      sync.RWMutex
	recs    map[string][]types.Recommendation
	changes []types.RecommendationChange
	seen    map[string]bool
}

var _ interfaces.RecommendationStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		recs: make(map[string][]types.Recommendation),
		seen: make(map[string]bool),
	}
}

func (m *Memory) LatestRecommendation(_ context.Context, symbol string) (*types.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *types.Recommendation
	for i, r := range m.recs[types.NormalizeSymbol(symbol)] {
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = &m.recs[types.NormalizeSymbol(symbol)][i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (m *Memory) SaveRecommendation(_ context.Context, rec types.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.recs[rec.Symbol] {
		if r.ID == rec.ID {
			m.recs[rec.Symbol][i] = rec
			return nil
		}
	}
	m.recs[rec.Symbol] = append(m.recs[rec.Symbol], rec)
	return nil
}

func (m *Memory) AppendChange(_ context.Context, c types.RecommendationChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seen[c.ID] {
		return nil
	}
	m.seen[c.ID] = true
	m.changes = append(m.changes, c)
	return nil
}

func (m *Memory) ChangesSince(_ context.Context, since time.Time) ([]types.RecommendationChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.RecommendationChange
	for _, c := range m.changes {
		if !c.DetectedAt.Before(since) {
			out = append(out, c)
		}
	}
	sortChanges(out)
	return out, nil
}

func (m *Memory) Symbols(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.recs))
	for s := range m.recs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }

// sortChanges orders newest first.
func sortChanges(cs []types.RecommendationChange) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].DetectedAt.After(cs[j].DetectedAt)
	})
}
