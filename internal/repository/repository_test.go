package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/store"
	"equity-advisor/internal/types"
)

func stores(t *testing.T) map[string]interfaces.RecommendationStore {
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "advisor.db"))
	require.NoError(t, err)
	bg, err := OpenBadger(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)

	out := map[string]interfaces.RecommendationStore{
		"memory": NewMemory(),
		"sqlite": sq,
		"badger": bg,
	}
	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

var t0 = time.Date(2024, 6, 1, 9, 15, 0, 0, time.UTC)

func rec(id, symbol string, action types.Action, at time.Time) types.Recommendation {
	news, tech := 0.4, -0.1
	return types.Recommendation{
		ID:             id,
		Symbol:         symbol,
		Action:         action,
		Confidence:     0.62,
		Composite:      0.15,
		NewsSentiment:  &news,
		TechnicalScore: &tech,
		Reasoning:      "HOLD: composite score +0.15",
		MissingSignals: []types.SignalKind{types.SignalFundamental},
		RecentNews: []types.ScoredArticle{{
			RawArticle:      types.RawArticle{Title: "Acme earnings beat", Source: "wire", URL: "https://x/1"},
			RelevanceScore:  3,
			MatchedKeywords: []string{"earnings"},
		}},
		TechnicalIndicators: &types.TechnicalSnapshot{CurrentPrice: 101.5, Bars: 120},
		CreatedAt:           at,
	}
}

func TestLatestRecommendation(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.LatestRecommendation(ctx, "ACME")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, s.SaveRecommendation(ctx, rec("a1", "ACME", types.ActionHold, t0)))
			require.NoError(t, s.SaveRecommendation(ctx, rec("a2", "ACME", types.ActionBuy, t0.Add(time.Hour))))
			require.NoError(t, s.SaveRecommendation(ctx, rec("b1", "BETA", types.ActionSell, t0.Add(2*time.Hour))))

			got, err = s.LatestRecommendation(ctx, "acme")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "a2", got.ID)
			assert.Equal(t, types.ActionBuy, got.Action)
			assert.True(t, t0.Add(time.Hour).Equal(got.CreatedAt))
			require.NotNil(t, got.NewsSentiment)
			assert.Equal(t, 0.4, *got.NewsSentiment)
			assert.Nil(t, got.FundamentalScore)
			assert.Equal(t, []types.SignalKind{types.SignalFundamental}, got.MissingSignals)
			require.Len(t, got.RecentNews, 1)
			assert.Equal(t, []string{"earnings"}, got.RecentNews[0].MatchedKeywords)
			require.NotNil(t, got.TechnicalIndicators)
			assert.Equal(t, 120, got.TechnicalIndicators.Bars)

			syms, err := s.Symbols(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"ACME", "BETA"}, syms)
		})
	}
}

func TestSaveIsUpsertOnID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := rec("a1", "ACME", types.ActionHold, t0)
			require.NoError(t, s.SaveRecommendation(ctx, r))
			r.Action = types.ActionBuy
			require.NoError(t, s.SaveRecommendation(ctx, r))

			got, err := s.LatestRecommendation(ctx, "ACME")
			require.NoError(t, err)
			assert.Equal(t, types.ActionBuy, got.Action)
		})
	}
}

func TestAppendChangeIsIdempotent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := types.RecommendationChange{
				ID: "c1", Symbol: "ACME", RecommendationID: "a2",
				PreviousAction: types.ActionHold, NewAction: types.ActionBuy,
				Confidence: 0.7, DetectedAt: t0,
			}
			require.NoError(t, s.AppendChange(ctx, c))
			require.NoError(t, s.AppendChange(ctx, c))
			require.NoError(t, s.AppendChange(ctx, types.RecommendationChange{
				ID: "c2", Symbol: "BETA", PreviousAction: types.ActionBuy, NewAction: types.ActionSell,
				DetectedAt: t0.Add(24 * time.Hour),
			}))
			require.NoError(t, s.AppendChange(ctx, types.RecommendationChange{
				ID: "c0", Symbol: "OLD", PreviousAction: types.ActionBuy, NewAction: types.ActionHold,
				DetectedAt: t0.Add(-48 * time.Hour),
			}))

			got, err := s.ChangesSince(ctx, t0)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "c2", got[0].ID)
			assert.Equal(t, "c1", got[1].ID)
			assert.Equal(t, types.ActionHold, got[1].PreviousAction)
			assert.True(t, t0.Equal(got[1].DetectedAt))
		})
	}
}

func TestFactory(t *testing.T) {
	cfg := store.Default()
	cfg.Storage.Driver = "memory"
	s, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "nested", "advisor.db")
	s, err = New(cfg)
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	cfg.Storage.Driver = "bogus"
	_, err = New(cfg)
	assert.Error(t, err)
}
