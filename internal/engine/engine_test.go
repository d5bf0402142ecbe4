package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

type fakeCollector struct{ ev types.EvidenceSet }

func (f fakeCollector) Collect(_ context.Context, symbol string) types.EvidenceSet {
	ev := f.ev
	ev.Symbol = symbol
	return ev
}

type fakeNews struct {
	score types.SignalScore
	err   error
	block bool
}

func (f fakeNews) Score(ctx context.Context, _ types.EvidenceSet) (types.SignalScore, error) {
	if f.block {
		<-ctx.Done()
		return types.SignalScore{}, ctx.Err()
	}
	return f.score, f.err
}

type fakeTechnical struct {
	score types.SignalScore
	err   error
	calls *int32
}

func (f fakeTechnical) Score(context.Context, string) (types.SignalScore, *types.TechnicalSnapshot, error) {
	if f.calls != nil {
		atomic.AddInt32(f.calls, 1)
	}
	if f.err != nil {
		return types.SignalScore{}, nil, f.err
	}
	return f.score, &types.TechnicalSnapshot{CurrentPrice: 100, Bars: 60}, nil
}

type fakeFundamental struct {
	score types.SignalScore
	err   error
	sleep time.Duration
}

func (f fakeFundamental) Score(ctx context.Context, _ string) (types.SignalScore, error) {
	if f.sleep > 0 {
		select {
		case <-time.After(f.sleep):
		case <-ctx.Done():
			return types.SignalScore{}, ctx.Err()
		}
	}
	return f.score, f.err
}

func sig(kind types.SignalKind, v float64) types.SignalScore {
	return types.SignalScore{Kind: kind, Value: v, Rationale: string(kind) + " rationale"}
}

func orchestrator(n interfaces.NewsAnalyzer, t interfaces.TechnicalAnalyzer, f interfaces.FundamentalAnalyzer) *Orchestrator {
	return NewOrchestrator(Params{
		Collector:     fakeCollector{},
		News:          n,
		Technical:     t,
		Fundamental:   f,
		BranchTimeout: 200 * time.Millisecond,
		Budget:        400 * time.Millisecond,
	})
}

func TestAnalyzeJoinsAllBranches(t *testing.T) {
	o := orchestrator(
		fakeNews{score: sig(types.SignalNews, 0.5)},
		fakeTechnical{score: sig(types.SignalTechnical, 0.2)},
		fakeFundamental{score: sig(types.SignalFundamental, -0.1)},
	)

	a, err := o.Analyze(context.Background(), " acme ")
	require.NoError(t, err)

	assert.Equal(t, "ACME", a.Symbol)
	assert.Len(t, a.Signals, 3)
	assert.Empty(t, a.Missing)
	assert.NotNil(t, a.Technical)
	assert.Equal(t, "ACME", a.Evidence.Symbol)
}

func TestAnalyzeToleratesOneFailure(t *testing.T) {
	o := orchestrator(
		fakeNews{score: sig(types.SignalNews, 0.5)},
		fakeTechnical{err: errors.New("no candles")},
		fakeFundamental{score: sig(types.SignalFundamental, 0.3)},
	)

	a, err := o.Analyze(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, []types.SignalKind{types.SignalTechnical}, a.Missing)
	assert.Nil(t, a.Technical)
}

func TestAnalyzeFailsWhenTwoBranchesFail(t *testing.T) {
	o := orchestrator(
		fakeNews{err: types.ErrUnparsableResponse},
		fakeTechnical{score: sig(types.SignalTechnical, 0.2)},
		fakeFundamental{err: errors.New("reasoner down")},
	)

	_, err := o.Analyze(context.Background(), "ACME")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAnalysisUnavailable)
	assert.ErrorIs(t, err, types.ErrUnparsableResponse)
	assert.Equal(t, []types.SignalKind{types.SignalNews, types.SignalFundamental}, types.MissingSignals(err))
}

func TestAnalyzeBranchTimeoutCountsAsFailure(t *testing.T) {
	o := orchestrator(
		fakeNews{block: true},
		fakeTechnical{score: sig(types.SignalTechnical, 0.2)},
		fakeFundamental{score: sig(types.SignalFundamental, 0.3)},
	)

	start := time.Now()
	a, err := o.Analyze(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, []types.SignalKind{types.SignalNews}, a.Missing)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestAnalyzeBudgetExpiryFailsPendingBranches(t *testing.T) {
	o := NewOrchestrator(Params{
		Collector:     fakeCollector{},
		News:          fakeNews{block: true},
		Technical:     fakeTechnical{score: sig(types.SignalTechnical, 0.2)},
		Fundamental:   fakeFundamental{sleep: time.Second, score: sig(types.SignalFundamental, 0.3)},
		BranchTimeout: time.Second,
		Budget:        50 * time.Millisecond,
	})

	_, err := o.Analyze(context.Background(), "ACME")
	require.Error(t, err)
	assert.ElementsMatch(t, []types.SignalKind{types.SignalNews, types.SignalFundamental}, types.MissingSignals(err))
}

func TestAnalyzeCallerCancellation(t *testing.T) {
	o := orchestrator(
		fakeNews{block: true},
		fakeTechnical{score: sig(types.SignalTechnical, 0.2)},
		fakeFundamental{sleep: time.Second},
	)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	a, err := o.Analyze(ctx, "ACME")
	assert.Nil(t, a)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeRejectsInvalidSymbol(t *testing.T) {
	var calls int32
	o := orchestrator(fakeNews{}, fakeTechnical{calls: &calls}, fakeFundamental{})

	_, err := o.Analyze(context.Background(), "  ")
	assert.ErrorIs(t, err, types.ErrInvalidSymbol)
	_, err = o.Analyze(context.Background(), "DROP TABLE")
	assert.ErrorIs(t, err, types.ErrInvalidSymbol)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func analysis(vals map[types.SignalKind]float64) *interfaces.Analysis {
	a := &interfaces.Analysis{Symbol: "ACME", Signals: map[types.SignalKind]types.SignalScore{}}
	for k, v := range vals {
		a.Signals[k] = sig(k, v)
	}
	return a
}

func TestSynthesizerThresholdsAreClosed(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 0.3, -0.3)

	cases := []struct {
		vals map[types.SignalKind]float64
		want types.Action
	}{
		{map[types.SignalKind]float64{types.SignalNews: 0.3, types.SignalTechnical: 0.3, types.SignalFundamental: 0.3}, types.ActionBuy},
		{map[types.SignalKind]float64{types.SignalNews: -0.3, types.SignalTechnical: -0.3, types.SignalFundamental: -0.3}, types.ActionSell},
		{map[types.SignalKind]float64{types.SignalNews: 0, types.SignalTechnical: 0, types.SignalFundamental: 0}, types.ActionHold},
		{map[types.SignalKind]float64{types.SignalNews: 0.6, types.SignalTechnical: -0.6, types.SignalFundamental: 0}, types.ActionHold},
		{map[types.SignalKind]float64{types.SignalNews: 0.1, types.SignalTechnical: 0.5}, types.ActionBuy},
	}
	for _, tc := range cases {
		rec, err := s.Synthesize(analysis(tc.vals))
		require.NoError(t, err)
		assert.Equal(t, tc.want, rec.Action, "%v -> composite %v", tc.vals, rec.Composite)
	}
}

func TestSynthesizerIsDeterministic(t *testing.T) {
	s := NewSynthesizer(Weights{News: 2, Technical: 1, Fundamental: 1}, 0.3, -0.3)
	vals := map[types.SignalKind]float64{types.SignalNews: 0.45, types.SignalTechnical: -0.1, types.SignalFundamental: 0.2}

	first, err := s.Synthesize(analysis(vals))
	require.NoError(t, err)
	for range 20 {
		again, err := s.Synthesize(analysis(vals))
		require.NoError(t, err)
		assert.Equal(t, first.Action, again.Action)
		assert.Equal(t, first.Confidence, again.Confidence)
		assert.Equal(t, first.Composite, again.Composite)
	}
}

func TestSynthesizerRenormalizesOverPresentSignals(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 0.3, -0.3)

	rec, err := s.Synthesize(analysis(map[types.SignalKind]float64{types.SignalNews: 0.4, types.SignalFundamental: 0.2}))
	require.NoError(t, err)

	assert.InDelta(t, 0.3, rec.Composite, 1e-9)
	assert.Equal(t, types.ActionBuy, rec.Action)
	assert.Nil(t, rec.TechnicalScore)
	assert.Equal(t, []types.SignalKind{types.SignalTechnical}, rec.MissingSignals)
	assert.Contains(t, rec.Reasoning, "Technical analysis unavailable")
}

func TestSynthesizerRequiresTwoSignals(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 0.3, -0.3)

	_, err := s.Synthesize(analysis(map[types.SignalKind]float64{types.SignalNews: 0.9}))
	var se *types.SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Present)
	assert.ErrorIs(t, err, types.ErrSynthesisImpossible)
}

func TestConfidenceDropsWhenSignalsDisagree(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 0.3, -0.3)

	agree, _ := s.Synthesize(analysis(map[types.SignalKind]float64{types.SignalNews: 0.5, types.SignalTechnical: 0.5, types.SignalFundamental: 0.5}))
	split, _ := s.Synthesize(analysis(map[types.SignalKind]float64{types.SignalNews: 0.9, types.SignalTechnical: 0.9, types.SignalFundamental: -0.3}))

	assert.Equal(t, agree.Composite, split.Composite)
	assert.Greater(t, agree.Confidence, split.Confidence)
	for _, r := range []types.Recommendation{agree, split} {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}

func TestConfidenceGrowsWithMagnitude(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 0.3, -0.3)
	all := func(v float64) map[types.SignalKind]types.SignalScore {
		return analysis(map[types.SignalKind]float64{types.SignalNews: v, types.SignalTechnical: v, types.SignalFundamental: v}).Signals
	}

	assert.Greater(t, s.Confidence(0.9, all(0.9)), s.Confidence(0.4, all(0.4)))
	assert.Greater(t, s.Confidence(-0.9, all(-0.9)), s.Confidence(-0.4, all(-0.4)))
	assert.Equal(t, 1.0, s.Confidence(1, all(1)))
}

func TestConfidenceAtUnitThresholdsStaysInRange(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 1, -1)
	all := func(v float64) map[types.SignalKind]types.SignalScore {
		return analysis(map[types.SignalKind]float64{types.SignalNews: v, types.SignalTechnical: v, types.SignalFundamental: v}).Signals
	}

	for _, v := range []float64{1, -1, 0, 0.5} {
		c := s.Confidence(v, all(v))
		assert.False(t, math.IsNaN(c), "composite %v", v)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
	assert.Equal(t, 1.0, s.Confidence(1, all(1)))

	rec, err := s.Synthesize(analysis(map[types.SignalKind]float64{types.SignalNews: 1, types.SignalTechnical: 1, types.SignalFundamental: 1}))
	require.NoError(t, err)
	assert.Equal(t, types.ActionBuy, rec.Action)
	_, err = json.Marshal(rec)
	assert.NoError(t, err)
}

func TestReasoningNamesEachSignalsOwnAction(t *testing.T) {
	s := NewSynthesizer(EqualWeights, 0.3, -0.3)
	rec, err := s.Synthesize(analysis(map[types.SignalKind]float64{types.SignalNews: 0.8, types.SignalTechnical: -0.5, types.SignalFundamental: 0.1}))
	require.NoError(t, err)

	lines := strings.Split(rec.Reasoning, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "supports BUY")
	assert.Contains(t, lines[2], "supports SELL")
	assert.Contains(t, lines[3], "supports HOLD")
	assert.Contains(t, lines[1], "news rationale")
}
