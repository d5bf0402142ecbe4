package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-advisor/internal/service"
	"equity-advisor/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAdvisor struct {
	analyzeErr error
	days       int
}

func (f *fakeAdvisor) AnalyzeSymbol(_ context.Context, symbol string) (*service.Result, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	sym, err := types.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return &service.Result{Recommendation: types.Recommendation{ID: "r1", Symbol: sym, Action: types.ActionBuy, Confidence: 0.8}}, nil
}

func (f *fakeAdvisor) RefreshAll(context.Context) (service.RefreshSummary, error) {
	return service.RefreshSummary{Success: true, UpdatedCount: 2, TotalStocks: 3, Errors: []string{"ZZZ: boom"}}, nil
}

func (f *fakeAdvisor) TopChanges(_ context.Context, days int) ([]service.ChangeView, error) {
	f.days = days
	return []service.ChangeView{{RecommendationChange: types.RecommendationChange{Symbol: "ACME", NewAction: types.ActionSell}}}, nil
}

func (f *fakeAdvisor) Latest(_ context.Context, symbol string) (*types.Recommendation, error) {
	if symbol == "NONE" {
		return nil, fmt.Errorf("no recommendation: %w", types.ErrNotFound)
	}
	return &types.Recommendation{Symbol: symbol, Action: types.ActionHold}, nil
}

func (f *fakeAdvisor) ListLatest(context.Context) ([]types.Recommendation, error) {
	return []types.Recommendation{{Symbol: "AAA"}, {Symbol: "BBB"}}, nil
}

func do(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestAnalyze(t *testing.T) {
	r := NewRouter(&fakeAdvisor{}, nil)

	w, body := do(t, r, "/api/analyze/infy")
	assert.Equal(t, http.StatusOK, w.Code)
	rec := body["recommendation"].(map[string]any)
	assert.Equal(t, "INFY", rec["symbol"])
	assert.Equal(t, "BUY", rec["action"])

	w, _ = do(t, r, "/api/analyze/bad$sym")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeErrorMapping(t *testing.T) {
	news := 0.3
	cases := []struct {
		err    error
		status int
		key    string
	}{
		{&types.AnalysisError{Symbol: "X", Missing: []types.SignalKind{types.SignalNews, types.SignalTechnical}}, http.StatusServiceUnavailable, "missing_signals"},
		{&types.SynthesisError{Symbol: "X", Present: 1}, http.StatusServiceUnavailable, "signals_present"},
		{&types.PersistenceError{Op: "save", Symbol: "X", Recommendation: &types.Recommendation{ID: "keep", NewsSentiment: &news}, Err: errors.New("disk")}, http.StatusInternalServerError, "recommendation"},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "error"},
		{errors.New("other"), http.StatusInternalServerError, "error"},
	}
	for _, tc := range cases {
		r := NewRouter(&fakeAdvisor{analyzeErr: tc.err}, nil)
		w, body := do(t, r, "/api/analyze/X")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, body, tc.key)
	}

	r := NewRouter(&fakeAdvisor{analyzeErr: &types.AnalysisError{Symbol: "X", Missing: []types.SignalKind{types.SignalNews, types.SignalFundamental}}}, nil)
	_, body := do(t, r, "/api/analyze/X")
	assert.Equal(t, []any{"news", "fundamental"}, body["missing_signals"])
}

func TestAnalyzeUnknownSymbolIsUnavailableNotMissing(t *testing.T) {
	branchErr := errors.Join(
		fmt.Errorf("technical: %w", types.ErrNotFound),
		fmt.Errorf("fundamental: %w", types.ErrNotFound),
	)
	err := &types.AnalysisError{Symbol: "ZZZZ", Missing: []types.SignalKind{types.SignalTechnical, types.SignalFundamental}, Err: branchErr}
	require.ErrorIs(t, err, types.ErrNotFound)

	w, body := do(t, NewRouter(&fakeAdvisor{analyzeErr: err}, nil), "/api/analyze/ZZZZ")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, []any{"technical", "fundamental"}, body["missing_signals"])
}

func TestRefreshAll(t *testing.T) {
	w, body := do(t, NewRouter(&fakeAdvisor{}, nil), "/api/refresh-all")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["updated_count"])
	assert.Len(t, body["errors"], 1)
}

func TestTopChangesDays(t *testing.T) {
	f := &fakeAdvisor{}
	r := NewRouter(f, nil)

	w, _ := do(t, r, "/api/stocks/top-changes")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, f.days)

	w, _ = do(t, r, "/api/stocks/top-changes?days=30")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, f.days)

	w, _ = do(t, r, "/api/stocks/top-changes?days=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStocks(t *testing.T) {
	r := NewRouter(&fakeAdvisor{}, nil)

	w, _ := do(t, r, "/api/stocks")
	assert.Equal(t, http.StatusOK, w.Code)
	var list []types.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w, body := do(t, r, "/api/stocks/ACME")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HOLD", body["action"])

	w, _ = do(t, r, "/api/stocks/NONE")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("advisor_analyses_total 1\n"))
	})
	r := NewRouter(&fakeAdvisor{}, metrics)

	w, body := do(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = do(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "advisor_analyses_total")
}

