package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsAndExposes(t *testing.T) {
	r := New()

	r.RecordAnalysis("ok")
	r.RecordAnalysis("ok")
	r.RecordBranchFailure("news")
	r.RecordChange("HOLD", "BUY")
	r.RecordComposite("INFY", 0.42)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.branchFailures.WithLabelValues("news")))
	assert.Equal(t, 0.42, testutil.ToFloat64(r.composite.WithLabelValues("INFY")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `advisor_recommendation_changes_total{from="HOLD",to="BUY"} 1`)
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordSearchFailure("bing")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.searchFailures.WithLabelValues("bing")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.searchFailures.WithLabelValues("bing")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordAnalysis("ok")
		r.RecordLatency("analyze", 1)
		r.RecordEvidence(3)
	})
}
