package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes advisor metrics on its own registry. A nil *Recorder records nothing.
type Recorder struct {
	registry         *prometheus.Registry
	analyses         *prometheus.CounterVec
	branchFailures   *prometheus.CounterVec
	searchFailures   *prometheus.CounterVec
	reasonerCalls    *prometheus.CounterVec
	changes          *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	composite        *prometheus.GaugeVec
	evidenceArticles prometheus.Histogram
}

// New creates a recorder with Go and process collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_analyses_total",
				Help: "Analyses by outcome",
			},
			[]string{"outcome"},
		),
		branchFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_branch_failures_total",
				Help: "Signal branches that failed or timed out",
			},
			[]string{"signal"},
		),
		searchFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_search_failures_total",
				Help: "Search queries that failed and were treated as empty",
			},
			[]string{"provider"},
		),
		reasonerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_reasoner_calls_total",
				Help: "Reasoning service calls by provider and result",
			},
			[]string{"provider", "result"},
		),
		changes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_recommendation_changes_total",
				Help: "Recommendation drift events by transition",
			},
			[]string{"from", "to"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		composite: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "advisor_composite_score",
				Help: "Latest composite score per symbol",
			},
			[]string{"symbol"},
		),
		evidenceArticles: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_evidence_articles",
				Help:    "Articles in each evidence set",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15},
			},
		),
	}
}

func (r *Recorder) RecordAnalysis(outcome string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordBranchFailure(signal string) {
	if r == nil {
		return
	}
	r.branchFailures.WithLabelValues(signal).Inc()
}

func (r *Recorder) RecordSearchFailure(provider string) {
	if r == nil {
		return
	}
	r.searchFailures.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordReasonerCall(provider string, ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	r.reasonerCalls.WithLabelValues(provider, result).Inc()
}

func (r *Recorder) RecordChange(from, to string) {
	if r == nil {
		return
	}
	r.changes.WithLabelValues(from, to).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordComposite(symbol string, value float64) {
	if r == nil {
		return
	}
	r.composite.WithLabelValues(symbol).Set(value)
}

func (r *Recorder) RecordEvidence(articles int) {
	if r == nil {
		return
	}
	r.evidenceArticles.Observe(float64(articles))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
