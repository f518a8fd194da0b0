package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mikey/mailguard/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exports analysis metrics. It implements core.Observer.
type Recorder struct {
	registry *prometheus.Registry
	analyses *prometheus.CounterVec
	scoring  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailguard_analyses_total",
			Help: "Total number of analysis requests answered",
		}, []string{"verdict", "cached"}),
		scoring: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailguard_scoring_total",
			Help: "Total number of scoring engine invocations",
		}, []string{"model_kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailguard_analysis_duration_seconds",
			Help:    "Time spent answering an analysis request",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(
		r.analyses,
		r.scoring,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveAnalysis records one answered request. Scoring is only counted for fresh analyses.
func (r *Recorder) ObserveAnalysis(rec *core.AnalysisRecord, elapsed time.Duration) {
	r.analyses.WithLabelValues(string(rec.Verdict), strconv.FormatBool(rec.Cached)).Inc()
	if !rec.Cached && rec.UsedModel {
		r.scoring.WithLabelValues(string(rec.ModelKind)).Inc()
	}
	r.duration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
