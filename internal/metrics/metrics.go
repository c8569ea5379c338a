// Package metrics provides Prometheus metrics for ensembling calls made
// through the server and the stream runner (see stream.WithMetrics).
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

// Error reasons recorded on CombineErrors.
const (
	ReasonConfiguration = "configuration"
	ReasonInputShape    = "input_shape"
	ReasonOther         = "other"
)

// Metrics holds the Prometheus collectors for combine calls.
type Metrics struct {
	Combines        *prometheus.CounterVec   // combine calls by ensembler kind
	CombineErrors   *prometheus.CounterVec   // failed combine calls by kind and reason
	CombineDuration *prometheus.HistogramVec // combine latency by kind
	CombinedScores  *prometheus.HistogramVec // distribution of combined scores by kind
	DetectorCount   prometheus.Histogram     // score vector length
}

// New creates and registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Combines: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ensemble_combines_total",
			Help: "Total number of score vectors combined",
		}, []string{"kind"}),
		CombineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ensemble_combine_errors_total",
			Help: "Total number of score vectors that could not be combined",
		}, []string{"kind", "reason"}),
		CombineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ensemble_combine_duration_seconds",
			Help:    "Time spent combining one score vector",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"kind"}),
		CombinedScores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ensemble_combined_score",
			Help:    "Distribution of combined anomaly scores",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"kind"}),
		DetectorCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensemble_detectors_per_vector",
			Help:    "Number of detector scores per combined vector",
			Buckets: prometheus.LinearBuckets(1, 4, 10),
		}),
	}
}

// Reason classifies a combine error for the CombineErrors label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ensemble.ErrConfiguration):
		return ReasonConfiguration
	case errors.Is(err, ensemble.ErrInputShape):
		return ReasonInputShape
	default:
		return ReasonOther
	}
}

// Observe records one combine call.
func (m *Metrics) Observe(kind ensemble.Kind, detectors int, score float64, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	k := kind.String()
	m.Combines.WithLabelValues(k).Inc()
	m.DetectorCount.Observe(float64(detectors))
	m.CombineDuration.WithLabelValues(k).Observe(elapsed.Seconds())
	if err != nil {
		m.CombineErrors.WithLabelValues(k, Reason(err)).Inc()
		return
	}
	m.CombinedScores.WithLabelValues(k).Observe(score)
}

// Instrumented wraps an ensembler so each Combine call is recorded.
type Instrumented struct {
	ensemble.ScoreEnsembler
	metrics *Metrics
}

// Instrument returns e wrapped with metrics. A nil m returns e unchanged.
func Instrument(e ensemble.ScoreEnsembler, m *Metrics) ensemble.ScoreEnsembler {
	if m == nil {
		return e
	}
	return &Instrumented{ScoreEnsembler: e, metrics: m}
}

func (i *Instrumented) Combine(scores []float64) (float64, error) {
	start := time.Now()
	score, err := i.ScoreEnsembler.Combine(scores)
	i.metrics.Observe(i.Kind(), len(scores), score, time.Since(start), err)
	return score, err
}
