package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for heartrisk_predictions_total.
const (
	OutcomeHealthy     = "healthy"
	OutcomeDisease     = "disease"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// Metrics owns its registry so that several servers (and tests) never
// collide on global registration. A nil *Metrics is a no-op.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	duration    prometheus.Histogram
	available   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heartrisk_predictions_total",
			Help: "Prediction requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heartrisk_prediction_duration_seconds",
			Help:    "Time spent encoding, scaling and classifying one record.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heartrisk_artifacts_available",
			Help: "1 when both model artifacts loaded at startup, 0 otherwise.",
		}),
	}
	m.registry.MustRegister(
		m.predictions,
		m.duration,
		m.available,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction counts one prediction attempt.
func (m *Metrics) ObservePrediction(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeHealthy || outcome == OutcomeDisease {
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) SetArtifactsAvailable(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.available.Set(1)
	} else {
		m.available.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
