// Package metrics exposes processing counters in the Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

const namespace = "softmention"

// Document outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the collectors of one engine.
type Metrics struct {
	registry *prometheus.Registry

	documents *prometheus.CounterVec
	entities  *prometheus.CounterVec
	duration  prometheus.Histogram
	refs      *prometheus.CounterVec
}

// New registers all collectors, plus the Go runtime ones, on a fresh
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		documents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Processed documents by outcome.",
		}, []string{"status"}),
		entities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Returned software entities by origin.",
		}, []string{"origin"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent processing one document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		refs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_callouts_total",
			Help:      "Reference callouts by resolution result.",
		}, []string{"result"}),
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDocument records one processed document.
func (m *Metrics) ObserveDocument(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveEntities counts entities by whether they were labeled or
// propagated.
func (m *Metrics) ObserveEntities(entities []mention.Entity) {
	if m == nil {
		return
	}
	for _, e := range entities {
		origin := "labeled"
		if e.Propagated {
			origin = "propagated"
		}
		m.entities.WithLabelValues(origin).Inc()
	}
}

// ObserveCallouts records how many callouts were resolved and skipped.
func (m *Metrics) ObserveCallouts(resolved, skipped int) {
	if m == nil {
		return
	}
	m.refs.WithLabelValues("resolved").Add(float64(resolved))
	m.refs.WithLabelValues("skipped").Add(float64(skipped))
}
