// Package metrics holds the Prometheus instruments of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var storeDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

type Metrics struct {
	StoreOperationsTotal *prometheus.CounterVec
	StoreDuration        *prometheus.HistogramVec
	CacheLookupsTotal    *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec
	EventsConsumedTotal  *prometheus.CounterVec
	ResponsesTotal       prometheus.Counter

	gatherer prometheus.Gatherer
}

// InitMetrics creates and registers all instruments on reg
func InitMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		StoreOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_store_operations_total",
			Help: "Total number of store operations.",
		}, []string{"operation", "status"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "questionnaire_store_duration_seconds",
			Help:    "Store operation duration in seconds.",
			Buckets: storeDurationBuckets,
		}, []string{"operation"}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_cache_lookups_total",
			Help: "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_events_published_total",
			Help: "Events published to the broker.",
		}, []string{"routing_key", "status"}),
		EventsConsumedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_events_consumed_total",
			Help: "Events received from the broker.",
		}, []string{"type"}),
		ResponsesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "questionnaire_responses_submitted_total",
			Help: "Responses accepted by the store.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.StoreOperationsTotal,
		m.StoreDuration,
		m.CacheLookupsTotal,
		m.EventsPublishedTotal,
		m.EventsConsumedTotal,
		m.ResponsesTotal,
	)
	return m
}

// ObserveStore records one store operation started at start
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// CacheLookup records a cache hit or miss for kind ("form", "responses")
func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) EventPublished(routingKey string, err error) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(routingKey, status(err)).Inc()
}

func (m *Metrics) EventConsumed(eventType string) {
	if m == nil {
		return
	}
	m.EventsConsumedTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ResponseSubmitted() {
	if m == nil {
		return
	}
	m.ResponsesTotal.Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
