package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Metrics holds the request collectors of a [Router]. A nil *Metrics records nothing.
type Metrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pending         prometheus.Gauge
	lookups         *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// NewMetrics creates the router collectors and registers them with reg.
//
// Collectors already registered with reg are reused, so building a second router
// against the same registry is safe. A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msrv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "msrv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers, including pending time",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "msrv",
			Subsystem: "http",
			Name:      "pending_responses",
			Help:      "Requests waiting on an async response",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msrv",
			Subsystem: "artwork",
			Name:      "lookups_total",
			Help:      "Artwork lookup outcomes",
		}, []string{"outcome"}),
		gatherer: reg,
	}

	m.requestTotal = register(reg, m.requestTotal)
	m.requestDuration = register(reg, m.requestDuration)
	m.pending = register(reg, m.pending)
	m.lookups = register(reg, m.lookups)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordLookup counts an artwork lookup outcome such as "found" or "not_found".
func (m *Metrics) RecordLookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (m *Metrics) observe(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": methodLabel(method),
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestDuration.With(labels).Observe(duration.Seconds())
}

func (m *Metrics) pendingInc() {
	if m != nil {
		m.pending.Inc()
	}
}

func (m *Metrics) pendingDec() {
	if m != nil {
		m.pending.Dec()
	}
}

// methodLabel bounds the method label to the standard verbs.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return method
	default:
		return "other"
	}
}
