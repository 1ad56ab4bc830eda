package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the dialogue and backend instrumentation on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	messagesTotal   *prometheus.CounterVec
	handleDuration  *prometheus.HistogramVec
	backendDuration *prometheus.HistogramVec
	issuedTotal     *prometheus.CounterVec
}

// New builds the registry. activeSessions is polled on scrape for the live
// session gauge; nil disables it.
func New(service string, activeSessions func() float64) *Metrics {
	registry := prometheus.NewRegistry()

	messagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "mda",
			Subsystem:   "dialogue",
			Name:        "messages_total",
			Help:        "Inbound messages handled, by outcome.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"status"},
	)
	handleDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "mda",
			Subsystem:   "dialogue",
			Name:        "handle_duration_seconds",
			Help:        "Handle cycle duration per inbound message.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"status"},
	)
	backendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "mda",
			Subsystem:   "backend",
			Name:        "call_duration_seconds",
			Help:        "Backend service call duration, by service and outcome.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"backend", "outcome"},
	)
	issuedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "mda",
			Subsystem:   "issuance",
			Name:        "documents_total",
			Help:        "Document issuance attempts, by outcome.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"outcome"},
	)

	registry.MustRegister(messagesTotal, handleDuration, backendDuration, issuedTotal)

	if activeSessions != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   "mda",
				Subsystem:   "dialogue",
				Name:        "active_sessions",
				Help:        "Sessions currently in flight.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			activeSessions,
		))
	}

	return &Metrics{
		registry:        registry,
		messagesTotal:   messagesTotal,
		handleDuration:  handleDuration,
		backendDuration: backendDuration,
		issuedTotal:     issuedTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveMessage(duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.messagesTotal.WithLabelValues(status).Inc()
	m.handleDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) ObserveBackendCall(backend string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.backendDuration.WithLabelValues(backend, outcome).Observe(duration.Seconds())
}

func (m *Metrics) RecordIssuance(outcome string) {
	if m == nil {
		return
	}
	m.issuedTotal.WithLabelValues(outcome).Inc()
}
