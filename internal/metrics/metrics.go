// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "profile"

// Confirmation outcomes
const (
	ConfirmVerified      = "verified"
	ConfirmMismatch      = "mismatch"
	ConfirmPersistFailed = "persist_failed"
)

// EmailSuppressed is the email outcome for deny-listed domains
const EmailSuppressed = "suppressed"

// Metrics holds every collector, registered on its own registry
type Metrics struct {
	registry *prometheus.Registry

	// VerificationsIssued counts persisted verification secrets
	VerificationsIssued prometheus.Counter
	// Confirmations counts confirm attempts by outcome (verified|mismatch|persist_failed)
	Confirmations *prometheus.CounterVec
	// Emails counts verification emails by outcome (sent|failed|suppressed|enqueue_failed)
	Emails *prometheus.CounterVec
	// RequestsInFlight tracks requests currently being served
	RequestsInFlight prometheus.Gauge
	// HTTPDuration measures request latency by route template
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers the collectors, including Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		VerificationsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_issued_total",
			Help:      "Total number of email verification secrets issued",
		}),
		Confirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_confirmations_total",
			Help:      "Total number of verification confirm attempts by outcome",
		}, []string{"outcome"}),
		Emails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_emails_total",
			Help:      "Total number of verification emails by outcome",
		}, []string{"outcome"}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterQueueDepth exports the mail queue length reported by fn
func (m *Metrics) RegisterQueueDepth(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "email_queue_depth",
		Help:      "Number of verification emails waiting to be sent",
	}, func() float64 { return float64(fn()) })
}

// VerificationIssued records a persisted verification secret
func (m *Metrics) VerificationIssued() {
	m.VerificationsIssued.Inc()
}

// ConfirmOutcome records the outcome of a confirm attempt
func (m *Metrics) ConfirmOutcome(outcome string) {
	m.Confirmations.WithLabelValues(outcome).Inc()
}

// ObserveEmail records a delivery outcome
func (m *Metrics) ObserveEmail(outcome string) {
	m.Emails.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records a served request
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	m.HTTPDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
