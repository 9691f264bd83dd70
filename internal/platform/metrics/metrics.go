package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsCreated   prometheus.Counter
	RequestsSigned    prometheus.Counter
	RequestsDeclined  prometheus.Counter
	RequestsExpired   prometheus.Counter
	SealFailures      prometheus.Counter
	SealDuration      prometheus.Histogram
	AuditAppends      prometheus.Counter
	AuditAppendErrors prometheus.Counter
	HTTPLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_signature_requests_created_total",
			Help: "Total number of signature requests created.",
		}),
		RequestsSigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_signature_requests_signed_total",
			Help: "Total number of signature requests completed by signing.",
		}),
		RequestsDeclined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_signature_requests_declined_total",
			Help: "Total number of signature requests declined.",
		}),
		RequestsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_signature_requests_expired_total",
			Help: "Total number of signature requests lazily transitioned to expired.",
		}),
		SealFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_seal_failures_total",
			Help: "Total number of sealing pipeline failures.",
		}),
		SealDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signet_seal_duration_seconds",
			Help:    "Duration of the document sealing pipeline.",
			Buckets: prometheus.DefBuckets,
		}),
		AuditAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_audit_appends_total",
			Help: "Total number of audit ledger appends.",
		}),
		AuditAppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_audit_append_errors_total",
			Help: "Total number of failed audit ledger appends.",
		}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signet_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// NewForTest creates metrics on a private registry so parallel tests don't
// collide on duplicate registration.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		RequestsCreated:   factory.NewCounter(prometheus.CounterOpts{Name: "signet_signature_requests_created_total"}),
		RequestsSigned:    factory.NewCounter(prometheus.CounterOpts{Name: "signet_signature_requests_signed_total"}),
		RequestsDeclined:  factory.NewCounter(prometheus.CounterOpts{Name: "signet_signature_requests_declined_total"}),
		RequestsExpired:   factory.NewCounter(prometheus.CounterOpts{Name: "signet_signature_requests_expired_total"}),
		SealFailures:      factory.NewCounter(prometheus.CounterOpts{Name: "signet_seal_failures_total"}),
		SealDuration:      factory.NewHistogram(prometheus.HistogramOpts{Name: "signet_seal_duration_seconds"}),
		AuditAppends:      factory.NewCounter(prometheus.CounterOpts{Name: "signet_audit_appends_total"}),
		AuditAppendErrors: factory.NewCounter(prometheus.CounterOpts{Name: "signet_audit_append_errors_total"}),
		HTTPLatency:       factory.NewHistogramVec(prometheus.HistogramOpts{Name: "signet_http_request_duration_seconds"}, []string{"route", "status"}),
	}
}
