package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the record
// lifecycle and its HTTP boundary.
type Metrics struct {
	RecordsCreated       prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
	Confirmations        prometheus.Counter
	Supersessions        prometheus.Counter
	Warnings             *prometheus.CounterVec // label: reason={parse,rainfall_sign,temperature_order}
	AuditPublishFailures prometheus.Counter

	RequestDuration *prometheus.HistogramVec // label: command
	RequestErrors   *prometheus.CounterVec   // label: command
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsCreated,
		m.DuplicatesSuppressed,
		m.Confirmations,
		m.Supersessions,
		m.Warnings,
		m.AuditPublishFailures,
		m.RequestDuration,
		m.RequestErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "records_created_total",
			Help:      "Total climate records persisted.",
		}),
		DuplicatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "duplicates_suppressed_total",
			Help:      "Total submissions answered with an existing live record.",
		}),
		Confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "confirmations_total",
			Help:      "Total records confirmed by the submitter.",
		}),
		Supersessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "supersessions_total",
			Help:      "Total records obsoleted by a correction.",
		}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "warnings_total",
			Help:      "Advisory warnings attached to accepted submissions, by reason.",
		}, []string{"reason"}),
		AuditPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "audit_publish_failures_total",
			Help:      "Audit feed publishes that failed (best-effort, operation still succeeds).",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "epicsa",
			Name:      "request_duration_seconds",
			Help:      "Command handling duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"command"}),
		RequestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "epicsa",
			Name:      "request_errors_total",
			Help:      "Commands answered with an in-band error field.",
		}, []string{"command"}),
	}
}
