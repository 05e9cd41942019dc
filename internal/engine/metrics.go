package engine

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects dispatch counters on a private registry so hosts can
// mount the handler without clashing with their own collectors.
type Metrics struct {
	registry         *prometheus.Registry
	eventsDispatched *prometheus.CounterVec
	rulesMatched     *prometheus.CounterVec
	ruleErrors       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	return &Metrics{
		registry: registry,
		eventsDispatched: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "automation_events_dispatched_total",
			Help: "Total trigger events dispatched",
		}, []string{"trigger_type"}),
		rulesMatched: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "automation_rules_matched_total",
			Help: "Total rules whose conditions matched a dispatched event",
		}, []string{"trigger_type"}),
		ruleErrors: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "automation_rule_errors_total",
			Help: "Total per-rule evaluation or action errors during dispatch",
		}, []string{"trigger_type"}),
		dispatchDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "automation_dispatch_duration_seconds",
			Help:    "Wall time to dispatch one event against all candidate rules",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the collector for the host's /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// recordDispatch is nil-safe so metrics stay optional in library use.
func (m *Metrics) recordDispatch(triggerType string, outcomes []Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(triggerType).Inc()
	m.dispatchDuration.Observe(elapsed.Seconds())
	for _, o := range outcomes {
		if o.Matched {
			m.rulesMatched.WithLabelValues(triggerType).Inc()
		}
		if o.Err != nil {
			m.ruleErrors.WithLabelValues(triggerType).Inc()
		}
	}
}
