// Package metrics exposes Prometheus collectors for dispatch invocations.
package metrics

import (
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"

	obserrors "github.com/target/ticketgate/internal/observability/errors"
)

// Outcome labels for invocation metrics.
const (
	OutcomeDispatched = "dispatched"
	OutcomeIneligible = "ineligible"
	OutcomeFailed     = "failed"
)

// DispatchMetrics groups the dispatch collectors. A nil *DispatchMetrics is a no-op.
type DispatchMetrics struct {
	invocations      *prometheus.CounterVec
	notifierFailures *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	revenue          prometheus.Counter
	lastDispatch     prometheus.Gauge
	nextInterval     prometheus.Gauge
}

// NewDispatchMetrics registers the dispatch collectors on reg.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ticketgate_invocations_total", Help: "Dispatch invocations by outcome."},
			[]string{"outcome", "error_class"},
		),
		notifierFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ticketgate_notifier_failures_total", Help: "Failed external notifications by destination domain."},
			[]string{"domain", "error_class"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticketgate_invocation_duration_seconds",
				Help:    "Dispatch invocation latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		revenue: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ticketgate_dispatched_value_total", Help: "Sum of dispatched ticket values."},
		),
		lastDispatch: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "ticketgate_last_dispatch_timestamp_seconds", Help: "Unix time of the last committed dispatch."},
		),
		nextInterval: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "ticketgate_next_interval_minutes", Help: "Interval chosen by the last committed dispatch."},
		),
	}
	reg.MustRegister(m.invocations, m.notifierFailures, m.duration, m.revenue, m.lastDispatch, m.nextInterval)
	return m
}

// ObserveInvocation records the outcome and latency of one invocation.
func (m *DispatchMetrics) ObserveInvocation(outcome string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(outcome, obserrors.Classify(err)).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveDispatch records a committed dispatch.
func (m *DispatchMetrics) ObserveDispatch(value float64, sentAt time.Time, nextInterval int) {
	if m == nil {
		return
	}
	m.revenue.Add(value)
	m.lastDispatch.Set(float64(sentAt.Unix()))
	m.nextInterval.Set(float64(nextInterval))
}

// ObserveNotifierFailure counts a failed notification, labelled by the destination's registrable domain.
func (m *DispatchMetrics) ObserveNotifierFailure(destination string, err error) {
	if m == nil {
		return
	}
	m.notifierFailures.WithLabelValues(DestinationDomain(destination), obserrors.Classify(err)).Inc()
}

// DestinationDomain reduces a webhook URL to its eTLD+1 to bound label cardinality.
// Unparseable input yields "unknown". IP literals and bare hosts are returned as-is.
func DestinationDomain(destination string) string {
	u, err := url.Parse(strings.TrimSpace(destination))
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
