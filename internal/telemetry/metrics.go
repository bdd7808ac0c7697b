package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfiguratorMetrics holds Prometheus metrics for configurator sessions
// and their price resolvers. Resolver metrics carry a resolver label
// (parametric, bundle, component).
type ConfiguratorMetrics struct {
	// Sessions
	SessionsOpened *prometheus.CounterVec
	SessionsClosed *prometheus.CounterVec
	SessionsActive prometheus.Gauge

	// Selection
	AxisChanges         prometheus.Counter
	InvalidCombinations prometheus.Counter

	// Price resolution
	PriceRequests        *prometheus.CounterVec
	PriceRequestDuration *prometheus.HistogramVec
	StaleResponses       *prometheus.CounterVec
	CoalescedSchedules   *prometheus.CounterVec
	SkippedPayloads      *prometheus.CounterVec
	TransportErrors      *prometheus.CounterVec

	// Cart hand-off
	CartConfigurations *prometheus.CounterVec
}

// NewConfiguratorMetrics creates the metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewConfiguratorMetrics(namespace string, reg prometheus.Registerer) *ConfiguratorMetrics {
	if namespace == "" {
		namespace = "configurator"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &ConfiguratorMetrics{
		// =======================================================================
		// Sessions
		// =======================================================================
		SessionsOpened: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "opened_total",
				Help:      "Total configurator sessions opened",
			},
			[]string{"kind"}, // simple, variant_parent, bundle, parametric
		),
		SessionsClosed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "closed_total",
				Help:      "Total configurator sessions closed",
			},
			[]string{"reason"}, // closed, expired, shutdown
		),
		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "active",
				Help:      "Configurator sessions currently open",
			},
		),

		// =======================================================================
		// Selection
		// =======================================================================
		AxisChanges: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "axis_changes_total",
				Help:      "Total discrete axis changes",
			},
		),
		InvalidCombinations: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "invalid_combinations_total",
				Help:      "Total complete selections that matched no variant",
			},
		),

		// =======================================================================
		// Price resolution
		// =======================================================================
		PriceRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "price",
				Name:      "requests_total",
				Help:      "Total price requests sent to the backend",
			},
			[]string{"resolver"},
		),
		PriceRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "price",
				Name:      "request_duration_seconds",
				Help:      "Price backend request latency",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"resolver"},
		),
		StaleResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "price",
				Name:      "stale_responses_total",
				Help:      "Total price responses discarded because newer input arrived",
			},
			[]string{"resolver"},
		),
		CoalescedSchedules: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "price",
				Name:      "coalesced_total",
				Help:      "Total scheduled payloads replaced within the settle window",
			},
			[]string{"resolver"},
		),
		SkippedPayloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "price",
				Name:      "invalid_skipped_total",
				Help:      "Total payloads not sent because they were not priceable",
			},
			[]string{"resolver"},
		),
		TransportErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "price",
				Name:      "transport_errors_total",
				Help:      "Total failed price backend calls",
			},
			[]string{"resolver"},
		),

		// =======================================================================
		// Cart hand-off
		// =======================================================================
		CartConfigurations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "configurations_total",
				Help:      "Total cart configurations built",
			},
			[]string{"kind"},
		),
	}
}

func (m *ConfiguratorMetrics) SessionOpened(kind string) {
	m.SessionsOpened.WithLabelValues(kind).Inc()
	m.SessionsActive.Inc()
}

func (m *ConfiguratorMetrics) SessionClosed(reason string) {
	m.SessionsClosed.WithLabelValues(reason).Inc()
	m.SessionsActive.Dec()
}

func (m *ConfiguratorMetrics) AxisChanged()        { m.AxisChanges.Inc() }
func (m *ConfiguratorMetrics) InvalidCombination() { m.InvalidCombinations.Inc() }

func (m *ConfiguratorMetrics) CartConfigurationBuilt(kind string) {
	m.CartConfigurations.WithLabelValues(kind).Inc()
}

func (m *ConfiguratorMetrics) RequestIssued(resolver string) {
	m.PriceRequests.WithLabelValues(resolver).Inc()
}

func (m *ConfiguratorMetrics) RequestCompleted(resolver string, d time.Duration) {
	m.PriceRequestDuration.WithLabelValues(resolver).Observe(d.Seconds())
}

func (m *ConfiguratorMetrics) StaleDiscarded(resolver string) {
	m.StaleResponses.WithLabelValues(resolver).Inc()
}

func (m *ConfiguratorMetrics) Coalesced(resolver string) {
	m.CoalescedSchedules.WithLabelValues(resolver).Inc()
}

func (m *ConfiguratorMetrics) InvalidSkipped(resolver string) {
	m.SkippedPayloads.WithLabelValues(resolver).Inc()
}

func (m *ConfiguratorMetrics) TransportError(resolver string) {
	m.TransportErrors.WithLabelValues(resolver).Inc()
}
