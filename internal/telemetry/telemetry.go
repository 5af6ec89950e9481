// Package telemetry defines the fire-and-forget event sink spec §6
// names (pack_metrics, governor_action, safeguard) and a
// Prometheus-backed implementation.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// PackMetricsEvent is fired once per apply call (spec §4.8).
type PackMetricsEvent struct {
	Provider       string
	Mode           string
	CacheHit       bool
	ReusedPercent  int
	InjectedBytes  int
	EstimatedTokens int // not set by the engine; PrometheusSink does not record it
}

// GovernorActionEvent is fired once per record_run_outcome call (spec §4.13).
type GovernorActionEvent struct {
	Action  string
	Reasons []string
}

// SafeguardEvent is fired when the safeguard gate was requested (spec §4.12).
type SafeguardEvent struct {
	Allowed bool
}

// Sink is the collaborator interface spec §6 names.
type Sink interface {
	PackMetrics(PackMetricsEvent)
	GovernorAction(GovernorActionEvent)
	Safeguard(SafeguardEvent)
}

// NopSink discards every event; used by tests and by the engine when
// no Prometheus registry is configured.
type NopSink struct{}

func (NopSink) PackMetrics(PackMetricsEvent)       {}
func (NopSink) GovernorAction(GovernorActionEvent) {}
func (NopSink) Safeguard(SafeguardEvent)           {}

// PrometheusSink records events as Prometheus counters/histograms,
// grounded on the pack's own direct use of client_golang for
// progress/metric reporting.
type PrometheusSink struct {
	cacheHits        *prometheus.CounterVec
	injectedBytes    *prometheus.HistogramVec
	governorActions  *prometheus.CounterVec
	safeguardOutcome *prometheus.CounterVec
}

// NewPrometheusSink registers the sink's metrics on reg.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "continuity",
			Name:      "pack_requests_total",
			Help:      "Pack assembly requests by provider, mode, and cache outcome.",
		}, []string{"provider", "mode", "cache_hit"}),
		injectedBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "continuity",
			Name:      "pack_injected_bytes",
			Help:      "Bytes injected into the prompt per apply call.",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 10),
		}, []string{"provider", "mode"}),
		governorActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "continuity",
			Name:      "governor_actions_total",
			Help:      "Governor decisions by action.",
		}, []string{"action"}),
		safeguardOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "continuity",
			Name:      "safeguard_outcomes_total",
			Help:      "Safeguard gate outcomes.",
		}, []string{"allowed"}),
	}

	for _, c := range []prometheus.Collector{s.cacheHits, s.injectedBytes, s.governorActions, s.safeguardOutcome} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusSink) PackMetrics(e PackMetricsEvent) {
	s.cacheHits.WithLabelValues(e.Provider, e.Mode, boolLabel(e.CacheHit)).Inc()
	s.injectedBytes.WithLabelValues(e.Provider, e.Mode).Observe(float64(e.InjectedBytes))
}

func (s *PrometheusSink) GovernorAction(e GovernorActionEvent) {
	s.governorActions.WithLabelValues(e.Action).Inc()
}

func (s *PrometheusSink) Safeguard(e SafeguardEvent) {
	s.safeguardOutcome.WithLabelValues(boolLabel(e.Allowed)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
