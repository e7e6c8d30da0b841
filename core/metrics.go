package core

// metrics.go – Prometheus instrumentation for the pieces of the system an
// operator actually needs visibility into: topology health, queue depth,
// and zap outcomes. All of them are registered against the package-level
// Registry.

import "github.com/prometheus/client_golang/prometheus"

var (
	// MetricTopologyHealth reports the current mean edge strength of the
	// local topology view, 0 when no peers are known.
	MetricTopologyHealth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pulse",
		Subsystem: "topology",
		Name:      "health",
		Help:      "Mean edge strength across all directly observed peers.",
	})

	// MetricPendingAcks reports the size of the outbound pending-ack set,
	// sampled on every ack retry-check tick.
	MetricPendingAcks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pulse",
		Subsystem: "routing",
		Name:      "pending_acks",
		Help:      "Number of outbound packets currently awaiting acknowledgement.",
	})

	// MetricPacketsForwarded counts packets the router decided to forward.
	MetricPacketsForwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "routing",
		Name:      "packets_forwarded_total",
		Help:      "Total packets forwarded onward by the routing engine.",
	})

	// MetricPacketsDropped counts packets the router decided to drop, by
	// reason.
	MetricPacketsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "routing",
		Name:      "packets_dropped_total",
		Help:      "Total packets dropped by the routing engine, by reason.",
	}, []string{"reason"})

	// MetricZapsCompleted counts successfully validated zap receipts.
	MetricZapsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "zap",
		Name:      "completed_total",
		Help:      "Total zaps that produced a validated receipt.",
	})

	// MetricRelayConnections is registered for the number of open relay
	// connections; no code in this package sets it, so it reads 0.
	MetricRelayConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pulse",
		Subsystem: "nostr",
		Name:      "relays_open",
		Help:      "Number of Nostr relay connections currently open.",
	})
)

// Registry is the Prometheus registry holding every pulse metric; cmd/pulse
// does not serve it over HTTP.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		MetricTopologyHealth,
		MetricPendingAcks,
		MetricPacketsForwarded,
		MetricPacketsDropped,
		MetricZapsCompleted,
		MetricRelayConnections,
	)
}

// ObserveDecision records a routing Decision's outcome in the package
// metrics.
func ObserveDecision(d Decision) {
	switch d.Action {
	case DecisionForward, DecisionDeliverAndForward:
		MetricPacketsForwarded.Inc()
	case DecisionDrop:
		MetricPacketsDropped.WithLabelValues(d.Reason).Inc()
	}
}
