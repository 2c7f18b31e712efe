// Package metrics registers the process-wide Prometheus collectors shared by
// the log pipeline, the orchestration observer, and the cluster subscription
// layer. One global registry, one init()-time MustRegister, Record* helpers
// at every call site — the same shape used throughout the pack for ambient
// instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	detectionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docktail",
			Subsystem: "logs",
			Name:      "format_detections_total",
			Help:      "Format detection attempts, labeled by outcome (success|unknown).",
		},
		[]string{"outcome"},
	)

	parseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docktail",
			Subsystem: "logs",
			Name:      "parse_total",
			Help:      "Parser invocations, labeled by format and outcome (success|error).",
		},
		[]string{"format", "outcome"},
	)

	activeSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docktail",
			Subsystem: "cluster",
			Name:      "active_subscriptions",
			Help:      "Currently open subscription streams, labeled by kind.",
		},
		[]string{"kind"},
	)

	subscriptionBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docktail",
			Subsystem: "cluster",
			Name:      "subscription_bytes_total",
			Help:      "Bytes relayed through subscription streams, labeled by kind.",
		},
		[]string{"kind"},
	)

	subscriptionMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docktail",
			Subsystem: "cluster",
			Name:      "subscription_messages_total",
			Help:      "Messages relayed through subscription streams, labeled by kind.",
		},
		[]string{"kind"},
	)

	restartEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docktail",
			Subsystem: "observer",
			Name:      "restart_events_total",
			Help:      "Observed service task restarts, labeled by crash_loop (true|false).",
		},
		[]string{"crash_loop"},
	)

	groupsFlushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docktail",
			Subsystem: "logs",
			Name:      "multiline_groups_flushed_total",
			Help:      "Multiline groups flushed, labeled by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		detectionAttempts,
		parseOutcomes,
		activeSubscriptions,
		subscriptionBytes,
		subscriptionMessages,
		restartEvents,
		groupsFlushed,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordDetection records a first-line format detection attempt. success is
// false only when the heuristic fell through to Unknown.
func RecordDetection(success bool) {
	outcome := "success"
	if !success {
		outcome = "unknown"
	}
	detectionAttempts.WithLabelValues(outcome).Inc()
}

// RecordParse records a parser invocation outcome for the given format.
func RecordParse(format string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	parseOutcomes.WithLabelValues(format, outcome).Inc()
}

// IncSubscription and DecSubscription track active subscription gauges; call
// sites pair these through a lifetime guard so every exit path decrements.
func IncSubscription(kind string) { activeSubscriptions.WithLabelValues(kind).Inc() }
func DecSubscription(kind string) { activeSubscriptions.WithLabelValues(kind).Dec() }

// RecordSubscriptionRecord accounts one relayed message of approximately n
// bytes for the given subscription kind.
func RecordSubscriptionRecord(kind string, n int) {
	subscriptionMessages.WithLabelValues(kind).Inc()
	subscriptionBytes.WithLabelValues(kind).Add(float64(n))
}

// RecordRestart records an observed task restart, flagging whether it
// crossed the crash-loop threshold.
func RecordRestart(crashLoop bool) {
	label := "false"
	if crashLoop {
		label = "true"
	}
	restartEvents.WithLabelValues(label).Inc()
}

// RecordGroupFlush records a multiline group flush, labeled by the action
// that triggered it (timeout, header, max_lines, mismatch).
func RecordGroupFlush(reason string) {
	groupsFlushed.WithLabelValues(reason).Inc()
}
