// Package metrics provides Prometheus metrics for the HCP interaction agent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchTotal tracks dispatched requests by resolved intent
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hcp_agent",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total number of dispatched requests by intent and classifier fallback",
		},
		[]string{"intent", "degraded"},
	)

	// ExtractionFallbackTotal tracks log_interaction calls that stored the fallback record
	ExtractionFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hcp_agent",
			Subsystem: "tool",
			Name:      "extraction_fallback_total",
			Help:      "Total number of interactions logged with the fallback extraction record",
		},
	)

	// CompletionDuration tracks completion service latency in seconds
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hcp_agent",
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Duration of completion service calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// CompletionErrors tracks failed completion service calls
	CompletionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hcp_agent",
			Subsystem: "completion",
			Name:      "errors_total",
			Help:      "Total number of failed completion service calls",
		},
		[]string{"operation"},
	)
)

func RecordDispatch(intent string, degraded bool) {
	DispatchTotal.WithLabelValues(intent, strconv.FormatBool(degraded)).Inc()
}

func ObserveCompletion(operation string, start time.Time, err error) {
	CompletionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		CompletionErrors.WithLabelValues(operation).Inc()
	}
}
