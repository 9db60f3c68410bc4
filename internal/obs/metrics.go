// Package obs holds the service's prometheus metrics.
package obs

import "github.com/prometheus/client_golang/prometheus"

var (
	// EventsTotal counts webhook deliveries by action.
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_events_total", Help: "Webhook deliveries received, by action"},
		[]string{"action"},
	)

	// OutcomesTotal counts processing outcomes.
	OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_outcomes_total", Help: "Event processing outcomes"},
		[]string{"outcome"},
	)

	// SignatureRejectionsTotal counts deliveries rejected at the boundary.
	SignatureRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_signature_rejections_total", Help: "Deliveries with a missing or invalid signature"},
	)
)

func init() {
	prometheus.MustRegister(EventsTotal, OutcomesTotal, SignatureRejectionsTotal)
}
