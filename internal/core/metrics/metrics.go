// Package metrics 业务指标；HTTP 指标在 middleware.Metrics
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ecosol_listing_transitions_total", Help: "Listing lifecycle batches by op and outcome"},
		[]string{"op", "outcome"},
	)
	TransitionRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ecosol_listing_transition_rows_total", Help: "Rows reported as affected by lifecycle batches"},
		[]string{"op"},
	)
	SessionResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ecosol_session_resolutions_total", Help: "Session guard decisions"},
		[]string{"outcome"},
	)
	Mail = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ecosol_mail_total", Help: "Outgoing mail by template and outcome"},
		[]string{"template", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(Transitions, TransitionRows, SessionResolutions, Mail)
}
