package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	UpdatesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Count of inbound gateway updates",
		},
		[]string{"type"}, // text, photo, command, callback
	)
	RepliesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_replies_sent_total",
			Help: "Count of outbound replies",
		},
		[]string{"type"}, // text, confirm, card
	)
	TurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_turn_duration_seconds",
			Help:    "Time taken to handle one conversational turn",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"state"},
	)
	APIFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_api_failures_total",
			Help: "Count of failed external service calls",
		},
		[]string{"service"}, // luis, vision, fetch, telegram, store
	)
	ReportsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_reports_resolved_total",
			Help: "Count of intake sessions reaching a terminal outcome",
		},
		[]string{"outcome"}, // emergency, operator, crime_ref
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_active_sessions",
			Help: "Current number of open intake sessions",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		UpdatesReceived,
		RepliesSent,
		TurnDuration,
		APIFailures,
		ReportsResolved,
		ActiveSessions,
	)
}
