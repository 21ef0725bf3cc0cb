// Package metrics holds the Prometheus collectors shared by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamecenter_actions_total",
			Help: "Engine actions applied, by game, action type and outcome",
		},
		[]string{"game", "action", "outcome"},
	)
	StatsCorrupted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamecenter_stats_corrupted_total",
			Help: "Stored stats records that failed validation and were reset to defaults",
		},
		[]string{"key"},
	)
	StatsSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamecenter_stats_saves_total",
			Help: "Stats record writes, by key and result",
		},
		[]string{"key", "result"},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamecenter_sessions_active",
			Help: "Play sessions currently held in memory",
		},
	)
	DeferredSuperseded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamecenter_deferred_superseded_total",
			Help: "Scheduled follow-up actions dropped because the session moved on",
		},
	)
)

func init() {
	prometheus.MustRegister(Actions)
	prometheus.MustRegister(StatsCorrupted)
	prometheus.MustRegister(StatsSaves)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(DeferredSuperseded)
}

// Outcome reduces an error to a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
