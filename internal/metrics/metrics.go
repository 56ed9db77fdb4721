package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics. Activity counters are labeled by category.
var (
	ActivitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footprint_activities_recorded_total",
		Help: "Number of footprint activities recorded.",
	}, []string{"category"})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footprint_alerts_total",
		Help: "Number of threshold-crossing alerts emitted.",
	}, []string{"category"})

	RewardsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footprint_rewards_total",
		Help: "Number of reward notifications emitted.",
	}, []string{"category"})

	EmissionsRecordedKg = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footprint_emissions_recorded_kg_total",
		Help: "Total kg CO2 recorded across all users.",
	}, []string{"category"})
)
