package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkoutsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "workouts",
		Name:      "created_total",
		Help:      "Workouts accepted and saved, by kind.",
	}, []string{"kind"})

	WorkoutsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "workouts",
		Name:      "rejected_total",
		Help:      "Workout submissions rejected by validation, by kind.",
	}, []string{"kind"})

	WorkoutsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapty",
		Subsystem: "workouts",
		Name:      "stored",
		Help:      "Number of workouts in the current session.",
	})

	SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "persistence",
		Name:      "save_failures_total",
		Help:      "Failed attempts to write the workout history.",
	})
)

// KindLabel returns a bounded label value for a kind string.
func KindLabel(kind string) string {
	switch kind {
	case "running", "cycling":
		return kind
	}
	return "unknown"
}
