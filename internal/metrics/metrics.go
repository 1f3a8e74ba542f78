package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors for the match subsystem. Construct once in
// main and inject; tests pass a fresh registry.
type Metrics struct {
	QueueWaiting   prometheus.Gauge
	ViewersActive  prometheus.Gauge
	MatchesStarted prometheus.Counter
	MatchesEnded   *prometheus.CounterVec
	PairsCreated   prometheus.Counter
	Ticks          prometheus.Counter
	SnapshotsSent  prometheus.Counter
	PointsScored   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueWaiting: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arena_queue_waiting",
			Help: "Players currently waiting in the matchmaking queue.",
		}),
		ViewersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arena_viewers_active",
			Help: "Live viewer connections across all matches.",
		}),
		MatchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_matches_started_total",
			Help: "Matches initialized by the lifecycle controller.",
		}),
		MatchesEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_matches_ended_total",
			Help: "Matches torn down, by cause.",
		}, []string{"cause"}),
		PairsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_pairs_created_total",
			Help: "Player pairs popped from the matchmaking queue.",
		}),
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_simulation_ticks_total",
			Help: "Executions of the fixed-rate simulation tick.",
		}),
		SnapshotsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_snapshots_sent_total",
			Help: "State snapshots delivered to viewer connections.",
		}),
		PointsScored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_points_scored_total",
			Help: "Points scored, by slot.",
		}, []string{"slot"}),
	}
}
