package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation Metrics
var (
	// ReactionTransitionsTotal tracks reaction state transitions by old and new state
	ReactionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaction_transitions_total",
			Help: "Total reaction state transitions by old and new state (none/like/dislike)",
		},
		[]string{"from", "to"},
	)

	// StarOpsTotal tracks star operations by result
	StarOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "star_operations_total",
			Help: "Total star operations by result (starred/unstarred/capacity_rejected/noop)",
		},
		[]string{"result"},
	)

	// VotesRateLimitedTotal tracks evaluation writes rejected by the rate limiter
	VotesRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_rate_limited_total",
			Help: "Total evaluation writes rejected by the per-reviewer rate limiter",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)
)

// HTTP Request Metrics
// Note: http_errors_total{type} is provided by the internal/errors package.
