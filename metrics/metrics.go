/*
Package metrics exposes Prometheus instrumentation for index construction,
neighbour searches and classification. Metrics are registered on the default
registry when the package is loaded.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IndexBuildDuration measures how long building a neighbour index takes,
	// labeled by the kind of index.
	IndexBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rseslib_index_build_duration_seconds",
			Help:    "Duration of neighbour index construction in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
		},
		[]string{"index"},
	)

	// VisitedRows counts the rows whose distance to the query was computed
	// by a single neighbour search.
	VisitedRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rseslib_search_visited_rows",
			Help:    "Number of rows compared with the query during a neighbour search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"index"},
	)

	// Classifications counts classified rows, labeled by voting method.
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rseslib_classifications_total",
			Help: "Total number of rows classified",
		},
		[]string{"voting"},
	)

	// DefaultDecisions counts classifications that fell back to the default
	// decision because no neighbour voted.
	DefaultDecisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rseslib_default_decisions_total",
			Help: "Total number of classifications answered with the default decision",
		},
	)

	// TrainingStage tracks the construction stage reached by the last
	// classifier being built.
	TrainingStage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rseslib_training_stage",
			Help: "Construction stage reached by the classifier being built",
		},
	)
)
