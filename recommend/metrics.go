package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sommelier",
			Name:      "batches_total",
			Help:      "Recommendation batches by mode (history|demo) and result (ok|error).",
		},
		[]string{"mode", "result"},
	)

	slotErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sommelier",
			Name:      "slot_errors_total",
			Help:      "Slot failures by domain error code.",
		},
		[]string{"code"},
	)

	clusterSelectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sommelier",
			Name:      "cluster_selected_total",
			Help:      "Clusters chosen for recommendation slots.",
		},
		[]string{"cluster"},
	)

	searchSpaceSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sommelier",
			Name:      "search_space_size",
			Help:      "Candidates considered by the wine selector per slot.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
	)
)
