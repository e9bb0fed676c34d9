package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rangeSavesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numbering",
			Name:      "range_saves_total",
			Help:      "Total range saves by outcome.",
		},
		[]string{"outcome"}, // committed, rejected_validation, rejected_not_found, rejected_storage
	)

	numbersSyncedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numbering",
			Name:      "numbers_synced_total",
			Help:      "Phone number records written by committed range saves.",
		},
		[]string{"result"}, // created, updated
	)

	rangeSaveDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "numbering",
			Name:      "range_save_duration_seconds",
			Help:      "Duration of range saves, including rejected ones.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	rangeEventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "numbering",
			Name:      "range_event_publish_failures_total",
			Help:      "Range-synced events that could not be published.",
		},
	)
)
