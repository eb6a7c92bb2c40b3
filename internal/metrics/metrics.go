// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesTotal counts frames read from the capture source by interface
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_frames_total",
			Help: "Total number of frames read from the capture source",
		},
		[]string{"interface"},
	)

	// DecisionsTotal counts classification verdicts by action and reason
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_decisions_total",
			Help: "Total number of classification decisions",
		},
		[]string{"action", "reason"},
	)

	// CaptureDropsTotal counts frames the kernel discarded because the
	// ring buffer was full
	CaptureDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_capture_drops_total",
			Help: "Total number of frames dropped by the kernel capture ring",
		},
		[]string{"interface"},
	)

	// QueueDropsTotal counts frames discarded because the pipeline queue
	// was full
	QueueDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strix_queue_drops_total",
			Help: "Total number of frames discarded at the pipeline queue",
		},
	)

	// SinkErrorsTotal counts reporter delivery failures by sink type
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_sink_errors_total",
			Help: "Total number of reporter sink delivery failures",
		},
		[]string{"sink"},
	)

	// RulesLoaded tracks the size of the active ruleset
	RulesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strix_rules_loaded",
			Help: "Number of rules in the active ruleset",
		},
	)

	// ClassifyDurationSeconds measures decode plus rule match latency
	ClassifyDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strix_classify_duration_seconds",
			Help:    "Time spent classifying a single frame in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 16), // 1µs to ~32ms
		},
	)
)
