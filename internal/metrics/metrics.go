// Package metrics exposes Prometheus collectors for detection and quoting.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Detection task outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var (
	DetectionTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movequote_detection_tasks_total",
			Help: "Detection tasks by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movequote_detection_duration_seconds",
			Help:    "Time spent in the detector per photo",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	DetectionQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movequote_detection_queue_depth",
			Help: "Detection tasks waiting across all room queues",
		},
	)

	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movequote_estimates_total",
			Help: "Estimates computed by entry point",
		},
		[]string{"source"},
	)
)

// Recorder scopes detection metrics to one task kind.
type Recorder struct {
	kind string
}

func NewRecorder(kind string) *Recorder {
	return &Recorder{kind: kind}
}

func (r *Recorder) RecordOutcome(outcome string) {
	DetectionTasksTotal.WithLabelValues(r.kind, outcome).Inc()
}

func (r *Recorder) RecordDetection(d time.Duration) {
	DetectionDuration.WithLabelValues(r.kind).Observe(d.Seconds())
}

func RecordEnqueued(n int) {
	DetectionQueueDepth.Add(float64(n))
}

func RecordDequeued() {
	DetectionQueueDepth.Dec()
}

func RecordEstimate(source string) {
	EstimatesTotal.WithLabelValues(source).Inc()
}
