package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogforge_stage_duration_seconds",
			Help:    "Stage duration in seconds by role",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~500s
		},
		[]string{"role", "status"},
	)

	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blogforge_pipeline_duration_seconds",
			Help:    "Full pipeline invocation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~1000s
		},
	)

	pipelineTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogforge_pipeline_total",
			Help: "Total number of pipeline invocations by outcome",
		},
		[]string{"status"},
	)

	activePipelines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogforge_active_pipelines",
			Help: "Number of pipeline invocations currently running",
		},
	)
)

// Collector provides convenience methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordStage records a stage duration and outcome
func (c *Collector) RecordStage(role string, duration time.Duration, success bool) {
	status := "completed"
	if !success {
		status = "failed"
	}
	stageDuration.WithLabelValues(role, status).Observe(duration.Seconds())
}

// RecordPipeline records a full pipeline invocation
func (c *Collector) RecordPipeline(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	pipelineTotal.WithLabelValues(status).Inc()
	pipelineDuration.Observe(duration.Seconds())
}

// PipelineStarted increments the active pipeline gauge
func (c *Collector) PipelineStarted() {
	activePipelines.Inc()
}

// PipelineFinished decrements the active pipeline gauge
func (c *Collector) PipelineFinished() {
	activePipelines.Dec()
}
