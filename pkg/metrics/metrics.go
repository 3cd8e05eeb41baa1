package metrics

import (
	"time"

	"conflux/pkg/api"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "conflux"

// Metrics holds the collectors updated by the scheduler.
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	StageExecutions  *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	RecordsProcessed *prometheus.CounterVec
	RunningPipelines prometheus.Gauge
}

// New creates the collectors and registers them into reg.
// A nil registerer leaves them unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by terminal status.",
		}, []string{"pipeline", "status"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"pipeline"}),
		StageExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_executions_total",
			Help:      "Stage executions by stage type and terminal status.",
		}, []string{"type", "status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of dispatched stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Records processed by completed stages.",
		}, []string{"type"}),
		RunningPipelines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running_pipelines",
			Help:      "Pipeline runs currently executing.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.PipelineRuns, m.PipelineDuration, m.StageExecutions, m.StageDuration, m.RecordsProcessed, m.RunningPipelines} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "cannot register collector")
		}
	}
	return m, nil
}

// PipelineStarted records a run entering RUNNING.
func (m *Metrics) PipelineStarted() {
	if m == nil {
		return
	}
	m.RunningPipelines.Inc()
}

// PipelineFinished records a terminal pipeline result.
func (m *Metrics) PipelineFinished(pipelineID string, status api.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.RunningPipelines.Dec()
	m.PipelineRuns.WithLabelValues(pipelineID, string(status)).Inc()
	m.PipelineDuration.WithLabelValues(pipelineID).Observe(d.Seconds())
}

// StageFinished records a terminal stage result.
// Skipped stages never ran, their duration is not observed.
func (m *Metrics) StageFinished(typ api.StageType, r api.StageResult) {
	if m == nil {
		return
	}
	m.StageExecutions.WithLabelValues(string(typ), string(r.Status)).Inc()
	if r.Status == api.StatusSkipped {
		return
	}
	m.StageDuration.WithLabelValues(string(typ)).Observe(r.EndTime.Sub(r.StartTime).Seconds())
	if r.Status == api.StatusCompleted {
		m.RecordsProcessed.WithLabelValues(string(typ)).Add(float64(r.RecordsProcessed))
	}
}
