package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageCollect   = "collect"
	StageCorrelate = "correlate"
	StageEnrich    = "enrich"
	StageNeto      = "neto"
	StageAggregate = "aggregate"
)

// PipelineMetrics captures reconciliation health: how long each stage takes
// and how many rows each stage loses.
type PipelineMetrics struct {
	stageDuration  *prometheus.HistogramVec
	rowsDropped    *prometheus.CounterVec
	buildOutcomes  *prometheus.CounterVec
	upstreamLookup *prometheus.HistogramVec
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetrics     *PipelineMetrics
)

// Pipeline returns the process-wide pipeline metrics registered on the
// default registry.
func Pipeline(cfg Config) *PipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineMetrics = newPipelineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return pipelineMetrics
}

// NewPipelineMetrics registers pipeline instruments on registerer.
func NewPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	return newPipelineMetrics(registerer, cfg)
}

func newPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "weighbill_pipeline_stage_duration_seconds",
		Help:        "Bill pipeline stage latency.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"stage"})
	rowsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "weighbill_pipeline_rows_dropped_total",
		Help:        "Rows dropped by stage and reason.",
		ConstLabels: constLabels,
	}, []string{"stage", "reason"})
	buildOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "weighbill_bill_builds_total",
		Help:        "Bill builds by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	upstreamLookup := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "weighbill_weighing_lookup_duration_seconds",
		Help:        "Weighing service call latency by endpoint.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint"})

	registerer.MustRegister(stageDuration, rowsDropped, buildOutcomes, upstreamLookup)

	return &PipelineMetrics{
		stageDuration:  stageDuration,
		rowsDropped:    rowsDropped,
		buildOutcomes:  buildOutcomes,
		upstreamLookup: upstreamLookup,
	}
}

func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *PipelineMetrics) AddDropped(stage, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsDropped.WithLabelValues(stage, reason).Add(float64(n))
}

func (m *PipelineMetrics) IncBuild(outcome string) {
	if m == nil {
		return
	}
	m.buildOutcomes.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveLookup(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamLookup.WithLabelValues(endpoint).Observe(d.Seconds())
}
