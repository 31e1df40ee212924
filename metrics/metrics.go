// Package metrics exposes run statistics in the Prometheus text format so
// that scheduled runs can be picked up by the node_exporter textfile
// collector.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/riadafridishibly/sqlitevacuum/pipeline"
	"github.com/riadafridishibly/sqlitevacuum/status"
)

type Metrics struct {
	registry *prometheus.Registry

	// FilesCompacted counts successful compactions.
	FilesCompacted prometheus.Counter

	// Errors counts failures.
	// Labels: stage (scan, classify, open, compact, internal)
	Errors *prometheus.CounterVec

	// BytesReclaimed is the signed sum of all deltas of the run.
	BytesReclaimed prometheus.Gauge

	// CompactionDuration tracks how long one VACUUM + REINDEX took.
	CompactionDuration prometheus.Histogram

	// LastRun is the unix time the run finished.
	LastRun prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesCompacted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sqlitevacuum",
			Name:      "files_compacted_total",
			Help:      "Total number of database files compacted.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqlitevacuum",
			Name:      "errors_total",
			Help:      "Total number of errors by pipeline stage.",
		}, []string{"stage"}),
		BytesReclaimed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sqlitevacuum",
			Name:      "bytes_reclaimed",
			Help:      "Bytes reclaimed by the run. Negative when files grew.",
		}),
		CompactionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sqlitevacuum",
			Name:      "compaction_duration_seconds",
			Help:      "Duration of a single file compaction in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sqlitevacuum",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	m.registry.MustRegister(m.FilesCompacted, m.Errors, m.BytesReclaimed, m.CompactionDuration, m.LastRun)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeProgress(p status.Progress) {
	m.FilesCompacted.Inc()
	m.BytesReclaimed.Add(float64(p.Delta()))
	m.CompactionDuration.Observe(p.Outcome.Duration.Seconds())
}

func (m *Metrics) observeError(err *status.Error) {
	m.Errors.WithLabelValues(string(err.Stage())).Inc()
}

// WriteTextfile atomically writes all metrics to path.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastRun.SetToCurrentTime()
	return errors.Wrap(prometheus.WriteToTextfile(path, m.registry), "write metrics")
}

// Renderer records every event before handing it to the wrapped renderer.
type Renderer struct {
	next    pipeline.Renderer
	metrics *Metrics
}

func Wrap(next pipeline.Renderer, m *Metrics) *Renderer {
	return &Renderer{next: next, metrics: m}
}

func (r *Renderer) Progress(p status.Progress) {
	r.metrics.observeProgress(p)
	r.next.Progress(p)
}

func (r *Renderer) Error(err *status.Error) {
	r.metrics.observeError(err)
	r.next.Error(err)
}

// Scanning is passed through when the wrapped renderer shows scan progress.
func (r *Renderer) Scanning(visited int64, path string) {
	if sr, ok := r.next.(pipeline.ScanReporter); ok {
		sr.Scanning(visited, path)
	}
}

func (r *Renderer) Summary(t status.Totals) {
	r.next.Summary(t)
}
