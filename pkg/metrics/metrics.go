// Package metrics records per-run Prometheus metrics for i94dw.
//
// A Recorder owns its own registry rather than registering on the default
// one, so a batch run publishes exactly the series it produced. When a
// Pushgateway is configured the registry is pushed once the run finishes:
//
//	rec := metrics.NewRecorder("i94dw")
//	rec.ObserveRows("immigration_fact", 3096313)
//	defer rec.Push(ctx, "http://pushgateway:9091")
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

const namespace = "i94dw"

// Statement status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder collects the metrics of one run.
type Recorder struct {
	job      string
	registry *prometheus.Registry

	tableRows     *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	statements    *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// NewRecorder creates a Recorder whose series are pushed under job.
func NewRecorder(job string) *Recorder {
	if job == "" {
		job = namespace
	}
	r := &Recorder{
		job:      job,
		registry: prometheus.NewRegistry(),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows produced per table in the last run.",
		}, []string{"table"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage"}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Warehouse statements executed, by kind and status.",
		}, []string{"kind", "status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful run finished.",
		}),
	}
	r.registry.MustRegister(r.tableRows, r.stageDuration, r.statements, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRows records the row count of a produced table.
func (r *Recorder) ObserveRows(table string, rows int) {
	if r == nil {
		return
	}
	r.tableRows.WithLabelValues(table).Set(float64(rows))
}

// ObserveStage records the duration of a stage.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Time starts timing stage; call the returned func when it ends.
func (r *Recorder) Time(stage string) func() {
	start := time.Now()
	return func() { r.ObserveStage(stage, time.Since(start)) }
}

// Statement counts one executed warehouse statement of kind (drop, create,
// copy).
func (r *Recorder) Statement(kind string, err error) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	r.statements.WithLabelValues(kind, status).Inc()
}

// Succeeded marks the run as finished successfully.
func (r *Recorder) Succeeded() {
	if r == nil {
		return
	}
	r.lastSuccess.SetToCurrentTime()
}

// Push sends the registry to the Pushgateway at gateway, replacing the
// previous push of the same job. An empty gateway is a no-op.
func (r *Recorder) Push(ctx context.Context, gateway string) error {
	if r == nil || gateway == "" {
		return nil
	}
	if err := push.New(gateway, r.job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "push metrics to "+gateway)
	}
	return nil
}
