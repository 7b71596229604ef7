// Package metrics provides Prometheus instrumentation for cadence schedulers.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for cadence components.
type Registry struct {
	SeriesSubmitted    *prometheus.CounterVec
	SeriesCancelled    *prometheus.CounterVec
	Runs               *prometheus.CounterVec
	RunFailures        *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	QueuedSeries       *prometheus.GaugeVec
	ActiveWorkers      *prometheus.GaugeVec
	Workers            *prometheus.GaugeVec
	WorkerTerminations *prometheus.CounterVec
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry bound to prometheus.DefaultRegisterer.
// It is created on first use so importing the package registers nothing.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a registry using the namespace, registerer
// and constant labels from cfg.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)
	labels := []string{"scheduler"}

	counter := func(name, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "scheduler",
			Name:        name,
			Help:        help,
			ConstLabels: cfg.Labels,
		}, labels)
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "scheduler",
			Name:        name,
			Help:        help,
			ConstLabels: cfg.Labels,
		}, labels)
	}

	return &Registry{
		SeriesSubmitted: counter("series_submitted_total", "Total number of series submitted"),
		SeriesCancelled: counter("series_cancelled_total", "Total number of series cancelled"),
		Runs:            counter("runs_total", "Total number of completed task runs"),
		RunFailures:     counter("run_failures_total", "Total number of task runs that failed"),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "scheduler",
			Name:        "run_duration_seconds",
			Help:        "Time spent executing task bodies",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: cfg.Labels,
		}, labels),
		QueuedSeries:       gauge("queued_series", "Number of series waiting for their next deadline"),
		ActiveWorkers:      gauge("active_workers", "Number of workers currently running a task body"),
		Workers:            gauge("workers", "Number of live workers"),
		WorkerTerminations: counter("worker_terminations_total", "Total number of workers stopped by a task failure"),
	}
}

// For binds the registry to one scheduler name. A nil registry yields a
// Recorder whose methods do nothing.
func (r *Registry) For(scheduler string) *Recorder {
	if r == nil {
		return nil
	}
	return &Recorder{r: r, name: scheduler}
}

// Recorder records metrics for a single scheduler. All methods are safe on
// a nil receiver.
type Recorder struct {
	r    *Registry
	name string
}

// Submitted counts a new series.
func (rc *Recorder) Submitted() {
	if rc == nil {
		return
	}
	rc.r.SeriesSubmitted.WithLabelValues(rc.name).Inc()
}

// Cancelled counts a cancelled series.
func (rc *Recorder) Cancelled() {
	rc.CancelledN(1)
}

// CancelledN counts n cancelled series at once, as a shutdown does.
func (rc *Recorder) CancelledN(n int) {
	if rc == nil || n <= 0 {
		return
	}
	rc.r.SeriesCancelled.WithLabelValues(rc.name).Add(float64(n))
}

// RunFinished records one completed dispatch.
func (rc *Recorder) RunFinished(d time.Duration, err error) {
	if rc == nil {
		return
	}
	rc.r.Runs.WithLabelValues(rc.name).Inc()
	rc.r.RunDuration.WithLabelValues(rc.name).Observe(d.Seconds())
	if err != nil {
		rc.r.RunFailures.WithLabelValues(rc.name).Inc()
	}
}

// Queued sets the queue depth gauge.
func (rc *Recorder) Queued(n int) {
	if rc == nil {
		return
	}
	rc.r.QueuedSeries.WithLabelValues(rc.name).Set(float64(n))
}

// Active sets the busy worker gauge.
func (rc *Recorder) Active(n int) {
	if rc == nil {
		return
	}
	rc.r.ActiveWorkers.WithLabelValues(rc.name).Set(float64(n))
}

// WorkersAlive sets the live worker gauge.
func (rc *Recorder) WorkersAlive(n int) {
	if rc == nil {
		return
	}
	rc.r.Workers.WithLabelValues(rc.name).Set(float64(n))
}

// WorkerTerminated counts a worker killed by a task failure.
func (rc *Recorder) WorkerTerminated() {
	if rc == nil {
		return
	}
	rc.r.WorkerTerminations.WithLabelValues(rc.name).Inc()
}
