package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	rec := r.For("pool")

	rec.Submitted()
	rec.Submitted()
	rec.Cancelled()
	rec.RunFinished(time.Millisecond, nil)
	rec.RunFinished(time.Millisecond, errors.New("boom"))
	rec.Queued(3)
	rec.Active(2)
	rec.WorkersAlive(4)
	rec.WorkerTerminated()

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"submitted", r.SeriesSubmitted.WithLabelValues("pool"), 2},
		{"cancelled", r.SeriesCancelled.WithLabelValues("pool"), 1},
		{"runs", r.Runs.WithLabelValues("pool"), 2},
		{"failures", r.RunFailures.WithLabelValues("pool"), 1},
		{"queued", r.QueuedSeries.WithLabelValues("pool"), 3},
		{"active", r.ActiveWorkers.WithLabelValues("pool"), 2},
		{"workers", r.Workers.WithLabelValues("pool"), 4},
		{"terminations", r.WorkerTerminations.WithLabelValues("pool"), 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Registry
	rec := r.For("anything")
	if rec != nil {
		t.Fatal("nil registry should produce a nil recorder")
	}

	// none of these may panic
	rec.Submitted()
	rec.Cancelled()
	rec.RunFinished(time.Second, errors.New("x"))
	rec.Queued(1)
	rec.Active(1)
	rec.WorkersAlive(1)
	rec.WorkerTerminated()
}

func TestConfig_Build(t *testing.T) {
	if (Config{}).Build() != nil {
		t.Error("disabled config should build a nil registry")
	}

	reg := prometheus.NewRegistry()
	r := Config{Enabled: true, Registry: reg, Namespace: "app"}.Build()
	if r == nil {
		t.Fatal("enabled config should build a registry")
	}
	r.For("x").Submitted()

	if n := testutil.CollectAndCount(reg, "app_scheduler_series_submitted_total"); n != 1 {
		t.Errorf("custom namespace metric count = %d, want 1", n)
	}
}
