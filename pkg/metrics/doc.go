// Package metrics provides Prometheus instrumentation for cadence schedulers.
//
// Schedulers accept a *Registry through their Config. A nil registry turns
// instrumentation off; Config.Build returns nil when Enabled is false.
//
// # Quick Start
//
//	reg := prometheus.NewRegistry()
//	pool, _ := scheduler.NewPoolWithConfig(scheduler.Config{
//		Workers: 4,
//		Metrics: metrics.NewRegistry(reg),
//	})
//
// # Available Metrics
//
//   - cadence_scheduler_series_submitted_total: Total number of series submitted
//   - cadence_scheduler_series_cancelled_total: Total number of series cancelled
//   - cadence_scheduler_runs_total: Total number of completed task runs
//   - cadence_scheduler_run_failures_total: Total number of task runs that failed
//   - cadence_scheduler_run_duration_seconds: Time spent executing task bodies
//   - cadence_scheduler_queued_series: Number of series waiting for their next deadline
//   - cadence_scheduler_active_workers: Number of workers currently running a task body
//   - cadence_scheduler_workers: Number of live workers
//   - cadence_scheduler_worker_terminations_total: Workers stopped by a task failure
//
// Every metric carries a "scheduler" label holding the scheduler's name.
package metrics
