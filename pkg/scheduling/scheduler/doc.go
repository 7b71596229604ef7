/*
Package scheduler runs tasks once after a delay or repeatedly at a fixed
rate or with a fixed delay, on either a single worker or a pool of workers.

Basic Usage:

	pool, err := scheduler.NewPool(2)
	if err != nil {
		return err
	}
	defer pool.Shutdown(true)

	task := scheduler.NewTask("report", func(ctx context.Context) error {
		return publishReport(ctx)
	})

	series, err := pool.Submit(task, scheduler.AtFixedRate(0, time.Minute))

Schedules:

  - Once(d): a single run d after submission. The series ends in Completed.
  - AtFixedRate(initial, period): run k is planned at submit + initial +
    k*period. A run that overruns its period is followed immediately by the
    runs it delayed; deadlines are never skipped.
  - WithFixedDelay(initial, period): each run starts period after the
    previous one returned.

Failure Handling:

A run fails when its body returns an error or panics. The two schedulers
treat failures differently:

  - SingleWorker: the failure terminates the worker. No series runs again,
    queued series end in Cancelled with ErrSchedulerTerminated, further
    Submit calls fail, and Shutdown returns the *errors.TaskError.
  - Pool: only the failing series stops, in Failed. Series.Err holds the
    *errors.TaskError; everything else keeps running.

Cancellation:

Cancel removes a queued series before its next run. A running body is
never interrupted; its series is simply not rescheduled. Cancelling a
series twice, or one that already finished, does nothing.

Observability:

Config.Logger receives structured zap logs, Config.Metrics records
Prometheus metrics, and Config.OnRunComplete observes every run. Stats,
Pending and Pool.Workers expose the current state.
*/
package scheduler
