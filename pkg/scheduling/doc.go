/*
Package scheduling groups cadence's task scheduling packages.

  - scheduler: one-shot, fixed-rate and fixed-delay series on a single
    worker or a worker pool

Single worker:

	w := scheduler.NewSingleWorker()
	series, _ := w.Submit(task, scheduler.WithFixedDelay(0, time.Second))
	...
	if err := w.Shutdown(true); err != nil {
		// a task failure killed the worker
	}

Worker pool:

	pool, _ := scheduler.NewPool(4)
	series, _ := pool.Submit(task, scheduler.AtFixedRate(0, time.Second))
	...
	pool.Shutdown(true)

All schedulers are safe for concurrent use.
*/
package scheduling
