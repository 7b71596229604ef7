/*
Package cadence provides recurring task scheduling and owner-checked locking
for concurrent Go programs.

Task Scheduling (pkg/scheduling/scheduler):
  - SingleWorker: one worker goroutine; a failed run stops the whole scheduler
  - Pool: a fixed set of named workers; a failed run stops only its own series
  - Once, AtFixedRate, WithFixedDelay: one-shot, fixed-rate and fixed-delay specs

Locking (pkg/locks):
  - Mutex: non-reentrant exclusive lock with owner-checked release
  - RWMutex: shared/exclusive lock that prefers waiting writers

Supporting packages:
  - clock: injectable time source used by the schedulers
  - metrics: Prometheus instrumentation shared by both schedulers

Example usage:

	import (
		"github.com/vnykmshr/cadence/pkg/scheduling/scheduler"
	)

	pool, _ := scheduler.NewPool(2)
	defer pool.Shutdown(true)

	series, _ := pool.Submit(scheduler.NewTask("report", report),
		scheduler.AtFixedRate(0, time.Minute))
	defer pool.Cancel(series)
*/
package cadence
