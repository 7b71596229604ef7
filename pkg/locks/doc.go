// Package locks provides owner-checked, context-aware locking primitives.
//
// Go has no goroutine identity, so every call names its owner explicitly.
// Owners are arbitrary non-empty strings such as "window-1" or
// "producer". Releasing a lock the owner does not hold returns an error
// wrapping errors.ErrLockMisuse instead of corrupting the lock.
//
// Mutex is not reentrant: an owner that acquires it twice without releasing
// blocks until its context is done. WithReentryDetection turns that into an
// immediate ErrReentrantAcquire.
//
// RWMutex admits any number of readers or a single writer and prefers
// writers: once a writer is waiting, new readers block until it has been
// served. Readers already waiting when a writer releases go before the next
// writer.
//
//	var mu locks.Mutex
//	err := mu.WithLock(ctx, "window-1", func() error {
//		return sell(ticket)
//	})
package locks
