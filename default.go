package litepool

import "sync"

var (
	defaultPool *WorkerPool
	defaultOnce sync.Once
)

// Default returns the process-wide pool, creating it from DefaultConfig on
// first use. It is never stopped.
func Default() *WorkerPool {
	defaultOnce.Do(func() {
		defaultPool = NewWorkerPool(DefaultConfig())
	})
	return defaultPool
}

// Start spawns the default pool's workers. Like WorkerPool.Start, calling it
// again adds more workers.
func Start() { Default().Start() }

// Go queues fn on the default pool as fire-and-forget work.
func Go(fn func()) error { return Default().Go(fn) }

// Async queues fn on the default pool and returns a Routine for its result.
func Async[T any](fn func() T) *Routine[T] { return Submit[T](Default(), fn) }

// Drain waits for the fire-and-forget work queued on the default pool.
func Drain() { Default().Drain() }
