// Package litepool runs deferred computations on a fixed set of worker
// goroutines fed by one unbounded FIFO queue.
//
// A computation is submitted either for its result, through Submit or
// SubmitErr which return a Routine, or as fire-and-forget work through Go,
// which can be joined with Drain.
//
// Submitted closures own whatever they capture. A task that waits on another
// Routine holds its worker while it waits; if every worker does that the pool
// starves.
package litepool

type Pool interface {
	// Start spawns the pool's workers. Every call spawns another set of
	// workers on the same queue.
	Start()

	// Stop closes the queue, lets the workers run the tasks already queued
	// and waits for them to exit. Only the first call has an effect.
	Stop() error

	// AddWork queues a task. It never blocks, and fails with
	// ErrWorkerPoolClosed once Stop has been called.
	AddWork(*Task) error

	// Go queues fn as fire-and-forget work.
	Go(fn func()) error

	// Drain blocks until every task queued before the call has run to
	// completion.
	Drain()
}
