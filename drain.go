package litepool

// Drain blocks until the tasks queued before the call have finished.
//
// It queues a barrier task behind them and waits for a worker to run it, at
// which point every earlier task has been dequeued. It then waits until those
// earlier tasks have finished. Tasks queued after the barrier are not waited
// for.
//
// Drain must not be called from inside a task of the same pool, the calling
// task would wait for itself. On a pool that has not been started it blocks
// until Start is called.
func (p *WorkerPool) Drain() {
	signal := make(chan struct{}, 1)

	barrier := NewTask(func() { signal <- struct{}{} })
	barrier.barrier = true

	if err := p.AddWork(barrier); err != nil {
		// stopped: Stop returns once every queued task has run
		_ = p.Stop()
		return
	}

	<-signal
	p.tasks.WaitBefore(barrier.seq)
}
