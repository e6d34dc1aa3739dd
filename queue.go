package litepool

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // don't compact below this capacity
	compactShrinkFactor = 4  // compact when len < cap/4
)

// taskQueue is an unbounded FIFO shared by every worker of a pool. Any number
// of goroutines may push and pop concurrently; Pop blocks while the queue is
// empty and open.
//
// Push numbers every task. The queue also tracks the numbers of the tasks
// handed out by Pop and not yet marked Done; a task joins that set under the
// same lock as its dequeue, so it is never out of the queue untracked.
type taskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	idle    *sync.Cond
	tasks   []*Task
	next    uint64
	running map[uint64]struct{}
	closed  bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		tasks:   make([]*Task, 0, defaultQueueCap),
		running: make(map[uint64]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Push appends t to the back of the queue. It returns ErrWorkerPoolClosed once
// the queue has been closed.
func (q *taskQueue) Push(t *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrWorkerPoolClosed
	}

	t.seq = q.next
	q.next++
	q.tasks = append(q.tasks, t)
	q.cond.Signal()
	return nil
}

// Pop removes the task at the front of the queue, waiting for one to arrive.
// The second return value is false only when the queue is closed and empty.
func (q *taskQueue) Pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 {
		if q.closed {
			return nil, false
		}
		q.cond.Wait()
	}

	t := q.tasks[0]
	// release the reference held by the backing array
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.maybeCompactLocked()
	q.running[t.seq] = struct{}{}

	return t, true
}

// Done marks a task returned by Pop as no longer running.
func (q *taskQueue) Done(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.running, t.seq)
	q.idle.Broadcast()
}

// WaitBefore blocks until no popped task numbered below seq is running. Tasks
// pushed after seq don't hold it up.
func (q *taskQueue) WaitBefore(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.runningBeforeLocked(seq) {
		q.idle.Wait()
	}
}

func (q *taskQueue) runningBeforeLocked(seq uint64) bool {
	for s := range q.running {
		if s < seq {
			return true
		}
	}
	return false
}

func (q *taskQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.running)
}

func (q *taskQueue) maybeCompactLocked() {
	n := len(q.tasks)
	c := cap(q.tasks)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.tasks = make([]*Task, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := c / 2
	if newCap < defaultQueueCap {
		newCap = defaultQueueCap
	}
	if newCap < n {
		newCap = n
	}

	tasks := make([]*Task, n, newCap)
	copy(tasks, q.tasks)
	q.tasks = tasks
}
