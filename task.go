package litepool

import (
	"runtime/debug"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// Task is a one-shot unit of work. Its computation runs at most once, the
// slot holding it is emptied before it runs.
type Task struct {
	taskid    string
	status    atomic.Int32
	fn        func()
	onFailure func(error)

	// position in the pool's queue, set by Push
	seq uint64

	// set on the tasks Drain pushes, they are kept out of the journal
	barrier bool
}

func NewTask(fn func()) *Task {
	return &Task{
		taskid: ulid.Make().String(),
		fn:     fn,
	}
}

func (t *Task) Id() string { return t.taskid }

func (t *Task) Status() TaskStatus { return TaskStatus(t.status.Load()) }

// WithOnFailure registers a callback that receives the error of a task that
// panicked or aborted.
func (t *Task) WithOnFailure(fn func(error)) *Task {
	t.onFailure = fn
	return t
}

// Execute runs the task's computation if it has not run yet. Calling it again
// is a no-op. A panic inside the computation is recovered and returned as a
// *PanicError; a computation that calls runtime.Goexit reports ErrTaskAborted
// to OnFailure and the calling goroutine keeps unwinding.
func (t *Task) Execute() (err error) {
	if !t.status.CompareAndSwap(int32(TaskPending), int32(TaskActive)) {
		return nil
	}

	fn := t.fn
	t.fn = nil
	if fn == nil {
		t.status.Store(int32(TaskFinished))
		return nil
	}

	completed := false
	defer func() {
		if rec := recover(); rec != nil {
			perr := &PanicError{Value: rec, Stack: debug.Stack()}
			t.status.Store(int32(TaskFailed))
			t.fail(perr)
			err = perr
			return
		}

		if !completed {
			t.status.Store(int32(TaskFailed))
			t.fail(ErrTaskAborted)
			return
		}

		t.status.Store(int32(TaskFinished))
	}()

	fn()
	completed = true
	return nil
}

// fail hands err to the OnFailure callback. A panicking callback is
// swallowed, it must not take the worker down with it.
func (t *Task) fail(err error) {
	if t.onFailure == nil {
		return
	}

	defer func() { _ = recover() }()
	t.onFailure(err)
}
