package litepool

import "sync"

type result[T any] struct {
	val T
	err error
}

// Routine is the handle to the result of a task submitted with Submit or
// SubmitErr. Dropping it without calling Wait is fine, the task still runs
// and its result is discarded.
type Routine[T any] struct {
	taskid string
	ret    chan result[T]

	once sync.Once
	res  result[T]
}

func newRoutine[T any](taskid string) *Routine[T] {
	return &Routine[T]{
		taskid: taskid,
		// buffered so the worker never blocks on an abandoned routine
		ret: make(chan result[T], 1),
	}
}

// Id returns the id of the task that produces the result.
func (r *Routine[T]) Id() string { return r.taskid }

// Wait blocks until the task has run and returns its result. A task that
// panicked yields a *PanicError, one that exited its goroutine yields
// ErrTaskAborted. Later calls return the same result.
func (r *Routine[T]) Wait() (T, error) {
	r.once.Do(func() {
		r.res = <-r.ret
	})
	return r.res.val, r.res.err
}

// MustWait is like Wait but panics if the task failed.
func (r *Routine[T]) MustWait() T {
	v, err := r.Wait()
	if err != nil {
		panic(err)
	}
	return v
}

func (r *Routine[T]) resolve(val T, err error) {
	r.ret <- result[T]{val: val, err: err}
}

// Submit queues fn on p and returns a Routine for its result. It does not wait
// for fn to run.
func Submit[T any](p Pool, fn func() T) *Routine[T] {
	if fn == nil {
		return SubmitErr[T](p, nil)
	}

	return SubmitErr(p, func() (T, error) {
		return fn(), nil
	})
}

// SubmitErr is Submit for computations that can fail. The error fn returns is
// delivered by Routine.Wait.
func SubmitErr[T any](p Pool, fn func() (T, error)) *Routine[T] {
	var zero T

	if fn == nil {
		r := newRoutine[T]("")
		r.resolve(zero, ErrNilTask)
		return r
	}

	task := NewTask(nil)
	r := newRoutine[T](task.Id())

	// exactly one of the two sends happens: OnFailure only fires when fn did
	// not return
	task.fn = func() {
		val, err := fn()
		r.resolve(val, err)
	}
	task.WithOnFailure(func(err error) {
		r.resolve(zero, err)
	})

	if err := p.AddWork(task); err != nil {
		r.resolve(zero, err)
	}

	return r
}
