package litepool

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPoolClosed = errors.New("worker pool is not active")

	// ErrTaskFailed is wrapped by every error describing a task that panicked.
	ErrTaskFailed = errors.New("task failed")

	// ErrTaskAborted is delivered when a task's computation exits its goroutine
	// (runtime.Goexit) without returning.
	ErrTaskAborted = errors.New("task aborted before completing")

	ErrNilTask = errors.New("task has no computation")
)

// PanicError holds the value recovered from a panicking task and the stack
// at the point of the panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", ErrTaskFailed.Error(), e.Value)
}

func (e *PanicError) Unwrap() error { return ErrTaskFailed }
