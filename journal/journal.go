// Package journal defines the record a worker pool writes for every task it
// runs, and the interface a store must implement to receive those records.
package journal

import (
	"context"
	"time"
)

// Status values as they are persisted.
const (
	StatusActive   = "active"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Entry is one status transition of one task.
type Entry struct {
	TaskId string
	Worker string
	Status string

	// Detail is set on failed entries: the failure message and, for panics,
	// the stack of the panicking goroutine.
	Detail *Detail

	At time.Time
}

type Detail struct {
	Message string `msgpack:"message"`
	Stack   []byte `msgpack:"stack,omitempty"`
}

// Journal receives task status transitions. Implementations must be safe for
// concurrent use, every worker records directly.
type Journal interface {
	Record(context.Context, Entry) error
}

// StatusLevel orders persisted statuses so a store can refuse to move a task
// backwards. Unknown statuses sort first.
func StatusLevel(status string) int {
	switch status {
	case StatusActive:
		return 1
	case StatusFinished, StatusFailed:
		return 2
	default:
		return 0
	}
}
