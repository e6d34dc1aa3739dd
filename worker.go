package litepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jirevwe/litepool/journal"
)

// Worker is a worker instance
type Worker struct {
	// the worker id
	id string

	// queue from which the worker consumes work
	tasks *taskQueue

	// used to signal the pool to clean itself up
	wg *sync.WaitGroup

	log     *slog.Logger
	journal journal.Journal

	// called when the worker's goroutine is lost in the middle of a task
	replace func(*Worker)

	// the task being executed, nil between tasks
	current *Task
}

func NewWorker(id string, tasks *taskQueue, wg *sync.WaitGroup, log *slog.Logger, j journal.Journal, replace func(*Worker)) *Worker {
	return &Worker{
		id:      id,
		wg:      wg,
		log:     log,
		tasks:   tasks,
		journal: j,
		replace: replace,
	}
}

func (w *Worker) Start() {
	w.log.Info(fmt.Sprintf("starting worker %s", w.id))

	exited := false
	defer func() {
		if !exited {
			w.lost()
			return
		}

		w.wg.Done()
		w.log.Info(fmt.Sprintf("worker %s has been stopped", w.id))
	}()

	for {
		task, ok := w.tasks.Pop()
		if !ok {
			w.log.Info(fmt.Sprintf("stopping worker %s with closed tasks queue", w.id))
			exited = true
			return
		}

		w.run(task)
	}
}

func (w *Worker) run(task *Task) {
	w.current = task
	w.record(task, journal.StatusActive, nil)
	w.log.Debug("task started", "worker", w.id, "task", task.Id())

	err := task.Execute()
	switch {
	case err != nil:
		w.log.Error(fmt.Sprintf("worker %s failed to execute task: %s", w.id, err.Error()), "task", task.Id())
		w.record(task, journal.StatusFailed, err)
	case task.Status().Done():
		w.record(task, journal.StatusFinished, nil)
		w.log.Debug("task finished", "worker", w.id, "task", task.Id())
	default:
		// the task is running on another goroutine that called Execute
		// first, its outcome isn't ours to record
		w.log.Debug("task already running elsewhere", "worker", w.id, "task", task.Id())
	}

	w.current = nil
	w.tasks.Done(task)
}

// lost runs when a task ended the worker's goroutine with runtime.Goexit. The
// task is accounted as failed and a replacement worker takes over the slot.
func (w *Worker) lost() {
	w.log.Error(fmt.Sprintf("worker %s exited while running a task, starting a replacement", w.id))

	if w.current != nil {
		w.record(w.current, journal.StatusFailed, ErrTaskAborted)
		w.tasks.Done(w.current)
		w.current = nil
	}

	w.replace(w)
}

func (w *Worker) record(task *Task, status string, cause error) {
	if w.journal == nil || task.barrier {
		return
	}

	entry := journal.Entry{
		TaskId: task.Id(),
		Worker: w.id,
		Status: status,
		At:     time.Now(),
	}

	if cause != nil {
		entry.Detail = &journal.Detail{Message: cause.Error()}

		var perr *PanicError
		if errors.As(cause, &perr) {
			entry.Detail.Stack = perr.Stack
		}
	}

	if err := w.journal.Record(context.Background(), entry); err != nil {
		w.log.Error(fmt.Sprintf("worker %s failed to journal task: %s", w.id, err.Error()), "task", task.Id(), "status", status)
	}
}
