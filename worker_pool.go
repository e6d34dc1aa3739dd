package litepool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jirevwe/litepool/journal"
)

type WorkerPool struct {
	// queue from which workers consume work
	tasks *taskQueue

	// number of workers spawned by each Start call
	size int

	// ensure the pool can only be stopped once
	stop sync.Once

	stopped atomic.Bool

	// live workers, and the counter used to name new ones
	live   atomic.Int64
	serial atomic.Int64

	wg *sync.WaitGroup

	log *slog.Logger

	journal journal.Journal
}

var _ Pool = (*WorkerPool)(nil)

func NewWorkerPool(cfg *Config) *WorkerPool {
	cfg = cfg.withDefaults()

	return &WorkerPool{
		tasks:   newTaskQueue(),
		size:    cfg.Workers,
		wg:      &sync.WaitGroup{},
		journal: cfg.Journal,
		log:     cfg.Logger,
	}
}

// Start spawns Config.Workers workers. It is not idempotent: each call adds
// another set of workers draining the same queue.
func (p *WorkerPool) Start() {
	if p.stopped.Load() {
		p.log.Error(ErrWorkerPoolClosed.Error(), "func", "Start")
		return
	}

	p.log.Info(fmt.Sprintf("starting worker pool with %d workers", p.size))
	for i := 0; i < p.size; i++ {
		p.startWorker(fmt.Sprintf("worker_%d", p.serial.Add(1)))
	}
}

func (p *WorkerPool) startWorker(id string) {
	w := NewWorker(id, p.tasks, p.wg, p.log, p.journal, p.replaceWorker)
	p.live.Add(1)
	p.wg.Add(1)
	go w.Start()
}

// replaceWorker hands the slot of a lost worker to a fresh one. The new worker
// takes over the lost one's WaitGroup count.
func (p *WorkerPool) replaceWorker(lost *Worker) {
	w := NewWorker(lost.id, p.tasks, p.wg, p.log, p.journal, p.replaceWorker)
	go w.Start()
}

func (p *WorkerPool) Stop() error {
	p.stop.Do(func() {
		p.log.Info("stopping worker pool")
		p.stopped.Store(true)

		// no new work is accepted, the workers exit once the queue is empty
		p.tasks.Close()

		p.wg.Wait()
		p.live.Store(0)

		p.log.Info("worker pool has been stopped")
	})
	return nil
}

// AddWork queues t for the workers. It returns immediately, the queue is
// unbounded.
func (p *WorkerPool) AddWork(t *Task) error {
	if t == nil {
		return ErrNilTask
	}

	return p.tasks.Push(t)
}

// Go queues fn as fire-and-forget work. Use Drain to wait for it.
func (p *WorkerPool) Go(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}

	return p.AddWork(NewTask(fn))
}

// Workers returns the number of live workers.
func (p *WorkerPool) Workers() int { return int(p.live.Load()) }

// Pending returns the number of queued tasks no worker has picked up yet.
func (p *WorkerPool) Pending() int { return p.tasks.Len() }

// InFlight returns the number of tasks being executed.
func (p *WorkerPool) InFlight() int { return p.tasks.Active() }
