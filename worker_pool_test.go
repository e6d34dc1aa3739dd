package litepool

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var slogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func newTestPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()

	p := NewWorkerPool(&Config{Workers: workers, Logger: slogger})
	p.Start()
	t.Cleanup(func() { require.NoError(t, p.Stop()) })

	return p
}

type counterTest struct {
	count int
	mu    *sync.Mutex
}

func NewCounterTest() *counterTest {
	return &counterTest{
		count: 0,
		mu:    &sync.Mutex{},
	}
}

func (c *counterTest) Inc() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func (c *counterTest) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func waitOrFail(t *testing.T, done <-chan struct{}, msg string) {
	t.Helper()

	select {
	case <-time.After(10 * time.Second):
		t.Fatal(msg)
	case <-done:
	}
}

func TestWorkerPool_MultipleStopDontPanic(t *testing.T) {
	p := NewWorkerPool(&Config{Workers: 5, Logger: slogger})

	p.Start()

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}

func TestWorkerPool_StartGrowsPool(t *testing.T) {
	p := newTestPool(t, 3)
	require.Equal(t, 3, p.Workers())

	p.Start()
	require.Equal(t, 6, p.Workers())
}

func TestWorkerPool_DefaultsWorkersToCPUCount(t *testing.T) {
	p := NewWorkerPool(nil)
	require.GreaterOrEqual(t, p.size, 1)
	require.NotNil(t, p.log)
}

func TestWorkerPool_Work(t *testing.T) {
	wg := &sync.WaitGroup{}
	c := NewCounterTest()

	p := newTestPool(t, 5)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, p.Go(func() {
			defer wg.Done()
			c.Inc()
		}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	waitOrFail(t, done, "tasks were not processed")
	require.Equal(t, 20, c.Count())
}

func TestWorkerPool_ProcessRemainingTasksAfterStop(t *testing.T) {
	p := NewWorkerPool(&Config{Workers: 4, Logger: slogger})
	p.Start()
	c := NewCounterTest()

	for i := 0; i < 60; i++ {
		require.NoError(t, p.Go(func() {
			time.Sleep(time.Millisecond)
			c.Inc()
		}))
	}

	done := make(chan struct{})
	go func() {
		require.NoError(t, p.Stop())
		close(done)
	}()

	waitOrFail(t, done, "failed because still hanging on Stop")
	require.Equal(t, 60, c.Count())
}

func TestWorkerPool_AddWorkAfterStop(t *testing.T) {
	p := NewWorkerPool(&Config{Workers: 2, Logger: slogger})
	p.Start()
	require.NoError(t, p.Stop())

	require.ErrorIs(t, p.AddWork(NewTask(func() {})), ErrWorkerPoolClosed)
	require.ErrorIs(t, p.Go(func() {}), ErrWorkerPoolClosed)

	_, err := Submit(p, func() int { return 1 }).Wait()
	require.ErrorIs(t, err, ErrWorkerPoolClosed)
}

func TestWorkerPool_RejectsNilWork(t *testing.T) {
	p := newTestPool(t, 1)

	require.ErrorIs(t, p.AddWork(nil), ErrNilTask)
	require.ErrorIs(t, p.Go(nil), ErrNilTask)
}

func TestWorkerPool_RaceConditionOnStop(t *testing.T) {
	p := NewWorkerPool(&Config{Workers: 10, Logger: slogger})
	p.Start()
	c := NewCounterTest()

	var accepted atomic.Int64
	wg := &sync.WaitGroup{}
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Go(c.Inc) == nil {
				accepted.Add(1)
			}
		}()
	}

	// Stop the worker pool concurrently
	time.Sleep(time.Millisecond)
	go func() {
		require.NoError(t, p.Stop())
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		require.NoError(t, p.Stop())
		close(done)
	}()

	waitOrFail(t, done, "failed because still hanging on Go")
	require.Equal(t, int(accepted.Load()), c.Count())
}

func TestWorkerPool_SurvivesPanickingTasks(t *testing.T) {
	p := newTestPool(t, 2)

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Go(func() { panic("boom") }))
	}
	p.Drain()

	require.Equal(t, 2, p.Workers())
	v, err := Submit(p, func() int { return 7 }).Wait()
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestWorkerPool_ReplacesWorkerAfterGoexit(t *testing.T) {
	p := newTestPool(t, 1)

	_, err := Submit(p, func() int {
		runtime.Goexit()
		return 0
	}).Wait()
	require.ErrorIs(t, err, ErrTaskAborted)

	// the single worker was replaced, so work still gets done
	v, err := Submit(p, func() string { return "alive" }).Wait()
	require.NoError(t, err)
	require.Equal(t, "alive", v)
	require.Equal(t, 1, p.Workers())

	p.Drain()
	require.Equal(t, 0, p.InFlight())
}
