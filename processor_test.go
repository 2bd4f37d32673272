package asynclog

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool builds a worker pool whose handler records message order
type testPool struct {
	pool    *workerPool
	queue   *TaskQueue[queuedRecord]
	mu      sync.Mutex
	handled []string
	flushes atomic.Int32
	gate    chan struct{}
}

func newTestPool(t *testing.T, workers int) *testPool {
	t.Helper()
	tp := &testPool{queue: NewTaskQueue[queuedRecord](64)}
	tp.pool = newWorkerPool(tp.queue, workers, 5*time.Millisecond, tp.handle, func() error {
		tp.flushes.Add(1)
		return nil
	})
	tp.pool.start()
	t.Cleanup(tp.pool.stop)
	return tp
}

func (tp *testPool) handle(item queuedRecord, _ time.Duration) {
	if tp.gate != nil {
		<-tp.gate
	}
	tp.mu.Lock()
	tp.handled = append(tp.handled, item.rec.Message)
	tp.mu.Unlock()
	if item.task != nil {
		item.task.complete(nil)
	}
}

func (tp *testPool) submit(msg string) *Task {
	task := newTask()
	tp.queue.Enqueue(LevelInfo, queuedRecord{rec: Record{Level: LevelInfo, Message: msg}, task: task})
	tp.pool.notifyOne()
	return task
}

func (tp *testPool) messages() []string {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]string(nil), tp.handled...)
}

func TestWorkerPoolProcessesInOrder(t *testing.T) {
	tp := newTestPool(t, 1)

	var last *Task
	for _, msg := range []string{"a", "b", "c"} {
		last = tp.submit(msg)
	}
	require.NoError(t, last.WaitTimeout(time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, tp.messages())
}

func TestWorkerPoolFlushWaitsForActiveWorker(t *testing.T) {
	tp := newTestPool(t, 2)
	tp.gate = make(chan struct{})

	tp.submit("slow")
	require.Eventually(t, func() bool { return tp.pool.activeWorkers() == 1 }, time.Second, time.Millisecond)

	// The queue is empty but a worker is still writing
	flush := newTask()
	tp.pool.flush(flush)
	assert.False(t, flush.Completed())
	assert.False(t, tp.pool.idleNow())

	close(tp.gate)
	require.NoError(t, flush.WaitTimeout(time.Second))
	assert.Equal(t, []string{"slow"}, tp.messages())
	assert.Equal(t, int32(1), tp.flushes.Load())
}

func TestWorkerPoolFlushReleasesWaitersTogether(t *testing.T) {
	tp := newTestPool(t, 1)
	tp.pool.pause()

	tp.submit("held")
	waiters := []*Task{newTask(), newTask(), newTask()}
	for _, w := range waiters {
		tp.pool.flush(w)
	}
	time.Sleep(20 * time.Millisecond)
	for _, w := range waiters {
		assert.False(t, w.Completed())
	}

	tp.pool.resume()
	for _, w := range waiters {
		require.NoError(t, w.WaitTimeout(time.Second))
	}
	// One backend flush serves every parked waiter
	assert.Equal(t, int32(1), tp.flushes.Load())
}

func TestWorkerPoolIdleFlushCompletesInline(t *testing.T) {
	tp := newTestPool(t, 1)

	flush := newTask()
	tp.pool.flush(flush)
	assert.True(t, flush.Completed())
	assert.True(t, tp.pool.idleNow())
}

func TestWorkerPoolStopDrainsAndReleases(t *testing.T) {
	tp := newTestPool(t, 2)
	tp.pool.pause()

	tasks := []*Task{tp.submit("x"), tp.submit("y")}
	flush := newTask()
	tp.pool.flush(flush)

	tp.pool.stop()
	tp.pool.stop()

	for _, task := range tasks {
		assert.NoError(t, task.Err())
		assert.True(t, task.Completed())
	}
	assert.True(t, flush.Completed())
	assert.ElementsMatch(t, []string{"x", "y"}, tp.messages())
}

func TestWorkerPoolDefaults(t *testing.T) {
	p := newWorkerPool(NewTaskQueue[queuedRecord](1), 0, 0, nil, nil)
	assert.Equal(t, 1, p.workers)
	assert.Equal(t, defaultWorkerIdle, p.idle)
}
