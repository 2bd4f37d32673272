package asynclog

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/asynclog/sink"
)

// AsyncLogger formats records on the caller's goroutine and hands them to a
// worker pool through a bounded lock-free queue. Producers never block: a
// full queue drops non-critical records and counts them. Each call returns a
// Task that completes once the backend has written the record.
type AsyncLogger struct {
	*core
	backend *sink.RotatingFileSink
	pool    *workerPool

	state     atomic.Int32
	inflight  atomic.Int64 // Producers between the state check and the enqueue
	abandoned atomic.Bool  // Set when a timed-out Shutdown closes the backend
	stoppedCh chan struct{}
}

// NewAsyncLogger opens the file backend described by cfg and starts the
// workers. A nil cfg uses DefaultConfig.
func NewAsyncLogger(cfg *Config, opts ...Option) (*AsyncLogger, error) {
	return newAsyncLogger("", cfg, opts)
}

func newAsyncLogger(name string, cfg *Config, opts []Option) (*AsyncLogger, error) {
	c, err := newCore(name, cfg, opts)
	if err != nil {
		return nil, err
	}
	cfg = c.getConfig()

	backend, err := openFileBackend(cfg, c.diag)
	if err != nil {
		c.stopCommon()
		return nil, err
	}

	c.queue = NewTaskQueue[queuedRecord](int(cfg.QueueCapacity))
	l := &AsyncLogger{
		core:      c,
		backend:   backend,
		stoppedCh: make(chan struct{}),
	}
	l.pool = newWorkerPool(c.queue, int(cfg.Workers), cfg.workerIdle(), l.process, l.flushBackend)

	c.self = l
	c.deliver = l.deliverRecord
	c.flush = l.flushBackend

	l.pool.start()
	c.timers.start()
	return l, nil
}

// admit enqueues rec. The returned task is nil unless wantTask is set.
func (l *AsyncLogger) admit(rec Record, wantTask bool) (*Task, error) {
	l.inflight.Add(1)
	defer l.inflight.Add(-1)

	if LifecycleState(l.state.Load()) != StateRunning {
		return nil, ErrShuttingDown
	}

	item := queuedRecord{rec: rec, data: l.render(rec)}
	if wantTask {
		item.task = newTask()
	}
	if !l.queue.Enqueue(rec.Level, item) {
		return item.task, ErrQueueFull
	}
	l.pool.notifyOne()
	return item.task, nil
}

// Log submits a record with an explicit level and optional call site. The
// returned task completes after the backend write, or immediately with
// ErrQueueFull or ErrShuttingDown when the record was not admitted. A record
// below the minimum level completes immediately with no error while the
// logger is running.
func (l *AsyncLogger) Log(level Level, msg string, loc *SourceLocation) *Task {
	if LifecycleState(l.state.Load()) != StateRunning {
		return completedTask(ErrShuttingDown)
	}
	if !l.filter.Allows(level) {
		return completedTask(nil)
	}
	task, err := l.admit(l.newRecord(level, msg, loc), true)
	if err != nil {
		if task == nil {
			return completedTask(err)
		}
		task.complete(err)
	}
	return task
}

// Submit enqueues a record handed over by another logger
func (l *AsyncLogger) Submit(rec Record) error {
	if !l.filter.Allows(rec.Level) {
		return nil
	}
	_, err := l.admit(rec, false)
	return err
}

// deliverRecord enqueues rec without consulting the level filter
func (l *AsyncLogger) deliverRecord(rec Record) error {
	_, err := l.admit(rec, false)
	return err
}

// process writes one dequeued record; it runs on a worker
func (l *AsyncLogger) process(item queuedRecord, waited time.Duration) {
	if l.abandoned.Load() {
		if item.task != nil {
			item.task.complete(ErrShuttingDown)
		}
		return
	}

	_, err := l.backend.Write(item.data)
	switch {
	case err != nil && l.abandoned.Load():
		err = ErrShuttingDown
	case err != nil:
		l.writeFailed(err)
	default:
		l.stats.recordProcessed(waited)
		l.afterWrite(item.rec, item.data)
	}
	if item.task != nil {
		item.task.complete(err)
	}
}

// flushBackend pushes the file buffer to disk
func (l *AsyncLogger) flushBackend() error {
	err := l.backend.Flush()
	l.stats.recordFlush()
	return err
}

// FlushAsync returns a task that completes once every record queued before
// the call has been written and the backend flushed. An idle logger
// completes the task before returning.
func (l *AsyncLogger) FlushAsync() *Task {
	if LifecycleState(l.state.Load()) == StateStopped {
		return completedTask(ErrShuttingDown)
	}
	t := newTask()
	l.pool.flush(t)
	return t
}

// Flush blocks until every record queued before the call has been written.
// A paused logger blocks until it is resumed.
func (l *AsyncLogger) Flush() error {
	return l.FlushAsync().Wait()
}

// FlushTimeout is Flush bounded by timeout
func (l *AsyncLogger) FlushTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return l.FlushAsync().WaitTimeout(timeout)
}

// WaitForCompletion polls until the queue is empty and no worker is
// writing, reporting false if timeout elapses first
func (l *AsyncLogger) WaitForCompletion(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if l.pool.idleNow() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		l.pool.wakeAll()
		time.Sleep(minWaitTime)
	}
}

// SetQueueCapacity changes the admission limit for non-critical records
func (l *AsyncLogger) SetQueueCapacity(capacity int) {
	l.queue.SetCapacity(capacity)
	l.updateConfig(func(cfg *Config) { cfg.QueueCapacity = int64(l.queue.Capacity()) })
}

// Pause stops the workers from taking records. Records keep being admitted
// up to the queue capacity.
func (l *AsyncLogger) Pause() {
	l.pool.pause()
}

// Resume restarts paused workers
func (l *AsyncLogger) Resume() {
	l.pool.resume()
}

// Paused reports whether the workers are paused
func (l *AsyncLogger) Paused() bool {
	return l.pool.paused.Load()
}

// State returns the lifecycle state
func (l *AsyncLogger) State() LifecycleState {
	return LifecycleState(l.state.Load())
}

// QueueLen returns the number of records waiting to be written
func (l *AsyncLogger) QueueLen() int {
	return l.queue.Len()
}

// Rotate forces a rotation of the log file
func (l *AsyncLogger) Rotate() error {
	return l.backend.Rotate()
}

// Path returns the live log file path
func (l *AsyncLogger) Path() string {
	return l.backend.Path()
}

// Shutdown stops admitting records, drains the queue (resuming paused
// workers), joins the workers and closes the backend. It waits at most
// timeout for the drain, default 5s, and returns ErrTimeout if the queue
// did not empty in time. Records still queued after a timeout are not
// written; their tasks complete with ErrShuttingDown. Concurrent and
// repeated calls wait for the first one and return nil.
func (l *AsyncLogger) Shutdown(timeout time.Duration) error {
	if !l.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		<-l.stoppedCh
		return nil
	}

	// Let producers that passed the state check finish their enqueue
	for l.inflight.Load() > 0 {
		runtime.Gosched()
	}
	l.timers.halt()

	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	done := make(chan struct{})
	go func() {
		l.pool.stop()
		close(done)
	}()

	var err error
	timer := time.NewTimer(timeout)
	select {
	case <-done:
		timer.Stop()
	case <-timer.C:
		err = fmtErrorf("logger '%s' did not drain within %v: %w", l.name, timeout, ErrTimeout)
		l.abandoned.Store(true)
	}

	if closeErr := l.backend.Close(); closeErr != nil {
		err = combineErrors(err, fmtErrorf("failed to close backend: %w", closeErr))
	}
	l.stopCommon()
	l.state.Store(int32(StateStopped))
	close(l.stoppedCh)
	return err
}
