package asynclog

import (
	"context"
	"sync"
	"time"
)

// Task is the completion handle of an asynchronous log or flush request.
// It completes exactly once: after the backend write for a log record, once
// the queue drained for a flush, or immediately when the request is rejected.
type Task struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// completedTask returns a task that is already done with err
func completedTask(err error) *Task {
	t := newTask()
	t.complete(err)
	return t
}

// complete resolves the task; later calls are ignored
func (t *Task) complete(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed when the task completes
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task result, nil while the task is pending
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Completed reports whether the task has finished
func (t *Task) Completed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task completes and returns its result
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// WaitContext blocks until the task completes or ctx ends
func (t *Task) WaitContext(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout blocks until the task completes or timeout elapses, returning ErrTimeout in the latter case
func (t *Task) WaitTimeout(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return t.err
	case <-timer.C:
		return ErrTimeout
	}
}
