package asynclog

import (
	"sync"
	"sync/atomic"
	"time"
)

// workerPool consumes a TaskQueue with a fixed number of goroutines.
//
// A worker claims an entry by dequeuing it and raising the active count in
// one critical section, so "queue empty and no worker active" is observed
// atomically. Flush waiters are parked until that condition holds and are
// then released together after a single backend flush.
type workerPool struct {
	queue   *TaskQueue[queuedRecord]
	handle  func(item queuedRecord, waited time.Duration)
	drained func() error
	workers int
	idle    time.Duration

	claimMu sync.Mutex
	active  int     // Guarded by claimMu
	waiters []*Task // Guarded by claimMu

	notify   chan struct{}
	quit     chan struct{}
	paused   atomic.Bool
	stopping atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newWorkerPool(queue *TaskQueue[queuedRecord], workers int, idle time.Duration,
	handle func(queuedRecord, time.Duration), drained func() error) *workerPool {
	if workers < 1 {
		workers = 1
	}
	if idle <= 0 {
		idle = defaultWorkerIdle
	}
	return &workerPool{
		queue:   queue,
		handle:  handle,
		drained: drained,
		workers: workers,
		idle:    idle,
		notify:  make(chan struct{}, workers),
		quit:    make(chan struct{}),
	}
}

// start launches the workers
func (p *workerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// run is the worker loop. Idle workers wait for a notification, the idle
// timeout or shutdown, whichever comes first, then re-check the queue.
func (p *workerPool) run() {
	defer p.wg.Done()

	timer := time.NewTimer(p.idle)
	defer timer.Stop()

	for {
		if !p.paused.Load() || p.stopping.Load() {
			if item, waited, ok := p.claim(); ok {
				p.handle(item, waited)
				p.finish()
				continue
			}
		}

		if p.stopping.Load() && p.queue.Empty() {
			return
		}
		p.releaseIfIdle()

		timer.Reset(p.idle)
		select {
		case <-p.notify:
		case <-timer.C:
		case <-p.quit:
		}
	}
}

// claim dequeues one entry and marks the worker active
func (p *workerPool) claim() (queuedRecord, time.Duration, bool) {
	p.claimMu.Lock()
	defer p.claimMu.Unlock()
	item, waited, ok := p.queue.Dequeue()
	if ok {
		p.active++
	}
	return item, waited, ok
}

// finish marks the worker idle and releases flush waiters if nothing is left
func (p *workerPool) finish() {
	p.claimMu.Lock()
	p.active--
	ready := p.takeWaitersLocked()
	p.claimMu.Unlock()
	p.release(ready)
}

func (p *workerPool) releaseIfIdle() {
	p.claimMu.Lock()
	ready := p.takeWaitersLocked()
	p.claimMu.Unlock()
	p.release(ready)
}

// takeWaitersLocked hands out the parked waiters once the pool is idle
func (p *workerPool) takeWaitersLocked() []*Task {
	if p.active != 0 || !p.queue.Empty() || len(p.waiters) == 0 {
		return nil
	}
	ready := p.waiters
	p.waiters = nil
	return ready
}

// release flushes the backend once and completes every waiter with the result
func (p *workerPool) release(ready []*Task) {
	if len(ready) == 0 {
		return
	}
	err := p.drained()
	for _, t := range ready {
		t.complete(err)
	}
}

// flush completes t once every entry queued before the call has been written.
// An idle pool completes t on the caller's goroutine.
func (p *workerPool) flush(t *Task) {
	p.claimMu.Lock()
	if p.active == 0 && p.queue.Empty() {
		p.claimMu.Unlock()
		t.complete(p.drained())
		return
	}
	p.waiters = append(p.waiters, t)
	p.claimMu.Unlock()
	p.wakeAll()
}

// notifyOne wakes a single idle worker, if any is waiting
func (p *workerPool) notifyOne() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// wakeAll wakes every idle worker
func (p *workerPool) wakeAll() {
	for i := 0; i < p.workers; i++ {
		p.notifyOne()
	}
}

// idleNow reports whether the queue is empty and no worker is writing
func (p *workerPool) idleNow() bool {
	p.claimMu.Lock()
	defer p.claimMu.Unlock()
	return p.active == 0 && p.queue.Empty()
}

// activeWorkers returns the number of workers currently writing a record
func (p *workerPool) activeWorkers() int {
	p.claimMu.Lock()
	defer p.claimMu.Unlock()
	return p.active
}

// pause stops workers from claiming entries; queued entries stay queued
func (p *workerPool) pause() {
	p.paused.Store(true)
}

func (p *workerPool) resume() {
	p.paused.Store(false)
	p.wakeAll()
}

// stop drains the queue, ignoring pause, joins the workers and releases any
// flush waiter still parked. Entries that could not be written complete
// with ErrShuttingDown.
func (p *workerPool) stop() {
	p.stopOnce.Do(func() {
		p.stopping.Store(true)
		close(p.quit)
		p.wg.Wait()

		for {
			item, _, ok := p.queue.Dequeue()
			if !ok {
				break
			}
			if item.task != nil {
				item.task.complete(ErrShuttingDown)
			}
		}

		p.claimMu.Lock()
		ready := p.waiters
		p.waiters = nil
		p.claimMu.Unlock()
		p.release(ready)
	})
}
