package asynclog

import (
	"sync"
	"time"
)

// TimerSet holds the tickers driving a logger's maintenance loop
type TimerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	flushChan       <-chan time.Time
	heartbeatChan   <-chan time.Time
}

// newTimerSet creates a ticker for every positive interval
func newTimerSet(flushEvery, heartbeatEvery time.Duration) *TimerSet {
	timers := &TimerSet{}
	if flushEvery > 0 {
		timers.flushTicker = time.NewTicker(flushEvery)
		timers.flushChan = timers.flushTicker.C
	}
	if heartbeatEvery > 0 {
		timers.heartbeatTicker = time.NewTicker(heartbeatEvery)
		timers.heartbeatChan = timers.heartbeatTicker.C
	}
	return timers
}

// stop stops all active tickers
func (t *TimerSet) stop() {
	if t.flushTicker != nil {
		t.flushTicker.Stop()
	}
	if t.heartbeatTicker != nil {
		t.heartbeatTicker.Stop()
	}
}

// maintenance runs periodic flush and heartbeat callbacks on one goroutine.
// Intervals can change at any time; the loop only runs between start and halt.
type maintenance struct {
	mu             sync.Mutex
	active         bool
	flushEvery     time.Duration
	heartbeatEvery time.Duration
	stopCh         chan struct{}
	done           chan struct{}

	onFlush     func()
	onHeartbeat func()
}

func newMaintenance(onFlush, onHeartbeat func()) *maintenance {
	return &maintenance{onFlush: onFlush, onHeartbeat: onHeartbeat}
}

// start begins running the loop. Safe to call multiple times.
func (m *maintenance) start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return
	}
	m.active = true
	m.launchLocked()
}

// configure changes the intervals, restarting the loop if it is active
func (m *maintenance) configure(flushEvery, heartbeatEvery time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flushEvery == flushEvery && m.heartbeatEvery == heartbeatEvery {
		return
	}
	m.flushEvery = flushEvery
	m.heartbeatEvery = heartbeatEvery
	if m.active {
		m.stopLocked()
		m.launchLocked()
	}
}

// halt stops the loop and waits for it to exit. Safe to call multiple times.
func (m *maintenance) halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.stopLocked()
}

func (m *maintenance) launchLocked() {
	if m.flushEvery <= 0 && m.heartbeatEvery <= 0 {
		return
	}
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(newTimerSet(m.flushEvery, m.heartbeatEvery), m.stopCh, m.done)
}

func (m *maintenance) stopLocked() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.done
	m.stopCh = nil
	m.done = nil
}

func (m *maintenance) run(timers *TimerSet, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer timers.stop()

	for {
		select {
		case <-stop:
			return
		case <-timers.flushChan:
			m.onFlush()
		case <-timers.heartbeatChan:
			m.onHeartbeat()
		}
	}
}
