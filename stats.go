package asynclog

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// Statistics holds a logger's monotonic counters. Queue counters live in the
// TaskQueue and are merged into snapshots.
type Statistics struct {
	processed      atomic.Uint64
	errors         atomic.Uint64
	flushes        atomic.Uint64
	totalLatencyNs atomic.Uint64
	maxLatencyNs   atomic.Uint64
}

// recordProcessed counts a written record and its latency
func (s *Statistics) recordProcessed(latency time.Duration) {
	s.processed.Add(1)
	if latency < 0 {
		latency = 0
	}
	ns := uint64(latency)
	s.totalLatencyNs.Add(ns)
	for {
		max := s.maxLatencyNs.Load()
		if ns <= max || s.maxLatencyNs.CompareAndSwap(max, ns) {
			return
		}
	}
}

func (s *Statistics) recordError() { s.errors.Add(1) }
func (s *Statistics) recordFlush() { s.flushes.Add(1) }

// QueueSnapshot is the queue part of a StatsSnapshot
type QueueSnapshot struct {
	CurrentSize     int    `json:"current_size"`
	MaxSize         int    `json:"max_size"`
	Capacity        int    `json:"capacity"`
	DroppedMessages uint64 `json:"dropped_messages"`
}

// StatsSnapshot is a point-in-time copy of a logger's statistics
type StatsSnapshot struct {
	MessagesProcessed uint64        `json:"messages_processed"`
	ErrorsOccurred    uint64        `json:"errors_occurred"`
	FlushOperations   uint64        `json:"flush_operations"`
	AvgLatencyUs      float64       `json:"avg_latency_us"`
	MaxLatencyUs      float64       `json:"max_latency_us"`
	Queue             QueueSnapshot `json:"queue"`
}

// snapshot copies the counters; q may be nil for loggers without a queue
func (s *Statistics) snapshot(q *TaskQueue[queuedRecord]) StatsSnapshot {
	processed := s.processed.Load()
	snap := StatsSnapshot{
		MessagesProcessed: processed,
		ErrorsOccurred:    s.errors.Load(),
		FlushOperations:   s.flushes.Load(),
		MaxLatencyUs:      float64(s.maxLatencyNs.Load()) / 1e3,
	}
	if processed > 0 {
		snap.AvgLatencyUs = float64(s.totalLatencyNs.Load()) / float64(processed) / 1e3
	}
	if q != nil {
		snap.Queue = QueueSnapshot{
			CurrentSize:     q.Len(),
			MaxSize:         q.MaxLen(),
			Capacity:        q.Capacity(),
			DroppedMessages: q.Dropped(),
		}
	}
	return snap
}

// JSON renders the snapshot as a JSON document
func (s StatsSnapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}
