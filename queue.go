package asynclog

import (
	"sync"
	"sync/atomic"
	"time"
)

// queueNode is a link in the TaskQueue list
type queueNode[T any] struct {
	next     atomic.Pointer[queueNode[T]]
	value    T
	enqueued int64 // Unix nanoseconds
}

// TaskQueue is a bounded multi-producer queue. Producers never block or take
// a lock: a node is published by swapping the head and then linking the
// previous head to it. Dequeue is serialized so any number of workers may
// consume. The list always keeps one consumed node as its sentinel.
//
// When the queue holds capacity entries, records below LevelCritical are
// dropped and counted; critical records are always admitted.
type TaskQueue[T any] struct {
	head atomic.Pointer[queueNode[T]] // Most recently enqueued node

	consumerMu sync.Mutex
	tail       *queueNode[T] // Sentinel, guarded by consumerMu

	size     atomic.Int64
	maxSize  atomic.Int64
	capacity atomic.Int64
	dropped  atomic.Uint64
}

// NewTaskQueue creates an empty queue holding at most capacity non-critical entries
func NewTaskQueue[T any](capacity int) *TaskQueue[T] {
	q := &TaskQueue[T]{}
	sentinel := &queueNode[T]{}
	q.head.Store(sentinel)
	q.tail = sentinel
	q.SetCapacity(capacity)
	return q
}

// Enqueue appends v, returning false when it was dropped for lack of capacity
func (q *TaskQueue[T]) Enqueue(level Level, v T) bool {
	for {
		size := q.size.Load()
		if size >= q.capacity.Load() && level < LevelCritical {
			q.dropped.Add(1)
			return false
		}
		if q.size.CompareAndSwap(size, size+1) {
			q.observeSize(size + 1)
			break
		}
	}

	node := &queueNode[T]{value: v, enqueued: time.Now().UnixNano()}
	prev := q.head.Swap(node)
	prev.next.Store(node)
	return true
}

// observeSize raises the high-water mark to size
func (q *TaskQueue[T]) observeSize(size int64) {
	for {
		max := q.maxSize.Load()
		if size <= max || q.maxSize.CompareAndSwap(max, size) {
			return
		}
	}
}

// Dequeue removes the oldest entry, returning how long it waited in the
// queue. ok is false when no linked entry is available.
func (q *TaskQueue[T]) Dequeue() (v T, waited time.Duration, ok bool) {
	q.consumerMu.Lock()
	next := q.tail.next.Load()
	if next == nil {
		q.consumerMu.Unlock()
		return v, 0, false
	}
	q.tail = next
	v = next.value
	var zero T
	next.value = zero // The node stays as sentinel; release the payload
	q.consumerMu.Unlock()

	q.size.Add(-1)
	return v, time.Duration(time.Now().UnixNano() - next.enqueued), true
}

// Len returns the number of admitted, not yet dequeued entries
func (q *TaskQueue[T]) Len() int {
	return int(q.size.Load())
}

// Empty reports whether no entries are pending
func (q *TaskQueue[T]) Empty() bool {
	return q.size.Load() == 0
}

// MaxLen returns the largest size the queue ever reached
func (q *TaskQueue[T]) MaxLen() int {
	return int(q.maxSize.Load())
}

// Capacity returns the admission limit for non-critical entries
func (q *TaskQueue[T]) Capacity() int {
	return int(q.capacity.Load())
}

// SetCapacity changes the admission limit; values below 1 are raised to 1.
// Entries already queued are unaffected.
func (q *TaskQueue[T]) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	q.capacity.Store(int64(capacity))
}

// Dropped returns the number of entries rejected for lack of capacity
func (q *TaskQueue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
