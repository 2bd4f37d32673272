package asynclog

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueFIFO(t *testing.T) {
	q := NewTaskQueue[int](10)
	assert.True(t, q.Empty())

	for i := 0; i < 5; i++ {
		require.True(t, q.Enqueue(LevelInfo, i))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, waited, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
		assert.GreaterOrEqual(t, waited.Nanoseconds(), int64(0))
	}

	_, _, ok := q.Dequeue()
	assert.False(t, ok)
	assert.True(t, q.Empty())
	assert.Equal(t, 5, q.MaxLen())
}

func TestTaskQueueAdmission(t *testing.T) {
	q := NewTaskQueue[string](2)

	assert.True(t, q.Enqueue(LevelInfo, "a"))
	assert.True(t, q.Enqueue(LevelError, "b"))
	assert.False(t, q.Enqueue(LevelError, "dropped"))
	assert.False(t, q.Enqueue(LevelTrace, "dropped"))
	assert.Equal(t, uint64(2), q.Dropped())

	// Critical bypasses the capacity check
	assert.True(t, q.Enqueue(LevelCritical, "c"))
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(2), q.Dropped())

	var got []string
	for {
		v, _, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 3, q.MaxLen())
}

func TestTaskQueueSetCapacity(t *testing.T) {
	q := NewTaskQueue[int](1)
	require.True(t, q.Enqueue(LevelInfo, 1))
	assert.False(t, q.Enqueue(LevelInfo, 2))

	q.SetCapacity(3)
	assert.Equal(t, 3, q.Capacity())
	assert.True(t, q.Enqueue(LevelInfo, 2))

	q.SetCapacity(0)
	assert.Equal(t, 1, q.Capacity())
}

func TestTaskQueueConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 1000
	q := NewTaskQueue[int](producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(LevelInfo, p*perProducer+i)
			}
		}(p)
	}

	// Consume concurrently with the producers
	var got []int
	lastSeen := make(map[int]int)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for len(got) < producers*perProducer {
			v, _, ok := q.Dequeue()
			if !ok {
				continue
			}
			// Per-producer order is preserved
			p := v / perProducer
			if last, seen := lastSeen[p]; seen {
				assert.Greater(t, v, last)
			}
			lastSeen[p] = v
			got = append(got, v)
		}
	}()

	wg.Wait()
	<-done

	assert.Equal(t, uint64(0), q.Dropped())
	sort.Ints(got)
	for i, v := range got {
		require.Equal(t, i, v)
	}
	assert.True(t, q.Empty())
}

func TestTaskQueueCriticalAlwaysAdmitted(t *testing.T) {
	q := NewTaskQueue[int](5)

	var wg sync.WaitGroup
	for g := 0; g < 3; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				assert.True(t, q.Enqueue(LevelCritical, i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 15, q.Len())
	assert.Equal(t, uint64(0), q.Dropped())
}
