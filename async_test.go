package asynclog

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createAsyncLogger creates an async logger in a temp directory
func createAsyncLogger(t *testing.T, modify func(cfg *Config)) (*AsyncLogger, string) {
	t.Helper()
	cfg := testConfig(t)
	if modify != nil {
		modify(cfg)
	}
	logger, err := NewAsyncLogger(cfg, WithClock(fixedClock()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Shutdown(time.Second) })
	return logger, cfg.LogPath()
}

// blockingSink parks every submission until released
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingSink() *blockingSink {
	return &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingSink) Name() string { return "blocking" }

func (b *blockingSink) Submit(Record) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return nil
}

func (b *blockingSink) Flush() error { return nil }

func TestAsyncLoggerLogTask(t *testing.T) {
	logger, path := createAsyncLogger(t, nil)

	task := logger.Log(LevelInfo, "first", nil)
	require.NoError(t, task.WaitTimeout(time.Second))
	assert.True(t, task.Completed())

	logger.Info("second")
	require.NoError(t, logger.Flush())

	lines := readLines(t, path)
	assert.Equal(t, []string{
		"[" + testStamp + "][INFO][main] first",
		"[" + testStamp + "][INFO][main] second",
	}, lines)
}

func TestAsyncLoggerFilteredLogCompletes(t *testing.T) {
	logger, path := createAsyncLogger(t, func(cfg *Config) { cfg.Level = "warn" })

	task := logger.Log(LevelDebug, "hidden", nil)
	assert.True(t, task.Completed())
	assert.NoError(t, task.Err())

	require.NoError(t, logger.Flush())
	assert.Empty(t, readLines(t, path))
	assert.Equal(t, uint64(0), logger.Statistics().MessagesProcessed)
}

func TestAsyncLoggerExplicitSource(t *testing.T) {
	logger, path := createAsyncLogger(t, nil)

	loc := &SourceLocation{File: "main.go", Line: 12, Function: "run"}
	require.NoError(t, logger.Log(LevelWarn, "with source", loc).WaitTimeout(time.Second))
	require.NoError(t, logger.Flush())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "["+testStamp+"][WARN][main] with source [main.go:12:run]", lines[0])
}

func TestAsyncLoggerFlushIdempotent(t *testing.T) {
	logger, _ := createAsyncLogger(t, nil)

	logger.Info("one")
	require.NoError(t, logger.Flush())
	require.NoError(t, logger.Flush())
	require.NoError(t, logger.FlushTimeout(time.Second))

	// An idle logger completes the flush task before returning it
	task := logger.FlushAsync()
	assert.True(t, task.Completed())
	assert.NoError(t, task.Err())

	assert.GreaterOrEqual(t, logger.Statistics().FlushOperations, uint64(4))
}

func TestAsyncLoggerPauseResume(t *testing.T) {
	logger, path := createAsyncLogger(t, nil)

	logger.Pause()
	assert.True(t, logger.Paused())

	tasks := make([]*Task, 3)
	for i := range tasks {
		tasks[i] = logger.Log(LevelInfo, fmt.Sprintf("paused-%d", i), nil)
	}
	assert.Equal(t, 3, logger.QueueLen())

	flush := logger.FlushAsync()
	assert.ErrorIs(t, flush.WaitTimeout(30*time.Millisecond), ErrTimeout)
	assert.False(t, logger.WaitForCompletion(30*time.Millisecond))
	for _, task := range tasks {
		assert.False(t, task.Completed())
	}

	logger.Resume()
	assert.False(t, logger.Paused())
	require.NoError(t, flush.WaitTimeout(time.Second))
	for _, task := range tasks {
		require.NoError(t, task.WaitTimeout(time.Second))
	}

	assert.True(t, logger.WaitForCompletion(time.Second))
	assert.Len(t, readLines(t, path), 3)
	assert.Equal(t, 0, logger.QueueLen())
}

func TestAsyncLoggerQueueFull(t *testing.T) {
	logger, _ := createAsyncLogger(t, func(cfg *Config) { cfg.QueueCapacity = 1 })
	logger.Pause()

	first := logger.Log(LevelInfo, "kept", nil)
	rejected := logger.Log(LevelInfo, "rejected", nil)

	// Rejection completes the task immediately
	assert.True(t, rejected.Completed())
	assert.ErrorIs(t, rejected.Err(), ErrQueueFull)
	assert.False(t, first.Completed())

	critical := logger.Log(LevelCritical, "critical", nil)
	assert.False(t, critical.Completed())

	logger.Resume()
	require.NoError(t, first.WaitTimeout(time.Second))
	require.NoError(t, critical.WaitTimeout(time.Second))

	stats := logger.Statistics()
	assert.Equal(t, uint64(1), stats.Queue.DroppedMessages)
	assert.Equal(t, uint64(2), stats.MessagesProcessed)
	assert.Equal(t, 2, stats.Queue.MaxSize)
}

func TestAsyncLoggerSetQueueCapacity(t *testing.T) {
	logger, _ := createAsyncLogger(t, func(cfg *Config) { cfg.QueueCapacity = 1 })
	logger.Pause()

	logger.Info("a")
	logger.Info("b")
	assert.Equal(t, uint64(1), logger.Statistics().Queue.DroppedMessages)

	logger.SetQueueCapacity(4)
	assert.Equal(t, int64(4), logger.GetConfig().QueueCapacity)
	assert.Equal(t, 4, logger.Statistics().Queue.Capacity)

	logger.Info("c")
	assert.Equal(t, 2, logger.QueueLen())
	assert.Equal(t, uint64(1), logger.Statistics().Queue.DroppedMessages)
	logger.Resume()
}

func TestAsyncLoggerMultipleWorkers(t *testing.T) {
	const producers = 4
	const perProducer = 250
	logger, path := createAsyncLogger(t, func(cfg *Config) {
		cfg.Workers = 4
		cfg.QueueCapacity = producers * perProducer
	})

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				logger.Infof("producer %d message %d", p, i)
			}
		}(p)
	}
	wg.Wait()
	require.NoError(t, logger.Flush())

	assert.Len(t, readLines(t, path), producers*perProducer)
	stats := logger.Statistics()
	assert.Equal(t, uint64(producers*perProducer), stats.MessagesProcessed)
	assert.Equal(t, uint64(0), stats.Queue.DroppedMessages)
	assert.GreaterOrEqual(t, stats.MaxLatencyUs, stats.AvgLatencyUs)
}

func TestAsyncLoggerShutdownDrainsPausedQueue(t *testing.T) {
	logger, path := createAsyncLogger(t, nil)
	logger.Pause()

	tasks := make([]*Task, 5)
	for i := range tasks {
		tasks[i] = logger.Log(LevelInfo, fmt.Sprintf("pending-%d", i), nil)
	}
	pendingFlush := logger.FlushAsync()

	require.NoError(t, logger.Shutdown(time.Second))
	assert.Equal(t, StateStopped, logger.State())

	for _, task := range tasks {
		assert.True(t, task.Completed())
		assert.NoError(t, task.Err())
	}
	assert.True(t, pendingFlush.Completed())
	assert.Len(t, readLines(t, path), 5)
}

func TestAsyncLoggerRejectsAfterShutdown(t *testing.T) {
	logger, _ := createAsyncLogger(t, nil)
	logger.Info("before")
	require.NoError(t, logger.Shutdown(time.Second))

	task := logger.Log(LevelCritical, "after", nil)
	assert.True(t, task.Completed())
	assert.ErrorIs(t, task.Err(), ErrShuttingDown)
	assert.ErrorIs(t, logger.Submit(Record{Level: LevelError, Message: "late"}), ErrShuttingDown)
	assert.ErrorIs(t, logger.Flush(), ErrShuttingDown)

	// Statistics stay available and rejections are not drops
	stats := logger.Statistics()
	assert.Equal(t, uint64(1), stats.MessagesProcessed)
	assert.Equal(t, uint64(0), stats.Queue.DroppedMessages)

	// Repeated shutdown is a no-op
	assert.NoError(t, logger.Shutdown(time.Second))
}

func TestAsyncLoggerConcurrentShutdown(t *testing.T) {
	logger, _ := createAsyncLogger(t, nil)
	for i := 0; i < 100; i++ {
		logger.Info("message", i)
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = logger.Shutdown(time.Second)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, StateStopped, logger.State())
	assert.Equal(t, uint64(100), logger.Statistics().MessagesProcessed)
}

func TestAsyncLoggerShutdownTimeout(t *testing.T) {
	logger, _ := createAsyncLogger(t, nil)
	blocker := newBlockingSink()
	require.NoError(t, logger.RegisterSink(blocker))
	defer close(blocker.release)

	logger.Info("stuck")
	select {
	case <-blocker.entered:
	case <-time.After(time.Second):
		t.Fatal("worker never reached the sink")
	}

	start := time.Now()
	err := logger.Shutdown(50 * time.Millisecond)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateStopped, logger.State())
}

func TestAsyncLoggerShutdownTimeoutAbandonsQueue(t *testing.T) {
	logger, path := createAsyncLogger(t, nil)
	blocker := newBlockingSink()
	require.NoError(t, logger.RegisterSink(blocker))

	stuck := logger.Log(LevelInfo, "stuck", nil)
	select {
	case <-blocker.entered:
	case <-time.After(time.Second):
		t.Fatal("worker never reached the sink")
	}
	late := logger.Log(LevelInfo, "late", nil)

	err := logger.Shutdown(50 * time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout))
	close(blocker.release)

	require.NoError(t, stuck.WaitTimeout(time.Second))
	assert.ErrorIs(t, late.WaitTimeout(time.Second), ErrShuttingDown)
	assert.Equal(t, uint64(0), logger.Statistics().ErrorsOccurred)
	assert.Equal(t, []string{"[" + testStamp + "][INFO][main] stuck"}, readLines(t, path))
}

func TestAsyncLoggerFilteredLogAfterShutdown(t *testing.T) {
	logger, _ := createAsyncLogger(t, func(cfg *Config) { cfg.Level = "error" })
	require.NoError(t, logger.Shutdown(time.Second))

	assert.ErrorIs(t, logger.Log(LevelDebug, "filtered and late", nil).Err(), ErrShuttingDown)
	assert.ErrorIs(t, logger.Log(LevelError, "late", nil).Err(), ErrShuttingDown)
}

func TestAsyncLoggerAutoFlush(t *testing.T) {
	logger, path := createAsyncLogger(t, func(cfg *Config) { cfg.AutoFlushIntervalMs = 10 })

	require.NoError(t, logger.Log(LevelInfo, "eventually on disk", nil).WaitTimeout(time.Second))
	assert.Eventually(t, func() bool {
		return len(readLines(t, path)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return logger.Statistics().FlushOperations > 0
	}, time.Second, 10*time.Millisecond)

	logger.SetAutoFlushInterval(0)
	assert.Equal(t, int64(0), logger.GetConfig().AutoFlushIntervalMs)
}

func TestAsyncLoggerReconfigure(t *testing.T) {
	logger, path := createAsyncLogger(t, nil)

	logger.SetThreadName("worker-7")
	logger.SetLevel(LevelError)
	logger.Warn("hidden")
	logger.Error("shown")
	require.NoError(t, logger.Flush())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "["+testStamp+"][ERROR][worker-7] shown", lines[0])
}
