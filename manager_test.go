package asynclog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	base := testConfig(t)
	m := NewManager(base, WithClock(fixedClock()))
	t.Cleanup(func() { _ = m.ShutdownAll(time.Second) })
	return m, base.Directory
}

func TestManagerGetOrCreate(t *testing.T) {
	m, dir := newTestManager(t)

	first, err := m.SyncLogger("audit", nil)
	require.NoError(t, err)
	second, err := m.SyncLogger("audit", nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "audit", first.Name())
	assert.Equal(t, filepath.Join(dir, "audit.log"), first.Path())

	async, err := m.AsyncLogger("events", nil)
	require.NoError(t, err)
	again, err := m.AsyncLogger("events", nil)
	require.NoError(t, err)
	assert.Same(t, async, again)

	found, ok := m.LookupAsync("events")
	assert.True(t, ok)
	assert.Same(t, async, found)
	_, ok = m.LookupSync("events")
	assert.False(t, ok)
}

func TestManagerExplicitConfig(t *testing.T) {
	m, _ := newTestManager(t)

	cfg := testConfig(t)
	cfg.Name = "ignored"
	cfg.Level = "error"
	l, err := m.SyncLogger("errors", cfg)
	require.NoError(t, err)

	// The registry name wins over the configured one
	assert.Equal(t, "errors", l.GetConfig().Name)
	assert.Equal(t, LevelError, l.Level())
	assert.Equal(t, filepath.Join(cfg.Directory, "errors.log"), l.Path())
	assert.Equal(t, "ignored", cfg.Name)
}

func TestManagerNameConflict(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.SyncLogger("shared", nil)
	require.NoError(t, err)

	_, err = m.AsyncLogger("shared", nil)
	assert.ErrorContains(t, err, "already exists with another backend")
	_, err = m.MmapLogger("shared", nil)
	assert.ErrorContains(t, err, "already exists with another backend")
}

func TestManagerDefaultLogger(t *testing.T) {
	m, dir := newTestManager(t)

	l, err := m.DefaultLogger()
	require.NoError(t, err)
	again, err := m.DefaultLogger()
	require.NoError(t, err)
	assert.Same(t, l, again)
	assert.Equal(t, filepath.Join(dir, DefaultLoggerName+".log"), l.Path())

	l.Info("from default")
	require.NoError(t, l.Flush())
	assert.Equal(t, []string{"[" + testStamp + "][INFO][main] from default"}, readLines(t, l.Path()))
}

func TestManagerNamesAndLookup(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.SyncLogger("b", nil)
	require.NoError(t, err)
	_, err = m.AsyncLogger("c", nil)
	require.NoError(t, err)
	_, err = m.SyncLogger("a", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, m.Names())

	s, ok := m.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, "c", s.Name())
	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestManagerRemove(t *testing.T) {
	m, _ := newTestManager(t)

	l, err := m.AsyncLogger("temp", nil)
	require.NoError(t, err)

	removed, err := m.Remove("temp", time.Second)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, StateStopped, l.State())
	assert.Empty(t, m.Names())

	removed, err = m.Remove("temp", time.Second)
	assert.NoError(t, err)
	assert.False(t, removed)

	// The name is free again, for any kind
	replacement, err := m.SyncLogger("temp", nil)
	require.NoError(t, err)
	assert.False(t, replacement.Closed())
}

func TestManagerFlushAll(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.SyncLogger("sync", nil)
	require.NoError(t, err)
	a, err := m.AsyncLogger("async", nil)
	require.NoError(t, err)

	s.Info("sync record")
	for i := 0; i < 50; i++ {
		a.Info("async record", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.FlushAll(ctx))

	assert.Len(t, readLines(t, s.Path()), 1)
	assert.Len(t, readLines(t, a.Path()), 50)
}

func TestManagerFlushAllHonorsContext(t *testing.T) {
	m, _ := newTestManager(t)

	a, err := m.AsyncLogger("paused", nil)
	require.NoError(t, err)
	a.Pause()
	a.Info("held back")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.FlushAll(ctx), context.DeadlineExceeded)
	a.Resume()
}

func TestManagerFlushAllJoinsAsyncAfterDirectFailure(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.SyncLogger("failing", nil)
	require.NoError(t, err)
	diskErr := errors.New("disk gone")
	s.flushBackend = func() error { return diskErr }

	a, err := m.AsyncLogger("slow", nil)
	require.NoError(t, err)
	a.Pause()
	a.Info("held back")
	go func() {
		time.Sleep(50 * time.Millisecond)
		a.Resume()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = m.FlushAll(ctx)
	assert.ErrorIs(t, err, diskErr)
	assert.NotErrorIs(t, err, context.Canceled)

	// The async flush finished before FlushAll returned
	assert.Len(t, readLines(t, a.Path()), 1)
	assert.Equal(t, 0, a.Statistics().Queue.CurrentSize)
}

func TestManagerShutdownAll(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.SyncLogger("one", nil)
	require.NoError(t, err)
	a, err := m.AsyncLogger("two", nil)
	require.NoError(t, err)
	a.Info("pending")

	require.NoError(t, m.ShutdownAll(time.Second))
	assert.True(t, s.Closed())
	assert.Equal(t, StateStopped, a.State())
	assert.Empty(t, m.Names())
	assert.Len(t, readLines(t, a.Path()), 1)
}

func TestGlobalManagerIsSingleton(t *testing.T) {
	assert.Same(t, Global(), Global())
}
