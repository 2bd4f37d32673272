package asynclog

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultLoggerName is the name of the sync logger returned by DefaultLogger
const DefaultLoggerName = "default"

// Manager is a registry of named loggers. Each name maps to at most one
// logger of one kind; the logger's file is named after it.
type Manager struct {
	mu    sync.RWMutex
	base  *Config
	opts  []Option
	sync  map[string]*SyncLogger
	async map[string]*AsyncLogger
	mmap  map[string]*MmapLogger
}

// NewManager creates a registry whose loggers start from base, DefaultConfig when nil
func NewManager(base *Config, opts ...Option) *Manager {
	if base == nil {
		base = DefaultConfig()
	}
	return &Manager{
		base:  base.Clone(),
		opts:  opts,
		sync:  make(map[string]*SyncLogger),
		async: make(map[string]*AsyncLogger),
		mmap:  make(map[string]*MmapLogger),
	}
}

var globalManager = sync.OnceValue(func() *Manager {
	return NewManager(nil)
})

// Global returns the process-wide manager, created on first use
func Global() *Manager {
	return globalManager()
}

// configFor derives the configuration of logger name
func (m *Manager) configFor(name string, cfg *Config) *Config {
	if cfg == nil {
		cfg = m.base
	}
	c := cfg.Clone()
	c.Name = name
	return c
}

// existsLocked reports whether name is taken by any kind; assumes mu is held
func (m *Manager) existsLocked(name string) bool {
	_, s := m.sync[name]
	_, a := m.async[name]
	_, mm := m.mmap[name]
	return s || a || mm
}

// SyncLogger returns the sync logger called name, creating it from cfg
// (the manager's base configuration when nil) if it does not exist yet
func (m *Manager) SyncLogger(name string, cfg *Config) (*SyncLogger, error) {
	if l, ok := m.LookupSync(name); ok {
		return l, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.sync[name]; ok {
		return l, nil
	}
	if m.existsLocked(name) {
		return nil, fmtErrorf("logger '%s' already exists with another backend", name)
	}
	l, err := newSyncLogger(name, m.configFor(name, cfg), m.opts)
	if err != nil {
		return nil, err
	}
	m.sync[name] = l
	return l, nil
}

// AsyncLogger returns the async logger called name, creating it if needed
func (m *Manager) AsyncLogger(name string, cfg *Config) (*AsyncLogger, error) {
	if l, ok := m.LookupAsync(name); ok {
		return l, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.async[name]; ok {
		return l, nil
	}
	if m.existsLocked(name) {
		return nil, fmtErrorf("logger '%s' already exists with another backend", name)
	}
	l, err := newAsyncLogger(name, m.configFor(name, cfg), m.opts)
	if err != nil {
		return nil, err
	}
	m.async[name] = l
	return l, nil
}

// MmapLogger returns the mmap logger called name, creating it if needed
func (m *Manager) MmapLogger(name string, cfg *Config) (*MmapLogger, error) {
	if l, ok := m.LookupMmap(name); ok {
		return l, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.mmap[name]; ok {
		return l, nil
	}
	if m.existsLocked(name) {
		return nil, fmtErrorf("logger '%s' already exists with another backend", name)
	}
	l, err := newMmapLogger(name, m.configFor(name, cfg), m.opts)
	if err != nil {
		return nil, err
	}
	m.mmap[name] = l
	return l, nil
}

// DefaultLogger returns the sync logger named "default"
func (m *Manager) DefaultLogger() (*SyncLogger, error) {
	return m.SyncLogger(DefaultLoggerName, nil)
}

// LookupSync returns an existing sync logger
func (m *Manager) LookupSync(name string) (*SyncLogger, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.sync[name]
	return l, ok
}

// LookupAsync returns an existing async logger
func (m *Manager) LookupAsync(name string) (*AsyncLogger, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.async[name]
	return l, ok
}

// LookupMmap returns an existing mmap logger
func (m *Manager) LookupMmap(name string) (*MmapLogger, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.mmap[name]
	return l, ok
}

// Lookup returns the logger called name as a Sink, whatever its kind
func (m *Manager) Lookup(name string) (Sink, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.sync[name]; ok {
		return l, true
	}
	if l, ok := m.async[name]; ok {
		return l, true
	}
	if l, ok := m.mmap[name]; ok {
		return l, true
	}
	return nil, false
}

// Names returns the registered logger names in sorted order
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.sync)+len(m.async)+len(m.mmap))
	for name := range m.sync {
		names = append(names, name)
	}
	for name := range m.async {
		names = append(names, name)
	}
	for name := range m.mmap {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Remove shuts down and unregisters the logger called name, reporting
// whether it existed
func (m *Manager) Remove(name string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	s, okSync := m.sync[name]
	a, okAsync := m.async[name]
	mm, okMmap := m.mmap[name]
	delete(m.sync, name)
	delete(m.async, name)
	delete(m.mmap, name)
	m.mu.Unlock()

	switch {
	case okSync:
		return true, s.Shutdown()
	case okAsync:
		return true, a.Shutdown(timeout)
	case okMmap:
		return true, mm.Shutdown()
	}
	return false, nil
}

// FlushAll flushes every registered logger. Async loggers flush
// concurrently and are waited on until drained or until ctx ends; sync and
// mmap loggers flush on the calling goroutine. Every failure is reported.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.RLock()
	asyncLoggers := make([]*AsyncLogger, 0, len(m.async))
	for _, l := range m.async {
		asyncLoggers = append(asyncLoggers, l)
	}
	direct := make([]func() error, 0, len(m.sync)+len(m.mmap))
	for _, l := range m.sync {
		direct = append(direct, l.Flush)
	}
	for _, l := range m.mmap {
		direct = append(direct, l.Flush)
	}
	m.mu.RUnlock()

	var g errgroup.Group
	var mu sync.Mutex
	var errs error
	for _, l := range asyncLoggers {
		g.Go(func() error {
			if err := l.FlushAsync().WaitContext(ctx); err != nil {
				mu.Lock()
				errs = combineErrors(errs, fmtErrorf("failed to flush '%s': %w", l.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}

	var directErrs error
	for _, flush := range direct {
		directErrs = combineErrors(directErrs, flush())
	}
	_ = g.Wait()
	return combineErrors(errs, directErrs)
}

// ShutdownAll shuts down and unregisters every logger. Async loggers get
// at most timeout each to drain.
func (m *Manager) ShutdownAll(timeout time.Duration) error {
	m.mu.Lock()
	syncLoggers, asyncLoggers, mmapLoggers := m.sync, m.async, m.mmap
	m.sync = make(map[string]*SyncLogger)
	m.async = make(map[string]*AsyncLogger)
	m.mmap = make(map[string]*MmapLogger)
	m.mu.Unlock()

	var g errgroup.Group
	var mu sync.Mutex
	var errs error
	collect := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = combineErrors(errs, err)
		mu.Unlock()
	}

	for _, l := range asyncLoggers {
		g.Go(func() error { collect(l.Shutdown(timeout)); return nil })
	}
	for _, l := range syncLoggers {
		g.Go(func() error { collect(l.Shutdown()); return nil })
	}
	for _, l := range mmapLoggers {
		g.Go(func() error { collect(l.Shutdown()); return nil })
	}
	_ = g.Wait()
	return errs
}
