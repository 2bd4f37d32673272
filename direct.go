package asynclog

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/asynclog/sink"
)

// directLogger writes, formats and fans out on the caller's goroutine.
// SyncLogger and MmapLogger differ only in their backend.
type directLogger struct {
	*core
	write        func(p []byte) error
	flushBackend func() error
	closeBackend func() error
	closed       atomic.Bool
}

func (d *directLogger) init(self Sink) {
	d.self = self
	d.deliver = d.deliverRecord
	d.flush = d.Flush
	d.timers.start()
}

// deliverRecord writes rec without consulting the level filter
func (d *directLogger) deliverRecord(rec Record) error {
	if d.closed.Load() {
		return ErrShuttingDown
	}
	start := time.Now()
	data := d.render(rec)
	if err := d.write(data); err != nil {
		d.writeFailed(err)
		return err
	}
	d.stats.recordProcessed(time.Since(start))
	d.afterWrite(rec, data)
	return nil
}

// Log writes a record with an explicit level and optional call site
func (d *directLogger) Log(level Level, msg string, loc *SourceLocation) error {
	if !d.filter.Allows(level) {
		return nil
	}
	if loc == nil && d.withSource {
		loc = callerLocation(1)
	}
	return d.deliver(d.newRecord(level, msg, loc))
}

// Submit writes a record handed over by another logger
func (d *directLogger) Submit(rec Record) error {
	if !d.filter.Allows(rec.Level) {
		return nil
	}
	return d.deliver(rec)
}

// Flush pushes buffered records to the backend file
func (d *directLogger) Flush() error {
	if d.closed.Load() {
		return nil
	}
	err := d.flushBackend()
	d.stats.recordFlush()
	return err
}

// Shutdown stops the timers and closes the backend. Safe to call multiple times.
func (d *directLogger) Shutdown() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.stopCommon()
	return d.closeBackend()
}

// Closed reports whether Shutdown was called
func (d *directLogger) Closed() bool {
	return d.closed.Load()
}

// SyncLogger writes each record to a rotating file before the log call returns
type SyncLogger struct {
	*directLogger
	backend *sink.RotatingFileSink
}

// NewSyncLogger opens the file backend described by cfg. A nil cfg uses DefaultConfig.
func NewSyncLogger(cfg *Config, opts ...Option) (*SyncLogger, error) {
	return newSyncLogger("", cfg, opts)
}

func newSyncLogger(name string, cfg *Config, opts []Option) (*SyncLogger, error) {
	c, err := newCore(name, cfg, opts)
	if err != nil {
		return nil, err
	}
	backend, err := openFileBackend(c.getConfig(), c.diag)
	if err != nil {
		c.stopCommon()
		return nil, err
	}

	l := &SyncLogger{
		directLogger: &directLogger{
			core: c,
			write: func(p []byte) error {
				_, err := backend.Write(p)
				return err
			},
			flushBackend: backend.Flush,
			closeBackend: backend.Close,
		},
		backend: backend,
	}
	l.init(l)
	return l, nil
}

// Rotate forces a rotation of the log file
func (l *SyncLogger) Rotate() error {
	return l.backend.Rotate()
}

// Path returns the live log file path
func (l *SyncLogger) Path() string {
	return l.backend.Path()
}

// Available reports whether the file backend can still accept writes
func (l *SyncLogger) Available() bool {
	return l.backend.Available()
}

// MmapLogger writes each record into a memory-mapped ring region. Records
// reach the page cache as soon as the call returns and survive a process
// crash. Every record carries its call site.
type MmapLogger struct {
	*directLogger
	backend *sink.MmapRingSink
}

// NewMmapLogger maps the region described by cfg. Mapping failures wrap ErrMappingFailure.
func NewMmapLogger(cfg *Config, opts ...Option) (*MmapLogger, error) {
	return newMmapLogger("", cfg, opts)
}

func newMmapLogger(name string, cfg *Config, opts []Option) (*MmapLogger, error) {
	c, err := newCore(name, cfg, opts)
	if err != nil {
		return nil, err
	}
	c.withSource = true

	backend, err := openMmapBackend(c.getConfig(), c.diag)
	if err != nil {
		c.stopCommon()
		return nil, err
	}

	l := &MmapLogger{
		directLogger: &directLogger{
			core: c,
			write: func(p []byte) error {
				_, err := backend.Write(p)
				return err
			},
			flushBackend: backend.Flush,
			closeBackend: backend.Close,
		},
		backend: backend,
	}
	l.init(l)
	return l, nil
}

// Rotate forces a rotation of the backing file
func (l *MmapLogger) Rotate() error {
	return l.backend.Rotate()
}

// Path returns the backing file path
func (l *MmapLogger) Path() string {
	return l.backend.Path()
}
