package sink

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// RotatingOptions configures a RotatingFileSink
type RotatingOptions struct {
	MaxSize         int64        // Rotation threshold in bytes, 0 disables rotation
	MaxFiles        int          // Retained history files, 0 keeps none
	FlushEveryWrite bool         // Flush the write buffer after each record instead of batching
	SyncOnFlush     bool         // fsync the file on Flush
	BufferSize      int          // Write buffer size when batching, defaults to 32KB
	OnError         ErrorHandler // Receives rename/remove/reopen failures
}

// RotatingFileSink owns one log file, rotating it into numbered history
// once MaxSize is reached. It is meant to have a single writer at a time;
// the internal mutex only orders that writer against Flush and Close callers.
type RotatingFileSink struct {
	mu      sync.Mutex
	path    string
	opts    RotatingOptions
	file    *os.File
	w       *bufio.Writer
	size    int64
	closed  bool
	onError ErrorHandler

	available atomic.Bool
	rotations atomic.Uint64
	errors    atomic.Uint64
}

// NewRotatingFileSink opens (or creates) path for appending.
// Failure to open the file is returned to the caller.
func NewRotatingFileSink(path string, opts RotatingOptions) (*RotatingFileSink, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 32 * 1024
	}
	if opts.MaxFiles < 0 {
		opts.MaxFiles = 0
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}

	s := &RotatingFileSink{
		path:    path,
		opts:    opts,
		onError: reportOrDiscard(opts.OnError),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// open assumes mu is held or the sink is not yet shared
func (s *RotatingFileSink) open() error {
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.available.Store(false)
		return fmt.Errorf("failed to open log file '%s': %w", s.path, err)
	}

	s.file = file
	s.w = bufio.NewWriterSize(file, s.opts.BufferSize)
	s.size = 0
	if fi, errStat := file.Stat(); errStat == nil {
		s.size = fi.Size()
	}
	s.available.Store(true)
	return nil
}

// Write appends p, rotating first when p would push a non-empty file past
// MaxSize. Returns the file size after the write.
func (s *RotatingFileSink) Write(p []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.errors.Add(1)
		return s.size, ErrClosed
	}
	if !s.available.Load() {
		s.errors.Add(1)
		return s.size, ErrUnavailable
	}

	if s.opts.MaxSize > 0 && s.size > 0 && s.size+int64(len(p)) > s.opts.MaxSize {
		if err := s.rotate(); err != nil {
			s.errors.Add(1)
			return 0, err
		}
	}

	n, err := s.w.Write(p)
	s.size += int64(n)
	if err == nil && s.opts.FlushEveryWrite {
		err = s.w.Flush()
	}
	if err != nil {
		s.errors.Add(1)
		return s.size, fmt.Errorf("failed to write log file '%s': %w", s.path, err)
	}
	return s.size, nil
}

// Rotate forces a rotation regardless of size
func (s *RotatingFileSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.rotate()
}

// rotate assumes mu is held
func (s *RotatingFileSink) rotate() error {
	if s.file != nil {
		if err := s.w.Flush(); err != nil {
			s.onError(fmt.Errorf("failed to flush '%s' before rotation: %w", s.path, err))
		}
		if err := s.file.Close(); err != nil {
			s.onError(fmt.Errorf("failed to close '%s' before rotation: %w", s.path, err))
		}
		s.file = nil
	}

	shiftArchives(s.path, s.opts.MaxFiles, s.onError)

	if err := s.open(); err != nil {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		s.onError(err)
		return err
	}
	s.rotations.Add(1)
	return nil
}

// Flush pushes buffered records to the file and optionally fsyncs
func (s *RotatingFileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *RotatingFileSink) flush() error {
	if s.closed || s.file == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush log file '%s': %w", s.path, err)
	}
	if s.opts.SyncOnFlush {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file '%s': %w", s.path, err)
		}
	}
	return nil
}

// Close flushes, syncs and closes the file. Safe to call more than once.
func (s *RotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	var err error
	if s.file != nil {
		if ferr := s.w.Flush(); ferr != nil {
			err = fmt.Errorf("failed to flush log file '%s' during close: %w", s.path, ferr)
		}
		if serr := s.file.Sync(); serr != nil && err == nil {
			err = fmt.Errorf("failed to sync log file '%s' during close: %w", s.path, serr)
		}
		if cerr := s.file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close log file '%s': %w", s.path, cerr)
		}
		s.file = nil
	}
	s.closed = true
	s.available.Store(false)
	return err
}

// Path returns the live file path
func (s *RotatingFileSink) Path() string { return s.path }

// Size returns the current file size including buffered bytes
func (s *RotatingFileSink) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Available reports whether the sink still has an open file
func (s *RotatingFileSink) Available() bool { return s.available.Load() }

// Rotations returns the number of completed rotations
func (s *RotatingFileSink) Rotations() uint64 { return s.rotations.Load() }

// Errors returns the number of failed or dropped writes
func (s *RotatingFileSink) Errors() uint64 { return s.errors.Load() }
