package sink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// MmapOptions configures a MmapRingSink
type MmapOptions struct {
	Size     int64        // Region size in bytes, rounded up to a page multiple
	MaxFiles int          // Retained history files, 0 keeps none
	OnError  ErrorHandler // Receives non-fatal rotation failures
}

// MmapRingSink writes records into a fixed-size shared mapping of a backing
// file. When the region fills up it is synced, trimmed to its used length,
// rotated into numbered history and replaced by a fresh mapping. Records
// already copied into the region survive a process crash.
type MmapRingSink struct {
	mu       sync.Mutex
	path     string
	opts     MmapOptions
	capacity int
	file     *os.File
	data     []byte
	offset   int
	closed   bool
	onError  ErrorHandler

	rotations atomic.Uint64
	errors    atomic.Uint64
}

// NewMmapRingSink maps path, creating it if needed. An existing backing file
// is resumed after its last non-zero byte; one larger than the region is
// first moved into history. Every failure wraps ErrMapping.
func NewMmapRingSink(path string, opts MmapOptions) (*MmapRingSink, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: region size must be positive, got %d", ErrMapping, opts.Size)
	}
	if opts.MaxFiles < 0 {
		opts.MaxFiles = 0
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory for '%s': %v", ErrMapping, path, err)
	}

	s := &MmapRingSink{
		path:     path,
		opts:     opts,
		capacity: alignToPage(opts.Size),
		onError:  reportOrDiscard(opts.OnError),
	}
	if err := s.archiveOversized(); err != nil {
		return nil, err
	}
	if err := s.mapBacking(); err != nil {
		return nil, err
	}

	// Resume after existing content; records may contain NUL bytes
	s.offset = len(bytes.TrimRight(s.data, "\x00"))
	return s, nil
}

// archiveOversized moves an existing file that does not fit the region into
// history so sizing the mapping never truncates it
func (s *MmapRingSink) archiveOversized() error {
	fi, err := os.Stat(s.path)
	if err != nil || !fi.Mode().IsRegular() || fi.Size() <= int64(s.capacity) {
		return nil
	}
	if s.opts.MaxFiles == 0 {
		return fmt.Errorf("%w: existing '%s' holds %d bytes, more than the %d byte region, and no history is kept",
			ErrMapping, s.path, fi.Size(), s.capacity)
	}

	shiftArchives(s.path, s.opts.MaxFiles, s.onError)
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("%w: failed to move oversized '%s' into history", ErrMapping, s.path)
	}
	return nil
}

// mapBacking opens, sizes and maps the backing file; assumes mu is held or the sink is unshared
func (s *MmapRingSink) mapBacking() error {
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to open backing file '%s': %v", ErrMapping, s.path, err)
	}
	if err := file.Truncate(int64(s.capacity)); err != nil {
		file.Close()
		return fmt.Errorf("%w: failed to size backing file '%s' to %d bytes: %v", ErrMapping, s.path, s.capacity, err)
	}
	data, err := mapFile(file, s.capacity)
	if err != nil {
		file.Close()
		return fmt.Errorf("%w: failed to map '%s': %v", ErrMapping, s.path, err)
	}

	s.file = file
	s.data = data
	s.offset = 0
	return nil
}

// Write copies p into the region at the current offset, rotating first when
// the record would reach the end of the region. Records longer than the
// region are truncated to fit.
func (s *MmapRingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.errors.Add(1)
		return 0, ErrClosed
	}
	if s.data == nil {
		s.errors.Add(1)
		return 0, ErrUnavailable
	}

	if s.offset+len(p) >= s.capacity {
		if err := s.rotate(); err != nil {
			s.errors.Add(1)
			return 0, err
		}
		if len(p) >= s.capacity {
			p = p[:s.capacity-1]
		}
	}

	n := copy(s.data[s.offset:], p)
	s.offset += n
	return n, nil
}

// Rotate forces a rotation of the backing file
func (s *MmapRingSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.rotate()
}

// rotate assumes mu is held
func (s *MmapRingSink) rotate() error {
	if err := s.release(); err != nil {
		s.onError(err)
	}

	shiftArchives(s.path, s.opts.MaxFiles, s.onError)

	if err := s.mapBacking(); err != nil {
		s.onError(err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.rotations.Add(1)
	return nil
}

// release syncs and unmaps the region, trims the file to its used length and closes it
func (s *MmapRingSink) release() error {
	if s.data == nil {
		return nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(syncMap(s.data[:s.offset]))
	keep(unmap(s.data))
	s.data = nil
	if s.file != nil {
		keep(s.file.Truncate(int64(s.offset)))
		keep(s.file.Close())
		s.file = nil
	}
	if firstErr != nil {
		return fmt.Errorf("failed to release mapping of '%s': %w", s.path, firstErr)
	}
	return nil
}

// Flush syncs the written part of the region to the backing file
func (s *MmapRingSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.data == nil || s.offset == 0 {
		return nil
	}
	if err := syncMap(s.data[:s.offset]); err != nil {
		return fmt.Errorf("failed to sync mapping of '%s': %w", s.path, err)
	}
	return nil
}

// Close flushes before unmapping. Safe to call more than once.
func (s *MmapRingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.release()
}

// Path returns the backing file path
func (s *MmapRingSink) Path() string { return s.path }

// Capacity returns the page-aligned region size
func (s *MmapRingSink) Capacity() int { return s.capacity }

// Offset returns the current write offset in the region
func (s *MmapRingSink) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Rotations returns the number of completed rotations
func (s *MmapRingSink) Rotations() uint64 { return s.rotations.Load() }

// Errors returns the number of failed writes
func (s *MmapRingSink) Errors() uint64 { return s.errors.Load() }

func alignToPage(size int64) int {
	page := int64(pageSize())
	return int((size + page - 1) / page * page)
}
