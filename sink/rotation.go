// Package sink implements the byte-level log backends: a size-rotated file
// and a memory-mapped ring region. Both rotate into numbered history files
// named <stem>.<index><ext>, index 1 being the most recent.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnavailable is returned by writes to a sink that lost its file
	ErrUnavailable = errors.New("sink unavailable")
	// ErrMapping wraps every failure to establish a memory mapping
	ErrMapping = errors.New("memory mapping failed")
	// ErrClosed is returned by operations on a closed sink
	ErrClosed = errors.New("sink closed")
)

// ErrorHandler receives non-fatal failures, typically a stderr reporter
type ErrorHandler func(err error)

// ArchiveName returns the numbered history path for index, e.g. logs/app.log -> logs/app.2.log
func ArchiveName(path string, index int) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s.%d%s", stem, index, ext)
}

// shiftArchives moves path into slot 1 after aging the existing history.
// The oldest slot is removed, slots N-1..1 move to N..2 from the highest
// index down so no rename overwrites a file still to be moved. Every failure
// is reported and the remaining steps still run.
func shiftArchives(path string, maxFiles int, report ErrorHandler) {
	if maxFiles <= 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			report(fmt.Errorf("failed to discard log file '%s': %w", path, err))
		}
		return
	}

	oldest := ArchiveName(path, maxFiles)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		report(fmt.Errorf("failed to remove oldest log file '%s': %w", oldest, err))
	}

	for i := maxFiles - 1; i >= 1; i-- {
		src := ArchiveName(path, i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := ArchiveName(path, i+1)
		if err := os.Rename(src, dst); err != nil {
			report(fmt.Errorf("failed to rename '%s' to '%s': %w", src, dst, err))
		}
	}

	dst := ArchiveName(path, 1)
	if err := os.Rename(path, dst); err != nil && !os.IsNotExist(err) {
		report(fmt.Errorf("failed to rename '%s' to '%s': %w", path, dst, err))
	}
}

func reportOrDiscard(h ErrorHandler) ErrorHandler {
	if h != nil {
		return h
	}
	return func(error) {}
}
