package asynclog

import (
	"strconv"
	"strings"
	"sync"
)

// Level is a log severity. Levels are totally ordered; LevelOff is only
// meaningful as a filter setting and never matches an emitted record.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "CRITICAL", "OFF"}

// String returns the upper-case level name
func (lv Level) String() string {
	if lv >= LevelTrace && lv <= LevelOff {
		return levelNames[lv]
	}
	return "LEVEL(" + strconv.Itoa(int(lv)) + ")"
}

// ParseLevel converts a level name, case-insensitive, to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	case "off", "none":
		return LevelOff, nil
	default:
		return LevelOff, fmtErrorf("invalid level string: '%s' (use trace, debug, info, warn, error, critical, off)", s)
	}
}

// ShouldEmit reports whether a record at level passes a filter set to minLevel
func ShouldEmit(level, minLevel Level) bool {
	return level != LevelOff && level >= minLevel
}

// LevelFilter is the minimum-level gate shared by every backend. Many
// emitters read it concurrently; writes are rare.
type LevelFilter struct {
	mu  sync.RWMutex
	min Level
}

// NewLevelFilter creates a filter at min
func NewLevelFilter(min Level) *LevelFilter {
	return &LevelFilter{min: min}
}

// Allows reports whether level passes the filter
func (f *LevelFilter) Allows(level Level) bool {
	f.mu.RLock()
	min := f.min
	f.mu.RUnlock()
	return ShouldEmit(level, min)
}

// Set changes the minimum level
func (f *LevelFilter) Set(min Level) {
	f.mu.Lock()
	f.min = min
	f.mu.Unlock()
}

// Level returns the minimum level
func (f *LevelFilter) Level() Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.min
}
