package asynclog

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/asynclog/formatter"
)

// Sink receives records fanned out from a logger. Every logger in this
// package is a Sink, so loggers can be chained.
type Sink interface {
	// Name identifies the sink
	Name() string
	// Submit hands over a record; the sink applies its own level filter
	Submit(rec Record) error
	// Flush pushes buffered records to durable storage
	Flush() error
}

// SystemLog is a platform system log such as syslog
type SystemLog interface {
	Emit(level Level, text string) error
	Close() error
}

// Logger instance methods for logging at different levels.

// Trace logs a message at trace level.
func (c *core) Trace(args ...any) { c.logArgs(LevelTrace, args) }

// Debug logs a message at debug level.
func (c *core) Debug(args ...any) { c.logArgs(LevelDebug, args) }

// Info logs a message at info level.
func (c *core) Info(args ...any) { c.logArgs(LevelInfo, args) }

// Warn logs a message at warning level.
func (c *core) Warn(args ...any) { c.logArgs(LevelWarn, args) }

// Error logs a message at error level.
func (c *core) Error(args ...any) { c.logArgs(LevelError, args) }

// Critical logs a message at critical level. Critical records are never
// dropped for lack of queue capacity.
func (c *core) Critical(args ...any) { c.logArgs(LevelCritical, args) }

// Tracef logs a formatted message at trace level.
func (c *core) Tracef(format string, args ...any) { c.logf(LevelTrace, format, args) }

// Debugf logs a formatted message at debug level.
func (c *core) Debugf(format string, args ...any) { c.logf(LevelDebug, format, args) }

// Infof logs a formatted message at info level.
func (c *core) Infof(format string, args ...any) { c.logf(LevelInfo, format, args) }

// Warnf logs a formatted message at warning level.
func (c *core) Warnf(format string, args ...any) { c.logf(LevelWarn, format, args) }

// Errorf logs a formatted message at error level.
func (c *core) Errorf(format string, args ...any) { c.logf(LevelError, format, args) }

// Criticalf logs a formatted message at critical level.
func (c *core) Criticalf(format string, args ...any) { c.logf(LevelCritical, format, args) }

// logArgs joins args into a message; the filter runs before any formatting
func (c *core) logArgs(level Level, args []any) {
	if !c.filter.Allows(level) {
		return
	}
	c.emit(level, formatter.FormatArgs(args...), c.callSite())
}

func (c *core) logf(level Level, format string, args []any) {
	if !c.filter.Allows(level) {
		return
	}
	c.emit(level, fmt.Sprintf(format, args...), c.callSite())
}

// callSite captures the user's call site when enabled. Depth is fixed:
// user -> Info -> logArgs -> callSite.
func (c *core) callSite() *SourceLocation {
	if !c.withSource && !c.captureSource.Load() {
		return nil
	}
	return callerLocation(3)
}

func (c *core) emit(level Level, msg string, loc *SourceLocation) {
	if err := c.deliver(c.newRecord(level, msg, loc)); err != nil && !errors.Is(err, ErrQueueFull) {
		c.diag.internalLog("logger '%s': %v", c.name, err)
	}
}
