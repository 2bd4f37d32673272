package asynclog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/asynclog/formatter"
)

// Default package-level functions that delegate to the global manager's
// default sync logger, created on first use

// Default returns the global default logger
func Default() (*SyncLogger, error) {
	return Global().DefaultLogger()
}

// logDefault must be called directly by the exported function so the
// captured call site is the user's
func logDefault(level Level, msg func() string) {
	l, err := Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "asynclog: default logger unavailable: %v\n", err)
		return
	}
	if !l.filter.Allows(level) {
		return
	}
	l.emit(level, msg(), l.callSite())
}

// Trace logs a message at trace level
func Trace(args ...any) {
	logDefault(LevelTrace, func() string { return formatter.FormatArgs(args...) })
}

// Debug logs a message at debug level
func Debug(args ...any) {
	logDefault(LevelDebug, func() string { return formatter.FormatArgs(args...) })
}

// Info logs a message at info level
func Info(args ...any) {
	logDefault(LevelInfo, func() string { return formatter.FormatArgs(args...) })
}

// Warn logs a message at warning level
func Warn(args ...any) {
	logDefault(LevelWarn, func() string { return formatter.FormatArgs(args...) })
}

// Error logs a message at error level
func Error(args ...any) {
	logDefault(LevelError, func() string { return formatter.FormatArgs(args...) })
}

// Critical logs a message at critical level
func Critical(args ...any) {
	logDefault(LevelCritical, func() string { return formatter.FormatArgs(args...) })
}

// Infof logs a formatted message at info level
func Infof(format string, args ...any) {
	logDefault(LevelInfo, func() string { return fmt.Sprintf(format, args...) })
}

// Warnf logs a formatted message at warning level
func Warnf(format string, args ...any) {
	logDefault(LevelWarn, func() string { return fmt.Sprintf(format, args...) })
}

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) {
	logDefault(LevelError, func() string { return fmt.Sprintf(format, args...) })
}

// SetLevel changes the default logger's minimum level
func SetLevel(level Level) error {
	l, err := Default()
	if err != nil {
		return err
	}
	l.SetLevel(level)
	return nil
}

// Flush flushes every logger of the global manager, waiting at most timeout
func Flush(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return Global().FlushAll(ctx)
}

// Shutdown shuts down every logger of the global manager
func Shutdown(timeout time.Duration) error {
	return Global().ShutdownAll(timeout)
}
