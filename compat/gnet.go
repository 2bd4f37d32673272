package compat

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter implements gnet's logging.Logger on top of an asynclog logger
type GnetAdapter struct {
	logger       Logger
	tag          string
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		tag:    "gnet",
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetTag changes the prefix marking records from gnet
func WithGnetTag(tag string) GnetOption {
	return func(a *GnetAdapter) {
		a.tag = tag
	}
}

func (a *GnetAdapter) message(format string, args []any) string {
	msg := fmt.Sprintf(format, args...)
	if a.tag == "" {
		return msg
	}
	return "[" + a.tag + "] " + msg
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(a.message(format, args))
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.Info(a.message(format, args))
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.Warn(a.message(format, args))
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.Error(a.message(format, args))
}

// Fatalf logs at critical level, which is never dropped, flushes and
// triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := a.message(format, args)
	a.logger.Critical(msg)

	// Ensure log is flushed before exit
	_ = a.logger.Flush()

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
