package compat

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/asynclog"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter implements fasthttp's Logger on top of an asynclog logger
type FastHTTPAdapter struct {
	logger        Logger
	defaultLevel  asynclog.Level
	levelDetector func(string) asynclog.Level // Function to detect log level from message
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  asynclog.LevelInfo,
		levelDetector: DetectLogLevel, // Default level detection
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection is disabled
func WithDefaultLevel(level asynclog.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect log level from message
// content; nil disables detection
func WithLevelDetector(detector func(string) asynclog.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := "[fasthttp] " + fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		level = a.levelDetector(msg)
	}

	switch level {
	case asynclog.LevelTrace:
		a.logger.Trace(msg)
	case asynclog.LevelDebug:
		a.logger.Debug(msg)
	case asynclog.LevelWarn:
		a.logger.Warn(msg)
	case asynclog.LevelError:
		a.logger.Error(msg)
	case asynclog.LevelCritical:
		a.logger.Critical(msg)
	default:
		a.logger.Info(msg)
	}
}

// DetectLogLevel attempts to detect log level from message content
func DetectLogLevel(msg string) asynclog.Level {
	msgLower := strings.ToLower(msg)

	// Check for error indicators
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return asynclog.LevelError
	}

	// Check for warning indicators
	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return asynclog.LevelWarn
	}

	// Check for debug indicators
	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return asynclog.LevelDebug
	}

	// Default to info level
	return asynclog.LevelInfo
}

// AccessLog wraps next and logs one line per request: method, path,
// status and duration. Server errors log at error level, client errors at
// warn level, everything else at info level.
func AccessLog(logger Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)

		status := ctx.Response.StatusCode()
		level := asynclog.LevelInfo
		switch {
		case status >= fasthttp.StatusInternalServerError:
			level = asynclog.LevelError
		case status >= fasthttp.StatusBadRequest:
			level = asynclog.LevelWarn
		}
		if !logger.ShouldLog(level) {
			return
		}

		msg := fmt.Sprintf("[fasthttp] %s %s status=%d duration_us=%d remote=%s",
			ctx.Method(), ctx.Path(), status, time.Since(start).Microseconds(), ctx.RemoteAddr())
		switch level {
		case asynclog.LevelError:
			logger.Error(msg)
		case asynclog.LevelWarn:
			logger.Warn(msg)
		default:
			logger.Info(msg)
		}
	}
}

// StatsHandler serves the logger's statistics snapshot as JSON
func StatsHandler(logger Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		data, err := logger.StatisticsJSON()
		if err != nil {
			ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBody(data)
	}
}
