package compat

import (
	"fmt"
	"time"

	"github.com/lixenwraith/asynclog"
)

// Logger is the part of an asynclog logger the adapters use. SyncLogger,
// AsyncLogger and MmapLogger all satisfy it.
type Logger interface {
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Critical(args ...any)
	ShouldLog(level asynclog.Level) bool
	Flush() error
	StatisticsJSON() ([]byte, error)
}

var (
	_ Logger = (*asynclog.SyncLogger)(nil)
	_ Logger = (*asynclog.AsyncLogger)(nil)
	_ Logger = (*asynclog.MmapLogger)(nil)
)

// Builder provides a flexible way to create configured logger adapters for gnet and fasthttp
// It can use an existing logger or create a new async logger from an *asynclog.Config
type Builder struct {
	logger Logger
	owned  *asynclog.AsyncLogger
	logCfg *asynclog.Config
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters
// Recommended for applications that already have a central logger instance
// If this is set WithConfig is ignored
func (b *Builder) WithLogger(l Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("asynclog/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a new async logger
// This is used only if an existing logger is NOT provided via WithLogger
// If neither WithLogger nor WithConfig is used, a default async logger will be created
func (b *Builder) WithConfig(cfg *asynclog.Config) *Builder {
	b.logCfg = cfg
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	// An existing logger was provided, so we use it
	if b.logger != nil {
		return b.logger, nil
	}

	// Network servers log from many goroutines; never block them on disk
	l, err := asynclog.NewAsyncLogger(b.logCfg)
	if err != nil {
		return nil, err
	}

	// Cache the newly created logger for subsequent builds with this builder
	b.logger = l
	b.owned = l
	return l, nil
}

// BuildGnet creates a gnet adapter
// It can be used for servers that require a standard gnet logger
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the underlying logger
// If a logger has not been provided or created yet, it will be initialized
func (b *Builder) GetLogger() (Logger, error) {
	return b.getLogger()
}

// Close shuts down the logger if the builder created it. A logger passed
// with WithLogger is left to its owner.
func (b *Builder) Close(timeout time.Duration) error {
	if b.owned == nil {
		return nil
	}
	return b.owned.Shutdown(timeout)
}

// --- Example Usage ---
//
// The following demonstrates how to integrate asynclog with gnet and fasthttp
// using a single, shared logger instance
//
//	// 1. Create and configure application's main logger
//	appLogger, err := asynclog.NewBuilder().
//		Directory("/var/log/app").
//		LevelString("debug").
//		BuildAsync()
//	if err != nil {
//		panic(fmt.Sprintf("failed to configure logger: %v", err))
//	}
//	defer appLogger.Shutdown(2 * time.Second)
//
//	// 2. Create a builder and provide the existing logger
//	builder := compat.NewBuilder().WithLogger(appLogger)
//
//	// 3. Build the required adapters
//	gnetLogger, err := builder.BuildGnet()
//	if err != nil { /* handle error */ }
//
//	fasthttpLogger, err := builder.BuildFastHTTP()
//	if err != nil { /* handle error */ }
//
//	// 4. Configure your servers with the adapters
//
//	// For gnet:
//	var events gnet.EventHandler // your-event-handler
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	// For fasthttp:
//	server := &fasthttp.Server{
//		Handler: compat.AccessLog(appLogger, func(ctx *fasthttp.RequestCtx) {
//			ctx.WriteString("Hello, world!")
//		}),
//		Logger: fasthttpLogger,
//	}
//	go server.ListenAndServe(":8080")
