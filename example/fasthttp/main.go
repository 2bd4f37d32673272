package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/asynclog"
	"github.com/lixenwraith/asynclog/compat"
)

func main() {
	// Create and configure logger
	cfg := asynclog.DefaultConfig()
	err := cfg.ApplyOverride(
		"directory=/var/log/fasthttp",
		"name=server",
		"level=debug",
		"format=txt",
		"queue_capacity=16384",
		"workers=2",
	)
	if err != nil {
		panic(err)
	}
	logger, err := asynclog.NewAsyncLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Shutdown(2 * time.Second)

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		logger,
		compat.WithDefaultLevel(asynclog.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	stats := compat.StatsHandler(logger)
	router := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/stats":
			stats(ctx)
		default:
			requestHandler(ctx)
		}
	}

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: compat.AccessLog(logger, router),
		Logger:  fasthttpAdapter,

		// Other server settings
		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	// Start server
	fmt.Println("Starting server on :8080, statistics at /stats")
	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) asynclog.Level {
	// Custom logic to detect log levels
	// Can inspect specific fasthttp message patterns

	if strings.Contains(msg, "connection cannot be served") {
		return asynclog.LevelWarn
	}
	if strings.Contains(msg, "error when serving connection") {
		return asynclog.LevelError
	}

	// Use default detection
	return compat.DetectLogLevel(msg)
}
