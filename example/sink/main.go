package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/asynclog"
)

const logDirectory = "./temp_logs"

// main chains loggers: everything goes to "app", errors are copied to
// "errors" and critical records to the crash-resilient "crash" region.
func main() {
	// Ensure a clean state by removing the previous log directory.
	if err := os.RemoveAll(logDirectory); err != nil {
		fmt.Printf("Warning: could not remove old log directory: %v\n", err)
	}

	base := asynclog.DefaultConfig()
	base.Directory = logDirectory
	base.Level = "debug"
	manager := asynclog.NewManager(base)

	app, err := manager.AsyncLogger("app", nil)
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	errCfg := base.Clone()
	errCfg.Level = "error"
	errCfg.EnableConsole = true
	errLogger, err := manager.SyncLogger("errors", errCfg)
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	crashCfg := base.Clone()
	crashCfg.Level = "critical"
	crash, err := manager.MmapLogger("crash", crashCfg)
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	// Each sink applies its own level filter
	for _, s := range []asynclog.Sink{errLogger, crash} {
		if err := app.RegisterSink(s); err != nil {
			fmt.Printf("Fatal: %v\n", err)
			os.Exit(1)
		}
	}
	if err := app.RegisterSink(app); err != nil {
		fmt.Printf("Self registration rejected: %v\n", err)
	}

	fmt.Println("--- Logging through the chain ---")
	app.Debug("debug only reaches app")
	app.Info("info only reaches app")
	app.Error("error reaches app and errors")
	app.Critical("critical reaches every logger")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := manager.FlushAll(ctx); err != nil {
		fmt.Printf("Flush error: %v\n", err)
	}
	if err := manager.ShutdownAll(2 * time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}

	for _, name := range []string{"app", "errors", "crash"} {
		fmt.Printf("Check %s/%s.log\n", logDirectory, name)
	}
}
