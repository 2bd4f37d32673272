package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lixenwraith/asynclog"
)

const configFile = "simple_config.toml"

// Example TOML content, read from the [log] table
var tomlContent = `
# Example simple_config.toml
[log]
  level = "debug"
  name = "simple"
  directory = "./simple_logs"
  format = "txt"
  extension = "log"
  thread_name = "main"
  capture_source = true
  auto_flush_interval_ms = 100
  enable_console = true
  console_target = "stdout"
`

func main() {
	fmt.Println("--- Simple Logger Example ---")

	// --- Setup Config ---
	if err := os.WriteFile(configFile, []byte(tomlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write dummy config: %v\n", err)
	} else {
		fmt.Printf("Created dummy config file: %s\n", configFile)
	}

	cfg, err := asynclog.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v. Using defaults.\n", err)
		cfg = asynclog.DefaultConfig()
	}

	// --- Initialize Logger ---
	logger, err := asynclog.NewSyncLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logger initialized, writing to %s\n", logger.Path())

	// --- Logging ---
	logger.Debug("This is a debug message.", "user_id", 123)
	logger.Info("Application starting...")
	logger.Warn("Potential issue detected.", "threshold", 0.95)
	logger.Error("An error occurred!", "code", 500)
	_ = logger.Log(asynclog.LevelCritical, "Explicit call site",
		&asynclog.SourceLocation{File: "main.go", Line: 1, Function: "main"})

	// Logging from goroutines
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Infof("Goroutine %d started", id)
			time.Sleep(time.Duration(50+id*50) * time.Millisecond)
			logger.Infof("Goroutine %d finished", id)
		}(i)
	}

	// Wait for goroutines to finish before shutting down logger
	wg.Wait()
	fmt.Println("Goroutines finished.")

	if stats, err := logger.StatisticsJSON(); err == nil {
		fmt.Printf("Statistics: %s\n", stats)
	}

	// --- Shutdown Logger ---
	fmt.Println("Shutting down logger...")
	if err := logger.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	} else {
		fmt.Println("Logger shutdown complete.")
	}

	fmt.Println("--- Example Finished ---")
	fmt.Printf("Check log files in '%s' and the config '%s'.\n", cfg.Directory, configFile)
}
