package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/asynclog"
)

func main() {
	// Test cycle: disabled -> 1s -> 2s -> disabled
	phases := []struct {
		interval    int
		description string
	}{
		{0, "Heartbeats disabled"},
		{1, "Heartbeat every second"},
		{2, "Heartbeat every two seconds"},
		{0, "Heartbeats disabled (final)"},
	}

	cfg := asynclog.DefaultConfig()
	cfg.Name = "heartbeat"
	cfg.Level = "warn" // Heartbeats bypass the level filter
	logger, err := asynclog.NewAsyncLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	for _, phase := range phases {
		// Reconfigure the running logger in place
		if err := logger.ApplyConfigString(fmt.Sprintf("heartbeat_interval_s=%d", phase.interval)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reconfigure logger: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n--- Testing heartbeat interval %ds: %s ---\n", phase.interval, phase.description)
		logger.Warnf("Heartbeat phase started: %s", phase.description)

		// Generate some logs to move the heartbeat counters
		for j := 0; j < 10; j++ {
			logger.Info("Filtered info log", "iteration", j)
			logger.Warn("Warning test log", "iteration", j)
			logger.Error("Error test log", "iteration", j)
			time.Sleep(100 * time.Millisecond)
		}

		waitTime := 3 * time.Second
		fmt.Printf("Waiting %v for heartbeats to generate...\n", waitTime)
		time.Sleep(waitTime)
	}

	// Final shutdown
	if err := logger.Shutdown(2 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to shut down logger: %v\n", err)
	}

	fmt.Println("\nHeartbeat test program completed successfully")
	fmt.Printf("Check %s for heartbeat records\n", logger.Path())
}
