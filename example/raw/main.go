package main

import (
	"fmt"
	"os"

	"github.com/lixenwraith/asynclog"
)

// TestPayload defines a struct for testing complex type serialization.
type TestPayload struct {
	RequestID uint64
	User      string
	Metrics   map[string]float64
}

func main() {
	fmt.Println("--- Logger Raw Format and Mmap Test ---")

	// --- 1. Define the records to be tested ---
	// Record 1: A byte slice with special characters (newline, tab, null).
	byteRecord := []byte("binary\ndata\twith\x00null")

	// Record 2: A struct containing a uint64, a string, and a map.
	structRecord := TestPayload{
		RequestID: 9223372036854775807, // A large uint64
		User:      "test_user",
		Metrics: map[string]float64{
			"latency_ms":  15.7,
			"cpu_percent": 88.2,
		},
	}

	// --- 2. Instance-wide raw output via format="raw" ---
	fmt.Println("\n[1] Testing raw output mirrored to stdout")
	cfg := asynclog.DefaultConfig()
	if err := cfg.ApplyOverride(
		"name=raw",
		"format=raw",
		"enable_console=true",
		"console_target=stdout",
	); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		return
	}
	rawLogger, err := asynclog.NewSyncLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return
	}
	rawLogger.Info("Byte Record ->", byteRecord)
	rawLogger.Info("Struct Record ->", structRecord)
	_ = rawLogger.Shutdown()

	// --- 3. Crash-resilient output through a memory-mapped region ---
	fmt.Println("\n[2] Testing mmap logger, every record carries its call site")
	mmapCfg := asynclog.DefaultConfig()
	mmapCfg.Name = "crash"
	mmapCfg.MmapSizeKB = 64
	mmapLogger, err := asynclog.NewMmapLogger(mmapCfg)
	if err != nil {
		// Mapping failures surface at construction
		fmt.Fprintf(os.Stderr, "Failed to map region: %v\n", err)
		return
	}
	mmapLogger.Info("Struct Record ->", structRecord)
	mmapLogger.Critical("About to exit")
	fmt.Printf("Mmap records are in %s\n", mmapLogger.Path())
	_ = mmapLogger.Shutdown()

	fmt.Println("\n--- Test Complete ---")
}
