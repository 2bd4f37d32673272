package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lixenwraith/asynclog"
)

const maxMessageSize = 2000

var levels = []asynclog.Level{
	asynclog.LevelDebug,
	asynclog.LevelInfo,
	asynclog.LevelWarn,
	asynclog.LevelError,
	asynclog.LevelCritical,
}

var logger *asynclog.AsyncLogger

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.Intn(len(chars))])
	}
	return sb.String()
}

// logBurst simulates a burst of logging activity
func logBurst(burstID, logsPerBurst, producers int) {
	for i := 0; i < logsPerBurst; i++ {
		level := levels[rand.Intn(len(levels))]
		msg := generateRandomMessage(rand.Intn(maxMessageSize) + 10)
		logger.Log(level, fmt.Sprintf("wkr=%d bst=%d seq=%d %s", burstID%producers, burstID, i, msg), nil)
	}
}

// producer goroutine function
func producer(burstChan chan int, wg *sync.WaitGroup, completedBursts *atomic.Int64, totalBursts, logsPerBurst, producers int) {
	defer wg.Done()
	for burstID := range burstChan {
		logBurst(burstID, logsPerBurst, producers)
		completed := completedBursts.Add(1)
		if completed%10 == 0 || completed == int64(totalBursts) {
			fmt.Printf("\rProgress: %d/%d bursts completed", completed, totalBursts)
		}
	}
}

func main() {
	totalBursts := flag.Int("bursts", 100, "number of bursts")
	logsPerBurst := flag.Int("per-burst", 500, "records per burst")
	producers := flag.Int("producers", 64, "concurrent producer goroutines")
	workers := flag.Int64("workers", 2, "async worker goroutines")
	capacity := flag.Int64("capacity", 4096, "queue capacity")
	dir := flag.String("dir", "./logs", "log directory")
	flag.Parse()

	fmt.Println("--- Logger Stress Test ---")
	_ = os.RemoveAll(*dir) // Clean previous run's logs before starting

	var err error
	logger, err = asynclog.NewBuilder().
		Name("stress_test").
		Directory(*dir).
		LevelString("debug").
		MaxSizeMB(1). // Force frequent rotation
		MaxFiles(10).
		QueueCapacity(*capacity).
		Workers(*workers).
		AutoFlushIntervalMs(50).
		HeartbeatIntervalS(1).
		BuildAsync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logger initialized. Logs will be written to: %s\n", logger.Path())

	fmt.Printf("Starting stress test: %d producers, %d bursts, %d logs/burst.\n",
		*producers, *totalBursts, *logsPerBurst)
	fmt.Println("Non-critical records beyond queue capacity are dropped and counted.")
	fmt.Println("Press Ctrl+C to stop early.")

	// --- Setup Producers and Signal Handling ---
	burstChan := make(chan int, *producers)
	var wg sync.WaitGroup
	completedBursts := atomic.Int64{}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopChan := make(chan struct{})

	go func() {
		<-sigChan
		fmt.Println("\n[Signal Received] Stopping burst generation...")
		close(stopChan)
	}()

	for i := 0; i < *producers; i++ {
		wg.Add(1)
		go producer(burstChan, &wg, &completedBursts, *totalBursts, *logsPerBurst, *producers)
	}

	// --- Run Test ---
	startTime := time.Now()
submit:
	for i := 1; i <= *totalBursts; i++ {
		select {
		case burstChan <- i:
		case <-stopChan:
			fmt.Println("[Signal Received] Halting burst submission.")
			break submit
		}
	}
	close(burstChan)

	fmt.Println("\nWaiting for producers to finish...")
	wg.Wait()
	duration := time.Since(startTime)
	finalCompleted := completedBursts.Load()

	fmt.Printf("\n--- Test Finished ---")
	fmt.Printf("\nCompleted %d/%d bursts in %v\n", finalCompleted, *totalBursts, duration.Round(time.Millisecond))
	if finalCompleted > 0 && duration.Seconds() > 0 {
		logsPerSec := float64(finalCompleted*int64(*logsPerBurst)) / duration.Seconds()
		fmt.Printf("Approximate submissions/sec: %.2f\n", logsPerSec)
	}

	if logger.WaitForCompletion(10 * time.Second) {
		fmt.Println("Queue drained.")
	} else {
		fmt.Printf("Queue still holds %d records.\n", logger.QueueLen())
	}
	if stats, err := logger.StatisticsJSON(); err == nil {
		fmt.Printf("Statistics: %s\n", stats)
	}

	// --- Shutdown Logger ---
	fmt.Println("Shutting down logger (allowing up to 10s)...")
	if err := logger.Shutdown(10 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	} else {
		fmt.Println("Logger shutdown complete.")
	}

	fmt.Printf("Check log files in '%s'.\n", *dir)
}
