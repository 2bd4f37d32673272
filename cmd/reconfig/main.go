package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/asynclog"
)

// Simulate rapid reconfiguration of a logger under load
func main() {
	var count atomic.Int64

	logger, err := asynclog.Global().AsyncLogger("reconfig", nil)
	if err != nil {
		fmt.Printf("Initial logger error: %v\n", err)
		return
	}

	// Log something constantly
	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			logger.Info("Test log", i)
			asynclog.Info("Default logger log", i)
			count.Add(1)
			time.Sleep(time.Millisecond)
		}
	}()

	// Trigger multiple reconfigurations rapidly
	patterns := []string{"[{0}][{1}] {3}", "{1} {3}", "[{0}][{1}][{2}] {3}"}
	for i := 0; i < 10; i++ {
		err := logger.ApplyConfigString(
			fmt.Sprintf("queue_capacity=%d", 100*(i+1)),
			"pattern="+patterns[i%len(patterns)],
			fmt.Sprintf("thread_name=phase-%d", i),
		)
		if err != nil {
			fmt.Printf("Reconfigure error: %v\n", err)
		}
		// Minimal delay between reconfigurations
		time.Sleep(10 * time.Millisecond)
	}

	// Backend keys cannot change on a running logger
	if err := logger.ApplyConfigString("directory=/elsewhere"); err != nil {
		fmt.Printf("Rejected as expected: %v\n", err)
	}

	time.Sleep(500 * time.Millisecond)
	close(stop)
	fmt.Printf("Total logs attempted: %d\n", count.Load())
	fmt.Printf("Dropped: %d\n", logger.Statistics().Queue.DroppedMessages)

	// Gracefully shut down every logger of the global manager
	if err := asynclog.Shutdown(time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
}
