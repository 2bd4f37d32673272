package asynclog

import (
	"time"
)

// Fanout
const (
	// Maximum number of sink hops a record may travel before it is discarded
	maxFanoutHops = 8
)

// Storage
const (
	// Size multiplier for KB
	sizeMultiplier = 1024
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Used when a shutdown or flush timeout is not positive
	defaultShutdownTimeout = 5 * time.Second
	// Used when worker_idle_ms is not positive
	defaultWorkerIdle = 100 * time.Millisecond
)
