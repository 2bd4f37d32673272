package asynclog

import (
	"errors"

	"github.com/lixenwraith/asynclog/formatter"
	"github.com/lixenwraith/asynclog/sink"
)

var (
	// ErrQueueFull reports a non-critical record rejected by a full queue
	ErrQueueFull = errors.New("asynclog: queue full")
	// ErrShuttingDown reports work submitted after shutdown began
	ErrShuttingDown = errors.New("asynclog: logger is shutting down")
	// ErrTimeout reports a flush or shutdown that did not finish in time
	ErrTimeout = errors.New("asynclog: timed out")
	// ErrSelfRegistration reports an attempt to register a logger as its own sink
	ErrSelfRegistration = errors.New("asynclog: logger cannot be registered as its own sink")
	// ErrNilSink reports a nil sink registration
	ErrNilSink = errors.New("asynclog: sink is nil")

	// ErrSinkUnavailable reports a backend whose file could not be reopened
	ErrSinkUnavailable = sink.ErrUnavailable
	// ErrMappingFailure reports a memory mapping that could not be established
	ErrMappingFailure = sink.ErrMapping
	// ErrFormat reports an invalid output pattern
	ErrFormat = formatter.ErrPattern
)
