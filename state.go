package asynclog

// LifecycleState is the run state of an AsyncLogger
type LifecycleState int32

const (
	// StateRunning accepts records and flushes
	StateRunning LifecycleState = iota
	// StateDraining rejects new records while the queue empties
	StateDraining
	// StateStopped rejects everything except statistics
	StateStopped
)

// String returns the state name
func (s LifecycleState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
