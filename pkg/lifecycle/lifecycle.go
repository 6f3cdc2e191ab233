package lifecycle

// Signal is a lifecycle event that fires registered callbacks once.
type Signal int

const (
	SignalStart Signal = iota
	SignalResume
	SignalSuspend
	SignalStop
)

// Signals lists every signal in declaration order.
var Signals = []Signal{SignalStart, SignalResume, SignalSuspend, SignalStop}

// String returns a human-readable representation of the signal.
func (s Signal) String() string {
	switch s {
	case SignalStart:
		return "start"
	case SignalResume:
		return "resume"
	case SignalSuspend:
		return "suspend"
	case SignalStop:
		return "stop"
	default:
		return "unknown"
	}
}

// State is the dwell state a script occupies between signals.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateSuspended
	StateStopping
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// EventEmitter is called when the dwell state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}
