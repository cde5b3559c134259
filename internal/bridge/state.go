package bridge

// State tracks the bridge session lifecycle.
//
//	Idle -> Acquiring -> Running -> (Disconnected -> Reconnecting -> Running)
//	                                          \-> ShuttingDown -> Stopped
//
// Disconnected moves to Reconnecting only when reconnection is enabled for
// the current connection type, otherwise to ShuttingDown.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateRunning
	StateDisconnected
	StateReconnecting
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRunning:
		return "running"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
