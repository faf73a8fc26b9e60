package bridge

// State is the connection state of the manager.
type State int

const (
	StateDisabled State = iota
	StateIdle
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusKind classifies the user facing status. Kinds are checked in
// declaration order: a down link is reported before any broker state.
type StatusKind int

const (
	StatusDisabled StatusKind = iota
	StatusLinkDown
	StatusConnected
	StatusDisconnected
)

// Status is the user facing connection status.
type Status struct {
	Kind     StatusKind
	Endpoint string
}

func (s Status) String() string {
	switch s.Kind {
	case StatusDisabled:
		return "Disabled"
	case StatusLinkDown:
		return "WiFi not connected"
	case StatusConnected:
		return "Connected to " + s.Endpoint
	default:
		return "Disconnected from " + s.Endpoint
	}
}
