package core

// State is the name negotiation state of a connection.
type State int

const (
	// AwaitingName is the initial state; the server has not accepted a name.
	AwaitingName State = iota
	// Active allows message composition. It lasts until disconnect.
	Active
)

func (s State) String() string {
	switch s {
	case AwaitingName:
		return "awaiting_name"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}
