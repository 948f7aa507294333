package core

// EventKind names a Collaborator notification.
type EventKind int

const (
	// EventNameAccepted unlocks message composition.
	EventNameAccepted EventKind = iota
	// EventMessage carries one line to append to the transcript.
	EventMessage
	// EventUserList carries the full, replaced user list.
	EventUserList
	// EventSessionEnded reports that the connection is gone.
	EventSessionEnded
)

func (k EventKind) String() string {
	switch k {
	case EventNameAccepted:
		return "name_accepted"
	case EventMessage:
		return "message"
	case EventUserList:
		return "user_list"
	case EventSessionEnded:
		return "session_ended"
	default:
		return "unknown"
	}
}

// Event is a Collaborator notification as a value, for frontends that
// queue notifications instead of handling them inline.
type Event struct {
	Kind  EventKind
	Text  string   // EventMessage
	Users []string // EventUserList
	Err   error    // EventSessionEnded
}
