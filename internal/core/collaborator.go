package core

import "context"

// Collaborator is the UI side of a session. The engine calls it from the read
// loop goroutine, so implementations must not call back into Submit synchronously.
type Collaborator interface {
	// PromptScreenName blocks until the user supplies a candidate name.
	// Returning an error ends the session.
	PromptScreenName(ctx context.Context) (string, error)
	NameAccepted()
	DisplayMessage(text string)
	UserListUpdated(names []string)
	// SessionEnded is called exactly once per engine.
	SessionEnded(reason error)
}

// Submitter is what a UI needs from the engine to compose messages.
type Submitter interface {
	Submit(intent OutboundIntent) error
	KnownUsers() []string
	State() State
}

// LineConn is the transport the engine drives.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(text string) error
	Close() error
}
