package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/chatter/internal/transport/tcp"
)

// fakeConn feeds scripted server lines and records client writes.
type fakeConn struct {
	lines  chan string
	writes chan string

	mu       sync.Mutex
	writeErr error

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		lines:  make(chan string, 16),
		writes: make(chan string, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", tcp.ErrEndOfStream
		}
		return line, nil
	case <-c.closed:
		return "", &tcp.ReadError{Err: tcp.ErrClosed}
	}
}

func (c *fakeConn) WriteLine(text string) error {
	c.mu.Lock()
	err := c.writeErr
	c.mu.Unlock()
	if err != nil {
		return &tcp.WriteError{Err: err}
	}
	select {
	case <-c.closed:
		return &tcp.WriteError{Err: tcp.ErrClosed}
	default:
	}
	c.writes <- text
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeUI records every notification as an Event and answers name prompts
// from a scripted queue.
type fakeUI struct {
	events  chan *Event
	prompts chan struct{}

	mu        sync.Mutex
	names     []string
	promptErr error
}

func newFakeUI(names ...string) *fakeUI {
	return &fakeUI{
		events:  make(chan *Event, 32),
		prompts: make(chan struct{}, 32),
		names:   names,
	}
}

func (u *fakeUI) PromptScreenName(ctx context.Context) (string, error) {
	select {
	case u.prompts <- struct{}{}:
	default:
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.promptErr != nil {
		return "", u.promptErr
	}
	if len(u.names) == 0 {
		return "", errors.New("no more names")
	}
	name := u.names[0]
	u.names = u.names[1:]
	return name, nil
}

func (u *fakeUI) NameAccepted() {
	u.events <- &Event{Kind: EventNameAccepted}
}

func (u *fakeUI) DisplayMessage(text string) {
	u.events <- &Event{Kind: EventMessage, Text: text}
}

func (u *fakeUI) UserListUpdated(names []string) {
	u.events <- &Event{Kind: EventUserList, Users: names}
}

func (u *fakeUI) SessionEnded(reason error) {
	u.events <- &Event{Kind: EventSessionEnded, Err: reason}
}

func mustPrompt(t *testing.T, u *fakeUI) {
	t.Helper()

	select {
	case <-u.prompts:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a screen name prompt")
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustWrite(t *testing.T, ch <-chan string) string {
	t.Helper()

	select {
	case line := <-ch:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("expected a line to be written")
		return ""
	}
}

func noWrite(t *testing.T, ch <-chan string) {
	t.Helper()

	select {
	case line := <-ch:
		t.Fatalf("unexpected write %q", line)
	case <-time.After(50 * time.Millisecond):
	}
}

// startEngine runs an engine in the background and returns a channel with
// Run's result.
func startEngine(t *testing.T, conn *fakeConn, ui *fakeUI) (*Engine, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	engine := NewEngine(conn, ui, nil)
	result := make(chan error, 1)
	go func() {
		result <- engine.Run(ctx)
	}()
	return engine, result
}

// activate walks the engine through the name handshake.
func activate(t *testing.T, conn *fakeConn, ui *fakeUI) {
	t.Helper()

	conn.lines <- "SUBMITNAME"
	mustWrite(t, conn.writes)
	conn.lines <- "NAMEACCEPTED"
	mustEvent(t, ui.events, EventNameAccepted)
}
