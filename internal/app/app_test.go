package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/chatter/internal/config"
	"github.com/vovakirdan/chatter/internal/core"
	"github.com/vovakirdan/chatter/internal/transport/tcp"
)

// fakeFrontend answers prompts from fixed values and records notifications.
type fakeFrontend struct {
	address string
	name    string

	events   chan core.Event
	attached chan core.Submitter

	endOnce sync.Once
	ended   chan struct{}

	mu           sync.Mutex
	addressAsked int
}

func newFakeFrontend(address, name string) *fakeFrontend {
	return &fakeFrontend{
		address:  address,
		name:     name,
		events:   make(chan core.Event, 32),
		attached: make(chan core.Submitter, 1),
		ended:    make(chan struct{}),
	}
}

func (f *fakeFrontend) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-f.ended:
	}
	return nil
}

func (f *fakeFrontend) PromptServerAddress(context.Context) (string, error) {
	f.mu.Lock()
	f.addressAsked++
	f.mu.Unlock()
	return f.address, nil
}

func (f *fakeFrontend) PromptScreenName(context.Context) (string, error) {
	return f.name, nil
}

func (f *fakeFrontend) Attach(s core.Submitter, _ string) { f.attached <- s }

func (f *fakeFrontend) NameAccepted() { f.events <- core.Event{Kind: core.EventNameAccepted} }

func (f *fakeFrontend) DisplayMessage(text string) {
	f.events <- core.Event{Kind: core.EventMessage, Text: text}
}

func (f *fakeFrontend) UserListUpdated(names []string) {
	f.events <- core.Event{Kind: core.EventUserList, Users: names}
}

func (f *fakeFrontend) SessionEnded(reason error) {
	f.events <- core.Event{Kind: core.EventSessionEnded, Err: reason}
	f.endOnce.Do(func() { close(f.ended) })
}

func mustEvent(t *testing.T, ch <-chan core.Event, kind core.EventKind) core.Event {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected event kind %v not received", kind)
			return core.Event{}
		}
	}
}

// chatServer is a scripted single-connection server speaking the chat protocol.
func chatServer(t *testing.T) (host string, port int, received <-chan string, release chan<- struct{}) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	lines := make(chan string, 8)
	done := make(chan struct{})

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)

		_, _ = io.WriteString(conn, "SUBMITNAME\n")
		name, _ := r.ReadString('\n')
		lines <- name
		_, _ = io.WriteString(conn, "NAMEACCEPTED "+name)
		_, _ = io.WriteString(conn, "USERLIST alice,bob\n")
		_, _ = io.WriteString(conn, "MESSAGE alice: welcome\n")

		msg, _ := r.ReadString('\n')
		lines <- msg
		<-done
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, lines, done
}

func TestAppFullSession(t *testing.T) {
	host, port, received, release := chatServer(t)

	cfg := config.Default()
	cfg.Port = port
	ui := newFakeFrontend(host, "carol")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- New(cfg, ui, nil).Run(ctx) }()

	select {
	case name := <-received:
		if name != "carol\n" {
			t.Fatalf("server got name %q", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("name never submitted")
	}

	mustEvent(t, ui.events, core.EventNameAccepted)
	users := mustEvent(t, ui.events, core.EventUserList)
	if len(users.Users) != 2 || users.Users[0] != "alice" || users.Users[1] != "bob" {
		t.Fatalf("users = %q", users.Users)
	}
	if msg := mustEvent(t, ui.events, core.EventMessage); msg.Text != "alice: welcome" {
		t.Fatalf("message = %q", msg.Text)
	}

	submitter := <-ui.attached
	if err := submitter.Submit(core.OutboundIntent{Text: "hey", Recipients: []string{"alice"}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case line := <-received:
		if line != "alice>>hey\n" {
			t.Fatalf("server got %q", line)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("message never arrived")
	}

	close(release)

	ended := mustEvent(t, ui.events, core.EventSessionEnded)
	if core.Code(ended.Err) != core.ErrCodeEndOfStream {
		t.Fatalf("end reason = %v", ended.Err)
	}
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("app did not return")
	}
	if ui.addressAsked != 1 {
		t.Fatalf("address prompted %d times", ui.addressAsked)
	}
}

func TestAppConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.DialTimeout = time.Second
	ui := newFakeFrontend("", "unused")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = New(cfg, ui, nil).Run(ctx)
	if core.Code(err) != core.ErrCodeConnectFailed {
		t.Fatalf("run returned %v", err)
	}
	var connErr *tcp.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *tcp.ConnectionError in chain, got %v", err)
	}
	if connErr.Address != "127.0.0.1:"+strconv.Itoa(port) {
		t.Fatalf("address = %q", connErr.Address)
	}

	ended := mustEvent(t, ui.events, core.EventSessionEnded)
	if core.Code(ended.Err) != core.ErrCodeConnectFailed {
		t.Fatalf("end reason = %v", ended.Err)
	}
	if ui.addressAsked != 0 {
		t.Fatal("configured host should skip the address prompt")
	}
}

func TestAppCancelledContextStopsSession(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	ui := newFakeFrontend("", "dave")

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- New(cfg, ui, nil).Run(ctx) }()

	<-ui.attached
	cancel()

	ended := mustEvent(t, ui.events, core.EventSessionEnded)
	if core.Code(ended.Err) != core.ErrCodeClientExit {
		t.Fatalf("end reason = %v", ended.Err)
	}
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("app did not return after cancel")
	}
}
