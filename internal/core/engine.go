package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatter/internal/proto"
)

// Stats counts traffic over the life of an engine.
type Stats struct {
	LinesIn  int64
	LinesOut int64
	Unknown  int64
}

// Engine drives the client side of the chat protocol over one connection.
// Only the Run goroutine mutates state and the user list.
type Engine struct {
	conn LineConn
	ui   Collaborator
	log  zerolog.Logger

	mu         sync.RWMutex
	state      State
	screenName string
	users      []string
	reason     *CoreError

	linesIn  atomic.Int64
	linesOut atomic.Int64
	unknown  atomic.Int64

	endOnce sync.Once
	done    chan struct{}
}

// NewEngine creates an engine in the AwaitingName state.
func NewEngine(conn LineConn, ui Collaborator, logger *zerolog.Logger) *Engine {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "engine").Logger()
	}
	return &Engine{
		conn:  conn,
		ui:    ui,
		log:   l,
		state: AwaitingName,
		users: []string{},
		done:  make(chan struct{}),
	}
}

// Run reads and dispatches lines until the stream ends, a write fails or ctx
// is cancelled. It returns nil when the server or the user closed the session.
func (e *Engine) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		e.end(coreError(ErrCodeClientExit, "client exited", nil))
	})
	defer stop()

	e.log.Debug().Msg("read loop started")
	for {
		line, err := e.conn.ReadLine()
		if err != nil {
			e.end(readFailure(err))
			break
		}
		e.linesIn.Add(1)

		if cerr := e.dispatch(ctx, line); cerr != nil {
			e.end(cerr)
			break
		}
	}

	reason := e.Err()
	if IsCleanEnd(reason) {
		return nil
	}
	return reason
}

func (e *Engine) dispatch(ctx context.Context, line string) *CoreError {
	in := proto.Parse(line)

	switch in.Kind {
	case proto.KindSubmitName:
		return e.submitName(ctx)
	case proto.KindNameAccepted:
		e.acceptName()
	case proto.KindMessage:
		e.ui.DisplayMessage(in.Text)
	case proto.KindUserList:
		e.replaceUsers(in.Users)
	default:
		e.unknown.Add(1)
		e.log.Warn().Str("line", line).Msg("ignoring unrecognized server line")
	}
	return nil
}

func (e *Engine) submitName(ctx context.Context) *CoreError {
	name, err := e.ui.PromptScreenName(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return coreError(ErrCodeClientExit, "client exited", nil)
		}
		return coreError(ErrCodePromptCancelled, "screen name prompt cancelled", err)
	}

	e.mu.Lock()
	e.screenName = name
	e.mu.Unlock()

	e.log.Debug().Str("name", name).Msg("submitting screen name")
	if err := e.write(name); err != nil {
		return writeFailure(err)
	}
	return nil
}

func (e *Engine) acceptName() {
	e.mu.Lock()
	if e.state == Active {
		e.mu.Unlock()
		e.log.Debug().Msg("duplicate name acceptance ignored")
		return
	}
	e.state = Active
	name := e.screenName
	e.mu.Unlock()

	e.log.Info().Str("name", name).Msg("screen name accepted")
	e.ui.NameAccepted()
}

func (e *Engine) replaceUsers(users []string) {
	e.mu.Lock()
	e.users = users
	e.mu.Unlock()

	e.ui.UserListUpdated(e.KnownUsers())
}

// Submit formats the intent and writes it to the server. A write failure
// ends the session.
func (e *Engine) Submit(intent OutboundIntent) error {
	select {
	case <-e.done:
		return ErrSessionEnded
	default:
	}

	if e.State() != Active {
		return ErrNameNotAccepted
	}

	if err := e.write(intent.Line()); err != nil {
		select {
		case <-e.done:
			return ErrSessionEnded
		default:
		}
		e.end(writeFailure(err))
		return err
	}

	e.log.Debug().
		Bool("targeted", intent.Targeted()).
		Int("recipients", len(intent.Recipients)).
		Msg("message sent")
	return nil
}

func (e *Engine) write(line string) error {
	if err := e.conn.WriteLine(line); err != nil {
		return err
	}
	e.linesOut.Add(1)
	return nil
}

// end tears the connection down and notifies the UI once.
func (e *Engine) end(reason *CoreError) {
	e.endOnce.Do(func() {
		e.mu.Lock()
		e.reason = reason
		e.mu.Unlock()
		close(e.done)

		if err := e.conn.Close(); err != nil {
			e.log.Debug().Err(err).Msg("close connection")
		}

		stats := e.Stats()
		var ev *zerolog.Event
		if IsCleanEnd(reason) {
			ev = e.log.Info()
		} else {
			ev = e.log.Warn().Err(reason.Err)
		}
		ev.Str("code", reason.Code).
			Int64("lines_in", stats.LinesIn).
			Int64("lines_out", stats.LinesOut).
			Int64("unknown_lines", stats.Unknown).
			Msg("session ended")

		e.ui.SessionEnded(reason)
	})
}

// State returns the current negotiation state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// ScreenName returns the most recently submitted candidate name.
func (e *Engine) ScreenName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.screenName
}

// KnownUsers returns a copy of the last user list sent by the server.
func (e *Engine) KnownUsers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.users))
	copy(out, e.users)
	return out
}

// Done is closed once the session has ended.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns why the session ended, or nil while it is running.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.reason == nil {
		return nil
	}
	return e.reason
}

// Stats returns a snapshot of the traffic counters.
func (e *Engine) Stats() Stats {
	return Stats{
		LinesIn:  e.linesIn.Load(),
		LinesOut: e.linesOut.Load(),
		Unknown:  e.unknown.Load(),
	}
}
