package tui

import (
	"context"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatter/internal/core"
)

// UI is the terminal user interface. Its collaborator methods may be called
// from any goroutine; they forward to the bubbletea program.
type UI struct {
	program *tea.Program
	model   *model
	log     *zerolog.Logger

	quitOnce sync.Once
	quit     chan struct{}
}

// Options tune the terminal UI. Input and Output default to the terminal.
type Options struct {
	MaxLogLines int
	Input       io.Reader
	Output      io.Writer
	AltScreen   bool
}

// New creates a terminal UI. Call Run to start it.
func New(opts Options, logger *zerolog.Logger) *UI {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	m := newModel("not connected", opts.MaxLogLines)

	var progOpts []tea.ProgramOption
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	return &UI{
		program: tea.NewProgram(m, progOpts...),
		model:   m,
		log:     logger,
		quit:    make(chan struct{}),
	}
}

// Run blocks until the user quits or ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, u.program.Quit)
	defer stop()
	defer u.quitOnce.Do(func() { close(u.quit) })

	_, err := u.program.Run()
	if err != nil {
		u.log.Error().Err(err).Msg("terminal ui exited with error")
	}
	return err
}

// Attach hands the UI the engine to submit messages to.
func (u *UI) Attach(s core.Submitter, server string) {
	u.send(attachMsg{submitter: s, title: server})
}

// PromptServerAddress asks for the host of the chat server.
func (u *UI) PromptServerAddress(ctx context.Context) (string, error) {
	return u.ask(ctx, "Enter IP Address of the Server")
}

// PromptScreenName asks for a candidate screen name.
func (u *UI) PromptScreenName(ctx context.Context) (string, error) {
	return u.ask(ctx, "Choose a screen name")
}

func (u *UI) ask(ctx context.Context, title string) (string, error) {
	reply := make(chan promptReply, 1)
	u.send(promptMsg{title: title, reply: reply})

	select {
	case r := <-reply:
		if r.cancelled {
			return "", core.ErrPromptCancelled
		}
		return r.value, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-u.quit:
		return "", core.ErrPromptCancelled
	}
}

// NameAccepted unlocks the input line.
func (u *UI) NameAccepted() {
	u.send(core.Event{Kind: core.EventNameAccepted})
}

// DisplayMessage appends a line to the transcript.
func (u *UI) DisplayMessage(text string) {
	u.send(core.Event{Kind: core.EventMessage, Text: text})
}

// UserListUpdated refreshes the users pane.
func (u *UI) UserListUpdated(names []string) {
	u.send(core.Event{Kind: core.EventUserList, Users: names})
}

// SessionEnded shows the reason and locks the input line. The UI stays
// open until the user quits.
func (u *UI) SessionEnded(reason error) {
	u.send(core.Event{Kind: core.EventSessionEnded, Err: reason})
}

func (u *UI) send(msg tea.Msg) {
	select {
	case <-u.quit:
		return
	default:
	}
	u.program.Send(msg)
}
