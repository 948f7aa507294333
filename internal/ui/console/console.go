package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatter/internal/core"
	"github.com/vovakirdan/chatter/internal/proto"
)

const helpText = "Type a message to broadcast, /to name1,name2 message for a targeted send, /users to list users, /quit to exit."

// Console is a line-oriented UI over a reader and a writer, usually stdin and stdout.
//
// Input lines are queued until someone consumes them: a pending prompt takes
// the oldest line, and once the screen name is accepted the rest are handled
// as chat input. Piped input can therefore run ahead of the server.
type Console struct {
	in          io.Reader
	out         io.Writer
	log         *zerolog.Logger
	interactive bool

	outMu sync.Mutex

	mu        sync.Mutex
	submitter core.Submitter

	prompts    chan chan promptAnswer
	accepted   chan struct{}
	acceptOnce sync.Once
	stopped    chan struct{}
	ended      chan struct{}
	endOnce    sync.Once
}

type promptAnswer struct {
	value     string
	cancelled bool
}

// New builds a console UI. When in is not a terminal, end of input does not
// stop the console; it keeps printing until the session ends.
func New(in io.Reader, out io.Writer, logger *zerolog.Logger) *Console {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{
		in:          in,
		out:         out,
		log:         logger,
		interactive: isTerminal(in),
		prompts:     make(chan chan promptAnswer),
		accepted:    make(chan struct{}),
		stopped:     make(chan struct{}),
		ended:       make(chan struct{}),
	}
}

// Attach hands the console the engine to submit messages to.
func (c *Console) Attach(s core.Submitter, server string) {
	c.mu.Lock()
	c.submitter = s
	c.mu.Unlock()
	c.printf("* connected to %s\n", server)
}

// Run reads input lines until the session ends, the user types /quit or ctx
// is cancelled. End of input stops it only on a terminal.
func (c *Console) Run(ctx context.Context) error {
	defer close(c.stopped)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-c.ended:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.log.Warn().Err(err).Msg("read input")
		}
	}()

	var (
		queue    []string
		waiting  chan promptAnswer
		accepted = c.accepted
		chatting bool
		input    = lines
	)
	for {
		if waiting != nil && len(queue) > 0 {
			waiting <- promptAnswer{value: queue[0]}
			queue = queue[1:]
			waiting = nil
		}
		if chatting && waiting == nil {
			for len(queue) > 0 {
				line := queue[0]
				queue = queue[1:]
				if quit := c.handle(line); quit {
					return nil
				}
			}
		}
		if input == nil && len(queue) == 0 {
			if waiting != nil {
				waiting <- promptAnswer{cancelled: true}
				waiting = nil
			}
			if c.interactive {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-c.ended:
			return nil
		case <-accepted:
			accepted = nil
			chatting = true
		case reply := <-c.prompts:
			if waiting != nil {
				waiting <- promptAnswer{cancelled: true}
			}
			waiting = reply
		case line, ok := <-input:
			if !ok {
				input = nil
				c.log.Debug().Msg("input closed")
				continue
			}
			if !chatting && c.interactive && isQuit(line) {
				return nil
			}
			queue = append(queue, line)
		}
	}
}

// PromptServerAddress asks for the host of the chat server.
func (c *Console) PromptServerAddress(ctx context.Context) (string, error) {
	return c.ask(ctx, "Enter IP Address of the Server: ")
}

// PromptScreenName asks for a candidate screen name.
func (c *Console) PromptScreenName(ctx context.Context) (string, error) {
	return c.ask(ctx, "Choose a screen name: ")
}

func (c *Console) ask(ctx context.Context, question string) (string, error) {
	reply := make(chan promptAnswer, 1)
	c.printf("%s", question)

	select {
	case c.prompts <- reply:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.ended:
		return "", core.ErrPromptCancelled
	case <-c.stopped:
		return "", core.ErrPromptCancelled
	}

	select {
	case answer := <-reply:
		if answer.cancelled {
			return "", core.ErrPromptCancelled
		}
		return strings.TrimSpace(answer.value), nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.ended:
		return "", core.ErrPromptCancelled
	case <-c.stopped:
		select {
		case answer := <-reply:
			if !answer.cancelled {
				return strings.TrimSpace(answer.value), nil
			}
		default:
		}
		return "", core.ErrPromptCancelled
	}
}

// NameAccepted tells the user they can start chatting.
func (c *Console) NameAccepted() {
	c.acceptOnce.Do(func() { close(c.accepted) })
	c.printf("Name accepted. %s\n", helpText)
}

// DisplayMessage prints one transcript line.
func (c *Console) DisplayMessage(text string) {
	c.printf("%s\n", text)
}

// UserListUpdated prints the new user list.
func (c *Console) UserListUpdated(names []string) {
	if len(names) == 0 {
		c.printf("* no users online\n")
		return
	}
	c.printf("* users: %s\n", strings.Join(names, ", "))
}

// SessionEnded reports why the connection is gone and stops Run.
func (c *Console) SessionEnded(reason error) {
	c.endOnce.Do(func() {
		if core.IsCleanEnd(reason) {
			c.printf("* disconnected\n")
		} else {
			c.printf("* disconnected: %v\n", reason)
		}
		close(c.ended)
	})
}

// handle processes one line typed while chatting. It reports whether the user asked to quit.
func (c *Console) handle(line string) bool {
	cmd, intent := parseInput(line)
	switch cmd {
	case cmdNone:
		return false
	case cmdQuit:
		return true
	case cmdUsers:
		if s := c.getSubmitter(); s != nil {
			c.UserListUpdated(s.KnownUsers())
		}
		return false
	case cmdUsage:
		c.printf("* usage: /to name1,name2 message\n")
		return false
	}

	s := c.getSubmitter()
	if s == nil {
		c.printf("* not connected yet\n")
		return false
	}
	if err := s.Submit(intent); err != nil {
		switch {
		case errors.Is(err, core.ErrNameNotAccepted):
			c.printf("* wait until your screen name is accepted\n")
		case errors.Is(err, core.ErrSessionEnded):
			c.printf("* session has ended\n")
		default:
			c.printf("* send failed: %v\n", err)
		}
	}
	return false
}

func (c *Console) getSubmitter() core.Submitter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitter
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func isQuit(line string) bool {
	return strings.TrimSpace(line) == "/quit"
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

type command int

const (
	cmdNone command = iota
	cmdSend
	cmdUsers
	cmdQuit
	cmdUsage
)

// parseInput maps a typed line to a command. Plain text is a broadcast;
// "/to a,b text" is a targeted send.
func parseInput(line string) (command, core.OutboundIntent) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return cmdNone, core.OutboundIntent{}
	case isQuit(trimmed):
		return cmdQuit, core.OutboundIntent{}
	case trimmed == "/users":
		return cmdUsers, core.OutboundIntent{}
	case trimmed == "/to" || strings.HasPrefix(trimmed, "/to "):
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "/to"))
		targets, text, ok := strings.Cut(rest, " ")
		if !ok || text == "" {
			return cmdUsage, core.OutboundIntent{}
		}
		recipients := proto.ParseUserList(targets)
		if len(recipients) == 0 {
			return cmdUsage, core.OutboundIntent{}
		}
		return cmdSend, core.OutboundIntent{Text: text, Recipients: recipients}
	default:
		return cmdSend, core.OutboundIntent{Text: line, Broadcast: true}
	}
}
