package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatter/internal/config"
	"github.com/vovakirdan/chatter/internal/core"
	"github.com/vovakirdan/chatter/internal/transport/tcp"
	"github.com/vovakirdan/chatter/internal/utils"
)

// Frontend is the user-facing side of the client.
type Frontend interface {
	core.Collaborator
	PromptServerAddress(ctx context.Context) (string, error)
	Attach(s core.Submitter, server string)
	// Run blocks until the user leaves or ctx is cancelled.
	Run(ctx context.Context) error
}

// App wires together config, transport, protocol engine and frontend.
type App struct {
	cfg config.Config
	ui  Frontend
	log *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, ui Frontend, logger *zerolog.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &App{cfg: cfg, ui: ui, log: logger}
}

// Run connects to the server and drives one session. It returns when the
// frontend exits, or when the session fails to start.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	uiErr := make(chan error, 1)
	go func() {
		uiErr <- a.ui.Run(ctx)
		cancel() // leaving the UI ends the session
	}()

	sessionErr := a.session(ctx)

	err := <-uiErr
	if sessionErr != nil && !core.IsCleanEnd(sessionErr) {
		return sessionErr
	}
	return err
}

func (a *App) session(ctx context.Context) error {
	host := a.cfg.Host
	if host == "" {
		answer, err := a.ui.PromptServerAddress(ctx)
		if err != nil {
			if ctx.Err() == nil {
				a.ui.SessionEnded(&core.CoreError{
					Code:    core.ErrCodePromptCancelled,
					Message: "no server address given",
					Err:     err,
				})
			}
			return nil
		}
		host = strings.TrimSpace(answer)
		if host == "" {
			host = "localhost"
		}
	}
	address := a.cfg.Address(host)

	logger := a.log.With().
		Str("session_id", utils.NewSessionID()).
		Str("server", address).
		Logger()

	logger.Info().Msg("connecting")
	conn, err := tcp.Dial(ctx, address, tcp.Options{
		DialTimeout:  a.cfg.DialTimeout,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Error().Err(err).Msg("connect failed")
		cerr := core.ConnectFailed(err)
		a.ui.SessionEnded(cerr)
		return cerr
	}
	logger.Info().Str("remote", conn.RemoteAddr()).Msg("connected")

	engine := core.NewEngine(conn, a.ui, &logger)
	a.ui.Attach(engine, address)

	return engine.Run(ctx)
}
