package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatter/internal/app"
	"github.com/vovakirdan/chatter/internal/config"
	applog "github.com/vovakirdan/chatter/internal/log"
	"github.com/vovakirdan/chatter/internal/ui/console"
	"github.com/vovakirdan/chatter/internal/ui/tui"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:          "chatter",
		Short:        "Client for the line-based chat protocol",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")
	f.StringVar(&overrides.Host, "host", "", "chat server host; prompted for when empty")
	f.IntVarP(&overrides.Port, "port", "p", 0, fmt.Sprintf("chat server port (default %d)", config.DefaultPort))
	f.StringVar(&overrides.UI, "ui", "", "user interface: tui or console")
	f.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&overrides.LogFile, "log-file", "", "log file used while the tui owns the terminal")
	f.DurationVar(&overrides.DialTimeout, "dial-timeout", 0, "timeout for establishing the connection")
	f.DurationVar(&overrides.ReadTimeout, "read-timeout", 0, "per-line read timeout, 0 disables it")
	f.DurationVar(&overrides.WriteTimeout, "write-timeout", 0, "per-line write timeout")
	f.IntVar(&overrides.MaxLogLines, "max-log-lines", 0, "transcript lines kept by the tui")

	return cmd
}

func run(ctx context.Context, configPath string, overrides config.Config) error {
	bootLog := applog.New("info", os.Stderr)

	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The tui owns stdout, so logs go to a file while it runs.
	var logOut io.Writer = os.Stderr
	if cfg.UI == config.UITerminal {
		file, err := applog.OpenFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		logOut = file
	}
	logger := applog.New(cfg.LogLevel, logOut)
	logger.Info().Str("config", path).Str("ui", cfg.UI).Msg("starting chatter")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var frontend app.Frontend
	switch cfg.UI {
	case config.UIConsole:
		frontend = console.New(os.Stdin, os.Stdout, logger)
	default:
		frontend = tui.New(tui.Options{MaxLogLines: cfg.MaxLogLines, AltScreen: true}, logger)
	}

	if err := app.New(cfg, frontend, logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("session failed")
		return err
	}
	logger.Info().Msg("chatter stopped")
	return nil
}
