package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vovakirdan/wirechat-cli/internal/app"
	"github.com/vovakirdan/wirechat-cli/internal/config"
	"github.com/vovakirdan/wirechat-cli/internal/log"
)

type options struct {
	configPath string
	server     string
	room       string
	token      string
	prefix     string
	logLevel   string
	logFile    string
	transcript string
}

// overrides returns the flag values as a Config; unset flags stay zero.
func (o options) overrides() config.Config {
	return config.Config{
		ServerURL:      o.server,
		Room:           o.room,
		Token:          o.token,
		CommandPrefix:  o.prefix,
		LogLevel:       o.logLevel,
		LogFile:        o.logFile,
		TranscriptPath: o.transcript,
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "wirechat",
		Short:         "Line-oriented wirechat client",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	f.StringVarP(&opts.server, "server", "s", "", "wirechat WebSocket URL")
	f.StringVarP(&opts.room, "room", "r", "", "room to join after registration")
	f.StringVar(&opts.token, "token", "", "JWT sent with hello")
	f.StringVar(&opts.prefix, "prefix", "", "command prefix")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	f.StringVar(&opts.transcript, "transcript", "", "record received events to this sqlite file")
	return cmd
}

func run(ctx context.Context, opts options) error {
	bootLogger := log.New("warn", os.Stderr)

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(opts.overrides())
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := log.Open(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Debug().Str("config", path).Str("server", cfg.ServerURL).Msg("configuration loaded")

	application, err := app.New(ctx, &cfg, app.Terminal{In: os.Stdin, Out: os.Stdout}, logger)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wirechat: %v\n", err)
		stop()
		os.Exit(1)
	}
}
