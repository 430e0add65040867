package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/wirechat-cli/internal/command"
	"github.com/vovakirdan/wirechat-cli/internal/config"
	"github.com/vovakirdan/wirechat-cli/internal/lineinput"
	"github.com/vovakirdan/wirechat-cli/internal/listener"
	"github.com/vovakirdan/wirechat-cli/internal/session"
	"github.com/vovakirdan/wirechat-cli/internal/transcript"
	"github.com/vovakirdan/wirechat-cli/internal/ui"
	"github.com/vovakirdan/wirechat-cli/internal/wirechat"
)

// Terminal is the pair of streams the client talks to.
type Terminal struct {
	In  *os.File
	Out *os.File
}

// App wires the connection, terminal and session loop together.
type App struct {
	conn        *wirechat.Conn
	coordinator *ui.Coordinator
	controller  *session.Controller
	listener    *listener.Listener
	transcript  *transcript.Store
	in          *os.File
	closers     []io.Closer
	log         *zerolog.Logger
}

// New dials the server and builds every component. Nothing is read from the
// terminal until Run.
func New(ctx context.Context, cfg *config.Config, term Terminal, logger *zerolog.Logger) (*App, error) {
	conn, err := wirechat.Dial(ctx, wirechat.Options{
		URL:             cfg.ServerURL,
		Token:           cfg.Token,
		Room:            cfg.Room,
		Protocol:        cfg.Protocol,
		DialTimeout:     cfg.DialTimeout,
		RegisterTimeout: cfg.RegisterTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	a := &App{conn: conn, in: term.In, log: logger}

	var (
		out    io.Writer
		reader session.LineReader
	)
	if lineinput.IsTerminal(term.In) && lineinput.IsTerminal(term.Out) {
		tty, err := lineinput.OpenTerminal(term.In, term.Out)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("open terminal: %w", err)
		}
		a.closers = append(a.closers, tty)
		out = tty.Output()
		reader = tty
	} else {
		out = bufio.NewWriter(term.Out)
	}

	a.coordinator = ui.NewCoordinator(out, logger)
	if reader == nil {
		reader = lineinput.NewPlain(term.In, a.coordinator)
	}

	registry, err := command.NewRegistry(command.Builtins(wirechat.Actions(conn))...)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("build commands: %w", err)
	}

	a.controller = session.New(conn, reader, registry, a.coordinator, logger,
		session.WithCommandPrefix(cfg.CommandPrefix),
		session.WithExit(a.exit),
	)

	logger.Debug().Strs("commands", registry.Names()).Msg("commands registered")

	opts := []listener.Option{
		listener.WithOnClosed(a.controller.NotifyDisconnected),
		listener.WithCloseReason(conn.Err),
	}
	if cfg.TranscriptPath != "" {
		st, err := transcript.Open(cfg.TranscriptPath)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("open transcript: %w", err)
		}
		a.transcript = st
		opts = append(opts, listener.WithRecorder(st))
		logger.Info().Str("path", cfg.TranscriptPath).Str("session_id", st.SessionID()).Msg("transcript enabled")
	}
	a.listener = listener.New(conn.Events(), a.coordinator, logger, opts...)

	if cfg.Token != "" {
		if info, err := wirechat.InspectToken(cfg.Token); err == nil && info.Username != "" {
			a.coordinator.Start()
			a.coordinator.Println(fmt.Sprintf("*** token issued for %s", info.Username))
		}
	}

	return a, nil
}

// Run starts the output worker and the event listener, then blocks in the
// session loop until input ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	a.coordinator.Start()

	listenCtx, stopListener := context.WithCancel(ctx)
	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		a.listener.Run(listenCtx)
	}()

	// Reads block indefinitely; closing stdin is the only way to wake the
	// loop when ctx is cancelled.
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		select {
		case <-ctx.Done():
			a.in.Close()
		case <-sessionDone:
		}
	}()

	err := a.controller.Run(ctx)
	if err != nil && ctx.Err() != nil {
		err = nil
	}

	// The listener is the only other producer; once it is gone the worker
	// can drain whatever is still queued.
	stopListener()
	<-listenerDone
	a.coordinator.Close()
	<-a.coordinator.Done()

	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	a.log.Info().Msg("session ended")
	return nil
}

// exit leaves the process immediately, restoring the terminal on the way out.
func (a *App) exit(code int) {
	a.restoreTerminal()
	os.Exit(code)
}

// cleanup closes the transcript, the socket and the terminal.
func (a *App) cleanup() {
	if a.transcript != nil {
		if err := a.transcript.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close transcript")
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.log.Debug().Err(err).Msg("close connection")
		}
	}
	a.restoreTerminal()
}

func (a *App) restoreTerminal() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to restore terminal")
		}
	}
	a.closers = nil
}
