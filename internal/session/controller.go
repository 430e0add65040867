// Package session runs the interactive input loop: it tracks the connection
// phase, forwards chat text to the connection and dispatches local commands.
package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/wirechat-cli/internal/command"
	"github.com/vovakirdan/wirechat-cli/internal/ui"
)

// Connection is the remote session as seen by the controller.
type Connection interface {
	Register(ctx context.Context, nick string) error
	Send(ctx context.Context, text string) error
}

// LineReader blocks for one line of user input. ok is false once input is
// exhausted. The returned line may still carry its trailing newline.
type LineReader interface {
	ReadLine(prompt string) (line string, ok bool, err error)
}

// Controller owns the phase state machine. All methods except
// NotifyDisconnected must be called from the goroutine running Run.
type Controller struct {
	conn     Connection
	input    LineReader
	registry *command.Registry
	out      ui.Printer
	log      *zerolog.Logger

	prefix string
	exit   func(code int)

	phase      Phase
	channel    string
	hasChannel bool

	disconnectPending atomic.Bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithCommandPrefix overrides the command prefix.
func WithCommandPrefix(prefix string) Option {
	return func(c *Controller) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithExit replaces the process exit used by quit.
func WithExit(exit func(code int)) Option {
	return func(c *Controller) {
		if exit != nil {
			c.exit = exit
		}
	}
}

// WithPhase sets the initial phase.
func WithPhase(p Phase) Option {
	return func(c *Controller) {
		c.phase = p
	}
}

// New builds a controller in the registration phase.
func New(conn Connection, input LineReader, registry *command.Registry, out ui.Printer, logger *zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		conn:     conn,
		input:    input,
		registry: registry,
		out:      out,
		log:      logger,
		prefix:   DefaultCommandPrefix,
		exit:     os.Exit,
		phase:    PhaseRegistration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase reports the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// CurrentChannel returns the channel the user is in, if any.
func (c *Controller) CurrentChannel() (string, bool) {
	return c.channel, c.hasChannel
}

// SetCurrentChannel records the active channel. An empty name clears it.
func (c *Controller) SetCurrentChannel(name string) {
	c.channel = name
	c.hasChannel = name != ""
}

// Println renders text as a status line.
func (c *Controller) Println(text string) {
	c.out.Println(text)
}

// NotifyDisconnected reports that the connection is gone. It is safe to call
// from any goroutine; the controller switches to PhaseDisconnected before
// handling the next line.
func (c *Controller) NotifyDisconnected() {
	if c.disconnectPending.CompareAndSwap(false, true) {
		c.out.Prompt(PromptDisconnected)
	}
}

// Run handles lines until input is exhausted or ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		more, err := c.Step(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Step handles a single line in the current phase. It returns false when
// the loop should stop.
func (c *Controller) Step(ctx context.Context) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	c.applyDisconnect()

	switch c.phase {
	case PhaseRegistration:
		return c.stepRegistration(ctx)
	case PhaseConnected:
		return c.stepConnected(ctx)
	case PhaseDisconnected:
		return c.stepDisconnected()
	default:
		return false, fmt.Errorf("unknown phase %d", c.phase)
	}
}

func (c *Controller) stepRegistration(ctx context.Context) (bool, error) {
	raw, ok, err := c.readLine()
	if err != nil || !ok {
		if !ok && err == nil {
			c.log.Info().Msg("input closed before registration")
		}
		return false, err
	}

	nick := trimNewline(raw)
	if err := c.conn.Register(ctx, nick); err != nil {
		c.log.Warn().Err(err).Str("nick", nick).Msg("registration failed")
		c.out.Println(fmt.Sprintf("registration error: %v", err))
		return true, nil
	}

	c.setPhase(PhaseConnected)
	return true, nil
}

func (c *Controller) stepConnected(ctx context.Context) (bool, error) {
	raw, ok, err := c.readLine()
	if err != nil || !ok {
		return false, err
	}
	line := trimNewline(raw)

	// The connection dropped while we were waiting for this line.
	if c.applyDisconnect() {
		return c.handleDisconnectedLine(line), nil
	}

	name, args, isCommand := ParseCommand(c.prefix, line)
	if !isCommand {
		if err := c.conn.Send(ctx, line); err != nil {
			c.log.Warn().Err(err).Msg("send failed")
		}
		return true, nil
	}

	desc, found := c.registry.Find(name)
	if !found {
		c.out.Println("unknown command: " + name)
		return true, nil
	}

	inv := command.Invocation{Name: name, Args: args, State: c}
	if err := desc.Dispatch(ctx, inv); err != nil {
		c.log.Debug().Err(err).Str("command", name).Msg("command failed")
		c.out.Println(fmt.Sprintf("%s: %v", name, err))
	}
	return true, nil
}

func (c *Controller) stepDisconnected() (bool, error) {
	raw, ok, err := c.readLine()
	if err != nil || !ok {
		return false, err
	}
	return c.handleDisconnectedLine(trimNewline(raw)), nil
}

func (c *Controller) handleDisconnectedLine(line string) bool {
	if line != quitInput {
		return true
	}
	c.log.Info().Msg("quit requested")
	c.exit(0)
	return false
}

func (c *Controller) readLine() (string, bool, error) {
	line, ok, err := c.input.ReadLine(Prompt(c.phase))
	if err != nil {
		return "", false, fmt.Errorf("read line: %w", err)
	}
	return line, ok, nil
}

func (c *Controller) applyDisconnect() bool {
	if !c.disconnectPending.Load() || c.phase == PhaseDisconnected {
		return false
	}
	c.setPhase(PhaseDisconnected)
	return true
}

func (c *Controller) setPhase(p Phase) {
	c.log.Debug().Str("from", c.phase.String()).Str("to", p.String()).Msg("phase change")
	c.phase = p
}

// ParseCommand splits a prefixed line into the command name and the text
// after the first space. ok is false when line does not start with prefix.
func ParseCommand(prefix, line string) (name, args string, ok bool) {
	if prefix == "" || !strings.HasPrefix(line, prefix) {
		return "", "", false
	}
	rest := line[len(prefix):]
	name, args, _ = strings.Cut(rest, " ")
	return name, args, true
}

func trimNewline(line string) string {
	return strings.TrimRight(line, "\r\n")
}
