// Package listener drains server events and renders them through the output
// coordinator, so they never interleave with prompts and status lines.
package listener

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/wirechat-cli/internal/transcript"
	"github.com/vovakirdan/wirechat-cli/internal/ui"
	"github.com/vovakirdan/wirechat-cli/internal/wirechat"
)

// ClosedLine is printed when the event stream ends.
const ClosedLine = "*** connection closed"

// Recorder persists received events.
type Recorder interface {
	Record(ctx context.Context, e transcript.Entry) error
}

// Listener renders events until the stream closes.
type Listener struct {
	events   <-chan wirechat.Event
	out      ui.Printer
	log      *zerolog.Logger
	onClosed func()
	reason   func() error
	rec      Recorder
}

// Option customizes a Listener.
type Option func(*Listener)

// WithOnClosed registers fn to run once the event stream has ended.
func WithOnClosed(fn func()) Option {
	return func(l *Listener) { l.onClosed = fn }
}

// WithCloseReason makes the closed line include the error reported by fn.
func WithCloseReason(fn func() error) Option {
	return func(l *Listener) { l.reason = fn }
}

// WithRecorder records every event to rec.
func WithRecorder(rec Recorder) Option {
	return func(l *Listener) { l.rec = rec }
}

// New builds a listener over events.
func New(events <-chan wirechat.Event, out ui.Printer, logger *zerolog.Logger, opts ...Option) *Listener {
	l := &Listener{events: events, out: out, log: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until the event stream closes or ctx is done.
func (l *Listener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-l.events:
			if !ok {
				l.log.Info().Msg("event stream closed")
				l.out.Println(l.closedLine())
				if l.onClosed != nil {
					l.onClosed()
				}
				return
			}
			l.handle(ctx, ev)
		}
	}
}

func (l *Listener) closedLine() string {
	if l.reason == nil {
		return ClosedLine
	}
	if err := l.reason(); err != nil {
		return fmt.Sprintf("%s: %v", ClosedLine, err)
	}
	return ClosedLine
}

func (l *Listener) handle(ctx context.Context, ev wirechat.Event) {
	l.log.Debug().Str("kind", ev.Kind.String()).Str("room", ev.Room).Msg("rx")

	if l.rec != nil {
		if err := l.rec.Record(ctx, entryFor(ev)); err != nil {
			l.log.Warn().Err(err).Msg("failed to record event")
		}
	}

	for _, line := range strings.Split(ev.String(), "\n") {
		l.out.Println(line)
	}
}

func entryFor(ev wirechat.Event) transcript.Entry {
	body := ev.Text
	switch ev.Kind {
	case wirechat.EventHistory, wirechat.EventError, wirechat.EventUnknown:
		body = ev.String()
	}
	return transcript.Entry{
		Kind:       ev.Kind.String(),
		Room:       ev.Room,
		User:       ev.User,
		Body:       body,
		ReceivedAt: ev.At,
	}
}
