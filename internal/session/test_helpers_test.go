package session

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/wirechat-cli/internal/command"
	"github.com/vovakirdan/wirechat-cli/internal/log"
	"github.com/vovakirdan/wirechat-cli/internal/ui"
)

type fakeConn struct {
	registerErrs []error
	registered   []string
	sent         []string
}

func (f *fakeConn) Register(_ context.Context, nick string) error {
	f.registered = append(f.registered, nick)
	if len(f.registerErrs) == 0 {
		return nil
	}
	err := f.registerErrs[0]
	f.registerErrs = f.registerErrs[1:]
	return err
}

func (f *fakeConn) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

// scriptedInput replays lines and reports end of input afterwards.
type scriptedInput struct {
	lines   []string
	prompts []string
	err     error
	onRead  func()
}

func (s *scriptedInput) ReadLine(prompt string) (string, bool, error) {
	s.prompts = append(s.prompts, prompt)
	if s.onRead != nil {
		s.onRead()
	}
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", false, s.err
		}
		return "", false, nil
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, true, nil
}

func (s *scriptedInput) push(lines ...string) {
	s.lines = append(s.lines, lines...)
}

type recordingPrinter struct {
	msgs []ui.Message
}

func (r *recordingPrinter) Println(text string) { r.msgs = append(r.msgs, ui.PrintLine(text)) }
func (r *recordingPrinter) Prompt(text string)  { r.msgs = append(r.msgs, ui.UpdatePrompt(text)) }

type dispatchRecorder struct {
	calls []command.Invocation
	err   error
}

func (d *dispatchRecorder) action(_ context.Context, inv command.Invocation) error {
	d.calls = append(d.calls, inv)
	return d.err
}

type harness struct {
	conn     *fakeConn
	input    *scriptedInput
	out      *recordingPrinter
	dispatch *dispatchRecorder
	exits    []int
	ctrl     *Controller
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		conn:     &fakeConn{},
		input:    &scriptedInput{},
		out:      &recordingPrinter{},
		dispatch: &dispatchRecorder{},
	}
	act := h.dispatch.action
	registry, err := command.NewRegistry(command.Builtins(map[string]command.Action{
		command.NameNames:  act,
		command.NameJoin:   act,
		command.NameSwitch: act,
	})...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	opts = append([]Option{WithExit(func(code int) { h.exits = append(h.exits, code) })}, opts...)
	h.ctrl = New(h.conn, h.input, registry, h.out, log.Nop(), opts...)
	return h
}

// step feeds line and runs exactly one iteration.
func (h *harness) step(t *testing.T, line string) bool {
	t.Helper()
	h.input.push(line)
	more, err := h.ctrl.Step(context.Background())
	if err != nil {
		t.Fatalf("step(%q): %v", line, err)
	}
	return more
}

var errTaken = errors.New("nickname in use")
