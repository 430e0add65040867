// Package lineinput provides the blocking read-a-line primitive used by the
// session loop, with line editing when stdin is a terminal.
package lineinput

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Terminal reads lines from a raw-mode TTY with history and cursor editing.
// Its Output writer must be the only other thing writing to the TTY.
type Terminal struct {
	term  *term.Terminal
	fd    int
	state *term.State
}

// OpenTerminal puts in into raw mode. Call Close to restore it.
func OpenTerminal(in *os.File, out io.Writer) (*Terminal, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("make raw: %w", err)
	}
	t := newTerminal(struct {
		io.Reader
		io.Writer
	}{in, out})
	t.fd = fd
	t.state = state
	return t, nil
}

func newTerminal(rw io.ReadWriter) *Terminal {
	return &Terminal{term: term.NewTerminal(rw, ""), fd: -1}
}

// ReadLine shows prompt and blocks for a line. ok is false on end of input
// (Ctrl-D on an empty line).
func (t *Terminal) ReadLine(prompt string) (string, bool, error) {
	t.term.SetPrompt(prompt)
	line, err := t.term.ReadLine()
	if errors.Is(err, io.EOF) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return line, true, nil
}

// Output returns a writer that prints above the line being edited. A write
// without a trailing newline replaces the prompt.
func (t *Terminal) Output() io.Writer {
	return terminalWriter{t.term}
}

// Close restores the terminal state.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	return term.Restore(t.fd, t.state)
}

type terminalWriter struct {
	term *term.Terminal
}

func (w terminalWriter) Write(p []byte) (int, error) {
	text := strings.TrimPrefix(string(p), "\r")
	if strings.HasSuffix(text, "\n") {
		if _, err := w.term.Write([]byte(text)); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	w.term.SetPrompt(text)
	// An empty write redraws the prompt and the pending input.
	if _, err := w.term.Write(nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Prompter receives prompts for display.
type Prompter interface {
	Prompt(text string)
}

// Plain reads newline-terminated lines from a non-interactive input. Prompts
// are handed to a Prompter instead of being written directly.
type Plain struct {
	r       *bufio.Reader
	prompts Prompter
}

// NewPlain wraps r. prompts may be nil to suppress prompts.
func NewPlain(r io.Reader, prompts Prompter) *Plain {
	return &Plain{r: bufio.NewReader(r), prompts: prompts}
}

// ReadLine returns the next line including its trailing newline, if any.
func (p *Plain) ReadLine(prompt string) (string, bool, error) {
	if p.prompts != nil {
		p.prompts.Prompt(prompt)
	}
	line, err := p.r.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		return line, true, nil
	}
	if err != nil {
		return "", false, err
	}
	return line, true, nil
}
