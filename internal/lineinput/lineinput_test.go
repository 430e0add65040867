package lineinput

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"
)

type promptLog struct {
	prompts []string
}

func (p *promptLog) Prompt(text string) { p.prompts = append(p.prompts, text) }

func TestPlainReadLine(t *testing.T) {
	prompts := &promptLog{}
	r := NewPlain(strings.NewReader("alice\nhello everyone\nno newline"), prompts)

	var got []string
	for {
		line, ok, err := r.ReadLine("> ")
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, line)
	}

	want := []string{"alice\n", "hello everyone\n", "no newline"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	if len(prompts.prompts) != 4 {
		t.Fatalf("prompts shown %d times, want 4", len(prompts.prompts))
	}
}

func TestPlainWithoutPrompter(t *testing.T) {
	r := NewPlain(strings.NewReader(""), nil)
	if _, ok, err := r.ReadLine("> "); ok || err != nil {
		t.Fatalf("empty input should report end of input, got ok=%v err=%v", ok, err)
	}
}

type fakeTTY struct {
	in  io.Reader
	out bytes.Buffer
}

func (f *fakeTTY) Read(p []byte) (int, error)  { return f.in.Read(p) }
func (f *fakeTTY) Write(p []byte) (int, error) { return f.out.Write(p) }

func TestTerminalReadLine(t *testing.T) {
	tty := &fakeTTY{in: strings.NewReader("bob\r.join #go\r")}
	term := newTerminal(tty)

	line, ok, err := term.ReadLine("nick: ")
	if err != nil || !ok || line != "bob" {
		t.Fatalf("first line = %q ok=%v err=%v", line, ok, err)
	}
	line, ok, err = term.ReadLine("[connected] >>> ")
	if err != nil || !ok || line != ".join #go" {
		t.Fatalf("second line = %q ok=%v err=%v", line, ok, err)
	}
	if _, ok, err = term.ReadLine("[connected] >>> "); ok || err != nil {
		t.Fatalf("expected end of input, got ok=%v err=%v", ok, err)
	}
	if !strings.Contains(tty.out.String(), "nick: ") {
		t.Fatalf("prompt not drawn: %q", tty.out.String())
	}
	if err := term.Close(); err != nil {
		t.Fatalf("close without raw mode: %v", err)
	}
}

func TestTerminalOutputWriter(t *testing.T) {
	tty := &fakeTTY{in: strings.NewReader("")}
	out := newTerminal(tty).Output()

	if n, err := io.WriteString(out, "\r[general] bob: hi\n"); err != nil || n != len("\r[general] bob: hi\n") {
		t.Fatalf("write line: n=%d err=%v", n, err)
	}
	if _, err := io.WriteString(out, "\r[disconnected] !!! "); err != nil {
		t.Fatalf("write prompt: %v", err)
	}

	got := tty.out.String()
	if !strings.Contains(got, "[general] bob: hi\r\n") {
		t.Fatalf("line not written with CRLF: %q", got)
	}
}
