// Package ui serializes everything written to the terminal through a single
// worker goroutine so lines from concurrent producers never interleave.
package ui

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Kind tells the worker how to render a Message.
type Kind int

const (
	// KindPrintLine renders a full line.
	KindPrintLine Kind = iota
	// KindUpdatePrompt redraws the prompt without a trailing newline.
	KindUpdatePrompt
)

func (k Kind) String() string {
	switch k {
	case KindPrintLine:
		return "print_line"
	case KindUpdatePrompt:
		return "update_prompt"
	default:
		return "unknown"
	}
}

// Message is one unit of terminal output.
type Message struct {
	Kind Kind
	Text string
}

// PrintLine builds a KindPrintLine message.
func PrintLine(text string) Message { return Message{Kind: KindPrintLine, Text: text} }

// UpdatePrompt builds a KindUpdatePrompt message.
func UpdatePrompt(text string) Message { return Message{Kind: KindUpdatePrompt, Text: text} }

// Printer is implemented by anything that accepts terminal output.
type Printer interface {
	Println(text string)
	Prompt(text string)
}

type flusher interface {
	Flush() error
}

// queueDepth bounds pending output to one message so producers wait for the
// previous message to be picked up before queuing another.
const queueDepth = 1

// Coordinator owns the terminal writer. Only its worker goroutine writes to it.
type Coordinator struct {
	out   io.Writer
	queue chan Message
	done  chan struct{}
	log   *zerolog.Logger

	startOnce sync.Once
	closeOnce sync.Once
}

// NewCoordinator creates a coordinator for out. Call Start before enqueuing.
func NewCoordinator(out io.Writer, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		out:   out,
		queue: make(chan Message, queueDepth),
		done:  make(chan struct{}),
		log:   logger,
	}
}

// Start launches the worker. Further calls do nothing.
func (c *Coordinator) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

// Enqueue hands msg to the worker, blocking while a message is already pending.
// Enqueue must not be called after Close.
func (c *Coordinator) Enqueue(msg Message) {
	c.queue <- msg
}

// Println enqueues a PrintLine message.
func (c *Coordinator) Println(text string) {
	c.Enqueue(PrintLine(text))
}

// Prompt enqueues an UpdatePrompt message.
func (c *Coordinator) Prompt(text string) {
	c.Enqueue(UpdatePrompt(text))
}

// Close stops accepting messages. The worker drains what is queued and then
// closes Done.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.queue)
	})
}

// Done is closed once the worker has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) run() {
	defer close(c.done)
	for msg := range c.queue {
		c.render(msg)
	}
}

func (c *Coordinator) render(msg Message) {
	var err error
	switch msg.Kind {
	case KindPrintLine:
		_, err = io.WriteString(c.out, "\r"+msg.Text+"\n")
	case KindUpdatePrompt:
		_, err = io.WriteString(c.out, "\r"+msg.Text)
	default:
		c.log.Warn().Int("kind", int(msg.Kind)).Msg("dropping ui message of unknown kind")
		return
	}
	if err != nil {
		c.log.Warn().Err(err).Str("kind", msg.Kind.String()).Msg("terminal write failed")
		return
	}

	f, ok := c.out.(flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		c.log.Warn().Err(err).Str("kind", msg.Kind.String()).Msg("terminal flush failed")
	}
}
