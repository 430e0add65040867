// Package wirechat connects the terminal client to a wirechat server over
// WebSocket and turns server frames into Events.
package wirechat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/wirechat-cli/internal/proto"
)

const (
	eventBuffer = 8
	readLimit   = 1 << 20
)

// Options configures a connection.
type Options struct {
	URL      string
	Token    string
	Room     string
	Protocol int

	DialTimeout time.Duration
	// RegisterTimeout is how long Register waits for the server to refuse a
	// hello before treating it as accepted.
	RegisterTimeout time.Duration
}

// Conn is a client connection to a wirechat server.
type Conn struct {
	ws     *websocket.Conn
	opts   Options
	log    *zerolog.Logger
	roster *Roster

	events chan Event
	closed chan struct{}
	cancel context.CancelFunc

	mu         sync.Mutex
	regWaiter  chan *proto.Error
	registered bool
	nick       string
	room       string
	joined     map[string]struct{}
	readErr    error

	closeOnce sync.Once
}

// Dial connects to opts.URL and starts reading server frames.
func Dial(ctx context.Context, opts Options, logger *zerolog.Logger) (*Conn, error) {
	if opts.Token != "" {
		info, err := InspectToken(opts.Token)
		if err != nil {
			return nil, fmt.Errorf("inspect token: %w", err)
		}
		if info.Expired(time.Now()) {
			return nil, fmt.Errorf("%w at %s", ErrTokenExpired, info.ExpiresAt.Format(time.RFC3339))
		}
	}
	if opts.Protocol == 0 {
		opts.Protocol = proto.ProtocolVersion
	}

	dialCtx := ctx
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}
	ws.SetReadLimit(readLimit)

	readCtx, cancel := context.WithCancel(ctx)
	c := &Conn{
		ws:     ws,
		opts:   opts,
		log:    logger,
		roster: NewRoster(),
		events: make(chan Event, eventBuffer),
		closed: make(chan struct{}),
		cancel: cancel,
		joined: make(map[string]struct{}),
	}
	go c.readLoop(readCtx)

	logger.Info().Str("url", opts.URL).Msg("connected")
	return c, nil
}

// Events yields decoded server frames. It is closed when the connection ends.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Roster returns the room membership seen on this connection.
func (c *Conn) Roster() *Roster {
	return c.roster
}

// Nick returns the registered nickname.
func (c *Conn) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// Err returns the error that ended the connection. A normal close by either
// side leaves it nil.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Register sends hello for nick. The server only answers a hello it refuses,
// so silence for RegisterTimeout counts as acceptance. On success the
// configured room is joined.
func (c *Conn) Register(ctx context.Context, nick string) error {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return ErrEmptyNick
	}

	waiter := make(chan *proto.Error, 1)
	c.mu.Lock()
	c.regWaiter = waiter
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.regWaiter = nil
		c.mu.Unlock()
	}()

	hello := proto.HelloData{User: nick, Token: c.opts.Token, Protocol: c.opts.Protocol}
	if err := c.write(ctx, proto.InboundTypeHello, hello); err != nil {
		return err
	}

	timer := time.NewTimer(c.opts.RegisterTimeout)
	defer timer.Stop()

	select {
	case perr := <-waiter:
		return &ServerError{Code: perr.Code, Msg: perr.Msg}
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	c.setRegistered(true, nick)
	if c.opts.Room == "" {
		c.log.Info().Str("nick", nick).Msg("registered")
		return nil
	}
	// Registration only counts once the configured room is joined.
	if err := c.Join(ctx, c.opts.Room); err != nil {
		c.setRegistered(false, "")
		return fmt.Errorf("join %s: %w", c.opts.Room, err)
	}
	c.log.Info().Str("nick", nick).Str("room", c.opts.Room).Msg("registered")
	return nil
}

func (c *Conn) setRegistered(ok bool, nick string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = ok
	c.nick = nick
}

// Send posts text to the active room. Empty text is dropped.
func (c *Conn) Send(ctx context.Context, text string) error {
	if !c.isRegistered() {
		return ErrNotRegistered
	}
	if text == "" {
		return nil
	}
	room := c.Room()
	if room == "" {
		return ErrNoRoom
	}
	return c.write(ctx, proto.InboundTypeMsg, proto.MsgData{Room: room, Text: text})
}

// Join subscribes to room and makes it the active room.
func (c *Conn) Join(ctx context.Context, room string) error {
	if !c.isRegistered() {
		return ErrNotRegistered
	}
	if room == "" || strings.ContainsFunc(room, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrBadRoom, room)
	}
	if err := c.write(ctx, proto.InboundTypeJoin, proto.JoinData{Room: room}); err != nil {
		return err
	}

	c.mu.Lock()
	c.joined[room] = struct{}{}
	c.room = room
	c.mu.Unlock()
	return nil
}

// Leave unsubscribes from room. If it was active, another joined room (if
// any) becomes active.
func (c *Conn) Leave(ctx context.Context, room string) error {
	if !c.isRegistered() {
		return ErrNotRegistered
	}
	c.mu.Lock()
	_, ok := c.joined[room]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotJoined, room)
	}

	if err := c.write(ctx, proto.InboundTypeLeave, proto.JoinData{Room: room}); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.joined, room)
	if c.room == room {
		c.room = ""
		if rooms := c.sortedRoomsLocked(); len(rooms) > 0 {
			c.room = rooms[0]
		}
	}
	return nil
}

// Switch makes an already joined room the active one.
func (c *Conn) Switch(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.joined[room]; !ok {
		return fmt.Errorf("%w: %s", ErrNotJoined, room)
	}
	c.room = room
	return nil
}

// Room returns the active room.
func (c *Conn) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Rooms returns the joined rooms in name order.
func (c *Conn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedRoomsLocked()
}

func (c *Conn) sortedRoomsLocked() []string {
	rooms := make([]string, 0, len(c.joined))
	for r := range c.joined {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return rooms
}

// Close ends the connection and waits for the read loop to stop.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close(websocket.StatusNormalClosure, "bye")
		c.cancel()
		<-c.closed
	})
	return err
}

func (c *Conn) isRegistered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

func (c *Conn) write(ctx context.Context, typ string, payload any) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	inbound, err := proto.NewInbound(typ, payload)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, c.ws, inbound); err != nil {
		return fmt.Errorf("write %s: %w", typ, err)
	}
	return nil
}

func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.events)
	defer close(c.closed)

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, c.ws, &out); err != nil {
			c.finish(err)
			return
		}

		if out.Type == proto.OutboundTypeError && c.deliverRegisterError(out.Error) {
			continue
		}

		ev, err := eventFromOutbound(out)
		if err != nil {
			c.log.Warn().Err(err).Str("event", out.Event).Msg("dropping malformed frame")
			continue
		}
		c.roster.Apply(ev)

		select {
		case c.events <- ev:
		case <-ctx.Done():
			c.finish(ctx.Err())
			return
		}
	}
}

// deliverRegisterError hands an error frame to a pending Register call.
func (c *Conn) deliverRegisterError(perr *proto.Error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.regWaiter == nil {
		return false
	}
	if perr == nil {
		perr = &proto.Error{Code: "unknown", Msg: "unknown error"}
	}
	select {
	case c.regWaiter <- perr:
	default:
	}
	return true
}

func (c *Conn) finish(err error) {
	// Treat expected shutdowns quietly.
	quiet := errors.Is(err, context.Canceled)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		quiet = true
	}
	if quiet {
		return
	}
	c.log.Warn().Err(err).Msg("read error")

	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
}
