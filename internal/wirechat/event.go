package wirechat

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-cli/internal/proto"
)

// EventKind classifies an inbound server frame.
type EventKind int

const (
	// EventMessage is a chat message in a room.
	EventMessage EventKind = iota
	// EventUserJoined reports a user entering a room.
	EventUserJoined
	// EventUserLeft reports a user leaving a room.
	EventUserLeft
	// EventHistory replays recent messages of a room.
	EventHistory
	// EventError is a protocol error sent outside registration.
	EventError
	// EventUnknown is any event the client does not understand.
	EventUnknown
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventHistory:
		return "history"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one decoded server frame.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Text    string
	At      time.Time
	History []proto.EventMessage
	Err     *proto.Error
	Name    string // raw event name, set for EventUnknown
}

// String renders the event as a single terminal line.
func (e Event) String() string {
	switch e.Kind {
	case EventMessage:
		return fmt.Sprintf("[%s] %s: %s", e.Room, e.User, e.Text)
	case EventUserJoined:
		return fmt.Sprintf("[room %s] %s joined", e.Room, e.User)
	case EventUserLeft:
		return fmt.Sprintf("[room %s] %s left", e.Room, e.User)
	case EventHistory:
		lines := make([]string, 0, len(e.History)+1)
		lines = append(lines, fmt.Sprintf("[room %s] %d earlier messages", e.Room, len(e.History)))
		for _, m := range e.History {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", e.Room, m.User, m.Text))
		}
		return strings.Join(lines, "\n")
	case EventError:
		if e.Err == nil {
			return "error: unknown"
		}
		return "error: " + e.Err.Error()
	default:
		return fmt.Sprintf("event=%s", e.Name)
	}
}

func eventFromOutbound(out proto.Outbound) (Event, error) {
	if out.Type == proto.OutboundTypeError {
		perr := out.Error
		if perr == nil {
			perr = &proto.Error{Code: "unknown", Msg: "unknown error"}
		}
		return Event{Kind: EventError, Err: perr}, nil
	}

	switch out.Event {
	case proto.EventNameMessage:
		var msg proto.EventMessage
		if err := out.DecodeData(&msg); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventMessage, Room: msg.Room, User: msg.User, Text: msg.Text, At: unixTime(msg.TS)}, nil
	case proto.EventNameUserJoined:
		var joined proto.EventUserJoined
		if err := out.DecodeData(&joined); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventUserJoined, Room: joined.Room, User: joined.User}, nil
	case proto.EventNameUserLeft:
		var left proto.EventUserLeft
		if err := out.DecodeData(&left); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventUserLeft, Room: left.Room, User: left.User}, nil
	case proto.EventNameHistory:
		var hist proto.EventHistory
		if err := out.DecodeData(&hist); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventHistory, Room: hist.Room, History: hist.Messages}, nil
	default:
		return Event{Kind: EventUnknown, Name: out.Event}, nil
	}
}

func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
