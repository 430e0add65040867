// Package proto defines the wirechat JSON frames exchanged over the WebSocket.
package proto

import (
	"encoding/json"
	"fmt"
)

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage    = "message"
	EventNameUserJoined = "user_joined"
	EventNameUserLeft   = "user_left"
	EventNameHistory    = "history"
)

// Inbound is the envelope the client sends to the server.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewInbound wraps payload into an Inbound frame of the given type.
func NewInbound(typ string, payload any) (Inbound, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Inbound{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return Inbound{Type: typ, Data: data}, nil
}

// HelloData introduces the client.
type HelloData struct {
	User     string `json:"user"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData names a room to join or leave.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message for a room.
type MsgData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// Outbound is the envelope the server sends to the client. Data stays raw
// until the event name is known.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// EventMessage is a chat message delivered to a room.
type EventMessage struct {
	ID   int64  `json:"id,omitempty"`
	Room string `json:"room,omitempty"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventHistory carries recent messages of a room right after joining.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Msg
	}
	return e.Code + ": " + e.Msg
}

// DecodeData unmarshals the payload of an event frame into v.
func (o Outbound) DecodeData(v any) error {
	if len(o.Data) == 0 {
		return fmt.Errorf("event %q has no data", o.Event)
	}
	if err := json.Unmarshal(o.Data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", o.Event, err)
	}
	return nil
}
