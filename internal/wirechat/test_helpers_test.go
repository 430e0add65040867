package wirechat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/vovakirdan/wirechat-cli/internal/log"
	"github.com/vovakirdan/wirechat-cli/internal/proto"
)

// fakeServer speaks just enough wirechat for client tests: it refuses the
// nick "taken", hangs up on "drop", kicks "kick" with a policy violation, echoes joins and messages back as events.
type fakeServer struct {
	frames chan proto.Inbound
}

func startFakeServer(t *testing.T) (*fakeServer, string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	srv := &fakeServer{frames: make(chan proto.Inbound, 64)}

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		conn, err := acceptWS(c)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")
		srv.serve(c.Request.Context(), conn)
	})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return srv, strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

// acceptWS upgrades on the writer underneath gin's wrapper; gin refuses to
// hijack once the 101 status has been written through it.
func acceptWS(c *gin.Context) (*websocket.Conn, error) {
	var w http.ResponseWriter = c.Writer
	if u, ok := c.Writer.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = u.Unwrap()
	}
	return websocket.Accept(w, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
}

func (s *fakeServer) serve(ctx context.Context, conn *websocket.Conn) {
	user := ""
	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return
		}
		s.frames <- in

		switch in.Type {
		case proto.InboundTypeHello:
			var hello proto.HelloData
			_ = json.Unmarshal(in.Data, &hello)
			switch hello.User {
			case "taken":
				_ = wsjson.Write(ctx, conn, proto.Outbound{
					Type:  proto.OutboundTypeError,
					Error: &proto.Error{Code: "nick_taken", Msg: "nickname in use"},
				})
			case "drop":
				conn.Close(websocket.StatusGoingAway, "bye")
				return
			case "kick":
				conn.Close(websocket.StatusPolicyViolation, "banned")
				return
			default:
				user = hello.User
			}
		case proto.InboundTypeJoin:
			var join proto.JoinData
			_ = json.Unmarshal(in.Data, &join)
			s.emit(ctx, conn, proto.EventNameUserJoined, proto.EventUserJoined{Room: join.Room, User: user})
		case proto.InboundTypeLeave:
			var leave proto.JoinData
			_ = json.Unmarshal(in.Data, &leave)
			s.emit(ctx, conn, proto.EventNameUserLeft, proto.EventUserLeft{Room: leave.Room, User: user})
		case proto.InboundTypeMsg:
			var msg proto.MsgData
			_ = json.Unmarshal(in.Data, &msg)
			s.emit(ctx, conn, proto.EventNameMessage, proto.EventMessage{
				ID: 1, Room: msg.Room, User: user, Text: msg.Text, TS: time.Now().Unix(),
			})
		}
	}
}

func (s *fakeServer) emit(ctx context.Context, conn *websocket.Conn, name string, data any) {
	raw, _ := json.Marshal(data)
	_ = wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: raw})
}

func (s *fakeServer) mustFrame(t *testing.T, typ string) proto.Inbound {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case in := <-s.frames:
			if in.Type == typ {
				return in
			}
		case <-deadline:
			t.Fatalf("server never received %q frame", typ)
			return proto.Inbound{}
		}
	}
}

func dialTest(t *testing.T, url string) *Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conn, err := Dial(ctx, Options{
		URL:             url,
		Room:            "general",
		DialTimeout:     2 * time.Second,
		RegisterTimeout: 150 * time.Millisecond,
	}, log.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed while waiting for %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return Event{}
		}
	}
}

type fakeState struct {
	channel string
	lines   []string
}

func (f *fakeState) CurrentChannel() (string, bool) { return f.channel, f.channel != "" }
func (f *fakeState) SetCurrentChannel(name string)  { f.channel = name }
func (f *fakeState) Println(text string)            { f.lines = append(f.lines, text) }
