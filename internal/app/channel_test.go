package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// channelTestServer upgrades one connection and feeds frames both ways.
type channelTestServer struct {
	srv      *httptest.Server
	mu       sync.Mutex
	conn     *websocket.Conn
	received chan eventFrame
}

func newChannelTestServer(t *testing.T) *channelTestServer {
	t.Helper()
	ts := &channelTestServer{received: make(chan eventFrame, 16)}
	upgrader := websocket.Upgrader{}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ts.mu.Lock()
		ts.conn = conn
		ts.mu.Unlock()
		for {
			var frame eventFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			ts.received <- frame
		}
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *channelTestServer) url() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *channelTestServer) push(t *testing.T, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal push payload: %v", err)
	}
	ts.mu.Lock()
	conn := ts.conn
	ts.mu.Unlock()
	if conn == nil {
		t.Fatal("push before the client connected")
	}
	if err := conn.WriteJSON(eventFrame{Event: event, Data: data}); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func (ts *channelTestServer) pushRaw(t *testing.T, raw string) {
	t.Helper()
	ts.mu.Lock()
	conn := ts.conn
	ts.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("pushRaw: %v", err)
	}
}

func (ts *channelTestServer) dropClient() {
	ts.mu.Lock()
	conn := ts.conn
	ts.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func connectChannel(t *testing.T, ts *channelTestServer) *EventChannel {
	t.Helper()
	ch := NewEventChannel(NewLogger(io.Discard))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ch.Connect(ctx, ts.url()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(ch.Close)
	return ch
}

func TestEventChannel_DispatchesInArrivalOrder(t *testing.T) {
	ts := newChannelTestServer(t)
	ch := NewEventChannel(NewLogger(io.Discard))

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	record := func(name string) EventHandler {
		return func(data json.RawMessage) {
			mu.Lock()
			got = append(got, name)
			n := len(got)
			mu.Unlock()
			if n == 3 {
				close(done)
			}
		}
	}
	ch.On(EventConnected, record("connected"))
	ch.On(EventRoomJoined, record("room-joined"))
	ch.On(EventAgentJoined, record("ai-agent-joined"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ch.Connect(ctx, ts.url()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(ch.Close)

	ts.push(t, EventConnected, map[string]string{})
	ts.push(t, EventRoomJoined, map[string]string{"roomId": "r"})
	ts.push(t, EventAgentJoined, map[string]interface{}{"agent_data": map[string]string{"conversation_url": "u"}})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{"connected", "room-joined", "ai-agent-joined"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", got, want)
		}
	}
}

func TestEventChannel_ReregisterReplacesHandler(t *testing.T) {
	ts := newChannelTestServer(t)
	ch := NewEventChannel(NewLogger(io.Discard))

	first := make(chan struct{}, 2)
	second := make(chan struct{}, 2)
	ch.On(EventConnected, func(json.RawMessage) { first <- struct{}{} })
	ch.On(EventConnected, func(json.RawMessage) { second <- struct{}{} })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ch.Connect(ctx, ts.url()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(ch.Close)

	ts.push(t, EventConnected, map[string]string{})
	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("replacement handler never fired")
	}
	select {
	case <-first:
		t.Fatal("replaced handler still fired")
	default:
	}
}

func TestEventChannel_MalformedFrameIsDropped(t *testing.T) {
	ts := newChannelTestServer(t)
	ch := connectChannel(t, ts)

	fired := make(chan struct{}, 1)
	ch.On(EventRoomJoined, func(json.RawMessage) { fired <- struct{}{} })

	// JoinRoom round-trips so the server connection exists before pushRaw.
	if err := ch.JoinRoom("room-1"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	<-ts.received

	ts.pushRaw(t, "{this is not json")
	ts.push(t, EventRoomJoined, map[string]string{"roomId": "room-1"})

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("frame after a malformed one never arrived; read loop died")
	}
}

func TestEventChannel_SendsNamedClientEvents(t *testing.T) {
	ts := newChannelTestServer(t)
	ch := connectChannel(t, ts)

	if err := ch.JoinRoom("room-9"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if err := ch.RequestAgent("room-9", "the script"); err != nil {
		t.Fatalf("RequestAgent: %v", err)
	}
	if err := ch.SendToAgent("room-9", "hello"); err != nil {
		t.Fatalf("SendToAgent: %v", err)
	}

	wantEvents := []string{EventJoinRoom, EventRequestAgent, EventSendToAI}
	for _, want := range wantEvents {
		select {
		case frame := <-ts.received:
			if frame.Event != want {
				t.Fatalf("server saw event %q, want %q", frame.Event, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("server never received %q", want)
		}
	}
}

func TestEventChannel_DisconnectHandlerFiresOnce(t *testing.T) {
	ts := newChannelTestServer(t)
	ch := connectChannel(t, ts)

	drops := make(chan error, 4)
	ch.OnDisconnect(func(err error) { drops <- err })

	if err := ch.JoinRoom("r"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	<-ts.received

	ts.dropClient()

	select {
	case <-drops:
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect handler never fired")
	}
	select {
	case <-drops:
		t.Fatal("disconnect handler fired more than once")
	case <-time.After(200 * time.Millisecond):
	}
	if ch.Connected() {
		t.Fatal("Connected() = true after the peer dropped")
	}
}

func TestEventChannel_ExplicitCloseSuppressesDisconnectHandler(t *testing.T) {
	ts := newChannelTestServer(t)
	ch := connectChannel(t, ts)

	drops := make(chan error, 1)
	ch.OnDisconnect(func(err error) { drops <- err })

	if err := ch.JoinRoom("r"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	<-ts.received

	ch.Close()

	select {
	case <-drops:
		t.Fatal("disconnect handler fired for an explicit Close")
	case <-time.After(300 * time.Millisecond):
	}
	if err := ch.Send(EventJoinRoom, map[string]string{}); err == nil {
		t.Fatal("Send on a closed channel succeeded")
	}
}
