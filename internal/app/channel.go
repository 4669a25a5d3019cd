package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// Channel event names, client- and server-side, as spoken on the /meet
// endpoint.
const (
	EventJoinRoom      = "join-room"
	EventRequestAgent  = "request-ai-agent"
	EventSendToAI      = "send-to-ai"
	EventConnected     = "connected"
	EventRoomJoined    = "room-joined"
	EventAgentJoined   = "ai-agent-joined"
	EventAIMessageSent = "ai-message-sent"
	EventError         = "error"
)

// eventFrame is the wire format: one JSON object per websocket message.
type eventFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventHandler receives the raw payload of one server event.
type EventHandler func(data json.RawMessage)

// EventChannel is a single logical connection to the meet endpoint. Events
// from the peer are dispatched to handlers in arrival order, one at a time;
// there is no local reordering, deduplication, or auto-reconnect. At most one
// handler is registered per event name; re-registering replaces the previous
// handler.
type EventChannel struct {
	mu           sync.Mutex
	writeMu      sync.Mutex
	conn         *websocket.Conn
	handlers     map[string]EventHandler
	onDisconnect func(err error)
	closed       bool
	log          *Logger
}

func NewEventChannel(log *Logger) *EventChannel {
	return &EventChannel{
		handlers: make(map[string]EventHandler),
		log:      log,
	}
}

// Connect dials the endpoint and starts the read loop. It must be called
// once per view activation; a disconnected channel is not reused.
func (c *EventChannel) Connect(ctx context.Context, endpoint string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// On registers the handler for an event name, replacing any previous one.
func (c *EventChannel) On(event string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = handler
}

// OnDisconnect registers the handler invoked exactly once when the
// connection drops for any reason other than an explicit Close.
func (c *EventChannel) OnDisconnect(handler func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = handler
}

func (c *EventChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.closed
}

// Send emits one client event. Writes are serialized; the peer observes them
// in call order.
func (c *EventChannel) Send(event string, payload interface{}) error {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()
	if conn == nil || closed {
		return errors.New("event channel is not connected")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame := eventFrame{Event: event, Data: data}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(frame)
}

// JoinRoom announces the caller's room. Room identifiers are supplied by the
// caller, never assumed.
func (c *EventChannel) JoinRoom(roomID string) error {
	return c.Send(EventJoinRoom, map[string]string{"roomId": roomID})
}

// RequestAgent asks the server to attach a conversational agent to the room,
// optionally seeded with a custom script.
func (c *EventChannel) RequestAgent(roomID, customScript string) error {
	payload := map[string]string{"roomId": roomID}
	if customScript != "" {
		payload["custom_script"] = customScript
	}
	return c.Send(EventRequestAgent, payload)
}

// SendToAgent relays a user message to the agent in the room.
func (c *EventChannel) SendToAgent(roomID, message string) error {
	return c.Send(EventSendToAI, map[string]string{"message": message, "roomId": roomID})
}

// Close tears the connection down without firing the disconnect handler.
// Safe to call on all exit paths, including before Connect.
func (c *EventChannel) Close() {
	c.mu.Lock()
	conn := c.conn
	c.closed = true
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *EventChannel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			handler := c.onDisconnect
			c.closed = true
			c.conn = nil
			c.mu.Unlock()
			if !wasClosed && handler != nil {
				handler(err)
			}
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			if c.log != nil {
				c.log.Error("dropping malformed channel frame", map[string]interface{}{"error": err.Error()})
			}
			continue
		}

		c.mu.Lock()
		handler := c.handlers[frame.Event]
		c.mu.Unlock()
		if handler != nil {
			handler(frame.Data)
		}
	}
}

// AgentJoinedData is the payload of an ai-agent-joined event.
type AgentJoinedData struct {
	AgentData agentData `json:"agent_data"`
}

func (d AgentJoinedData) ConversationURL() string { return d.AgentData.ConversationURL }

// AIMessageData is the payload of an ai-message-sent event.
type AIMessageData struct {
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
}

// ErrorData is the payload of a server error event.
type ErrorData struct {
	Message string `json:"message"`
}
