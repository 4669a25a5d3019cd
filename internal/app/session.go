package app

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry in the ordered transcript. Append-only during a
// session; never reordered or deleted. A message that references an artifact
// keeps that artifact forever.
type Message struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
	Artifact  *PresentationArtifact
}

// TurnStage is the lifecycle of one prompt submission.
type TurnStage string

const (
	TurnIdle       TurnStage = "idle"
	TurnRequesting TurnStage = "requesting"
	TurnReady      TurnStage = "ready"
	TurnErrored    TurnStage = "errored"
)

// LiveStatus is the lifecycle of a live tutor session.
type LiveStatus string

const (
	LiveNone      LiveStatus = "none"
	LiveRequested LiveStatus = "requested"
	LiveActive    LiveStatus = "active"
	LiveEnded     LiveStatus = "ended"
	LiveError     LiveStatus = "error"
)

// LiveSession tracks the one live tutor connection a view may hold.
type LiveSession struct {
	RoomID          string
	Status          LiveStatus
	ConversationURL string
}

// Conversation is the session view model: the transcript, the stage of each
// in-flight turn, the live session, and quiz state per artifact message.
// All mutation goes through the transition methods below; completions are
// keyed by turn ID so interleaved submissions cannot clobber each other.
type Conversation struct {
	messages  []Message
	turns     map[string]TurnStage
	live      LiveSession
	quizzes   map[string]*QuizProgress
	quizStage map[string]TurnStage
}

func NewConversation() *Conversation {
	return &Conversation{
		turns:     make(map[string]TurnStage),
		live:      LiveSession{Status: LiveNone},
		quizzes:   make(map[string]*QuizProgress),
		quizStage: make(map[string]TurnStage),
	}
}

// Messages returns the transcript in insertion order.
func (c *Conversation) Messages() []Message {
	return c.messages
}

// AppendSystem adds an informational system message outside any turn.
func (c *Conversation) AppendSystem(content string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Content:   content,
		CreatedAt: time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

// AppendExchange records a user utterance and the agent's reply, in that
// order, as relayed by an ai-message-sent event.
func (c *Conversation) AppendExchange(userText, agentText string) {
	now := time.Now()
	c.messages = append(c.messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Content: userText, CreatedAt: now},
		Message{ID: uuid.NewString(), Role: RoleAssistant, Content: agentText, CreatedAt: now},
	)
}

// BeginTurn appends the user's prompt and opens a requesting turn. The
// returned turn ID keys the eventual completion.
func (c *Conversation) BeginTurn(prompt string) string {
	turnID := uuid.NewString()
	c.messages = append(c.messages, Message{
		ID:        turnID,
		Role:      RoleUser,
		Content:   prompt,
		CreatedAt: time.Now(),
	})
	c.turns[turnID] = TurnRequesting
	return turnID
}

// CompleteTurn closes a requesting turn with its result, appending exactly
// one assistant message. Unknown or already-settled turns are ignored.
func (c *Conversation) CompleteTurn(turnID, content string, artifact *PresentationArtifact) *Message {
	if c.turns[turnID] != TurnRequesting {
		return nil
	}
	c.turns[turnID] = TurnReady
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
		Artifact:  artifact,
	}
	c.messages = append(c.messages, msg)
	return &c.messages[len(c.messages)-1]
}

// FailTurn closes a requesting turn with a system-role error message.
func (c *Conversation) FailTurn(turnID, errText string) {
	if c.turns[turnID] != TurnRequesting {
		return
	}
	c.turns[turnID] = TurnErrored
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Content:   errText,
		CreatedAt: time.Now(),
	})
}

func (c *Conversation) TurnStage(turnID string) TurnStage {
	if st, ok := c.turns[turnID]; ok {
		return st
	}
	return TurnIdle
}

// Requesting reports whether any turn is still awaiting its result.
func (c *Conversation) Requesting() bool {
	for _, st := range c.turns {
		if st == TurnRequesting {
			return true
		}
	}
	return false
}

func (c *Conversation) Live() LiveSession {
	return c.live
}

// RequestLive moves none/ended/error to requested for the given room. Only
// one live session may be in flight at a time.
func (c *Conversation) RequestLive(roomID string) bool {
	switch c.live.Status {
	case LiveRequested, LiveActive:
		return false
	}
	c.live = LiveSession{RoomID: roomID, Status: LiveRequested}
	return true
}

// LiveJoined moves requested to active. An agent without a conversation URL
// never activates.
func (c *Conversation) LiveJoined(conversationURL string) bool {
	if c.live.Status != LiveRequested || conversationURL == "" {
		return false
	}
	c.live.Status = LiveActive
	c.live.ConversationURL = conversationURL
	return true
}

// LiveFailed moves requested to error. Used for channel errors, disconnects
// while waiting, and acknowledgment timeouts. Returns true only on the
// transition, so callers notify the user exactly once.
func (c *Conversation) LiveFailed() bool {
	if c.live.Status != LiveRequested {
		return false
	}
	c.live.Status = LiveError
	c.live.ConversationURL = ""
	return true
}

// LiveDisconnected handles a dropped channel: a waiting request fails, an
// active session resets to none.
func (c *Conversation) LiveDisconnected() {
	switch c.live.Status {
	case LiveRequested:
		c.live.Status = LiveError
		c.live.ConversationURL = ""
	case LiveActive:
		c.live = LiveSession{Status: LiveNone}
	}
}

// EndLive is the explicit user termination of an active session.
func (c *Conversation) EndLive() bool {
	if c.live.Status != LiveActive {
		return false
	}
	c.live.Status = LiveEnded
	return true
}

// BeginQuiz opens quiz generation for the artifact message. A quiz already
// requesting or ready for that message is left alone.
func (c *Conversation) BeginQuiz(messageID string) bool {
	switch c.quizStage[messageID] {
	case TurnRequesting, TurnReady:
		return false
	}
	c.quizStage[messageID] = TurnRequesting
	return true
}

func (c *Conversation) CompleteQuiz(messageID string, quiz *Quiz) *QuizProgress {
	if c.quizStage[messageID] != TurnRequesting {
		return nil
	}
	c.quizStage[messageID] = TurnReady
	progress := NewQuizProgress(quiz)
	c.quizzes[messageID] = progress
	return progress
}

func (c *Conversation) FailQuiz(messageID string) {
	if c.quizStage[messageID] != TurnRequesting {
		return
	}
	c.quizStage[messageID] = TurnErrored
}

// ResetQuiz forgets a generated quiz so a new one can be requested.
func (c *Conversation) ResetQuiz(messageID string) {
	delete(c.quizzes, messageID)
	delete(c.quizStage, messageID)
}

func (c *Conversation) QuizStage(messageID string) TurnStage {
	if st, ok := c.quizStage[messageID]; ok {
		return st
	}
	return TurnIdle
}

func (c *Conversation) QuizFor(messageID string) *QuizProgress {
	return c.quizzes[messageID]
}
