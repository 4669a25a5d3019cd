package tui

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"tutor-cli/internal/app"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Emitted upward when the user leaves the meet view.
type meetClosedMsg struct{}

type connectResultMsg struct{ err error }

type channelEventMsg struct{ inner tea.Msg }

type roomJoinedMsg struct{}

type agentJoinedMsg struct{ url string }

type aiMessageMsg struct{ user, ai string }

type channelErrorMsg struct{ message string }

type channelClosedMsg struct{ err error }

type ackTimeoutMsg struct{ roomID string }

// MeetModel owns one EventChannel for its lifetime: connect on entry, join a
// caller-generated room, request the agent, relay messages, and close the
// channel on every exit path. Server events arrive through a buffered channel
// so the read loop never blocks on the UI.
type MeetModel struct {
	app    *app.Application
	theme  Theme
	conv   *app.Conversation
	script string

	channel *app.EventChannel
	events  chan tea.Msg
	roomID  string
	joined  bool

	input      textinput.Model
	transcript viewport.Model
	ready      bool
	statusMsg  string
	width      int
	height     int
	renderer   *ScriptRenderer
}

func NewMeetModel(application *app.Application, theme Theme, script string) *MeetModel {
	ti := textinput.New()
	ti.Placeholder = "Say something to your tutor…"
	ti.CharLimit = 2000
	ti.Focus()

	conv := app.NewConversation()
	conv.AppendSystem("Connecting to the meet room…")

	return &MeetModel{
		app:      application,
		theme:    theme,
		conv:     conv,
		script:   script,
		events:   make(chan tea.Msg, 64),
		roomID:   application.NewRoomID(),
		input:    ti,
		width:    100,
		height:   30,
		renderer: NewScriptRenderer(theme),
	}
}

func (m *MeetModel) Init() tea.Cmd {
	return tea.Batch(m.connect(), textinput.Blink)
}

func (m *MeetModel) connect() tea.Cmd {
	channel := m.app.NewChannel()
	m.channel = channel
	events := m.events

	channel.On(app.EventConnected, func(_ json.RawMessage) {
		events <- channelEventMsg{inner: connectResultMsg{}}
	})
	channel.On(app.EventRoomJoined, func(_ json.RawMessage) {
		events <- channelEventMsg{inner: roomJoinedMsg{}}
	})
	channel.On(app.EventAgentJoined, func(data json.RawMessage) {
		var payload app.AgentJoinedData
		_ = json.Unmarshal(data, &payload)
		events <- channelEventMsg{inner: agentJoinedMsg{url: payload.ConversationURL()}}
	})
	channel.On(app.EventAIMessageSent, func(data json.RawMessage) {
		var payload app.AIMessageData
		_ = json.Unmarshal(data, &payload)
		events <- channelEventMsg{inner: aiMessageMsg{user: payload.UserMessage, ai: payload.AIResponse}}
	})
	channel.On(app.EventError, func(data json.RawMessage) {
		var payload app.ErrorData
		_ = json.Unmarshal(data, &payload)
		events <- channelEventMsg{inner: channelErrorMsg{message: payload.Message}}
	})
	channel.OnDisconnect(func(err error) {
		events <- channelEventMsg{inner: channelClosedMsg{err: err}}
	})

	endpoint := m.app.Config.MeetURL
	roomID := m.roomID
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := channel.Connect(ctx, endpoint); err != nil {
				return channelEventMsg{inner: channelClosedMsg{err: err}}
			}
			if err := channel.JoinRoom(roomID); err != nil {
				return channelEventMsg{inner: channelClosedMsg{err: err}}
			}
			return nil
		},
		m.waitEvent(),
	)
}

// waitEvent blocks on the event channel and hands the next server event to
// the update loop. Re-armed after every delivery.
func (m *MeetModel) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m *MeetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := maxInt(3, m.height-8)
		if !m.ready {
			m.transcript = viewport.New(m.width-4, h)
			m.ready = true
		} else {
			m.transcript.Width = m.width - 4
			m.transcript.Height = h
		}
		m.input.Width = maxInt(10, m.width-8)
		m.refresh()
		return m, nil

	case channelEventMsg:
		cmd := m.onChannelEvent(msg.inner)
		return m, tea.Batch(cmd, m.waitEvent())

	case ackTimeoutMsg:
		if msg.roomID == m.roomID && m.conv.LiveFailed() {
			m.conv.AppendSystem("The AI tutor did not join in time. Try requesting it again.")
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *MeetModel) onChannelEvent(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case connectResultMsg:
		m.statusMsg = "connected"

	case roomJoinedMsg:
		m.joined = true
		m.conv.AppendSystem("Joined room " + m.roomID + ". Press ctrl+t to invite the AI tutor.")

	case agentJoinedMsg:
		if m.conv.LiveJoined(msg.url) {
			m.conv.AppendSystem("Your AI tutor joined the room. Conversation: " + msg.url)
		} else if msg.url == "" && m.conv.LiveFailed() {
			m.conv.AppendSystem("The AI tutor joined without a conversation link; please retry.")
		}

	case aiMessageMsg:
		m.conv.AppendExchange(msg.user, msg.ai)

	case channelErrorMsg:
		if m.conv.LiveFailed() {
			m.conv.AppendSystem("Tutor request failed: " + msg.message)
		} else {
			m.conv.AppendSystem("Room error: " + msg.message)
		}

	case channelClosedMsg:
		m.joined = false
		m.conv.LiveDisconnected()
		if msg.err != nil {
			m.conv.AppendSystem("Connection lost: " + msg.err.Error())
		} else {
			m.conv.AppendSystem("Connection lost.")
		}
	}
	m.refresh()
	m.transcript.GotoBottom()
	return nil
}

func (m *MeetModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.shutdown()
		return m, tea.Quit

	case "esc":
		m.shutdown()
		return m, func() tea.Msg { return meetClosedMsg{} }

	case "ctrl+t":
		return m, m.requestAgent()

	case "enter":
		return m, m.sendMessage()

	case "up":
		m.transcript.LineUp(1)
		return m, nil
	case "down":
		m.transcript.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *MeetModel) requestAgent() tea.Cmd {
	if !m.joined {
		m.conv.AppendSystem("Not in a room yet; wait for the connection.")
		m.refresh()
		return nil
	}
	if !m.conv.RequestLive(m.roomID) {
		return nil
	}
	if err := m.channel.RequestAgent(m.roomID, m.script); err != nil {
		if m.conv.LiveFailed() {
			m.conv.AppendSystem("Could not request the tutor: " + err.Error())
		}
		m.refresh()
		return nil
	}
	m.conv.AppendSystem("Requesting an AI tutor for this room…")
	m.refresh()

	roomID := m.roomID
	timeout := m.app.Config.AgentAckTimeout()
	return tea.Tick(timeout, func(_ time.Time) tea.Msg {
		return ackTimeoutMsg{roomID: roomID}
	})
}

func (m *MeetModel) sendMessage() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if m.conv.Live().Status != app.LiveActive {
		m.conv.AppendSystem("No tutor in the room yet. Press ctrl+t to invite one.")
		m.refresh()
		return nil
	}
	if err := m.channel.SendToAgent(m.roomID, text); err != nil {
		m.conv.AppendSystem("Send failed: " + err.Error())
		m.refresh()
		return nil
	}
	// The exchange lands in the transcript when the server relays it back.
	m.input.Reset()
	return nil
}

// shutdown closes the channel and ends any active session. Every path out of
// this view goes through here.
func (m *MeetModel) shutdown() {
	m.conv.EndLive()
	if m.channel != nil {
		m.channel.Close()
	}
}

func (m *MeetModel) refresh() {
	width := maxInt(20, m.width-8)
	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		var style lipgloss.Style
		label := ""
		switch msg.Role {
		case app.RoleUser:
			style, label = m.theme.RoleYou, "YOU  "
		case app.RoleAssistant:
			style, label = m.theme.RoleTutor, "TUTOR"
		default:
			style, label = m.theme.RoleSys, "·    "
		}
		body := msg.Content
		if msg.Role == app.RoleAssistant {
			body = m.renderer.Render(msg.Content, width-6)
		}
		b.WriteString(style.Render(label))
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Width(width - 6).Render(body))
		b.WriteString("\n")
	}
	m.transcript.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *MeetModel) View() string {
	if !m.ready {
		return "…"
	}
	title := m.theme.TopBarTitle.Render("meet") + " " +
		m.theme.TopBarMeta.Render("room "+truncateRunes(m.roomID, 13))

	var badge string
	switch m.conv.Live().Status {
	case app.LiveRequested:
		badge = m.theme.StatusWarn.Render("tutor: joining…")
	case app.LiveActive:
		badge = m.theme.StatusOK.Render("tutor: live")
	case app.LiveError:
		badge = m.theme.StatusErr.Render("tutor: failed")
	case app.LiveEnded:
		badge = m.theme.TopBarMeta.Render("tutor: ended")
	default:
		if m.joined {
			badge = m.theme.TopBarMeta.Render("tutor: not requested")
		} else {
			badge = m.theme.StatusWarn.Render("connecting…")
		}
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(badge) - 2
	if gap < 2 {
		gap = 2
	}
	top := m.theme.TopBar.Render(title + strings.Repeat(" ", gap) + badge)

	pane := m.theme.Pane.Width(m.width - 2).Render(m.transcript.View())
	input := m.theme.InputBoxF.Width(maxInt(10, m.width-2)).Render(m.input.View())
	footer := m.theme.Footer.Width(m.width).Render("enter send  ctrl+t invite tutor  esc leave room  ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, top, pane, input, footer)
}
