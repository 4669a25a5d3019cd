package tui

import (
	"io"
	"strings"
	"testing"

	"tutor-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func testMeetModel() *MeetModel {
	application := app.NewApplication(app.DefaultConfig(), app.NewCredentialStore(""), app.NewLogger(io.Discard))
	m := NewMeetModel(application, NewTheme(), "the script")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestMeetModel_AgentJoinedActivatesSession(t *testing.T) {
	m := testMeetModel()
	m.conv.RequestLive(m.roomID)

	m.Update(channelEventMsg{inner: agentJoinedMsg{url: "https://tavus.example/conv/1"}})

	live := m.conv.Live()
	if live.Status != app.LiveActive {
		t.Fatalf("live status = %q, want active", live.Status)
	}
	if live.ConversationURL != "https://tavus.example/conv/1" {
		t.Fatalf("conversation url = %q", live.ConversationURL)
	}
}

func TestMeetModel_AgentJoinedWithoutURLFails(t *testing.T) {
	m := testMeetModel()
	m.conv.RequestLive(m.roomID)

	m.Update(channelEventMsg{inner: agentJoinedMsg{url: ""}})

	if m.conv.Live().Status != app.LiveError {
		t.Fatalf("live status = %q, want error", m.conv.Live().Status)
	}
}

func TestMeetModel_AckTimeoutNotifiesOnce(t *testing.T) {
	m := testMeetModel()
	m.conv.RequestLive(m.roomID)

	m.Update(ackTimeoutMsg{roomID: m.roomID})
	if m.conv.Live().Status != app.LiveError {
		t.Fatalf("live status = %q, want error after timeout", m.conv.Live().Status)
	}

	count := strings.Count(meetTranscript(m), "did not join in time")
	if count != 1 {
		t.Fatalf("timeout notices = %d, want 1", count)
	}

	// A second timeout tick for the same room must not repeat the notice.
	m.Update(ackTimeoutMsg{roomID: m.roomID})
	if got := strings.Count(meetTranscript(m), "did not join in time"); got != 1 {
		t.Fatalf("timeout notices after second tick = %d, want 1", got)
	}
}

func TestMeetModel_AckTimeoutIgnoredAfterJoin(t *testing.T) {
	m := testMeetModel()
	m.conv.RequestLive(m.roomID)
	m.Update(channelEventMsg{inner: agentJoinedMsg{url: "https://x/conv"}})

	m.Update(ackTimeoutMsg{roomID: m.roomID})
	if m.conv.Live().Status != app.LiveActive {
		t.Fatalf("stale timeout changed status to %q", m.conv.Live().Status)
	}
}

func TestMeetModel_StaleRoomTimeoutIgnored(t *testing.T) {
	m := testMeetModel()
	m.conv.RequestLive(m.roomID)

	m.Update(ackTimeoutMsg{roomID: "some-other-room"})
	if m.conv.Live().Status != app.LiveRequested {
		t.Fatalf("foreign-room timeout changed status to %q", m.conv.Live().Status)
	}
}

func TestMeetModel_AIMessageAppendsExchange(t *testing.T) {
	m := testMeetModel()
	before := len(m.conv.Messages())

	m.Update(channelEventMsg{inner: aiMessageMsg{user: "what is mass?", ai: "resistance to acceleration"}})

	msgs := m.conv.Messages()
	if len(msgs) != before+2 {
		t.Fatalf("len(messages) = %d, want %d", len(msgs), before+2)
	}
	if msgs[len(msgs)-2].Role != app.RoleUser || msgs[len(msgs)-1].Role != app.RoleAssistant {
		t.Fatal("exchange order is not user then assistant")
	}
}

func TestMeetModel_DisconnectResetsActiveSession(t *testing.T) {
	m := testMeetModel()
	m.joined = true
	m.conv.RequestLive(m.roomID)
	m.Update(channelEventMsg{inner: agentJoinedMsg{url: "https://x/conv"}})

	m.Update(channelEventMsg{inner: channelClosedMsg{err: io.ErrUnexpectedEOF}})

	if m.conv.Live().Status != app.LiveNone {
		t.Fatalf("live status after disconnect = %q, want none", m.conv.Live().Status)
	}
	if m.joined {
		t.Fatal("still marked joined after disconnect")
	}
}

func TestMeetModel_EscClosesChannelAndView(t *testing.T) {
	m := testMeetModel()
	m.conv.RequestLive(m.roomID)
	m.Update(channelEventMsg{inner: agentJoinedMsg{url: "https://x/conv"}})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc produced no command")
	}
	if _, ok := cmd().(meetClosedMsg); !ok {
		t.Fatal("esc did not emit meetClosedMsg")
	}
	if m.conv.Live().Status != app.LiveEnded {
		t.Fatalf("live status after leaving = %q, want ended", m.conv.Live().Status)
	}
}

func meetTranscript(m *MeetModel) string {
	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
