package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	"tutor-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func testChatModel() *ChatModel {
	application := app.NewApplication(app.DefaultConfig(), app.NewCredentialStore(""), app.NewLogger(io.Discard))
	session := &app.Session{UserID: 1, DisplayName: "ada", Token: "tok"}
	m := NewChatModel(application, session, NewTheme())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func transcriptText(m *ChatModel) string {
	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func TestChatModel_SubmitOpensTurn(t *testing.T) {
	m := testChatModel()
	m.input.SetValue("explain gravity")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submit produced no command")
	}
	if !m.conv.Requesting() {
		t.Fatal("no requesting turn after submit")
	}
	if m.input.Value() != "" {
		t.Fatal("input not cleared after submit")
	}
	msgs := m.conv.Messages()
	last := msgs[len(msgs)-1]
	if last.Role != app.RoleUser || last.Content != "explain gravity" {
		t.Fatalf("last message = {%q %q}", last.Role, last.Content)
	}
}

func TestChatModel_EmptySubmitIsIgnored(t *testing.T) {
	m := testChatModel()
	m.input.SetValue("   ")
	before := len(m.conv.Messages())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.conv.Messages()) != before {
		t.Fatal("blank submit appended a message")
	}
}

func TestChatModel_PresentationResultCompletesItsOwnTurn(t *testing.T) {
	m := testChatModel()
	first := m.conv.BeginTurn("first")
	second := m.conv.BeginTurn("second")

	artifact := &app.PresentationArtifact{Script: "# Script", MediaURL: "http://x/m.mp4", SourcePrompt: "second"}
	m.Update(presentationResultMsg{turnID: second, artifact: artifact})

	if st := m.conv.TurnStage(second); st != app.TurnReady {
		t.Fatalf("second turn stage = %q, want ready", st)
	}
	if st := m.conv.TurnStage(first); st != app.TurnRequesting {
		t.Fatalf("first turn stage = %q, want requesting", st)
	}
	if m.latestArtifact() != artifact {
		t.Fatal("latest artifact not tracked after completion")
	}
}

func TestChatModel_PresentationErrorAppendsSystemMessage(t *testing.T) {
	m := testChatModel()
	turnID := m.conv.BeginTurn("prompt")

	m.Update(presentationResultMsg{turnID: turnID, err: errors.New("backend exploded")})

	if st := m.conv.TurnStage(turnID); st != app.TurnErrored {
		t.Fatalf("turn stage = %q, want errored", st)
	}
	if !strings.Contains(transcriptText(m), "backend exploded") {
		t.Fatal("error text missing from transcript")
	}
}

func TestChatModel_AuthErrorEmitsAuthExpired(t *testing.T) {
	m := testChatModel()
	turnID := m.conv.BeginTurn("prompt")

	_, cmd := m.Update(presentationResultMsg{turnID: turnID, err: &app.AuthError{StatusCode: 401}})
	if cmd == nil {
		t.Fatal("auth failure produced no command")
	}
	if _, ok := cmd().(authExpiredMsg); !ok {
		t.Fatal("auth failure did not emit authExpiredMsg")
	}
}

func TestChatModel_QuizWithoutArtifactExplains(t *testing.T) {
	m := testChatModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	if cmd != nil {
		t.Fatal("quiz without an artifact produced a command")
	}
	if !strings.Contains(transcriptText(m), "Generate a presentation first") {
		t.Fatal("missing guidance message")
	}
}

func TestChatModel_LiveWithoutArtifactExplains(t *testing.T) {
	m := testChatModel()
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.conv.Live().Status != app.LiveNone {
		t.Fatalf("live status = %q, want none", m.conv.Live().Status)
	}
}

func TestChatModel_QuizResultOpensQuizView(t *testing.T) {
	m := testChatModel()
	turnID := m.conv.BeginTurn("prompt")
	m.Update(presentationResultMsg{turnID: turnID, artifact: &app.PresentationArtifact{Script: "s"}})
	messageID := m.latestArtifactID

	if !m.conv.BeginQuiz(messageID) {
		t.Fatal("BeginQuiz returned false")
	}
	quiz := &app.Quiz{Questions: []app.QuizQuestion{{ID: 1, Prompt: "q", Choices: map[string]string{"A": "a"}, CorrectLabel: "A"}}}
	_, cmd := m.Update(quizResultMsg{messageID: messageID, quiz: quiz})
	if cmd == nil {
		t.Fatal("quiz completion produced no command")
	}
	open, ok := cmd().(openQuizMsg)
	if !ok {
		t.Fatal("quiz completion did not emit openQuizMsg")
	}
	if open.messageID != messageID || open.progress == nil {
		t.Fatalf("openQuizMsg = %+v", open)
	}
}

func TestChatModel_ClearResetsConversation(t *testing.T) {
	m := testChatModel()
	turnID := m.conv.BeginTurn("prompt")
	m.Update(presentationResultMsg{turnID: turnID, artifact: &app.PresentationArtifact{Script: "s"}})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.latestArtifactID != "" {
		t.Fatal("clear kept the latest artifact reference")
	}
	if m.conv.Requesting() {
		t.Fatal("clear kept an open turn")
	}
}

func TestChatModel_LogoutKeyEmitsRequest(t *testing.T) {
	m := testChatModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if cmd == nil {
		t.Fatal("ctrl+d produced no command")
	}
	if _, ok := cmd().(logoutRequestMsg); !ok {
		t.Fatal("ctrl+d did not emit logoutRequestMsg")
	}
}
