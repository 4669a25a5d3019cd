package tui

import (
	"io"
	"strings"
	"testing"

	"tutor-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func testLoginModel() *LoginModel {
	application := app.NewApplication(app.DefaultConfig(), app.NewCredentialStore(""), app.NewLogger(io.Discard))
	return NewLoginModel(application, NewTheme())
}

func typeText(m *LoginModel, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestLoginModel_WalksLoginFields(t *testing.T) {
	m := testLoginModel()

	// Mode select defaults to "Log in".
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.step != loginStepUsername {
		t.Fatalf("step = %d, want username", m.step)
	}

	typeText(m, "ada")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.step != loginStepPassword {
		t.Fatalf("step = %d, want password (login skips email)", m.step)
	}
	if m.username != "ada" {
		t.Fatalf("username = %q", m.username)
	}

	typeText(m, "secret")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.step != loginStepSubmitting {
		t.Fatalf("step = %d, want submitting", m.step)
	}
	if cmd == nil {
		t.Fatal("password submit produced no command")
	}
}

func TestLoginModel_SignupRequiresEmail(t *testing.T) {
	m := testLoginModel()
	m.Update(tea.KeyMsg{Type: tea.KeyDown}) // select "Create account"
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "ada")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.step != loginStepEmail {
		t.Fatalf("step = %d, want email", m.step)
	}

	typeText(m, "not-an-email")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.step != loginStepEmail {
		t.Fatal("invalid email advanced the form")
	}
	if !strings.Contains(m.statusMsg, "valid email") {
		t.Fatalf("statusMsg = %q", m.statusMsg)
	}
}

func TestLoginModel_EmptyFieldsAreRejected(t *testing.T) {
	m := testLoginModel()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // empty username
	if m.step != loginStepUsername {
		t.Fatal("empty username advanced the form")
	}
	if m.statusMsg == "" {
		t.Fatal("no validation message for empty username")
	}
}

func TestLoginModel_AuthSuccessEmitsSessionReady(t *testing.T) {
	m := testLoginModel()
	session := &app.Session{UserID: 1, DisplayName: "ada", Token: "tok"}
	_, cmd := m.Update(authResultMsg{session: session})
	if cmd == nil {
		t.Fatal("auth success produced no command")
	}
	ready, ok := cmd().(sessionReadyMsg)
	if !ok {
		t.Fatal("auth success did not emit sessionReadyMsg")
	}
	if ready.session != session {
		t.Fatal("sessionReadyMsg carries the wrong session")
	}
}

func TestLoginModel_AuthFailureReturnsToPassword(t *testing.T) {
	m := testLoginModel()
	m.step = loginStepSubmitting
	m.Update(authResultMsg{err: &app.AuthError{Message: "bad credentials"}})
	if m.step != loginStepPassword {
		t.Fatalf("step after failure = %d, want password", m.step)
	}
	if m.statusMsg != "bad credentials" {
		t.Fatalf("statusMsg = %q", m.statusMsg)
	}
}

func TestLoginModel_SignupSuccessLoopsToLogin(t *testing.T) {
	m := testLoginModel()
	m.signup = true
	m.step = loginStepSubmitting
	m.Update(signupResultMsg{user: app.User{Username: "ada"}})
	if m.step != loginStepMode || m.signup {
		t.Fatalf("after signup: step=%d signup=%v, want mode select in login mode", m.step, m.signup)
	}
	if !strings.Contains(m.statusMsg, "created") {
		t.Fatalf("statusMsg = %q", m.statusMsg)
	}
}
