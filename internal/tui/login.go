package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tutor-cli/internal/app"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginStepMode = iota
	loginStepUsername
	loginStepEmail
	loginStepPassword
	loginStepSubmitting
)

type sessionReadyMsg struct {
	session *app.Session
}

type authResultMsg struct {
	session *app.Session
	err     error
}

type signupResultMsg struct {
	user app.User
	err  error
}

// LoginModel is the entry form: pick login or signup, then walk the fields.
type LoginModel struct {
	app      *app.Application
	theme    Theme
	step     int
	signup   bool
	selected int

	username string
	email    string
	input    textinput.Model

	statusMsg string
	width     int
	height    int
}

func NewLoginModel(application *app.Application, theme Theme) *LoginModel {
	ti := textinput.New()
	ti.Placeholder = "username"
	ti.CharLimit = 128
	ti.Focus()
	return &LoginModel{
		app:   application,
		theme: theme,
		input: ti,
	}
}

func (m *LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case authResultMsg:
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			m.step = loginStepPassword
			m.input.SetValue("")
			m.input.Focus()
			return m, nil
		}
		return m, func() tea.Msg { return sessionReadyMsg{session: msg.session} }

	case signupResultMsg:
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			m.step = loginStepPassword
			m.input.SetValue("")
			m.input.Focus()
			return m, nil
		}
		// Account exists now; walk the same fields again to log in.
		m.statusMsg = fmt.Sprintf("account %q created, log in to continue", msg.user.Username)
		m.signup = false
		m.selected = 0
		m.step = loginStepMode
		m.input.SetValue("")
		return m, nil

	case tea.KeyMsg:
		if m.step == loginStepSubmitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up", "down":
			if m.step == loginStepMode {
				m.selected = 1 - m.selected
			}
			return m, nil

		case "enter":
			return m, m.advance()

		case "esc":
			if m.step > loginStepMode {
				m.step = loginStepMode
				m.input.SetValue("")
				m.statusMsg = ""
			}
			return m, nil
		}
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *LoginModel) advance() tea.Cmd {
	switch m.step {
	case loginStepMode:
		m.signup = m.selected == 1
		m.step = loginStepUsername
		m.input.Placeholder = "username"
		m.input.EchoMode = textinput.EchoNormal
		m.input.SetValue("")
		m.input.Focus()

	case loginStepUsername:
		v := strings.TrimSpace(m.input.Value())
		if v == "" {
			m.statusMsg = "username is required"
			return nil
		}
		m.username = v
		m.input.SetValue("")
		if m.signup {
			m.step = loginStepEmail
			m.input.Placeholder = "email"
		} else {
			m.step = loginStepPassword
			m.input.Placeholder = "password"
			m.input.EchoMode = textinput.EchoPassword
		}

	case loginStepEmail:
		v := strings.TrimSpace(m.input.Value())
		if !strings.Contains(v, "@") {
			m.statusMsg = "enter a valid email address"
			return nil
		}
		m.email = v
		m.input.SetValue("")
		m.step = loginStepPassword
		m.input.Placeholder = "password"
		m.input.EchoMode = textinput.EchoPassword

	case loginStepPassword:
		password := m.input.Value()
		if password == "" {
			m.statusMsg = "password is required"
			return nil
		}
		m.statusMsg = ""
		m.step = loginStepSubmitting
		return m.submit(password)
	}
	return nil
}

func (m *LoginModel) submit(password string) tea.Cmd {
	application := m.app
	username, email, signup := m.username, m.email, m.signup
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if signup {
			user, err := application.Signup(ctx, username, email, password)
			return signupResultMsg{user: user, err: err}
		}
		session, err := application.Login(ctx, username, password)
		return authResultMsg{session: session, err: err}
	}
}

func (m *LoginModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.TopBarTitle.Render("tutor"))
	b.WriteString("  ")
	b.WriteString(m.theme.TopBarMeta.Render("sign in to start learning"))
	b.WriteString("\n\n")

	switch m.step {
	case loginStepMode:
		options := []string{"Log in", "Create account"}
		for i, opt := range options {
			marker := "○"
			style := m.theme.RoleSys
			if i == m.selected {
				marker = "●"
				style = m.theme.RoleYou
			}
			b.WriteString(style.Render(fmt.Sprintf("  %s %s", marker, opt)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.theme.Footer.Render("↑/↓ select  enter confirm  ctrl+c quit"))

	case loginStepSubmitting:
		b.WriteString(m.theme.Spinner.Render("Signing in…"))

	default:
		label := "Log in"
		if m.signup {
			label = "Create account"
		}
		b.WriteString(m.theme.PaneTitle.Render(label))
		b.WriteString("\n\n")
		if m.username != "" {
			b.WriteString(m.theme.TopBarMeta.Render("  user: " + m.username))
			b.WriteString("\n")
		}
		if m.email != "" {
			b.WriteString(m.theme.TopBarMeta.Render("  email: " + m.email))
			b.WriteString("\n")
		}
		b.WriteString("\n  ")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.theme.Footer.Render("enter next  esc restart  ctrl+c quit"))
	}

	if m.statusMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.RoleErr.Render(m.statusMsg))
	}
	return b.String()
}
