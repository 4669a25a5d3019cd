package tui

import (
	"context"
	"time"

	"tutor-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

type rootView int

const (
	viewLogin rootView = iota
	viewChat
	viewQuiz
	viewMeet
)

type revalidatedMsg struct{ session *app.Session }

type loggedOutMsg struct{}

// RootModel switches between the login, chat, quiz and meet views. The chat
// model survives quiz and meet excursions; login replaces everything.
type RootModel struct {
	app   *app.Application
	theme Theme

	view  rootView
	login *LoginModel
	chat  *ChatModel
	quiz  *QuizModel
	meet  *MeetModel

	session    *app.Session
	width      int
	height     int
	checking   bool
	sizeKnown  bool
	lastResize tea.WindowSizeMsg
}

func NewRootModel(application *app.Application) *RootModel {
	theme := NewTheme()
	return &RootModel{
		app:      application,
		theme:    theme,
		view:     viewLogin,
		login:    NewLoginModel(application, theme),
		checking: true,
	}
}

func (m *RootModel) Init() tea.Cmd {
	application := m.app
	return tea.Batch(
		m.login.Init(),
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return revalidatedMsg{session: application.Revalidate(ctx)}
		},
	)
}

func (m *RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sizeKnown = true
		m.lastResize = msg
		// Fall through so the active view resizes too.

	case revalidatedMsg:
		m.checking = false
		if msg.session != nil {
			return m, m.enterChat(msg.session)
		}
		return m, nil

	case sessionReadyMsg:
		return m, m.enterChat(msg.session)

	case authExpiredMsg:
		m.app.Credentials.Clear()
		return m, m.enterLogin("your session expired, log in again")

	case logoutRequestMsg:
		application := m.app
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = application.Logout(ctx)
			return loggedOutMsg{}
		}

	case loggedOutMsg:
		return m, m.enterLogin("logged out")

	case openQuizMsg:
		m.quiz = NewQuizModel(m.theme, msg.messageID, msg.progress)
		m.view = viewQuiz
		return m, m.resizeActive(m.quiz.Init())

	case quizClosedMsg:
		m.quiz = nil
		m.view = viewChat
		return m, m.resizeActive(nil)

	case quizRetakeMsg:
		m.quiz = nil
		m.view = viewChat
		if m.chat != nil {
			return m, m.resizeActive(m.chat.RegenerateQuiz(msg.messageID))
		}
		return m, nil

	case openMeetMsg:
		m.meet = NewMeetModel(m.app, m.theme, msg.script)
		m.view = viewMeet
		return m, m.resizeActive(m.meet.Init())

	case meetClosedMsg:
		m.meet = nil
		m.view = viewChat
		return m, m.resizeActive(nil)
	}

	return m.delegate(msg)
}

// delegate routes the message to the active view only. Background views keep
// their state but receive nothing.
func (m *RootModel) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case viewLogin:
		var model tea.Model
		model, cmd = m.login.Update(msg)
		m.login = model.(*LoginModel)
	case viewChat:
		if m.chat != nil {
			var model tea.Model
			model, cmd = m.chat.Update(msg)
			m.chat = model.(*ChatModel)
		}
	case viewQuiz:
		if m.quiz != nil {
			var model tea.Model
			model, cmd = m.quiz.Update(msg)
			m.quiz = model.(*QuizModel)
		}
	case viewMeet:
		if m.meet != nil {
			var model tea.Model
			model, cmd = m.meet.Update(msg)
			m.meet = model.(*MeetModel)
		}
	}
	return m, cmd
}

func (m *RootModel) enterChat(session *app.Session) tea.Cmd {
	m.session = session
	m.chat = NewChatModel(m.app, session, m.theme)
	m.view = viewChat
	return m.resizeActive(m.chat.Init())
}

func (m *RootModel) enterLogin(status string) tea.Cmd {
	m.chat = nil
	m.quiz = nil
	if m.meet != nil {
		m.meet.shutdown()
		m.meet = nil
	}
	m.session = nil
	m.login = NewLoginModel(m.app, m.theme)
	m.login.statusMsg = status
	m.view = viewLogin
	return m.resizeActive(m.login.Init())
}

// resizeActive replays the last terminal size into a freshly activated view
// so it lays itself out before its first real frame.
func (m *RootModel) resizeActive(init tea.Cmd) tea.Cmd {
	if !m.sizeKnown {
		return init
	}
	_, cmd := m.delegate(m.lastResize)
	return tea.Batch(init, cmd)
}

func (m *RootModel) View() string {
	switch m.view {
	case viewChat:
		if m.chat != nil {
			return m.chat.View()
		}
	case viewQuiz:
		if m.quiz != nil {
			return m.quiz.View()
		}
	case viewMeet:
		if m.meet != nil {
			return m.meet.View()
		}
	}
	if m.checking {
		return m.theme.Spinner.Render("Checking stored session…")
	}
	return m.login.View()
}
