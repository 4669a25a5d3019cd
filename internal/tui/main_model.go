package tui

import (
	"context"
	"os"
	"strings"
	"time"

	"tutor-cli/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusChat
)

type spinTickMsg struct{}

type statusCheckedMsg struct{ available bool }

type presentationResultMsg struct {
	turnID   string
	artifact *app.PresentationArtifact
	err      error
}

type quizResultMsg struct {
	messageID string
	quiz      *app.Quiz
	err       error
}

type liveCreatedMsg struct {
	roomID string
	url    string
	err    error
}

// Emitted upward for the root model.
type openQuizMsg struct {
	messageID string
	progress  *app.QuizProgress
}

type openMeetMsg struct{ script string }

type logoutRequestMsg struct{}

type authExpiredMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ChatModel drives the main learning flow: prompt in, presentation artifact
// out, with quiz and live-tutor intents hanging off the latest artifact.
type ChatModel struct {
	app   *app.Application
	conv  *app.Conversation
	theme Theme
	keys  keyMap

	width  int
	height int
	ready  bool
	focus  focusArea

	input    textarea.Model
	chatVP   viewport.Model
	renderer *ScriptRenderer

	session      *app.Session
	apiAvailable *bool
	spinnerPos   int
	statusText   string

	// ID of the newest assistant message carrying an artifact; quiz and
	// live-tutor intents apply to it.
	latestArtifactID string
}

func NewChatModel(application *app.Application, session *app.Session, theme Theme) *ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about any topic to get a script, an animation and a tutor…"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	conv := app.NewConversation()
	conv.AppendSystem("Ask me about any topic and I'll build an educational presentation with an animation, a live AI tutor and a quiz.")

	return &ChatModel{
		app:        application,
		conv:       conv,
		theme:      theme,
		keys:       defaultKeyMap(),
		width:      100,
		height:     30,
		focus:      focusInput,
		input:      ta,
		renderer:   NewScriptRenderer(theme),
		session:    session,
		statusText: "Ready",
	}
}

func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.checkStatus())
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatH := m.chatHeight()
		if !m.ready {
			m.chatVP = viewport.New(m.width-2, chatH)
			m.ready = true
		} else {
			m.chatVP.Width = m.width - 2
			m.chatVP.Height = chatH
		}
		m.input.SetWidth(maxInt(10, m.width-6))
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.FocusNext):
			m.toggleFocus()
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.conv = app.NewConversation()
			m.conv.AppendSystem("cleared.")
			m.latestArtifactID = ""
			m.refreshTranscript()
			return m, nil

		case key.Matches(msg, m.keys.Logout):
			return m, func() tea.Msg { return logoutRequestMsg{} }

		case key.Matches(msg, m.keys.Meet):
			script := ""
			if a := m.latestArtifact(); a != nil {
				script = a.Script
			}
			return m, func() tea.Msg { return openMeetMsg{script: script} }

		case key.Matches(msg, m.keys.StartLive):
			return m, m.startLive()

		case key.Matches(msg, m.keys.Quiz):
			return m, m.generateQuiz()

		case key.Matches(msg, m.keys.Enter):
			if m.focus == focusInput {
				return m, m.onSubmit()
			}

		case msg.Type == tea.KeyUp:
			if m.focus == focusChat {
				m.chatVP.LineUp(1)
				return m, nil
			}
		case msg.Type == tea.KeyDown:
			if m.focus == focusChat {
				m.chatVP.LineDown(1)
				return m, nil
			}
		case msg.Type == tea.KeyPgUp:
			m.chatVP.ViewUp()
			return m, nil
		case msg.Type == tea.KeyPgDown:
			m.chatVP.ViewDown()
			return m, nil
		}

	case statusCheckedMsg:
		available := msg.available
		m.apiAvailable = &available
		return m, nil

	case presentationResultMsg:
		return m, m.onPresentationResult(msg)

	case quizResultMsg:
		return m, m.onQuizResult(msg)

	case liveCreatedMsg:
		m.onLiveCreated(msg)
		return m, nil

	case spinTickMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.conv.Requesting() {
			return m, m.spinTick()
		}
		m.statusText = "Ready"
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *ChatModel) onSubmit() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return nil
	}
	m.input.Reset()

	turnID := m.conv.BeginTurn(prompt)
	m.statusText = "Generating presentation…"
	m.refreshTranscript()
	m.chatVP.GotoBottom()

	application := m.app
	cmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		artifact, err := application.Generation.GeneratePresentation(ctx, prompt)
		return presentationResultMsg{turnID: turnID, artifact: artifact, err: err}
	}
	return tea.Batch(cmd, m.spinTick())
}

func (m *ChatModel) onPresentationResult(msg presentationResultMsg) tea.Cmd {
	if msg.err != nil {
		if app.IsAuthError(msg.err) {
			return func() tea.Msg { return authExpiredMsg{} }
		}
		m.conv.FailTurn(msg.turnID, "Sorry, I couldn't create your presentation: "+msg.err.Error())
	} else {
		content := "Here is your presentation. Press ctrl+t to talk it through with a live tutor, or ctrl+g for a quiz."
		if appended := m.conv.CompleteTurn(msg.turnID, content, msg.artifact); appended != nil {
			m.latestArtifactID = appended.ID
		}
	}
	m.refreshTranscript()
	m.chatVP.GotoBottom()
	return nil
}

func (m *ChatModel) startLive() tea.Cmd {
	artifact := m.latestArtifact()
	if artifact == nil {
		m.conv.AppendSystem("Generate a presentation first, then start the tutor.")
		m.refreshTranscript()
		return nil
	}
	roomID := m.app.NewRoomID()
	if !m.conv.RequestLive(roomID) {
		return nil
	}
	m.refreshTranscript()

	application := m.app
	script := artifact.Script
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		url, err := application.Agent.CreateAgent(ctx, script, roomID)
		return liveCreatedMsg{roomID: roomID, url: url, err: err}
	}
}

func (m *ChatModel) onLiveCreated(msg liveCreatedMsg) {
	if msg.err != nil {
		if m.conv.LiveFailed() {
			m.conv.AppendSystem("Failed to start the AI tutor: " + msg.err.Error())
		}
	} else if m.conv.LiveJoined(msg.url) {
		m.conv.AppendSystem("Your AI tutor is ready. Open the conversation at: " + msg.url)
	}
	m.refreshTranscript()
	m.chatVP.GotoBottom()
}

func (m *ChatModel) generateQuiz() tea.Cmd {
	artifact := m.latestArtifact()
	if artifact == nil {
		m.conv.AppendSystem("Generate a presentation first, then take the quiz.")
		m.refreshTranscript()
		return nil
	}
	messageID := m.latestArtifactID
	if !m.conv.BeginQuiz(messageID) {
		// A quiz already exists for this presentation; reopen it.
		if progress := m.conv.QuizFor(messageID); progress != nil {
			return func() tea.Msg { return openQuizMsg{messageID: messageID, progress: progress} }
		}
		return nil
	}
	m.statusText = "Generating quiz…"
	m.refreshTranscript()

	application := m.app
	script := artifact.Script
	numQuestions := m.app.Config.QuizLength
	cmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		quiz, err := application.Generation.GenerateQuiz(ctx, script, numQuestions)
		return quizResultMsg{messageID: messageID, quiz: quiz, err: err}
	}
	return tea.Batch(cmd, m.spinTick())
}

func (m *ChatModel) onQuizResult(msg quizResultMsg) tea.Cmd {
	if msg.err != nil {
		if app.IsAuthError(msg.err) {
			return func() tea.Msg { return authExpiredMsg{} }
		}
		m.conv.FailQuiz(msg.messageID)
		m.conv.AppendSystem("Failed to generate quiz: " + msg.err.Error())
		m.refreshTranscript()
		return nil
	}
	progress := m.conv.CompleteQuiz(msg.messageID, msg.quiz)
	if progress == nil {
		return nil
	}
	m.refreshTranscript()
	return func() tea.Msg { return openQuizMsg{messageID: msg.messageID, progress: progress} }
}

// RegenerateQuiz is invoked by the root when the user asks for a fresh quiz
// from the completion screen.
func (m *ChatModel) RegenerateQuiz(messageID string) tea.Cmd {
	m.conv.ResetQuiz(messageID)
	return m.generateQuiz()
}

func (m *ChatModel) latestArtifact() *app.PresentationArtifact {
	if m.latestArtifactID == "" {
		return nil
	}
	for _, msg := range m.conv.Messages() {
		if msg.ID == m.latestArtifactID {
			return msg.Artifact
		}
	}
	return nil
}

func (m *ChatModel) checkStatus() tea.Cmd {
	application := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return statusCheckedMsg{available: application.Generation.Status(ctx)}
	}
}

func (m *ChatModel) spinTick() tea.Cmd {
	d := 90 * time.Millisecond
	if os.Getenv("TUTOR_REDUCE_MOTION") == "1" {
		d = 250 * time.Millisecond
	}
	return tea.Tick(d, func(_ time.Time) tea.Msg { return spinTickMsg{} })
}

func (m *ChatModel) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusChat
		m.input.Blur()
	} else {
		m.focus = focusInput
		m.input.Focus()
	}
}

func (m *ChatModel) chatHeight() int {
	h := m.height - 1 - 1 - 3
	if h < 3 {
		h = 3
	}
	return h
}

func (m *ChatModel) refreshTranscript() {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *ChatModel) renderMessage(msg app.Message, width int) string {
	var roleStyle lipgloss.Style
	label := "SYS"
	switch msg.Role {
	case app.RoleUser:
		roleStyle, label = m.theme.RoleYou, "YOU"
	case app.RoleAssistant:
		roleStyle, label = m.theme.RoleTutor, "TUTOR"
	default:
		roleStyle = m.theme.RoleSys
	}
	header := roleStyle.Render(label) + " " + m.theme.TopBarMeta.Render(msg.CreatedAt.Format("15:04"))

	var body string
	if msg.Role == app.RoleAssistant {
		body = m.renderer.Render(msg.Content, width)
	} else {
		body = lipgloss.NewStyle().Foreground(m.theme.TextPrimary).Width(width).Render(msg.Content)
	}

	out := header + "\n" + body
	if msg.Artifact != nil {
		out += "\n" + m.renderArtifact(msg, width)
	}
	return out
}

func (m *ChatModel) renderArtifact(msg app.Message, width int) string {
	a := msg.Artifact
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("Presentation: " + oneLine(a.SourcePrompt)))
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Render(a.Script, width-4))
	b.WriteString("\n\n")
	b.WriteString(m.theme.TopBarMeta.Render("animation: " + a.MediaURL))

	switch m.conv.QuizStage(msg.ID) {
	case app.TurnRequesting:
		b.WriteString("\n")
		b.WriteString(m.theme.Spinner.Render("generating quiz…"))
	case app.TurnReady:
		b.WriteString("\n")
		b.WriteString(m.theme.TopBarMeta.Render("quiz ready (ctrl+g to open)"))
	}

	return m.theme.Pane.Width(width).Render(b.String())
}

func (m *ChatModel) View() string {
	if !m.ready {
		return "…"
	}
	top := m.renderTopBar()
	chat := m.renderChatPane()
	input := m.renderInput()
	footer := m.theme.Footer.Width(m.width).Render(
		"enter send  tab focus  ctrl+t tutor  ctrl+g quiz  ctrl+o meet  ctrl+d logout  ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, top, chat, input, footer)
}

func (m *ChatModel) renderTopBar() string {
	left := m.theme.TopBarTitle.Render("tutor") + " " + m.theme.TopBarBadge.Render(m.session.DisplayName)

	status := m.statusText
	if m.conv.Requesting() {
		status = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos] + " " + m.statusText)
	} else {
		status = m.theme.TopBarMeta.Render(status)
	}

	api := m.theme.StatusWarn.Render("api: checking")
	if m.apiAvailable != nil {
		if *m.apiAvailable {
			api = m.theme.StatusOK.Render("api: connected")
		} else {
			api = m.theme.StatusErr.Render("api: unavailable")
		}
	}
	live := m.renderLiveBadge()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status) - lipgloss.Width(api) - lipgloss.Width(live) - 4
	if gap < 2 {
		gap = 2
	}
	a := gap / 2
	return m.theme.TopBar.Render(left + strings.Repeat(" ", a) + status + strings.Repeat(" ", gap-a) + api + "  " + live)
}

func (m *ChatModel) renderLiveBadge() string {
	switch m.conv.Live().Status {
	case app.LiveRequested:
		return m.theme.StatusWarn.Render("tutor: starting")
	case app.LiveActive:
		return m.theme.StatusOK.Render("tutor: live")
	case app.LiveError:
		return m.theme.StatusErr.Render("tutor: error")
	case app.LiveEnded:
		return m.theme.TopBarMeta.Render("tutor: ended")
	}
	return m.theme.TopBarMeta.Render("tutor: off")
}

func (m *ChatModel) renderChatPane() string {
	box := m.theme.Pane
	if m.focus == focusChat {
		box = m.theme.PaneFocused
	}
	return box.Width(m.width - 2).Height(m.chatHeight()).Render(m.chatVP.View())
}

func (m *ChatModel) renderInput() string {
	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxF
	}
	return box.Width(maxInt(10, m.width-2)).Render(m.input.View())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
