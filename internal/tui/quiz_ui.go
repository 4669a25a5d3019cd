package tui

import (
	"fmt"
	"strings"

	"tutor-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Emitted upward when the user leaves the quiz view.
type quizClosedMsg struct{}

// Emitted upward when the user wants a fresh quiz for the same presentation.
type quizRetakeMsg struct{ messageID string }

// QuizModel walks one QuizProgress question by question, shows per-answer
// feedback, then a completion screen with score and review.
type QuizModel struct {
	theme     Theme
	progress  *app.QuizProgress
	messageID string

	cursor int
	width  int
	height int
}

func NewQuizModel(theme Theme, messageID string, progress *app.QuizProgress) *QuizModel {
	return &QuizModel{
		theme:     theme,
		progress:  progress,
		messageID: messageID,
		width:     100,
		height:    30,
	}
}

func (m *QuizModel) Init() tea.Cmd { return nil }

func (m *QuizModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.progress.Completed() {
			return m.updateCompleted(msg)
		}
		return m.updateQuestion(msg)
	}
	return m, nil
}

func (m *QuizModel) updateQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.progress.Current()
	if q == nil {
		return m, func() tea.Msg { return quizClosedMsg{} }
	}
	labels := q.Labels()
	answered := m.answered(q)

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m, func() tea.Msg { return quizClosedMsg{} }

	case "up", "k":
		if !answered && m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if !answered && m.cursor < len(labels)-1 {
			m.cursor++
		}

	case "left", "h":
		m.progress.Previous()
		m.cursor = 0
	case "right", "l":
		if answered {
			m.progress.Next()
			m.cursor = 0
		}

	case "enter", " ":
		if answered {
			m.progress.Next()
			m.cursor = 0
		} else if m.cursor < len(labels) {
			m.progress.Select(labels[m.cursor])
		}

	default:
		// Direct label keys: a/b/c/d select the matching choice.
		key := strings.ToUpper(msg.String())
		if !answered {
			if _, ok := q.Choices[key]; ok {
				m.progress.Select(key)
			}
		}
	}
	return m, nil
}

func (m *QuizModel) updateCompleted(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		return m, func() tea.Msg { return quizClosedMsg{} }
	case "r":
		m.progress.Restart()
		m.cursor = 0
		return m, nil
	case "n":
		messageID := m.messageID
		return m, func() tea.Msg { return quizRetakeMsg{messageID: messageID} }
	}
	return m, nil
}

func (m *QuizModel) answered(q *app.QuizQuestion) bool {
	st := m.progress.Answer(q.ID)
	return st != nil && st.Answered
}

func (m *QuizModel) View() string {
	if m.progress.Completed() {
		return m.viewCompleted()
	}
	return m.viewQuestion()
}

func (m *QuizModel) viewQuestion() string {
	q := m.progress.Current()
	if q == nil {
		return ""
	}
	st := m.progress.Answer(q.ID)
	answered := st != nil && st.Answered
	width := maxInt(40, m.width-6)

	var b strings.Builder
	b.WriteString(m.theme.TopBarTitle.Render("Quiz"))
	b.WriteString("  ")
	b.WriteString(m.theme.TopBarMeta.Render(
		fmt.Sprintf("question %d of %d", m.progress.CurrentIndex()+1, m.progress.Len())))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Width(width).Render(q.Prompt))
	b.WriteString("\n\n")

	for i, label := range q.Labels() {
		line := fmt.Sprintf("%s) %s", label, q.Choices[label])
		style := m.theme.ChoiceIdle
		prefix := "  "
		switch {
		case answered && label == q.CorrectLabel:
			style = m.theme.ChoiceCorrect
			prefix = "✓ "
		case answered && st.Selected == label:
			style = m.theme.ChoiceWrong
			prefix = "✗ "
		case !answered && i == m.cursor:
			style = m.theme.ChoiceSelected
			prefix = "> "
		}
		b.WriteString(style.Render(prefix + line))
		b.WriteString("\n")
	}

	if answered {
		b.WriteString("\n")
		if st.Correct {
			b.WriteString(m.theme.StatusOK.Render("Correct!"))
		} else {
			b.WriteString(m.theme.StatusErr.Render("Incorrect — the answer is " + q.CorrectLabel))
		}
		if q.Explanation != "" {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Foreground(m.theme.TextMuted).Width(width).Render(q.Explanation))
		}
		b.WriteString("\n\n")
		b.WriteString(m.theme.Footer.Render("enter next  ←/→ move  esc back"))
	} else {
		b.WriteString("\n")
		b.WriteString(m.theme.Footer.Render("↑/↓ move  enter select  a-d pick  esc back"))
	}

	return m.theme.Pane.Width(maxInt(44, m.width-2)).Render(b.String())
}

func (m *QuizModel) viewCompleted() string {
	score := m.progress.Score()
	width := maxInt(40, m.width-6)

	var b strings.Builder
	b.WriteString(m.theme.TopBarTitle.Render("Quiz complete"))
	b.WriteString("\n\n")
	scoreStyle := m.theme.StatusOK
	if score.Percentage < 60 {
		scoreStyle = m.theme.StatusErr
	} else if score.Percentage < 80 {
		scoreStyle = m.theme.StatusWarn
	}
	b.WriteString(scoreStyle.Render(
		fmt.Sprintf("%d / %d correct (%d%%)", score.Correct, score.Total, score.Percentage)))
	b.WriteString("\n")

	if wrong := m.progress.Review(); len(wrong) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.PaneTitle.Render("Review"))
		b.WriteString("\n")
		for _, q := range wrong {
			st := m.progress.Answer(q.ID)
			b.WriteString(lipgloss.NewStyle().Foreground(m.theme.TextPrimary).Width(width).Render("• " + q.Prompt))
			b.WriteString("\n")
			b.WriteString(m.theme.ChoiceWrong.Render("    your answer: " + st.Selected))
			b.WriteString("   ")
			b.WriteString(m.theme.ChoiceCorrect.Render("correct: " + q.CorrectLabel))
			b.WriteString("\n")
			if q.Explanation != "" {
				b.WriteString(lipgloss.NewStyle().Foreground(m.theme.TextMuted).Width(width - 4).
					PaddingLeft(4).Render(q.Explanation))
				b.WriteString("\n")
			}
		}
	} else if score.Total > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusOK.Render("Perfect score — nothing to review."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("r retake  n new quiz  esc back"))
	return m.theme.Pane.Width(maxInt(44, m.width-2)).Render(b.String())
}
