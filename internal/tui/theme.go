package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor

	Accent   lipgloss.AdaptiveColor
	Success  lipgloss.AdaptiveColor
	Warn     lipgloss.AdaptiveColor
	Error    lipgloss.AdaptiveColor
	Border   lipgloss.AdaptiveColor
	BorderHi lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarBadge lipgloss.Style
	TopBarMeta  lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style
	Spinner     lipgloss.Style

	RoleYou   lipgloss.Style
	RoleTutor lipgloss.Style
	RoleSys   lipgloss.Style
	RoleErr   lipgloss.Style

	StatusOK   lipgloss.Style
	StatusWarn lipgloss.Style
	StatusErr  lipgloss.Style

	ChoiceIdle     lipgloss.Style
	ChoiceSelected lipgloss.Style
	ChoiceCorrect  lipgloss.Style
	ChoiceWrong    lipgloss.Style
}

func NewTheme() Theme {
	if os.Getenv("TUTOR_NO_COLOR") == "1" {
		return newNoColorTheme()
	}
	return newDefaultTheme()
}

func newDefaultTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1d2433", Dark: "#f2f2f2"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#4a5568", Dark: "#c7c7c7"},

		Accent:   lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
		Success:  lipgloss.AdaptiveColor{Light: "#0f766e", Dark: "#46d1b7"},
		Warn:     lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#f4b27d"},
		Error:    lipgloss.AdaptiveColor{Light: "#b42318", Dark: "#ff7a7a"},
		Border:   lipgloss.AdaptiveColor{Light: "#cbd5e0", Dark: "#3a3a3a"},
		BorderHi: lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
	}

	t.TopBar = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.TopBarBadge = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.TopBarMeta = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleTutor = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.RoleSys = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.RoleErr = lipgloss.NewStyle().Bold(true).Foreground(t.Error)

	t.StatusOK = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	t.StatusWarn = lipgloss.NewStyle().Bold(true).Foreground(t.Warn)
	t.StatusErr = lipgloss.NewStyle().Bold(true).Foreground(t.Error)

	t.ChoiceIdle = lipgloss.NewStyle().Foreground(t.TextPrimary)
	t.ChoiceSelected = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.ChoiceCorrect = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	t.ChoiceWrong = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	return t
}

func newNoColorTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#333333", Dark: "#dddddd"},
		Border:      lipgloss.AdaptiveColor{Light: "#555555", Dark: "#777777"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
	}
	plain := lipgloss.NewStyle().Foreground(t.TextPrimary)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	bold := lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	box := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	boxHi := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)

	t.TopBar = plain
	t.TopBarTitle = bold
	t.TopBarBadge = bold
	t.TopBarMeta = muted
	t.Pane = box
	t.PaneFocused = boxHi
	t.PaneTitle = bold
	t.Footer = muted
	t.InputBox = box
	t.InputBoxF = boxHi
	t.Spinner = bold
	t.RoleYou = bold
	t.RoleTutor = bold
	t.RoleSys = muted
	t.RoleErr = bold
	t.StatusOK = plain
	t.StatusWarn = plain
	t.StatusErr = bold
	t.ChoiceIdle = plain
	t.ChoiceSelected = bold
	t.ChoiceCorrect = bold
	t.ChoiceWrong = bold
	return t
}
