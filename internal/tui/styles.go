package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/timeline"
)

// The chrome shares its palette with the Gantt drawing so bars, labels and
// panels agree.
var theme = timeline.DefaultTheme()

var (
	colorPrimary   = lipgloss.Color(theme.Bar)
	colorSuccess   = lipgloss.Color(theme.Progress)
	colorDanger    = lipgloss.Color(theme.Today)
	colorWarning   = lipgloss.Color("#F39C12")
	colorMuted     = lipgloss.Color(theme.Muted)
	colorFg        = lipgloss.Color(theme.Label)
	colorSubtle    = lipgloss.Color(theme.Grid)
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// taskColors cycle over task ids in report bars and legends.
var taskColors = []string{theme.Bar, "#2EC4B6", theme.Today, "#F39C12", theme.Progress, "#E74C3C", "#9B59B6", "#3498DB"}

func taskColor(id int64) string {
	if id < 0 {
		id = -id
	}
	return taskColors[id%int64(len(taskColors))]
}

// dot renders a colored bullet; an empty color falls back to the grid color.
func dot(color string) string {
	if color == "" {
		color = theme.Grid
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	activeTabStyle = fg(colorPrimary).Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	timerIdleStyle    = fg(colorPrimary).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = fg(colorSuccess).Bold(true).Align(lipgloss.Center)
	timerPausedStyle  = fg(colorWarning).Bold(true).Align(lipgloss.Center)

	titleStyle     = fg(colorFg).Bold(true)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorDanger)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
	groupHeaderStyle  = fg(colorHighlight).Bold(true)
)
