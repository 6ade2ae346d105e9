package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-term/internal/session"
	"github.com/allbin/go-serial-term/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(colors.Notice).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	FlagOnStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Recording).
			Bold(true).
			Padding(0, 1)

	FlagOffStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Padding(0, 1)
)

// StateStyle colours the connection indicator for a session state.
func StateStyle(state session.State) lipgloss.Style {
	switch state {
	case session.StateConnected:
		return lipgloss.NewStyle().Foreground(colors.Green).Bold(true)
	case session.StatePlaying:
		return lipgloss.NewStyle().Foreground(colors.Playing).Bold(true)
	case session.StateConnecting, session.StateStopping:
		return lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
	}
}
