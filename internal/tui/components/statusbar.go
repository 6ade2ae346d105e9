package components

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-term/internal/session"
	"github.com/allbin/go-serial-term/internal/tui/colors"
	"github.com/allbin/go-serial-term/internal/tui/styles"
)

// StatusInfo is a snapshot of everything the status bar shows
type StatusInfo struct {
	Mode       string
	Config     session.ConnectionConfig
	Serial     session.State
	Playback   session.State
	Recording  bool
	CSV        bool
	Display    string
	SendMode   SendingMode
	Newline    bool
	Packet     bool
	Workspace  string
	PlayFile   string
	PlayDelay  int
	PortCount  int
	Message    string
	MessageErr bool
}

type StatusBar struct {
	width int
	now   func() time.Time
}

func NewStatusBar() *StatusBar {
	return &StatusBar{now: time.Now}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) View(info StatusInfo) string {
	return lipgloss.JoinVertical(lipgloss.Left, sb.topLine(info), sb.bottomLine(info))
}

func (sb *StatusBar) topLine(info StatusInfo) string {
	modeColour := colors.Blue
	switch info.Mode {
	case "INSERT":
		modeColour = colors.Green
	case "SAVE":
		modeColour = colors.Mauve
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeColour).
		Bold(true).
		Padding(0, 1).
		Render(info.Mode)

	port := info.Config.Port
	if port == "" {
		port = "no port"
	}
	link := styles.StateStyle(info.Serial).Render("● " + info.Serial.String())
	if info.Playback != session.StateIdle {
		link = styles.StateStyle(info.Playback).Render("▶ " + info.Playback.String())
	}
	framing := fmt.Sprintf("%d 8%c%d", info.Config.BaudRate, info.Config.Parity.String()[0], info.Config.StopBits)

	left := lipgloss.JoinHorizontal(lipgloss.Center,
		mode, " ",
		styles.TitleStyle.Render(port), " ",
		link, " ",
		lipgloss.NewStyle().Foreground(colors.Subtext1).Render(framing), " ",
		flag("REC", info.Recording), flag("CSV", info.CSV),
		flag(info.Display, true), flag("NL", info.Newline), flag("PKT", info.Packet),
	)

	clock := lipgloss.NewStyle().Foreground(colors.Overlay0).Render(sb.now().Format("15:04:05"))
	return fill(left, clock, sb.width)
}

func (sb *StatusBar) bottomLine(info StatusInfo) string {
	ws := info.Workspace
	if ws == "" {
		ws = "no workspace"
	}
	play := "no file"
	if info.PlayFile != "" {
		play = filepath.Base(info.PlayFile)
	}
	parts := []string{
		"ws: " + ws,
		fmt.Sprintf("play: %s @ %dms", play, info.PlayDelay),
		fmt.Sprintf("ports: %d", info.PortCount),
		"send: " + info.SendMode.String(),
	}
	left := lipgloss.NewStyle().Foreground(colors.Subtext0).Render(strings.Join(parts, "  │  "))

	msgStyle := styles.NoticeStyle
	if info.MessageErr {
		msgStyle = styles.ErrorStyle
	}
	return fill(left, msgStyle.Render(info.Message), sb.width)
}

func flag(name string, on bool) string {
	if on {
		return styles.FlagOnStyle.Render(name)
	}
	return styles.FlagOffStyle.Render(name)
}

// fill right-aligns right within width, dropping it when there is no room
func fill(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
