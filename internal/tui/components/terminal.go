package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-term/internal/tui/colors"
)

// MaxLines bounds the scrollback kept by the terminal view
const MaxLines = 5000

var rxStyle = lipgloss.NewStyle().Foreground(colors.RX)

// Terminal is a scrollable view of the received stream. Received text is
// appended as it arrives; notices and transmitted lines are inserted as
// whole lines.
type Terminal struct {
	viewport viewport.Model
	lines    []string
	partial  string
	follow   bool
}

func NewTerminal(width, height int) *Terminal {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return &Terminal{viewport: vp, follow: true}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// AppendStream adds received display text. Line breaks split it into lines,
// carriage returns are dropped and other control characters become '·'.
func (t *Terminal) AppendStream(text string) {
	segments := strings.Split(sanitize(text), "\n")
	t.partial += segments[0]
	for _, seg := range segments[1:] {
		t.lines = append(t.lines, rxStyle.Render(t.partial))
		t.partial = seg
	}
	t.trim()
	t.refresh()
}

// AddLine inserts a pre-rendered line above the partial received line
func (t *Terminal) AddLine(line string) {
	t.lines = append(t.lines, line)
	t.trim()
	t.refresh()
}

func (t *Terminal) Clear() {
	t.lines = nil
	t.partial = ""
	t.follow = true
	t.refresh()
}

// Lines returns the complete lines plus the pending partial one, unstyled
// by the caller's choice of renderer.
func (t *Terminal) Lines() []string {
	out := append([]string(nil), t.lines...)
	if t.partial != "" {
		out = append(out, rxStyle.Render(t.partial))
	}
	return out
}

func (t *Terminal) ScrollUp() {
	t.viewport.LineUp(1)
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) ScrollDown() {
	t.viewport.LineDown(1)
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) GotoTop() {
	t.viewport.GotoTop()
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) GotoBottom() {
	t.viewport.GotoBottom()
	t.follow = true
}

func (t *Terminal) View() string {
	return t.viewport.View()
}

func (t *Terminal) trim() {
	if over := len(t.lines) - MaxLines; over > 0 {
		t.lines = append([]string(nil), t.lines[over:]...)
	}
}

func (t *Terminal) refresh() {
	t.viewport.SetContent(strings.Join(t.Lines(), "\n"))
	if t.follow {
		t.viewport.GotoBottom()
	}
}

func sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\r':
			return -1
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return '·'
		}
		return r
	}, text)
}
