package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/tui/colors"
	"github.com/allbin/go-serial-term/internal/tui/styles"
)

type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

const (
	asciiPlaceholder = "Type message and press Enter to send..."
	hexPlaceholder   = "Enter hex bytes (e.g. 48 65 0x6C 6C6F)..."
	savePlaceholder  = "File name prefix, relative to the workspace..."
	historyLimit     = 100
)

type Input struct {
	textInput    textinput.Model
	sendingMode  SendingMode
	history      []string
	historyIndex int
	currentInput string // saved while browsing history
	width        int
}

func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = asciiPlaceholder
	ti.CharLimit = 1024
	ti.Prompt = ""

	return &Input{
		textInput:    ti,
		sendingMode:  SendingModeASCII,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border, padding, prompt and space
	usable := width - 6
	if usable < 20 {
		usable = 20
	}
	i.textInput.Width = usable
}

func (i *Input) Focus()                  { i.textInput.Focus() }
func (i *Input) Blur()                   { i.textInput.Blur() }
func (i *Input) Value() string           { return i.textInput.Value() }
func (i *Input) SetValue(v string)       { i.textInput.SetValue(v) }
func (i *Input) Mode() SendingMode       { return i.sendingMode }
func (i *Input) SetPlaceholder(p string) { i.textInput.Placeholder = p }

func (i *Input) ToggleSendingMode() {
	if i.sendingMode == SendingModeASCII {
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = hexPlaceholder
		return
	}
	i.sendingMode = SendingModeASCII
	i.textInput.Placeholder = asciiPlaceholder
}

// BeginSavePrompt clears the field for a save prefix
func (i *Input) BeginSavePrompt() {
	i.currentInput = i.textInput.Value()
	i.textInput.SetValue("")
	i.textInput.Placeholder = savePlaceholder
	i.textInput.Focus()
}

// EndSavePrompt restores whatever was being typed before the prompt
func (i *Input) EndSavePrompt() {
	i.textInput.SetValue(i.currentInput)
	i.currentInput = ""
	if i.sendingMode == SendingModeHex {
		i.textInput.Placeholder = hexPlaceholder
	} else {
		i.textInput.Placeholder = asciiPlaceholder
	}
}

// Compose turns the field into the bytes to transmit, as text or as hex
// tokens depending on the sending mode.
func (i *Input) Compose(newline bool) ([]byte, error) {
	if i.sendingMode == SendingModeHex {
		return codec.ComposeSend("", i.textInput.Value(), newline)
	}
	return codec.ComposeSend(i.textInput.Value(), "", newline)
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// ViewWithMode renders the input box. mode is NORMAL, INSERT or SAVE.
func (i *Input) ViewWithMode(mode string) string {
	symbol, colour := ">", colors.Green
	switch {
	case mode == "SAVE":
		symbol, colour = "⤓", colors.Mauve
	case i.sendingMode == SendingModeHex:
		symbol, colour = "#", colors.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(colour).Bold(true).Render(symbol)

	var content string
	if mode == "NORMAL" {
		hint := lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Render("Press 'i' to enter insert mode, '?' for help")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", hint)
	} else {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	}

	width := i.width - 4
	if width < 10 {
		width = 10
	}
	style := styles.InputStyle.Width(width).AlignHorizontal(lipgloss.Left)
	if mode != "NORMAL" {
		style = style.BorderForeground(colour)
	}
	return style.Render(content)
}

// AddToHistory records a sent line unless it is blank or repeats the last one
func (i *Input) AddToHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == line {
		return
	}
	i.history = append(i.history, line)
	if len(i.history) > historyLimit {
		i.history = i.history[1:]
	}
	i.historyIndex = -1
	i.currentInput = ""
}

func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}
	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *Input) NavigateHistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.currentInput)
	i.currentInput = ""
}
