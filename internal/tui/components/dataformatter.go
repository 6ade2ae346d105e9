package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/tui/colors"
)

// TXStatus is the outcome of handing a line to the send queue
type TXStatus int

const (
	TXQueued TXStatus = iota
	TXRejected
)

// SentMsg describes one line the user transmitted
type SentMsg struct {
	Timestamp time.Time
	Data      []byte
	Status    TXStatus
}

// DataFormatter renders transmitted lines and notices for the terminal
type DataFormatter struct {
	mode codec.Mode
}

func NewDataFormatter(mode codec.Mode) *DataFormatter {
	return &DataFormatter{mode: mode}
}

func (df *DataFormatter) SetMode(mode codec.Mode) {
	df.mode = mode
}

func (df *DataFormatter) FormatTX(msg SentMsg) string {
	ts := lipgloss.NewStyle().Foreground(colors.Overlay0).
		Render(msg.Timestamp.Format("15:04:05.000"))

	indicator, colour := "○", colors.Yellow
	if msg.Status == TXRejected {
		indicator, colour = "✗", colors.Red
	}
	label := lipgloss.NewStyle().Foreground(colors.TX).Bold(true).Render("↗ TX")
	state := lipgloss.NewStyle().Foreground(colour).Render(indicator)

	body := codec.FormatDisplay(df.mode, msg.Data)
	if df.mode == codec.ModeASCII {
		body = fmt.Sprintf("%q", body)
	}
	return fmt.Sprintf("%s %s %s %s", ts, label, state,
		lipgloss.NewStyle().Foreground(colors.TX).Render(body))
}

func (df *DataFormatter) FormatNotice(ts time.Time, text string, isErr bool) string {
	stamp := lipgloss.NewStyle().Foreground(colors.Overlay0).Render(ts.Format("15:04:05.000"))
	style := lipgloss.NewStyle().Foreground(colors.Notice).Italic(true)
	if isErr {
		style = lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
	}
	return fmt.Sprintf("%s %s", stamp, style.Render("-- "+text))
}
