package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/controller"
	"github.com/allbin/go-serial-term/internal/session"
	"github.com/allbin/go-serial-term/internal/tui/components"
	"github.com/allbin/go-serial-term/internal/tui/keys"
	"github.com/allbin/go-serial-term/internal/tui/styles"
)

type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
	InputModeSave
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	case InputModeSave:
		return "SAVE"
	default:
		return "NORMAL"
	}
}

// DelayStep is how much the play delay keys change the delay, in ms
const DelayStep = 10

// Messages forwarded from the controller callbacks
type (
	SerialStartedMsg struct{}
	SerialStoppedMsg struct {
		Reason session.StopReason
		Err    error
	}
	PlaybackStartedMsg struct{}
	PlaybackStoppedMsg struct {
		Reason session.StopReason
		Err    error
	}
	ReceivedMsg struct{ Text string }
)

// RefreshMsg carries a fresh scan of ports and playable files
type RefreshMsg struct {
	Ports    []string
	Files    []string
	FilesErr error
}

type refreshTickMsg struct{}

// Controller is the part of the session controller the terminal drives
type Controller interface {
	Connect(cfg session.ConnectionConfig) error
	Disconnect()
	SetConnectionConfig(cfg session.ConnectionConfig)
	StartPlayback(file string, delayMs int) error
	StopPlayback()
	EnqueueSend(p []byte) bool
	SetRecording(enabled bool) error
	SetRecordAsCSV(enabled bool) error
	Recording() bool
	RecordingCSV() bool
	Save(prefix string) ([]string, error)
	SetDisplayMode(mode codec.Mode)
	DisplayMode() codec.Mode
	SerialState() session.State
	PlaybackState() session.State
	PlayableFiles() ([]string, error)
	ActiveWorkspace() string
}

var _ Controller = (*controller.Controller)(nil)

// Callbacks returns controller callbacks that post tea messages through
// send, normally tea.Program.Send. They run on session goroutines.
func Callbacks(send func(tea.Msg)) controller.Callbacks {
	return controller.Callbacks{
		OnSerialStarted: func() { send(SerialStartedMsg{}) },
		OnSerialStopped: func(reason session.StopReason, err error) {
			send(SerialStoppedMsg{Reason: reason, Err: err})
		},
		OnPlaybackStarted: func() { send(PlaybackStartedMsg{}) },
		OnPlaybackStopped: func(reason session.StopReason, err error) {
			send(PlaybackStoppedMsg{Reason: reason, Err: err})
		},
		OnDataReceived: func(text string) { send(ReceivedMsg{Text: text}) },
	}
}

type Options struct {
	Controller      Controller
	Config          session.ConnectionConfig
	BaudRates       []int
	ListPorts       func() ([]string, error)
	RefreshInterval time.Duration
	PlayDelayMs     int
}

// SerialModel is the interactive terminal
type SerialModel struct {
	ctl       Controller
	cfg       session.ConnectionConfig
	bauds     []int
	listPorts func() ([]string, error)
	interval  time.Duration
	now       func() time.Time

	ports       []string
	files       []string
	playFile    string
	playDelayMs int

	newline    bool
	packetMode bool
	inputMode  InputMode
	message    string
	messageErr bool

	width, height int

	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	formatter *components.DataFormatter
	help      help.Model
	keys      keys.TerminalKeys
}

func NewSerialModel(opts Options) *SerialModel {
	bauds := opts.BaudRates
	if len(bauds) == 0 {
		bauds = []int{opts.Config.BaudRate}
	}
	listPorts := opts.ListPorts
	if listPorts == nil {
		listPorts = func() ([]string, error) { return nil, nil }
	}
	return &SerialModel{
		ctl:         opts.Controller,
		cfg:         opts.Config,
		bauds:       bauds,
		listPorts:   listPorts,
		interval:    opts.RefreshInterval,
		now:         time.Now,
		playDelayMs: max(opts.PlayDelayMs, 0),
		newline:     true,
		terminal:    components.NewTerminal(80, 20),
		statusBar:   components.NewStatusBar(),
		input:       components.NewInput(),
		formatter:   components.NewDataFormatter(opts.Controller.DisplayMode()),
		help:        help.New(),
		keys:        keys.NewTerminalKeys(),
	}
}

func (m *SerialModel) Init() tea.Cmd {
	return m.scan
}

// Config returns the connection settings the next Connect will use
func (m *SerialModel) Config() session.ConnectionConfig { return m.cfg }

func (m *SerialModel) PlayFile() string        { return m.playFile }
func (m *SerialModel) PlayDelayMs() int        { return m.playDelayMs }
func (m *SerialModel) Mode() InputMode         { return m.inputMode }
func (m *SerialModel) Message() string         { return m.message }
func (m *SerialModel) TerminalLines() []string { return m.terminal.Lines() }

func (m *SerialModel) scan() tea.Msg {
	var msg RefreshMsg
	msg.Ports, _ = m.listPorts()
	msg.Files, msg.FilesErr = m.ctl.PlayableFiles()
	return msg
}

func (m *SerialModel) scheduleRefresh() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m *SerialModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case refreshTickMsg:
		return m, m.scan

	case RefreshMsg:
		m.applyRefresh(msg)
		return m, m.scheduleRefresh()

	case ReceivedMsg:
		m.terminal.AppendStream(msg.Text)
		return m, nil

	case SerialStartedMsg:
		m.notice(fmt.Sprintf("Connected to %s", m.cfg))
		return m, nil

	case SerialStoppedMsg:
		m.stopped("Disconnected", msg.Reason, msg.Err)
		return m, nil

	case PlaybackStartedMsg:
		m.notice(fmt.Sprintf("Playing %s", m.playFile))
		return m, nil

	case PlaybackStoppedMsg:
		if msg.Reason == session.ReasonCompleted {
			m.notice("Playback finished")
			return m, nil
		}
		m.stopped("Playback stopped", msg.Reason, msg.Err)
		return m, nil

	case tea.KeyMsg:
		switch m.inputMode {
		case InputModeInsert:
			if cmd, handled := m.handleInsertKey(msg); handled {
				return m, cmd
			}
		case InputModeSave:
			if cmd, handled := m.handleSaveKey(msg); handled {
				return m, cmd
			}
		default:
			return m, m.handleNormalKey(msg)
		}
	}

	if m.inputMode != InputModeNormal {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *SerialModel) handleNormalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.InsertMode):
		m.inputMode = InputModeInsert
		m.input.Focus()

	case key.Matches(msg, m.keys.Connect):
		m.toggleConnection()
	case key.Matches(msg, m.keys.NextPort):
		m.cfg.Port = next(m.ports, m.cfg.Port)
		m.notice("Port " + m.cfg.Port)
	case key.Matches(msg, m.keys.NextBaud):
		m.cfg.BaudRate = next(m.bauds, m.cfg.BaudRate)
		m.notice(fmt.Sprintf("Baud rate %d", m.cfg.BaudRate))
	case key.Matches(msg, m.keys.NextParity):
		m.cfg.Parity = (m.cfg.Parity + 1) % (session.ParityEven + 1)
		m.notice("Parity " + m.cfg.Parity.String())
	case key.Matches(msg, m.keys.StopBits):
		m.cfg.StopBits = 3 - m.cfg.StopBits
		m.notice(fmt.Sprintf("%d stop bits", m.cfg.StopBits))

	case key.Matches(msg, m.keys.Play):
		m.togglePlayback()
	case key.Matches(msg, m.keys.NextFile):
		m.playFile = next(m.files, m.playFile)
	case key.Matches(msg, m.keys.DelayUp):
		m.playDelayMs += DelayStep
	case key.Matches(msg, m.keys.DelayDown):
		m.playDelayMs = max(m.playDelayMs-DelayStep, 0)

	case key.Matches(msg, m.keys.Record):
		m.report(m.ctl.SetRecording(!m.ctl.Recording()))
	case key.Matches(msg, m.keys.RecordCSV):
		m.report(m.ctl.SetRecordAsCSV(!m.ctl.RecordingCSV()))
	case key.Matches(msg, m.keys.Save):
		m.inputMode = InputModeSave
		m.input.BeginSavePrompt()

	case key.Matches(msg, m.keys.ToggleHex):
		mode := codec.ModeHex
		if m.ctl.DisplayMode() == codec.ModeHex {
			mode = codec.ModeASCII
		}
		m.ctl.SetDisplayMode(mode)
		m.formatter.SetMode(mode)
	case key.Matches(msg, m.keys.ToggleNewline):
		m.newline = !m.newline
	case key.Matches(msg, m.keys.TogglePacket):
		m.packetMode = !m.packetMode
	case key.Matches(msg, m.keys.Clear):
		m.terminal.Clear()

	case key.Matches(msg, m.keys.Up):
		m.terminal.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.terminal.ScrollDown()
	case key.Matches(msg, m.keys.GotoTop):
		m.terminal.GotoTop()
	case key.Matches(msg, m.keys.GotoBottom):
		m.terminal.GotoBottom()
	}
	return nil
}

func (m *SerialModel) handleInsertKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.inputMode = InputModeNormal
		m.input.Blur()
	case key.Matches(msg, m.keys.Enter):
		m.send()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	case msg.Type == tea.KeyUp:
		m.input.NavigateHistoryUp()
	case msg.Type == tea.KeyDown:
		m.input.NavigateHistoryDown()
	default:
		return nil, false
	}
	return nil, true
}

func (m *SerialModel) handleSaveKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.inputMode = InputModeNormal
		m.input.EndSavePrompt()
		m.input.Blur()
	case key.Matches(msg, m.keys.Enter):
		prefix := strings.TrimSpace(m.input.Value())
		m.inputMode = InputModeNormal
		m.input.EndSavePrompt()
		m.input.Blur()
		written, err := m.ctl.Save(prefix)
		if err != nil {
			m.report(fmt.Errorf("save: %w", err))
			break
		}
		m.notice("Saved " + strings.Join(written, ", "))
	default:
		return nil, false
	}
	return nil, true
}

func (m *SerialModel) toggleConnection() {
	if m.ctl.SerialState() != session.StateIdle {
		m.ctl.Disconnect()
		return
	}
	if err := m.ctl.Connect(m.cfg); err != nil {
		m.report(err)
		return
	}
	m.notice("Connecting to " + m.cfg.Port)
}

func (m *SerialModel) togglePlayback() {
	if m.ctl.PlaybackState() != session.StateIdle {
		m.ctl.StopPlayback()
		return
	}
	m.ctl.SetConnectionConfig(m.cfg)
	m.report(m.ctl.StartPlayback(m.playFile, m.playDelayMs))
}

func (m *SerialModel) send() {
	value := m.input.Value()
	data, err := m.input.Compose(m.newline)
	if err != nil {
		m.report(err)
		return
	}
	if len(data) == 0 {
		return
	}

	status := components.TXQueued
	if !m.ctl.EnqueueSend(data) {
		status = components.TXRejected
		m.report(controller.ErrBufferFull)
	}
	m.terminal.AddLine(m.formatter.FormatTX(components.SentMsg{
		Timestamp: m.now(),
		Data:      data,
		Status:    status,
	}))

	m.input.AddToHistory(value)
	if !m.packetMode {
		m.input.SetValue("")
	}
}

func (m *SerialModel) applyRefresh(msg RefreshMsg) {
	m.ports = msg.Ports
	if m.cfg.Port == "" && len(m.ports) > 0 {
		m.cfg.Port = m.ports[0]
	}

	m.files = msg.Files
	if !slices.Contains(m.files, m.playFile) {
		m.playFile = ""
		if len(m.files) > 0 {
			m.playFile = m.files[0]
		}
	}
	if msg.FilesErr != nil && !errors.Is(msg.FilesErr, controller.ErrNoWorkspace) {
		m.report(msg.FilesErr)
	}
}

func (m *SerialModel) stopped(label string, reason session.StopReason, err error) {
	if err != nil {
		m.report(fmt.Errorf("%s (%s): %w", label, reason, err))
		return
	}
	m.notice(label)
}

func (m *SerialModel) notice(text string) {
	m.message, m.messageErr = text, false
	m.terminal.AddLine(m.formatter.FormatNotice(m.now(), text, false))
}

// report shows err, if any, as an error notice
func (m *SerialModel) report(err error) {
	if err == nil {
		return
	}
	m.message, m.messageErr = err.Error(), true
	m.terminal.AddLine(m.formatter.FormatNotice(m.now(), err.Error(), true))
}

func (m *SerialModel) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.help.Width = width
	m.layout()
}

func (m *SerialModel) layout() {
	// input box (3) + status bar (2) + border (1)
	used := 6
	if m.help.ShowAll {
		used += lipgloss.Height(m.help.View(m.keys))
	}
	m.terminal.SetSize(m.width, max(m.height-used, 1))
}

func (m *SerialModel) View() string {
	info := components.StatusInfo{
		Mode:       m.inputMode.String(),
		Config:     m.cfg,
		Serial:     m.ctl.SerialState(),
		Playback:   m.ctl.PlaybackState(),
		Recording:  m.ctl.Recording(),
		CSV:        m.ctl.RecordingCSV(),
		Display:    strings.ToUpper(m.ctl.DisplayMode().String()),
		SendMode:   m.input.Mode(),
		Newline:    m.newline,
		Packet:     m.packetMode,
		Workspace:  m.ctl.ActiveWorkspace(),
		PlayFile:   m.playFile,
		PlayDelay:  m.playDelayMs,
		PortCount:  len(m.ports),
		Message:    m.message,
		MessageErr: m.messageErr,
	}

	sections := []string{
		styles.ContentBorderStyle.Width(m.width).Render(m.terminal.View()),
		m.input.ViewWithMode(m.inputMode.String()),
	}
	if m.help.ShowAll {
		sections = append(sections, m.help.View(m.keys))
	}
	sections = append(sections, m.statusBar.View(info))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// next returns the element after cur in list, wrapping around
func next[T comparable](list []T, cur T) T {
	if len(list) == 0 {
		return cur
	}
	i := slices.Index(list, cur)
	return list[(i+1)%len(list)]
}
