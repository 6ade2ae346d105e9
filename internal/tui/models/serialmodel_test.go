package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/controller"
	"github.com/allbin/go-serial-term/internal/session"
)

type fakeController struct {
	serial, playback session.State
	recording, csv   bool
	display          codec.Mode
	files            []string
	full             bool

	connected  []session.ConnectionConfig
	configured []session.ConnectionConfig
	played     []string
	delays     []int
	sent       [][]byte
	saved      []string
	saveErr    error
	connectErr error
}

func (f *fakeController) Connect(cfg session.ConnectionConfig) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	if f.playback != session.StateIdle {
		return controller.ErrPlaying
	}
	f.connected = append(f.connected, cfg)
	f.serial = session.StateConnecting
	return nil
}
func (f *fakeController) Disconnect() { f.serial = session.StateIdle }
func (f *fakeController) SetConnectionConfig(cfg session.ConnectionConfig) {
	f.configured = append(f.configured, cfg)
}
func (f *fakeController) StartPlayback(file string, delayMs int) error {
	if file == "" {
		return controller.ErrNoPlayFile
	}
	f.played = append(f.played, file)
	f.delays = append(f.delays, delayMs)
	f.playback = session.StatePlaying
	return nil
}
func (f *fakeController) StopPlayback() { f.playback = session.StateIdle }
func (f *fakeController) EnqueueSend(p []byte) bool {
	if f.full {
		return false
	}
	f.sent = append(f.sent, append([]byte(nil), p...))
	return true
}
func (f *fakeController) SetRecording(enabled bool) error {
	f.recording = enabled
	if !enabled {
		f.csv = false
	}
	return nil
}
func (f *fakeController) SetRecordAsCSV(enabled bool) error {
	if enabled && !f.recording {
		return controller.ErrInvalidState
	}
	f.csv = enabled
	return nil
}
func (f *fakeController) Recording() bool    { return f.recording }
func (f *fakeController) RecordingCSV() bool { return f.csv }
func (f *fakeController) Save(prefix string) ([]string, error) {
	f.saved = append(f.saved, prefix)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return []string{prefix + ".bin"}, nil
}
func (f *fakeController) SetDisplayMode(mode codec.Mode)   { f.display = mode }
func (f *fakeController) DisplayMode() codec.Mode          { return f.display }
func (f *fakeController) SerialState() session.State       { return f.serial }
func (f *fakeController) PlaybackState() session.State     { return f.playback }
func (f *fakeController) PlayableFiles() ([]string, error) { return f.files, nil }
func (f *fakeController) ActiveWorkspace() string          { return "/tmp/ws" }

func newModel(t *testing.T) (*SerialModel, *fakeController) {
	t.Helper()
	ctl := &fakeController{files: []string{"a.bin", "b.bin"}}
	m := NewSerialModel(Options{
		Controller: ctl,
		Config: session.ConnectionConfig{
			BaudRate: 9600,
			StopBits: 1,
		},
		BaudRates:   []int{9600, 19200},
		ListPorts:   func() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil },
		PlayDelayMs: 20,
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(m.scan())
	return m, ctl
}

func press(m *SerialModel, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func typeText(m *SerialModel, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func joined(m *SerialModel) string {
	return strings.Join(m.TerminalLines(), "\n")
}

func TestRefreshSelectsDefaults(t *testing.T) {
	m, _ := newModel(t)

	require.Equal(t, "/dev/ttyUSB0", m.Config().Port)
	require.Equal(t, "a.bin", m.PlayFile())

	m.Update(RefreshMsg{Ports: []string{"/dev/ttyUSB1"}, Files: []string{"b.bin"}})
	require.Equal(t, "/dev/ttyUSB0", m.Config().Port, "a chosen port is kept")
	require.Equal(t, "b.bin", m.PlayFile(), "a vanished play file is replaced")
}

func TestConnectToggle(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "o", "b", "y", "t", "c")
	require.Len(t, ctl.connected, 1)
	require.Equal(t, session.ConnectionConfig{
		Port:     "/dev/ttyUSB1",
		BaudRate: 19200,
		StopBits: 2,
		Parity:   session.ParityOdd,
	}, ctl.connected[0])

	press(m, "c")
	require.Equal(t, session.StateIdle, ctl.serial)
	require.Len(t, ctl.connected, 1)
}

func TestConnectErrorIsReported(t *testing.T) {
	m, ctl := newModel(t)
	ctl.connectErr = controller.ErrClosed

	press(m, "c")
	require.Contains(t, m.Message(), controller.ErrClosed.Error())
}

func TestConnectWhilePlayingIsReported(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "p", "c")
	require.Empty(t, ctl.connected)
	require.Equal(t, session.StateIdle, ctl.serial)
	require.Contains(t, m.Message(), controller.ErrPlaying.Error())

	press(m, "p", "c")
	require.Len(t, ctl.connected, 1)
}

func TestSendASCIIWithNewline(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "i")
	require.Equal(t, InputModeInsert, m.Mode())
	typeText(m, "hello")
	press(m, "enter")

	require.Equal(t, [][]byte{[]byte("hello\n")}, ctl.sent)
	require.Contains(t, joined(m), "hello")

	// newline toggle only applies from normal mode
	press(m, "esc", "n", "i")
	typeText(m, "x")
	press(m, "enter")
	require.Equal(t, []byte("x"), ctl.sent[1])
}

func TestSendHexAndPacketMode(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "n", "m", "i", "tab")
	typeText(m, "0x48 69")
	press(m, "enter", "enter")

	require.Equal(t, [][]byte{{0x48, 0x69}, {0x48, 0x69}}, ctl.sent)

	press(m, "esc", "m", "i")
	typeText(m, "zz")
	before := len(ctl.sent)
	press(m, "enter")
	require.Len(t, ctl.sent, before)
	require.Contains(t, m.Message(), codec.ErrInvalidHex.Error())
}

func TestSendRejectedWhenFull(t *testing.T) {
	m, ctl := newModel(t)
	ctl.full = true

	press(m, "i")
	typeText(m, "abc")
	press(m, "enter")
	require.Contains(t, m.Message(), controller.ErrBufferFull.Error())
}

func TestHistoryRecall(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "i")
	typeText(m, "first")
	press(m, "enter", "up", "enter")
	require.Len(t, ctl.sent, 2)
	require.Equal(t, ctl.sent[0], ctl.sent[1])
}

func TestPlaybackKeys(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "f", "+", "+", "-", "p")
	require.Equal(t, []string{"b.bin"}, ctl.played)
	require.Equal(t, []int{30}, ctl.delays)
	require.Len(t, ctl.configured, 1)

	press(m, "p")
	require.Equal(t, session.StateIdle, ctl.playback)

	for range 10 {
		press(m, "-")
	}
	require.Zero(t, m.PlayDelayMs())
}

func TestRecordAndCSV(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "v")
	require.False(t, ctl.csv)
	require.Contains(t, m.Message(), controller.ErrInvalidState.Error())

	press(m, "r", "v")
	require.True(t, ctl.recording)
	require.True(t, ctl.csv)

	press(m, "r")
	require.False(t, ctl.recording)
	require.False(t, ctl.csv)
}

func TestSavePrompt(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "s")
	require.Equal(t, InputModeSave, m.Mode())
	typeText(m, "run1")
	press(m, "enter")

	require.Equal(t, []string{"run1"}, ctl.saved)
	require.Equal(t, InputModeNormal, m.Mode())
	require.Contains(t, m.Message(), "run1.bin")

	ctl.saveErr = controller.ErrBusy
	press(m, "s")
	typeText(m, "run2")
	press(m, "enter")
	require.Contains(t, m.Message(), controller.ErrBusy.Error())

	press(m, "s", "esc")
	require.Equal(t, InputModeNormal, m.Mode())
	require.Len(t, ctl.saved, 2)
}

func TestDisplayToggle(t *testing.T) {
	m, ctl := newModel(t)

	press(m, "h")
	require.Equal(t, codec.ModeHex, ctl.display)
	press(m, "h")
	require.Equal(t, codec.ModeASCII, ctl.display)
}

func TestSessionMessages(t *testing.T) {
	m, _ := newModel(t)

	m.Update(ReceivedMsg{Text: "line one\r\nline "})
	m.Update(ReceivedMsg{Text: "two"})
	out := joined(m)
	require.Contains(t, out, "line one")
	require.Contains(t, out, "line two")

	m.Update(SerialStoppedMsg{Reason: session.ReasonTransportError, Err: errors.New("unplugged")})
	require.Contains(t, m.Message(), "unplugged")

	m.Update(PlaybackStoppedMsg{Reason: session.ReasonCompleted})
	require.Equal(t, "Playback finished", m.Message())
}

func TestCallbacksForward(t *testing.T) {
	var got []tea.Msg
	cb := Callbacks(func(msg tea.Msg) { got = append(got, msg) })

	cb.OnSerialStarted()
	cb.OnDataReceived("x")
	cb.OnSerialStopped(session.ReasonExternalStop, nil)
	cb.OnPlaybackStarted()
	cb.OnPlaybackStopped(session.ReasonCompleted, nil)

	require.Equal(t, []tea.Msg{
		SerialStartedMsg{},
		ReceivedMsg{Text: "x"},
		SerialStoppedMsg{Reason: session.ReasonExternalStop},
		PlaybackStartedMsg{},
		PlaybackStoppedMsg{Reason: session.ReasonCompleted},
	}, got)
}

func TestRefreshSchedule(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(RefreshMsg{})
	require.Nil(t, cmd, "no refresh interval")

	m.interval = time.Millisecond
	_, cmd = m.Update(RefreshMsg{})
	require.NotNil(t, cmd)
	require.Equal(t, refreshTickMsg{}, cmd())
}

func TestQuitAndView(t *testing.T) {
	m, _ := newModel(t)
	require.NotEmpty(t, m.View())

	press(m, "?")
	require.NotEmpty(t, m.View())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}
