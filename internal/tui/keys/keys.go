package keys

import "github.com/charmbracelet/bubbles/key"

// CommonKeys are shared by every mode of the terminal
type CommonKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	Escape     key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i", "I"),
			key.WithHelp("i", "insert mode"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
	}
}

// TerminalKeys drive the session controller from normal mode, plus the
// send keys used in insert mode.
type TerminalKeys struct {
	CommonKeys

	Connect    key.Binding
	NextPort   key.Binding
	NextBaud   key.Binding
	NextParity key.Binding
	StopBits   key.Binding

	Play      key.Binding
	NextFile  key.Binding
	DelayUp   key.Binding
	DelayDown key.Binding

	Record    key.Binding
	RecordCSV key.Binding
	Save      key.Binding

	ToggleHex     key.Binding
	ToggleNewline key.Binding
	TogglePacket  key.Binding
	Clear         key.Binding

	Enter          key.Binding
	ToggleSendMode key.Binding
	Up             key.Binding
	Down           key.Binding
	GotoTop        key.Binding
	GotoBottom     key.Binding
}

func NewTerminalKeys() TerminalKeys {
	return TerminalKeys{
		CommonKeys: NewCommonKeys(),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect/disconnect"),
		),
		NextPort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "next port"),
		),
		NextBaud: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "next baud rate"),
		),
		NextParity: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "next parity"),
		),
		StopBits: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "1/2 stop bits"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "play/stop file"),
		),
		NextFile: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "next play file"),
		),
		DelayUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "delay +10ms"),
		),
		DelayDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "delay -10ms"),
		),
		Record: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle record"),
		),
		RecordCSV: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "toggle csv"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save recording"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hex/ascii display"),
		),
		ToggleNewline: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "append newline"),
		),
		TogglePacket: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "packet mode"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear buffer"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send/confirm"),
		),
		ToggleSendMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "text/hex input"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "goto top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "goto bottom"),
		),
	}
}

func (k TerminalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Connect, k.InsertMode, k.Record, k.Play, k.Quit}
}

func (k TerminalKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Connect, k.NextPort, k.NextBaud, k.NextParity, k.StopBits},
		{k.Play, k.NextFile, k.DelayUp, k.DelayDown},
		{k.Record, k.RecordCSV, k.Save, k.ToggleHex},
		{k.InsertMode, k.Escape, k.ToggleSendMode, k.ToggleNewline, k.TogglePacket},
		{k.Up, k.Down, k.GotoTop, k.GotoBottom, k.Clear, k.Quit},
	}
}
