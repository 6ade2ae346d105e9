package transport

import (
	"errors"
	"fmt"
	"io/fs"

	gobug "go.bug.st/serial"

	serial "github.com/allbin/go-serial-term"
	"github.com/allbin/go-serial-term/internal/session"
)

const portableReadChunk = 4096

// portableTransport has no input-queue ioctl to ask, so Available performs
// a zero-timeout read into pending and reports what it holds.
// Not safe for concurrent use.
type portableTransport struct {
	port    gobug.Port
	pending []byte
	chunk   []byte
}

// OpenPortable opens cfg.Port through go.bug.st/serial.
func OpenPortable(cfg session.ConnectionConfig) (session.Transport, error) {
	mode := &gobug.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   gobug.NoParity,
		StopBits: gobug.OneStopBit,
	}
	switch cfg.Parity {
	case session.ParityOdd:
		mode.Parity = gobug.OddParity
	case session.ParityEven:
		mode.Parity = gobug.EvenParity
	}
	if cfg.StopBits == 2 {
		mode.StopBits = gobug.TwoStopBits
	}

	port, err := gobug.Open(cfg.Port, mode)
	if err != nil {
		return nil, classifyPortError(cfg.Port, err)
	}
	if err := port.SetReadTimeout(0); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Port, err)
	}
	return &portableTransport{port: port, chunk: make([]byte, portableReadChunk)}, nil
}

// classifyPortError maps go.bug.st error codes onto the serial package errors.
func classifyPortError(device string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", serial.ErrDeviceNotFound, device)
	}

	var portErr *gobug.PortError
	if !errors.As(err, &portErr) {
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
	switch portErr.Code() {
	case gobug.PortNotFound:
		return fmt.Errorf("%w: %s", serial.ErrDeviceNotFound, device)
	case gobug.PermissionDenied:
		return fmt.Errorf("%w: %s", serial.ErrPermissionDenied, device)
	case gobug.PortBusy:
		return fmt.Errorf("%w: %s", serial.ErrDeviceInUse, device)
	case gobug.InvalidSpeed:
		return fmt.Errorf("%w: %s", serial.ErrInvalidBaudRate, device)
	default:
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
}

func (t *portableTransport) Available() (int, error) {
	n, err := t.port.Read(t.chunk)
	if err != nil {
		return len(t.pending), err
	}
	t.pending = append(t.pending, t.chunk[:n]...)
	return len(t.pending), nil
}

func (t *portableTransport) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		if _, err := t.Available(); err != nil {
			return 0, err
		}
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *portableTransport) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

func (t *portableTransport) Drain() error {
	return t.port.Drain()
}

func (t *portableTransport) Close() error {
	t.pending = nil
	return t.port.Close()
}
