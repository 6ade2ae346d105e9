package transport

import (
	serial "github.com/allbin/go-serial-term"
	"github.com/allbin/go-serial-term/internal/session"
)

type termiosTransport struct {
	port serial.Port
}

// OpenTermios opens cfg.Port in raw non-blocking mode.
func OpenTermios(cfg session.ConnectionConfig) (session.Transport, error) {
	parity := serial.ParityNone
	switch cfg.Parity {
	case session.ParityOdd:
		parity = serial.ParityOdd
	case session.ParityEven:
		parity = serial.ParityEven
	}

	port, err := serial.Open(cfg.Port,
		serial.WithBaudRate(cfg.BaudRate),
		serial.WithStopBits(cfg.StopBits),
		serial.WithParity(parity),
		serial.WithReadTimeout(0),
	)
	if err != nil {
		return nil, err
	}
	return &termiosTransport{port: port}, nil
}

func (t *termiosTransport) Read(p []byte) (int, error)  { return t.port.Read(p) }
func (t *termiosTransport) Write(p []byte) (int, error) { return t.port.Write(p) }
func (t *termiosTransport) Available() (int, error)     { return t.port.InWaiting() }
func (t *termiosTransport) Close() error                { return t.port.Close() }

// Drain blocks until everything written has left the port.
func (t *termiosTransport) Drain() error { return t.port.Drain() }
