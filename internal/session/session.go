// Package session runs the live serial link and file playback loops.
//
// A session owns one Transport for the duration of a run. It talks to the
// rest of the program only through the queues and flags in its Env, and
// reports lifecycle transitions through the Env callbacks.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/allbin/go-serial-term/internal/bytequeue"
)

var (
	// ErrTransport wraps every open, read or write failure of a Transport.
	ErrTransport = errors.New("transport error")
	// ErrActive is returned by Start when the session is not idle.
	ErrActive = errors.New("session already active")
	// ErrInvalidConfig is returned for a ConnectionConfig that fails Validate.
	ErrInvalidConfig = errors.New("invalid connection config")
)

// DefaultPollInterval is the pause between loop iterations.
const DefaultPollInterval = time.Millisecond

// Transport is a non-blocking serial device handle.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Available reports how many bytes Read can return without blocking
	Available() (int, error)
	Close() error
}

// Opener opens a Transport for a connection snapshot.
type Opener func(ConnectionConfig) (Transport, error)

// Parity of the serial line.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "None"
	case ParityOdd:
		return "Odd"
	case ParityEven:
		return "Even"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// ParseParity accepts none/odd/even or their first letter.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	default:
		return ParityNone, fmt.Errorf("%w: unknown parity %q", ErrInvalidConfig, s)
	}
}

// ConnectionConfig is copied when a session starts. Later changes by the
// caller do not reach a running session.
type ConnectionConfig struct {
	Port     string
	BaudRate int
	StopBits int
	Parity   Parity
}

// Validate checks the fields a Transport cannot be opened without.
func (c ConnectionConfig) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("%w: no port selected", ErrInvalidConfig)
	case c.BaudRate <= 0:
		return fmt.Errorf("%w: baud rate %d", ErrInvalidConfig, c.BaudRate)
	case c.StopBits != 1 && c.StopBits != 2:
		return fmt.Errorf("%w: stop bits %d", ErrInvalidConfig, c.StopBits)
	case c.Parity < ParityNone || c.Parity > ParityEven:
		return fmt.Errorf("%w: parity %d", ErrInvalidConfig, int(c.Parity))
	}
	return nil
}

func (c ConnectionConfig) String() string {
	return fmt.Sprintf("%s %d %d%c%d", c.Port, c.BaudRate, 8, c.Parity.String()[0], c.StopBits)
}

// State of a session.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StatePlaying
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StatePlaying:
		return "Playing"
	case StateStopping:
		return "Stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// StopReason tells OnStopped why a run ended.
type StopReason int

const (
	ReasonTransportError StopReason = iota
	ReasonExternalStop
	ReasonOther
	// ReasonCompleted ends a playback whose send queue ran empty
	ReasonCompleted
)

func (r StopReason) String() string {
	switch r {
	case ReasonTransportError:
		return "transport error"
	case ReasonExternalStop:
		return "stopped"
	case ReasonOther:
		return "other"
	case ReasonCompleted:
		return "completed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Env is everything a session shares with its owner.
type Env struct {
	Receive *bytequeue.Queue
	Send    *bytequeue.Queue

	// Received bytes go to Receive only while Recording is set
	Recording   *atomic.Bool
	DisplayMode *atomic.Int32
	Display     func(text string)

	// Prepare runs after the Transport opened and before the session reports
	// started. It resets the receive path (record target rotation).
	Prepare func() error

	OnStarted     func()
	OnStopped     func(reason StopReason, err error)
	OnStateChange func(State)

	PollInterval time.Duration
	Logger       zerolog.Logger
}

func (e *Env) pollInterval() time.Duration {
	if e.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return e.PollInterval
}

func (e *Env) started() {
	if e.OnStarted != nil {
		e.OnStarted()
	}
}

func (e *Env) stopped(reason StopReason, err error) {
	if e.OnStopped != nil {
		e.OnStopped(reason, err)
	}
}
