package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/allbin/go-serial-term/internal/bytequeue"
)

type fakeTransport struct {
	mu       sync.Mutex
	input    []byte
	written  []byte
	writes   int
	closed   bool
	readErr  error
	writeErr error
}

func (f *fakeTransport) feed(p string) {
	f.mu.Lock()
	f.input = append(f.input, p...)
	f.mu.Unlock()
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(p, f.input)
	f.input = f.input[n:]
	return n, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes++
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeTransport) Available() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 1, nil
	}
	return len(f.input), nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) snapshot() (written string, writes int, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.written), f.writes, f.closed
}

type stopEvent struct {
	reason StopReason
	err    error
}

// recorder collects callbacks from a session under test.
type recorder struct {
	mu      sync.Mutex
	states  []State
	started int
	stops   []stopEvent
	display string
}

func (r *recorder) env(t *testing.T) Env {
	t.Helper()
	return Env{
		Receive:     bytequeue.New(2000),
		Send:        bytequeue.New(2000),
		Recording:   new(atomic.Bool),
		DisplayMode: new(atomic.Int32),
		Display: func(text string) {
			r.mu.Lock()
			r.display += text
			r.mu.Unlock()
		},
		OnStarted: func() {
			r.mu.Lock()
			r.started++
			r.mu.Unlock()
		},
		OnStopped: func(reason StopReason, err error) {
			r.mu.Lock()
			r.stops = append(r.stops, stopEvent{reason, err})
			r.mu.Unlock()
		},
		OnStateChange: func(s State) {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
		},
		PollInterval: time.Millisecond,
		Logger:       zerolog.Nop(),
	}
}

func (r *recorder) get() (states []State, started int, stops []stopEvent, display string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...), r.started, append([]stopEvent(nil), r.stops...), r.display
}

func openerFor(t Transport) Opener {
	return func(ConnectionConfig) (Transport, error) { return t, nil }
}

func failingOpener(err error) Opener {
	return func(ConnectionConfig) (Transport, error) { return nil, err }
}

var testConfig = ConnectionConfig{Port: "/dev/ttyFAKE0", BaudRate: 9600, StopBits: 1, Parity: ParityNone}

var errUnplugged = errors.New("device unplugged")
