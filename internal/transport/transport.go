// Package transport provides the serial device drivers the sessions open.
package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/allbin/go-serial-term/internal/session"
)

const (
	// DriverTermios talks to Linux ttys directly through termios ioctls
	DriverTermios = "termios"
	// DriverPortable uses go.bug.st/serial and runs wherever it does
	DriverPortable = "portable"
)

// ErrUnknownDriver is returned by Opener for names no driver is registered under
var ErrUnknownDriver = errors.New("unknown transport driver")

// Drainer is implemented by transports that can wait for queued output
// to be transmitted.
type Drainer interface {
	Drain() error
}

var (
	_ Drainer = (*termiosTransport)(nil)
	_ Drainer = (*portableTransport)(nil)
)

// Drain waits for t's output to go out when the driver supports it.
func Drain(t session.Transport) error {
	if d, ok := t.(Drainer); ok {
		return d.Drain()
	}
	return nil
}

var drivers = map[string]session.Opener{
	DriverTermios:  OpenTermios,
	DriverPortable: OpenPortable,
}

// Opener returns the opener registered under name.
func Opener(name string) (session.Opener, error) {
	open, ok := drivers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDriver, name, strings.Join(Drivers(), ", "))
	}
	return open, nil
}

// Drivers lists the registered driver names.
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
