package transport

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	serial "github.com/allbin/go-serial-term"
	"github.com/allbin/go-serial-term/internal/session"
)

func openPTY(t *testing.T) (*os.File, session.ConnectionConfig) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	return master, session.ConnectionConfig{
		Port:     slave.Name(),
		BaudRate: 115200,
		StopBits: 1,
		Parity:   session.ParityNone,
	}
}

func exercise(t *testing.T, tr session.Transport, master *os.File) {
	t.Helper()

	n, err := tr.Available()
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = master.Write([]byte("ping"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := tr.Available()
		return err == nil && n == 4
	}, time.Second, 5*time.Millisecond)

	buf := make([]byte, 4)
	n, err = tr.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))

	_, err = tr.Write([]byte("pong"))
	require.NoError(t, err)
	require.NoError(t, Drain(tr))
	n, err = master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:n]))

	require.NoError(t, tr.Close())
}

func TestTermiosOverPTY(t *testing.T) {
	master, cfg := openPTY(t)

	tr, err := OpenTermios(cfg)
	require.NoError(t, err)
	exercise(t, tr, master)
}

func TestPortableOverPTY(t *testing.T) {
	master, cfg := openPTY(t)

	tr, err := OpenPortable(cfg)
	if err != nil {
		t.Skipf("go.bug.st/serial cannot open a pty here: %v", err)
	}
	exercise(t, tr, master)
}

func TestTermiosMissingDevice(t *testing.T) {
	_, err := OpenTermios(session.ConnectionConfig{Port: "/dev/ttyNOPE9", BaudRate: 9600, StopBits: 1})
	require.True(t, errors.Is(err, serial.ErrDeviceNotFound), "got %v", err)
}

func TestPortableMissingDevice(t *testing.T) {
	_, err := OpenPortable(session.ConnectionConfig{Port: "/dev/ttyNOPE9", BaudRate: 9600, StopBits: 1})
	require.Error(t, err)
}

type plainTransport struct{ session.Transport }

func TestDrainWithoutSupport(t *testing.T) {
	require.NoError(t, Drain(plainTransport{}))
}

func TestOpenerRegistry(t *testing.T) {
	for _, name := range []string{"termios", "PORTABLE"} {
		open, err := Opener(name)
		require.NoError(t, err)
		require.NotNil(t, open)
	}

	_, err := Opener("carrier-pigeon")
	require.ErrorIs(t, err, ErrUnknownDriver)
	require.Equal(t, []string{DriverPortable, DriverTermios}, Drivers())
}
