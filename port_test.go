package serial

import (
	"errors"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.ReadTimeoutTenths != 0 {
		t.Errorf("Expected non-blocking reads, got VTIME %d", config.ReadTimeoutTenths)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	err := WithBaudRate(115200)(&config)
	if err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}

	err = WithDataBits(7)(&config)
	if err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	err = WithStopBits(2)(&config)
	if err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	err = WithParity(ParityEven)(&config)
	if err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"baud rate", WithBaudRate(123456), ErrInvalidBaudRate},
		{"data bits", WithDataBits(9), ErrInvalidConfig},
		{"stop bits", WithStopBits(3), ErrInvalidConfig},
		{"parity", WithParity(Parity(7)), ErrInvalidConfig},
		{"read timeout", WithReadTimeout(256), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := tt.opt(&config)
			if err != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if config != DefaultConfig() {
				t.Errorf("Config changed on invalid option: %+v", config)
			}
		})
	}
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{600, false},
		{9600, false},
		{115200, false},
		{123456, true},
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
		}
		if result == 0 {
			t.Errorf("Got zero result for valid baud rate %d", test.input)
		}
	}
}

func TestParityString(t *testing.T) {
	if ParityNone.String() != "None" || ParityOdd.String() != "Odd" || ParityEven.String() != "Even" {
		t.Errorf("Unexpected parity names: %s %s %s", ParityNone, ParityOdd, ParityEven)
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open("/dev/nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestPortRoundTripOverPTY(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	p, err := Open(slave.Name(), WithBaudRate(115200), WithStopBits(2), WithParity(ParityOdd))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	// Nothing queued yet, reads must not block
	buf := make([]byte, 16)
	n, err := p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = master.Write([]byte("hello"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		waiting, err := p.InWaiting()
		return err == nil && waiting == 5
	}, time.Second, 5*time.Millisecond)

	n, err = p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))

	_, err = p.Write([]byte("pong"))
	require.NoError(t, err)

	out := make([]byte, 4)
	n, err = master.Read(out)
	require.NoError(t, err)
	require.Equal(t, "pong", string(out[:n]))
}

func TestPortClosed(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	p, err := Open(slave.Name())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	require.ErrorIs(t, p.Close(), ErrPortClosed)
	_, err = p.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrPortClosed)
	_, err = p.Write([]byte{1})
	require.ErrorIs(t, err, ErrPortClosed)
	_, err = p.InWaiting()
	require.ErrorIs(t, err, ErrPortClosed)
	require.ErrorIs(t, p.Drain(), ErrPortClosed)
	require.ErrorIs(t, p.FlushInput(), ErrPortClosed)
}

func TestOpenFlushesStaleInput(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	// the slave is still canonical, so only whole lines count as queued
	_, err = master.Write([]byte("stale\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		waiting, err := unix.IoctlGetInt(int(slave.Fd()), unix.TIOCINQ)
		return err == nil && waiting > 0
	}, time.Second, 5*time.Millisecond)

	p, err := Open(slave.Name())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	waiting, err := p.InWaiting()
	require.NoError(t, err)
	require.Zero(t, waiting)
}

func TestDrainAfterWrite(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	p, err := Open(slave.Name())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	_, err = p.Write([]byte("out"))
	require.NoError(t, err)
	require.NoError(t, p.Drain())

	buf := make([]byte, 3)
	n, err := master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "out", string(buf[:n]))
}
