// Package config loads serterm settings with viper: built-in defaults,
// then the config file, then SERTERM_* environment variables, then flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/session"
	"github.com/allbin/go-serial-term/internal/transport"
)

const EnvPrefix = "SERTERM"

// Setting keys
const (
	KeyPort            = "port"
	KeyBaud            = "baud"
	KeyStopBits        = "stop_bits"
	KeyParity          = "parity"
	KeyDriver          = "driver"
	KeyDisplay         = "display"
	KeyWorkspace       = "workspace"
	KeyReceiveBuffer   = "buffers.receive"
	KeySendBuffer      = "buffers.send"
	KeyRecordBuffer    = "buffers.record"
	KeyPollInterval    = "session.poll_interval"
	KeyRecordInterval  = "record.interval"
	KeyFlushInterval   = "record.flush_interval"
	KeyRefreshInterval = "ui.refresh_interval"
	KeyLogFile         = "log.file"
	KeyLogLevel        = "log.level"
)

// BaudRates offered by the terminal UI.
var BaudRates = []int{600, 1200, 2400, 4800, 9600, 14400, 19200, 38400, 57600, 115200}

// Settings is the resolved configuration.
type Settings struct {
	Port      string
	BaudRate  int
	StopBits  int
	Parity    session.Parity
	Driver    string
	Display   codec.Mode
	Workspace string

	ReceiveBuffer int
	SendBuffer    int
	RecordBuffer  int

	PollInterval    time.Duration
	RecordInterval  time.Duration
	FlushInterval   time.Duration
	RefreshInterval time.Duration

	LogFile  string
	LogLevel string
}

// Connection returns the session snapshot for the configured link.
func (s Settings) Connection() session.ConnectionConfig {
	return session.ConnectionConfig{
		Port:     s.Port,
		BaudRate: s.BaudRate,
		StopBits: s.StopBits,
		Parity:   s.Parity,
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "")
	v.SetDefault(KeyBaud, 9600)
	v.SetDefault(KeyStopBits, 1)
	v.SetDefault(KeyParity, "none")
	v.SetDefault(KeyDriver, transport.DriverTermios)
	v.SetDefault(KeyDisplay, "ascii")
	v.SetDefault(KeyWorkspace, "")
	v.SetDefault(KeyReceiveBuffer, 2000)
	v.SetDefault(KeySendBuffer, 2000)
	v.SetDefault(KeyRecordBuffer, 20000)
	v.SetDefault(KeyPollInterval, time.Millisecond)
	v.SetDefault(KeyRecordInterval, 10*time.Millisecond)
	v.SetDefault(KeyFlushInterval, time.Duration(0))
	v.SetDefault(KeyRefreshInterval, 5*time.Second)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, "info")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Dir is the serterm directory under the user config dir.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "serterm"), nil
}

// Load reads file, or config.yaml from Dir when file is empty. A missing
// default config file is not an error.
func Load(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Resolve reads and validates Settings from v.
func Resolve(v *viper.Viper) (Settings, error) {
	parity, err := session.ParseParity(v.GetString(KeyParity))
	if err != nil {
		return Settings{}, err
	}
	display, err := codec.ParseMode(v.GetString(KeyDisplay))
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Port:            v.GetString(KeyPort),
		BaudRate:        v.GetInt(KeyBaud),
		StopBits:        v.GetInt(KeyStopBits),
		Parity:          parity,
		Driver:          v.GetString(KeyDriver),
		Display:         display,
		Workspace:       v.GetString(KeyWorkspace),
		ReceiveBuffer:   v.GetInt(KeyReceiveBuffer),
		SendBuffer:      v.GetInt(KeySendBuffer),
		RecordBuffer:    v.GetInt(KeyRecordBuffer),
		PollInterval:    v.GetDuration(KeyPollInterval),
		RecordInterval:  v.GetDuration(KeyRecordInterval),
		FlushInterval:   v.GetDuration(KeyFlushInterval),
		RefreshInterval: v.GetDuration(KeyRefreshInterval),
		LogFile:         v.GetString(KeyLogFile),
		LogLevel:        v.GetString(KeyLogLevel),
	}

	if _, err := transport.Opener(s.Driver); err != nil {
		return Settings{}, err
	}
	if s.ReceiveBuffer <= 0 || s.SendBuffer <= 0 || s.RecordBuffer <= 0 {
		return Settings{}, fmt.Errorf("buffer sizes must be positive")
	}
	if s.RecordInterval <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive", KeyRecordInterval)
	}
	return s, nil
}
