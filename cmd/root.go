/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/allbin/go-serial-term/internal/config"
	"github.com/allbin/go-serial-term/internal/logging"
	"github.com/allbin/go-serial-term/internal/workspace"
)

var (
	cfgFile  string
	v        = config.New()
	settings config.Settings
	logger   = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serterm",
	Short: "Serial port terminal with recording and playback",
	Long: `serterm is a terminal for talking to devices over a serial port.

It shows received data as text or hex, sends typed text or hex bytes,
records everything received to a binary file and optionally a line based
CSV file, and plays a recorded binary file back to a port with a fixed
delay between bytes.

Without a subcommand the interactive terminal is started.

Settings are read from $XDG_CONFIG_HOME/serterm/config.yaml, SERTERM_*
environment variables and the flags below, in increasing precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTerminal()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/serterm/config.yaml)")
	flags.StringP("port", "p", "", "serial port device")
	flags.IntP("baud", "b", 9600, "baud rate")
	flags.Int("stop-bits", 1, "stop bits: 1 or 2")
	flags.String("parity", "none", "parity: none, odd, even")
	flags.String("driver", "termios", "port driver: termios, portable")
	flags.String("display", "ascii", "display mode: ascii, hex")
	flags.StringP("workspace", "w", "", "workspace directory (overrides the saved one)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "log file; the terminal UI only logs here")

	bind(flags.Lookup("port"), config.KeyPort)
	bind(flags.Lookup("baud"), config.KeyBaud)
	bind(flags.Lookup("stop-bits"), config.KeyStopBits)
	bind(flags.Lookup("parity"), config.KeyParity)
	bind(flags.Lookup("driver"), config.KeyDriver)
	bind(flags.Lookup("display"), config.KeyDisplay)
	bind(flags.Lookup("workspace"), config.KeyWorkspace)
	bind(flags.Lookup("log-level"), config.KeyLogLevel)
	bind(flags.Lookup("log-file"), config.KeyLogFile)
}

func bind(flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// setup loads configuration and builds the console logger. The terminal UI
// replaces the logger with a file logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Load(v, cfgFile); err != nil {
		return err
	}
	s, err := config.Resolve(v)
	if err != nil {
		return err
	}
	settings = s

	logger, err = logging.Console(os.Stderr, settings.LogLevel)
	if err != nil {
		return err
	}
	logger.Debug().Str("config", v.ConfigFileUsed()).Msg("Configuration loaded")
	return nil
}

// openWorkspace opens the persisted workspace selection
func openWorkspace() (*workspace.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return workspace.Open("", settings.Workspace)
	}
	return workspace.Open(filepath.Join(dir, "state.yaml"), settings.Workspace)
}
