/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/allbin/go-serial-term/internal/config"
	"github.com/allbin/go-serial-term/internal/logging"
	"github.com/allbin/go-serial-term/internal/transport"
	"github.com/allbin/go-serial-term/internal/tui/models"
)

// terminalCmd represents the terminal command
var terminalCmd = &cobra.Command{
	Use:     "terminal",
	Aliases: []string{"connect", "term"},
	Short:   "Open the interactive serial terminal",
	Long: `Open the interactive serial terminal.

The terminal shows received data as it arrives and has a vim-like input
line. Press 'i' to type, Enter to send and Esc to return to normal mode.
From normal mode:

  c        connect or disconnect the selected port
  o b y t  cycle port, baud rate, parity and stop bits
  p f      play or stop the selected workspace file, cycle files
  + -      change the playback delay
  r v s    toggle recording, toggle CSV, save the recording
  h n m    hex display, append newline, keep input after send
  ?        full key help

Logs go to --log-file since the terminal owns the screen.

Example usage:
  serterm terminal -p /dev/ttyUSB0 -b 115200
  serterm -w ~/captures --log-file /tmp/serterm.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTerminal()
	},
}

func init() {
	rootCmd.AddCommand(terminalCmd)
}

func runTerminal() error {
	log, closer, err := logging.File(settings.LogFile, settings.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Callbacks fire from session goroutines once the program exists
	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	ctl, _, err := newController(models.Callbacks(send), log, 0)
	if err != nil {
		return err
	}
	defer ctl.Close()

	m := models.NewSerialModel(models.Options{
		Controller:      ctl,
		Config:          settings.Connection(),
		BaudRates:       config.BaudRates,
		ListPorts:       func() ([]string, error) { return transport.ListPorts(false) },
		RefreshInterval: settings.RefreshInterval,
	})

	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	log.Info().Str("port", settings.Port).Str("driver", settings.Driver).Msg("Terminal started")

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	log.Info().Msg("Terminal closed")
	return nil
}
