/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/transport"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data]",
	Short: "Send data to a serial port",
	Long: `Send one message to the configured port and exit.

Data can be provided as:
- Command line argument: serterm send "Hello World" -p /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serterm send -p /dev/ttyUSB0
- Interactive mode: serterm send -p /dev/ttyUSB0 (prompts for input)

With --hex the data is whitespace separated hex tokens, each optionally
prefixed with 0x: "48 65 0x6c 6c6f".

Example usage:
  serterm send "AT+GMR" -p /dev/ttyUSB0 --newline
  serterm send --hex "02 06 00 03" -p /dev/ttyACM0 -b 115200`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data string
		if len(args) == 1 {
			data = args[0]
		} else {
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		var payload []byte
		var err error
		if hexMode {
			payload, err = codec.ComposeSend("", data, addNewline)
		} else {
			payload, err = codec.ComposeSend(data, "", addNewline)
		}
		if err != nil {
			return err
		}
		return sendData(payload)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add a newline character after the data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hex tokens")
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendData(payload []byte) error {
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true)

	cfg := settings.Connection()
	if err := cfg.Validate(); err != nil {
		return err
	}
	open, err := transport.Opener(settings.Driver)
	if err != nil {
		return err
	}

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), cfg)
	port, err := open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	n, err := port.Write(payload)
	if err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}
	if err := transport.Drain(port); err != nil {
		return fmt.Errorf("failed to drain %s: %w", cfg.Port, err)
	}
	logger.Debug().Int("bytes", n).Str("port", cfg.Port).Msg("Sent")

	fmt.Printf("%s Sent %d bytes\n", successStyle.Render("✓"), n)
	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), codec.FormatDisplay(settings.Display, payload))
	return nil
}
