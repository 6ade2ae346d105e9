/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/go-serial-term/internal/controller"
	"github.com/allbin/go-serial-term/internal/session"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <file.bin>",
	Short: "Play a recorded file from the workspace to the serial port",
	Long: `Send a .bin file from the workspace to the configured port one byte at
a time, waiting --delay milliseconds between bytes. Whatever the device
answers is shown on the console and, with --record, saved under a name.

Example usage:
  serterm play run1.bin -p /dev/ttyUSB0 --delay 5
  serterm play init.bin --record reply --csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetInt("delay")
		record, _ := cmd.Flags().GetString("record")
		csv, _ := cmd.Flags().GetBool("csv")
		return runPlay(args[0], delay, record, csv)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntP("delay", "d", 0, "Delay between bytes in milliseconds")
	playCmd.Flags().String("record", "", "Record the replies and save them under this name")
	playCmd.Flags().Bool("csv", false, "With --record, also save replies as CSV")
}

func runPlay(file string, delayMs int, record string, csv bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openWorkspace()
	if err != nil {
		return err
	}
	path, err := store.Resolve(file)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	type result struct {
		reason session.StopReason
		err    error
	}
	done := make(chan result, 1)
	cb := controller.Callbacks{
		OnPlaybackStopped: func(reason session.StopReason, err error) {
			done <- result{reason, err}
		},
		OnDataReceived: func(text string) { fmt.Fprint(os.Stdout, text) },
	}

	// The whole file has to fit in the send queue
	ctl, _, err := newController(cb, logger, int(info.Size()))
	if err != nil {
		return err
	}
	defer ctl.Close()

	if record != "" {
		if err := ctl.SetRecording(true); err != nil {
			return err
		}
		if err := ctl.SetRecordAsCSV(csv); err != nil {
			return err
		}
	}

	if err := ctl.StartPlayback(file, delayMs); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Playing %s (%d bytes) to %s\n", file, info.Size(), settings.Port)
	start := time.Now()

	var res result
	select {
	case <-ctx.Done():
		ctl.StopPlayback()
		res = <-done
	case res = <-done:
	}
	ctl.Wait()

	if res.err != nil {
		return fmt.Errorf("playback %s: %w", res.reason, res.err)
	}
	fmt.Fprintf(os.Stderr, "\nPlayback %s after %v\n", res.reason, time.Since(start).Round(time.Millisecond))

	if record == "" {
		return nil
	}
	written, err := saveWhenIdle(ctl, record, saveTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %s\n", strings.Join(written, ", "))
	return nil
}
