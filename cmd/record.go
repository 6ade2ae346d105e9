/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
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

// saveTimeout bounds how long a save waits for the record pipeline to drain
const saveTimeout = 5 * time.Second

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:     "record <name>",
	Aliases: []string{"capture"},
	Short:   "Record incoming serial data into the workspace",
	Long: `Record everything received from the configured port until interrupted
(Ctrl+C) or until --duration has passed, then save it as <name>.bin and,
with --csv, <name>.csv. A relative name is placed in the workspace.

The CSV file holds one row per received line: sequence number, timestamp
and the line text, separated by ';'.

Example usage:
  serterm record run1 -p /dev/ttyUSB0 -b 115200
  serterm record run2 --csv --duration 30s --console`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		csv, _ := cmd.Flags().GetBool("csv")
		duration, _ := cmd.Flags().GetDuration("duration")
		console, _ := cmd.Flags().GetBool("console")
		return runRecord(args[0], csv, duration, console)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().Bool("csv", false, "Also record received lines as CSV")
	recordCmd.Flags().Duration("duration", 0, "Stop after this long (default: until Ctrl+C)")
	recordCmd.Flags().BoolP("console", "c", false, "Display incoming data on the console while recording")
}

func runRecord(name string, csv bool, duration time.Duration, console bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	stopped := make(chan error, 1)
	cb := controller.Callbacks{
		OnSerialStopped: func(reason session.StopReason, err error) {
			if reason == session.ReasonExternalStop {
				err = nil
			}
			stopped <- err
		},
	}
	if console {
		cb.OnDataReceived = func(text string) { fmt.Fprint(os.Stdout, text) }
	}

	ctl, _, err := newController(cb, logger, 0)
	if err != nil {
		return err
	}
	defer ctl.Close()

	if err := ctl.SetRecording(true); err != nil {
		return err
	}
	if err := ctl.SetRecordAsCSV(csv); err != nil {
		return err
	}
	if err := ctl.Connect(settings.Connection()); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Recording from %s, press Ctrl+C to stop\n", settings.Port)
	start := time.Now()

	var linkErr error
	select {
	case <-ctx.Done():
		ctl.Disconnect()
		linkErr = <-stopped
	case linkErr = <-stopped:
	}
	ctl.Wait()
	if linkErr != nil {
		logger.Error().Err(linkErr).Msg("Link lost, saving what was recorded")
	}

	written, err := saveWhenIdle(ctl, name, saveTimeout)
	if err != nil {
		if linkErr != nil {
			return fmt.Errorf("%w (save: %v)", linkErr, err)
		}
		return err
	}
	fmt.Fprintf(os.Stderr, "Recorded for %v: %s\n", time.Since(start).Round(time.Millisecond), strings.Join(written, ", "))
	return linkErr
}

// saveWhenIdle retries Save while the record pipeline still holds data
func saveWhenIdle(ctl *controller.Controller, name string, timeout time.Duration) ([]string, error) {
	deadline := time.Now().Add(timeout)
	for {
		written, err := ctl.Save(name)
		if !errors.Is(err, controller.ErrBusy) || time.Now().After(deadline) {
			return written, err
		}
		time.Sleep(10 * time.Millisecond)
	}
}
