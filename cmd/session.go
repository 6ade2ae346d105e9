/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/rs/zerolog"

	"github.com/allbin/go-serial-term/internal/controller"
	"github.com/allbin/go-serial-term/internal/transport"
	"github.com/allbin/go-serial-term/internal/workspace"
)

// newController wires the configured driver, buffers and workspace into a
// session controller. sendBuffer overrides the configured size when larger.
func newController(cb controller.Callbacks, log zerolog.Logger, sendBuffer int) (*controller.Controller, *workspace.Store, error) {
	open, err := transport.Opener(settings.Driver)
	if err != nil {
		return nil, nil, err
	}
	store, err := openWorkspace()
	if err != nil {
		return nil, nil, err
	}

	ctl, err := controller.New(controller.Options{
		Open:           open,
		Workspace:      store,
		ReceiveBuffer:  settings.ReceiveBuffer,
		SendBuffer:     max(settings.SendBuffer, sendBuffer),
		RecordBuffer:   settings.RecordBuffer,
		PollInterval:   settings.PollInterval,
		RecordInterval: settings.RecordInterval,
		FlushInterval:  settings.FlushInterval,
		Display:        settings.Display,
		Callbacks:      cb,
		Logger:         log,
	})
	if err != nil {
		return nil, nil, err
	}
	ctl.SetConnectionConfig(settings.Connection())
	return ctl, store, nil
}
