package controller

import (
	"errors"

	"github.com/allbin/go-serial-term/internal/record"
	"github.com/allbin/go-serial-term/internal/session"
	"github.com/allbin/go-serial-term/internal/workspace"
)

var (
	ErrBufferFull      = errors.New("send buffer full")
	ErrBusy            = errors.New("recorded data is still being written")
	ErrInvalidState    = errors.New("invalid state")
	ErrConnected       = errors.New("serial link is connected")
	ErrPlaying         = errors.New("playback is running")
	ErrNoPlayFile      = errors.New("no play file selected")
	ErrInvalidDelay    = errors.New("playback delay must not be negative")
	ErrClosed          = errors.New("controller closed")
	ErrNothingRecorded = record.ErrNothingRecorded
	ErrNoWorkspace     = workspace.ErrNoWorkspace
	ErrSessionActive   = session.ErrActive
)
