// Package controller is the façade a user interface drives. It owns the
// byte queues, the record pipeline and the two sessions, and turns session
// lifecycle events into UI callbacks.
package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/allbin/go-serial-term/internal/bytequeue"
	"github.com/allbin/go-serial-term/internal/codec"
	"github.com/allbin/go-serial-term/internal/record"
	"github.com/allbin/go-serial-term/internal/session"
)

// Default queue capacities in bytes and the record pipeline tick.
const (
	DefaultReceiveBuffer  = 2000
	DefaultSendBuffer     = 2000
	DefaultRecordBuffer   = 20000
	DefaultRecordInterval = 10 * time.Millisecond
)

// Workspace is the directory capability the controller consumes.
type Workspace interface {
	ActiveWorkspace() string
	ListPlayableFiles() ([]string, error)
	Resolve(name string) (string, error)
}

// Callbacks are invoked from session goroutines. They must not block.
type Callbacks struct {
	OnSerialStarted   func()
	OnSerialStopped   func(reason session.StopReason, err error)
	OnPlaybackStarted func()
	OnPlaybackStopped func(reason session.StopReason, err error)
	OnDataReceived    func(text string)
}

// Options configures New. Zero sizes and intervals take the defaults.
type Options struct {
	Open      session.Opener
	Workspace Workspace

	ReceiveBuffer int
	SendBuffer    int
	RecordBuffer  int

	PollInterval   time.Duration
	RecordInterval time.Duration
	FlushInterval  time.Duration

	Display   codec.Mode
	Callbacks Callbacks
	Logger    zerolog.Logger
}

// Controller coordinates one live link and one playback over shared queues.
type Controller struct {
	workspace Workspace
	log       zerolog.Logger

	receive  *bytequeue.Queue
	send     *bytequeue.Queue
	recorded *bytequeue.Queue

	recording atomic.Bool
	csv       atomic.Bool
	display   atomic.Int32

	pipeline *record.Pipeline
	serial   *session.SerialSession
	playback *session.PlaybackSession

	ctx          context.Context
	cancel       context.CancelFunc
	pipelineDone chan struct{}

	mu     sync.Mutex
	config session.ConnectionConfig
	closed bool
}

// New builds a controller and starts its record pipeline. Close releases it.
func New(opts Options) (*Controller, error) {
	if opts.Open == nil {
		return nil, fmt.Errorf("%w: no transport opener", ErrInvalidState)
	}
	if opts.Workspace == nil {
		opts.Workspace = noWorkspace{}
	}
	if opts.ReceiveBuffer <= 0 {
		opts.ReceiveBuffer = DefaultReceiveBuffer
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.RecordBuffer <= 0 {
		opts.RecordBuffer = DefaultRecordBuffer
	}
	if opts.RecordInterval <= 0 {
		opts.RecordInterval = DefaultRecordInterval
	}

	c := &Controller{
		workspace: opts.Workspace,
		log:       opts.Logger.With().Str("component", "controller").Logger(),
		receive:   bytequeue.New(opts.ReceiveBuffer),
		send:      bytequeue.New(opts.SendBuffer),
		recorded:  bytequeue.New(opts.RecordBuffer),
	}
	c.display.Store(int32(opts.Display))

	c.pipeline = record.NewPipeline(record.Config{
		Receive:       c.receive,
		Recorded:      c.recorded,
		CSV:           &c.csv,
		FlushInterval: opts.FlushInterval,
		Logger:        opts.Logger,
	})

	cb := opts.Callbacks
	env := session.Env{
		Receive:      c.receive,
		Send:         c.send,
		Recording:    &c.recording,
		DisplayMode:  &c.display,
		Display:      cb.OnDataReceived,
		Prepare:      c.rotateRecordTarget,
		PollInterval: opts.PollInterval,
		Logger:       opts.Logger,
	}

	serialEnv := env
	serialEnv.OnStarted = cb.OnSerialStarted
	serialEnv.OnStopped = cb.OnSerialStopped
	c.serial = session.NewSerialSession(opts.Open, serialEnv)

	playbackEnv := env
	playbackEnv.OnStarted = cb.OnPlaybackStarted
	playbackEnv.OnStopped = cb.OnPlaybackStopped
	c.playback = session.NewPlaybackSession(opts.Open, playbackEnv)

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.pipelineDone = make(chan struct{})
	go func() {
		defer close(c.pipelineDone)
		c.pipeline.Run(c.ctx, opts.RecordInterval)
	}()

	return c, nil
}

// rotateRecordTarget runs inside a starting session, after the transport
// opened: it clears the receive path and recreates the temp record files.
func (c *Controller) rotateRecordTarget() error {
	return c.pipeline.Rotate(c.workspace.ActiveWorkspace())
}

// SetConnectionConfig stores the link settings used by StartPlayback and by
// Connect callers that pass the current configuration back.
func (c *Controller) SetConnectionConfig(cfg session.ConnectionConfig) {
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
}

func (c *Controller) ConnectionConfig() session.ConnectionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Connect starts the live link with a snapshot of cfg. Completion is
// reported through OnSerialStarted or OnSerialStopped. It fails with
// ErrPlaying while a playback is running.
func (c *Controller) Connect(cfg session.ConnectionConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.playback.State() != session.StateIdle {
		return ErrPlaying
	}
	c.config = cfg
	if err := c.serial.Start(c.ctx, cfg); err != nil {
		return err
	}
	c.log.Debug().Str("port", cfg.Port).Msg("Connect requested")
	return nil
}

// Disconnect asks the live link to stop. OnSerialStopped follows.
func (c *Controller) Disconnect() {
	c.serial.Stop()
}

// StartPlayback loads a workspace file into the send queue and replays it
// over the configured port with delayMs between bytes.
func (c *Controller) StartPlayback(file string, delayMs int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.serial.State() != session.StateIdle {
		return ErrConnected
	}
	if c.playback.State() != session.StateIdle {
		return ErrSessionActive
	}
	if file == "" {
		return ErrNoPlayFile
	}
	if delayMs < 0 {
		return ErrInvalidDelay
	}

	path, err := c.workspace.Resolve(file)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load play file: %w", err)
	}

	c.send.Flush()
	if !c.send.Enqueue(data) {
		return fmt.Errorf("%w: %s is %d bytes, send buffer holds %d", ErrBufferFull, file, len(data), c.send.Cap())
	}

	if err := c.playback.Start(c.ctx, c.config, time.Duration(delayMs)*time.Millisecond); err != nil {
		c.send.Flush()
		return err
	}
	c.log.Debug().Str("file", file).Int("bytes", len(data)).Int("delay_ms", delayMs).Msg("Playback requested")
	return nil
}

// StopPlayback asks a running playback to stop. OnPlaybackStopped follows.
func (c *Controller) StopPlayback() {
	c.playback.Stop()
}

// EnqueueSend queues p for the live link. It reports false, and queues
// nothing, if p does not fit.
func (c *Controller) EnqueueSend(p []byte) bool {
	return c.send.Enqueue(p)
}

// Send is EnqueueSend returning ErrBufferFull instead of false.
func (c *Controller) Send(p []byte) error {
	if !c.send.Enqueue(p) {
		return fmt.Errorf("%w: %d bytes queued, %d free", ErrBufferFull, c.send.Len(), c.send.Free())
	}
	return nil
}

// SetRecording needs an active workspace to enable. Disabling it disables
// CSV recording too.
func (c *Controller) SetRecording(enabled bool) error {
	if !enabled {
		c.recording.Store(false)
		c.csv.Store(false)
		return nil
	}
	if c.workspace.ActiveWorkspace() == "" {
		return ErrNoWorkspace
	}
	c.recording.Store(true)
	return nil
}

// SetRecordAsCSV enables line framing into the CSV file. It fails with
// ErrInvalidState while recording is off.
func (c *Controller) SetRecordAsCSV(enabled bool) error {
	if enabled && !c.recording.Load() {
		return fmt.Errorf("%w: enable recording before CSV", ErrInvalidState)
	}
	c.csv.Store(enabled)
	return nil
}

func (c *Controller) Recording() bool    { return c.recording.Load() }
func (c *Controller) RecordingCSV() bool { return c.csv.Load() }

// Save copies the recorded files to prefix.bin and prefix.csv, skipping
// empty ones. A relative prefix is placed in the active workspace.
func (c *Controller) Save(prefix string) ([]string, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty save name", ErrInvalidState)
	}
	if !filepath.IsAbs(prefix) {
		if dir := c.workspace.ActiveWorkspace(); dir != "" {
			prefix = filepath.Join(dir, prefix)
		}
	}

	if c.receive.Len() > 0 || c.pipeline.Pending() {
		return nil, ErrBusy
	}

	written, err := c.pipeline.Save(prefix)
	if err != nil {
		return nil, err
	}
	c.log.Info().Strs("files", written).Msg("Recording saved")
	return written, nil
}

func (c *Controller) SerialState() session.State   { return c.serial.State() }
func (c *Controller) PlaybackState() session.State { return c.playback.State() }

func (c *Controller) SetDisplayMode(mode codec.Mode) { c.display.Store(int32(mode)) }
func (c *Controller) DisplayMode() codec.Mode        { return codec.Mode(c.display.Load()) }

// PlayableFiles lists the .bin files of the active workspace.
func (c *Controller) PlayableFiles() ([]string, error) {
	return c.workspace.ListPlayableFiles()
}

// ActiveWorkspace returns the workspace directory or "".
func (c *Controller) ActiveWorkspace() string {
	return c.workspace.ActiveWorkspace()
}

// Wait blocks until neither session is running.
func (c *Controller) Wait() {
	c.serial.Wait()
	c.playback.Wait()
}

// Close stops both sessions, waits for them, stops the pipeline and
// deletes unsaved temp record files.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.serial.Stop()
	c.playback.Stop()
	c.Wait()

	c.cancel()
	<-c.pipelineDone
	return c.pipeline.Close()
}

type noWorkspace struct{}

func (noWorkspace) ActiveWorkspace() string              { return "" }
func (noWorkspace) ListPlayableFiles() ([]string, error) { return nil, ErrNoWorkspace }
func (noWorkspace) Resolve(string) (string, error)       { return "", ErrNoWorkspace }
