package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/allbin/go-serial-term/internal/codec"
)

// runner holds the lifecycle bookkeeping shared by both session kinds.
type runner struct {
	open Opener
	env  Env

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *runner) State() State {
	return State(r.state.Load())
}

func (r *runner) setState(s State) {
	r.state.Store(int32(s))
	if r.env.OnStateChange != nil {
		r.env.OnStateChange(s)
	}
}

// begin moves an idle runner to first and returns the run's context, its
// cancel func and the done channel the run must close.
func (r *runner) begin(ctx context.Context, first State) (context.Context, context.CancelFunc, chan struct{}, error) {
	r.mu.Lock()
	if r.State() != StateIdle {
		r.mu.Unlock()
		return nil, nil, nil, ErrActive
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	done := make(chan struct{})
	r.done = done
	r.state.Store(int32(first))
	r.mu.Unlock()

	if r.env.OnStateChange != nil {
		r.env.OnStateChange(first)
	}
	return ctx, cancel, done, nil
}

// Stop requests cooperative termination. The loop exits at its next
// iteration boundary and OnStopped follows asynchronously.
func (r *runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the current run, if any, has finished.
func (r *runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Done is closed when the current run finishes. It is nil before the first run.
func (r *runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *runner) logger(kind string, cfg ConnectionConfig) zerolog.Logger {
	return r.env.Logger.With().
		Str("session", uuid.NewString()).
		Str("kind", kind).
		Str("port", cfg.Port).
		Logger()
}

// openTransport is the Connecting step. On failure the run ends here with
// OnStopped(ReasonTransportError) and the state back at Idle.
func (r *runner) openTransport(cfg ConnectionConfig, log zerolog.Logger) (Transport, bool) {
	t, err := r.open(cfg)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransport, err)
		log.Warn().Err(err).Msg("Open failed")
		r.env.stopped(ReasonTransportError, err)
		r.setState(StateIdle)
		return nil, false
	}
	log.Debug().Str("config", cfg.String()).Msg("Transport open")
	return t, true
}

// finish closes the transport unconditionally, then reports the reason.
func (r *runner) finish(t Transport, reason StopReason, err error, log zerolog.Logger) {
	r.setState(StateStopping)
	if cerr := t.Close(); cerr != nil {
		log.Debug().Err(cerr).Msg("Close failed")
	}

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Stringer("reason", reason).Msg("Session stopped")

	r.env.stopped(reason, err)
	r.setState(StateIdle)
}

// pump moves bytes between a Transport and the Env queues.
type pump struct {
	t   Transport
	env *Env
	log zerolog.Logger
	buf []byte
}

// writeSend drains everything currently queued for sending.
func (p *pump) writeSend() error {
	n := p.env.Send.Len()
	if n == 0 {
		return nil
	}
	return p.write(p.env.Send.MustDequeue(n))
}

func (p *pump) write(data []byte) error {
	if _, err := p.t.Write(data); err != nil {
		return fmt.Errorf("%w: write: %w", ErrTransport, err)
	}
	return nil
}

// readInput reads what the transport has waiting, records it when
// recording is on, and hands it to the display sink.
func (p *pump) readInput() error {
	waiting, err := p.t.Available()
	if err != nil {
		return fmt.Errorf("%w: available: %w", ErrTransport, err)
	}
	if waiting <= 0 {
		return nil
	}

	if cap(p.buf) < waiting {
		p.buf = make([]byte, waiting)
	}
	n, err := p.t.Read(p.buf[:waiting])
	if err != nil {
		return fmt.Errorf("%w: read: %w", ErrTransport, err)
	}
	if n == 0 {
		return nil
	}
	data := p.buf[:n]

	if p.env.Recording != nil && p.env.Recording.Load() {
		if !p.env.Receive.Enqueue(data) {
			p.log.Warn().Int("bytes", n).Msg("Receive buffer full, dropping input")
		}
	}

	if p.env.Display != nil {
		mode := codec.ModeASCII
		if p.env.DisplayMode != nil {
			mode = codec.Mode(p.env.DisplayMode.Load())
		}
		p.env.Display(codec.FormatDisplay(mode, data))
	}
	return nil
}

// sleep waits d or until ctx is done, reporting whether to keep going.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
