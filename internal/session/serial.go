package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SerialSession is the live link: Idle, Connecting, Connected, Stopping, Idle.
type SerialSession struct {
	runner
}

// NewSerialSession returns an idle live link that opens its port with open.
func NewSerialSession(open Opener, env Env) *SerialSession {
	return &SerialSession{runner: runner{open: open, env: env}}
}

// Start validates cfg, moves to Connecting and runs the link in its own
// goroutine. It returns ErrActive if a run is still in progress.
func (s *SerialSession) Start(ctx context.Context, cfg ConnectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel, done, err := s.begin(ctx, StateConnecting)
	if err != nil {
		return err
	}
	go func() {
		defer close(done)
		defer cancel()
		s.run(ctx, cfg)
	}()
	return nil
}

func (s *SerialSession) run(ctx context.Context, cfg ConnectionConfig) {
	log := s.logger("serial", cfg)

	t, ok := s.openTransport(cfg, log)
	if !ok {
		return
	}
	reason, err := s.serve(ctx, t, log)
	s.finish(t, reason, err, log)
}

func (s *SerialSession) serve(ctx context.Context, t Transport, log zerolog.Logger) (StopReason, error) {
	s.env.Send.Flush()
	if s.env.Prepare != nil {
		if err := s.env.Prepare(); err != nil {
			return ReasonOther, fmt.Errorf("prepare session: %w", err)
		}
	}

	s.setState(StateConnected)
	log.Info().Msg("Connected")
	s.env.started()

	p := &pump{t: t, env: &s.env, log: log}
	interval := s.env.pollInterval()
	for {
		if ctx.Err() != nil {
			return ReasonExternalStop, nil
		}
		if err := p.writeSend(); err != nil {
			return ReasonTransportError, err
		}
		if err := p.readInput(); err != nil {
			return ReasonTransportError, err
		}
		if !sleep(ctx, interval) {
			return ReasonExternalStop, nil
		}
	}
}
