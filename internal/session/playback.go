package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PlaybackSession writes the pre-loaded send queue out one byte at a time
// with a fixed minimum delay between bytes: Idle, Playing, Stopping, Idle.
type PlaybackSession struct {
	runner
}

// NewPlaybackSession returns an idle playback that opens its port with open.
func NewPlaybackSession(open Opener, env Env) *PlaybackSession {
	return &PlaybackSession{runner: runner{open: open, env: env}}
}

// Start opens the transport and replays the send queue with at least delay
// between bytes. A zero delay streams as fast as the loop runs.
func (s *PlaybackSession) Start(ctx context.Context, cfg ConnectionConfig, delay time.Duration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if delay < 0 {
		return fmt.Errorf("%w: negative delay %s", ErrInvalidConfig, delay)
	}
	ctx, cancel, done, err := s.begin(ctx, StatePlaying)
	if err != nil {
		return err
	}
	go func() {
		defer close(done)
		defer cancel()
		s.run(ctx, cfg, delay)
	}()
	return nil
}

func (s *PlaybackSession) run(ctx context.Context, cfg ConnectionConfig, delay time.Duration) {
	log := s.logger("playback", cfg)

	t, ok := s.openTransport(cfg, log)
	if !ok {
		return
	}
	reason, err := s.serve(ctx, t, delay, log)
	s.finish(t, reason, err, log)
}

func (s *PlaybackSession) serve(ctx context.Context, t Transport, delay time.Duration, log zerolog.Logger) (StopReason, error) {
	if s.env.Prepare != nil {
		if err := s.env.Prepare(); err != nil {
			return ReasonOther, fmt.Errorf("prepare playback: %w", err)
		}
	}

	total := s.env.Send.Len()
	log.Info().Int("bytes", total).Dur("delay", delay).Msg("Playback started")
	s.env.started()

	p := &pump{t: t, env: &s.env, log: log}
	interval := s.env.pollInterval()
	var lastSend time.Time
	for {
		if ctx.Err() != nil {
			log.Debug().Int("remaining", s.env.Send.Len()).Msg("Playback interrupted")
			return ReasonExternalStop, nil
		}
		if s.env.Send.Len() == 0 {
			return ReasonCompleted, nil
		}

		now := time.Now()
		if now.Sub(lastSend) >= delay {
			if err := p.write(s.env.Send.MustDequeue(1)); err != nil {
				return ReasonTransportError, err
			}
			lastSend = now
		}
		if err := p.readInput(); err != nil {
			return ReasonTransportError, err
		}

		wait := interval
		if delay == 0 {
			wait = 0
		} else if next := time.Until(lastSend.Add(delay)); next < wait {
			wait = next
		}
		if !sleep(ctx, wait) {
			return ReasonExternalStop, nil
		}
	}
}
