package record

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/allbin/go-serial-term/internal/bytequeue"
)

// maxLineLength bounds the CSV line accumulator when no newline arrives.
const maxLineLength = 64 * 1024

// Config wires a Pipeline to the controller's queues and flags.
type Config struct {
	Receive  *bytequeue.Queue
	Recorded *bytequeue.Queue
	CSV      *atomic.Bool

	// FlushInterval of zero writes the staged data on every tick
	FlushInterval time.Duration
	Logger        zerolog.Logger
	Now           func() time.Time
}

// Pipeline drains the receive queue into the current Target.
type Pipeline struct {
	receive       *bytequeue.Queue
	recorded      *bytequeue.Queue
	csv           *atomic.Bool
	flushInterval time.Duration
	log           zerolog.Logger
	now           func() time.Time

	mu        sync.Mutex
	target    *Target
	line      []byte
	sequence  uint64
	rows      []CsvRecord
	lastFlush time.Time
	dropped   uint64
}

// NewPipeline returns a pipeline with no target. Until Rotate is given a
// directory, drained bytes are discarded.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CSV == nil {
		cfg.CSV = new(atomic.Bool)
	}
	return &Pipeline{
		receive:       cfg.Receive,
		recorded:      cfg.Recorded,
		csv:           cfg.CSV,
		flushInterval: cfg.FlushInterval,
		log:           cfg.Logger.With().Str("component", "record").Logger(),
		now:           cfg.Now,
	}
}

// Run ticks every interval until ctx is done, then flushes once more.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := p.Tick(); err != nil {
				p.log.Error().Err(err).Msg("Final record flush failed")
			}
			if err := p.forceFlush(); err != nil {
				p.log.Error().Err(err).Msg("Final record flush failed")
			}
			return
		case <-ticker.C:
			if err := p.Tick(); err != nil {
				p.log.Error().Err(err).Msg("Record flush failed")
			}
		}
	}
}

// Tick moves whatever is in the receive queue into the recorded staging
// queue, frames CSV lines, and writes both files when a flush is due.
func (p *Pipeline) Tick() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	// Bounded by free staging space so nothing is dropped between queues
	n := min(p.receive.Len(), p.recorded.Free())
	if n > 0 {
		chunk := p.receive.MustDequeue(n)
		p.recorded.Enqueue(chunk)

		if p.csv.Load() {
			p.stage(chunk, now)
		} else {
			p.line = p.line[:0]
		}
	}

	if p.flushInterval > 0 && now.Sub(p.lastFlush) < p.flushInterval && p.recorded.Free() > 0 {
		return nil
	}
	p.lastFlush = now
	return p.flushLocked()
}

func (p *Pipeline) stage(chunk []byte, now time.Time) {
	for _, b := range chunk {
		if b != '\n' {
			if len(p.line) < maxLineLength {
				p.line = append(p.line, b)
			}
			continue
		}
		if len(p.line) == 0 {
			continue
		}

		if !utf8.Valid(p.line) {
			p.dropped++
			p.log.Debug().Err(ErrDecode).Int("length", len(p.line)).Msg("Dropping CSV line")
		} else {
			p.rows = append(p.rows, CsvRecord{
				Sequence:  p.sequence,
				Timestamp: now,
				Line:      string(p.line),
			})
			p.sequence++
		}
		p.line = p.line[:0]
	}
}

func (p *Pipeline) forceFlush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked()
}

func (p *Pipeline) flushLocked() error {
	data := p.recorded.MustDequeue(p.recorded.Len())
	rows := p.rows
	p.rows = nil

	if p.target == nil {
		if len(data) > 0 || len(rows) > 0 {
			p.log.Debug().Int("bytes", len(data)).Int("rows", len(rows)).Msg("No record target, discarding")
		}
		return nil
	}

	var errs []error
	if len(data) > 0 {
		if _, err := p.target.bin.Write(data); err != nil {
			errs = append(errs, err)
		}
	}
	if len(rows) > 0 {
		var buf []byte
		for _, r := range rows {
			buf = r.AppendCSV(buf)
		}
		if _, err := p.target.csv.Write(buf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rotate deletes the previous target and, when dir is non-empty, creates a
// fresh one there. Queues, the line accumulator and the sequence reset.
func (p *Pipeline) Rotate(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.receive.Flush()
	p.recorded.Flush()
	p.line = p.line[:0]
	p.rows = nil
	p.sequence = 0
	p.dropped = 0

	var errs []error
	if p.target != nil {
		errs = append(errs, p.target.remove())
		p.target = nil
	}

	if dir != "" {
		t, err := createTarget(dir, p.now())
		if err != nil {
			errs = append(errs, err)
		} else {
			p.target = t
			p.log.Debug().Str("bin", t.BinPath).Str("csv", t.CSVPath).Msg("Record target created")
		}
	}
	return errors.Join(errs...)
}

// Pending reports whether staged bytes or rendered rows are still waiting
// to be written.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recorded.Len() > 0 || len(p.rows) > 0
}

// Target returns the current record files, or nil.
func (p *Pipeline) Target() *Target {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Dropped returns how many CSV lines were discarded since the last rotation.
func (p *Pipeline) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Save copies the current record files to prefix.bin and prefix.csv,
// skipping empty ones. It returns the paths written.
func (p *Pipeline) Save(prefix string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.target == nil {
		return nil, ErrNothingRecorded
	}
	return p.target.save(prefix)
}

// Close deletes the current target. Unsaved recordings are discarded.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.target == nil {
		return nil
	}
	err := p.target.remove()
	p.target = nil
	return err
}
