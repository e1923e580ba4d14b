// Package session supervises a single Processor end to end: it is the only
// goroutine allowed to call Processor methods, draining one audio source and
// dispatching each emission to stdout and/or a caption Hub.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/localagreement/livetranscriber/internal/asr"
	"github.com/localagreement/livetranscriber/internal/server"
)

const tickRate = 500 * time.Millisecond

// Source drains one ingestion pipeline, invoking onSamples with each
// decoded chunk of 16kHz mono float32 PCM until ctx is canceled or the
// source is exhausted. Both the WebRTC reader and the WAV/stdin replay
// drivers satisfy this signature.
type Source func(ctx context.Context, onSamples func([]float32)) error

// Broadcaster is satisfied by *server.Hub; kept as an interface so a Session
// can be tested without a real WebSocket server.
type Broadcaster interface {
	Broadcast(server.CaptionMessage)
}

// Session owns exactly one Processor and exactly one Source for its whole
// lifetime.
type Session struct {
	proc            *asr.Processor
	minChunkSamples int
	out             io.Writer
	hub             Broadcaster
	log             *slog.Logger
	startedAt       time.Time
}

// New builds a Session. out receives one stdout-format emission line per
// committed chunk (spec.md §6); out may be nil to suppress that output. hub
// may be nil to run without a live caption server.
func New(proc *asr.Processor, minChunkSeconds float64, out io.Writer, hub Broadcaster, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		proc:            proc,
		minChunkSamples: int(minChunkSeconds * asr.SampleRate),
		out:             out,
		hub:             hub,
		log:             log,
	}
}

// Run drains source until ctx is canceled or source returns, accumulating
// audio until at least minChunkSeconds of new samples have arrived, then
// running one Processor iteration. It calls Processor.Finish exactly once,
// on the way out, regardless of which condition ended the loop.
func (s *Session) Run(ctx context.Context, source Source) error {
	s.startedAt = time.Now()

	sampleCh := make(chan []float32, 64)
	sourceErrCh := make(chan error, 1)

	go func() {
		sourceErrCh <- source(ctx, func(chunk []float32) {
			select {
			case sampleCh <- chunk:
			case <-ctx.Done():
			}
		})
	}()

	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	newSamples := 0

	for {
		select {
		case <-ctx.Done():
			s.finish()
			return ctx.Err()
		case err := <-sourceErrCh:
			s.finish()
			return err
		case chunk := <-sampleCh:
			s.proc.InsertAudioChunk(chunk)
			newSamples += len(chunk)
		case <-ticker.C:
			if newSamples < s.minChunkSamples {
				continue
			}
			newSamples = 0
			s.dispatch(s.proc.ProcessIter(ctx))
		}
	}
}

func (s *Session) finish() {
	s.dispatch(s.proc.Finish())
}

func (s *Session) dispatch(e asr.Emission) {
	if e.Empty() {
		return
	}

	emittedAt := time.Now()
	if s.out != nil {
		if _, err := fmt.Fprintf(s.out, "%.4f %.0f %.0f %s\n",
			float64(emittedAt.Sub(s.startedAt).Microseconds())/1000, *e.Start*1000, *e.End*1000, e.Text); err != nil {
			s.log.Error("failed to write emission line", slog.String("err", err.Error()))
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(server.CaptionFromEmission(e, emittedAt))
	}
}
