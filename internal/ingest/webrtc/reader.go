// Package webrtc reads a single Opus voice track off a WebRTC peer
// connection and decodes it to the 16kHz mono float32 PCM the core package
// consumes, bridging receive-time gaps between packets with silence rather
// than letting them desynchronize the processing window. RTP sequence numbers
// are not inspected.
package webrtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/localagreement/livetranscriber/internal/ingest/opus"
)

const (
	inputSampleRate    = 48000 // Opus/WebRTC default sample rate.
	outputSampleRate   = 16000 // What the core processing window requires.
	channels           = 1
	frameSizeMs        = 20
	outputFrameSize    = frameSizeMs * outputSampleRate / 1000
	audioGapThreshold  = time.Second
	rtpWrapThreshold   = inputSampleRate
	inputSamplesPerMs  = inputSampleRate / 1000
	outputSamplesPerMs = outputSampleRate / 1000
)

// Reader decodes one remote Opus track into a stream of PCM chunks.
type Reader struct {
	track trackRemote
	dec   *opus.Decoder
}

// NewReader creates a Reader decoding directly to outputSampleRate, so no
// separate resampling stage is needed downstream.
func NewReader(track trackRemote) (*Reader, error) {
	dec, err := opus.NewDecoder(outputSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &Reader{track: track, dec: dec}, nil
}

func (r *Reader) Close() error {
	return r.dec.Destroy()
}

// Run reads RTP packets until the track ends, ctx is canceled, or a read
// error occurs, invoking onSamples with each chunk of decoded PCM in
// arrival order. A receive gap larger than audioGapThreshold is bridged with
// zero-filled silence sized to the gap, so the session's wall-clock and
// audio-window clocks do not drift apart.
func (r *Reader) Run(ctx context.Context, onSamples func([]float32)) error {
	var prevArrival time.Time
	var prevTimestamp uint32
	var haveFirstPacket bool

	pcmBuf := make([]float32, outputFrameSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pkt, _, err := r.track.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read RTP packet: %w", err)
		}

		if len(pkt.Payload) == 0 {
			continue
		}

		if haveFirstPacket && pkt.Timestamp < prevTimestamp {
			wrapped := math.MaxUint32-prevTimestamp < rtpWrapThreshold
			if !wrapped {
				slog.Debug("dropping out of order RTP packet", slog.String("trackID", r.track.ID()))
				continue
			}
		}

		if haveFirstPacket {
			if gap := time.Since(prevArrival); gap > audioGapThreshold {
				r.emitSilence(gap, onSamples)
			}
		}
		haveFirstPacket = true
		prevArrival = time.Now()
		prevTimestamp = pkt.Timestamp

		n, err := r.dec.Decode(pkt.Payload, pcmBuf)
		if err != nil {
			slog.Error("failed to decode opus packet", slog.String("err", err.Error()), slog.String("trackID", r.track.ID()))
			continue
		}

		chunk := make([]float32, n)
		copy(chunk, pcmBuf[:n])
		onSamples(chunk)
	}
}

func (r *Reader) emitSilence(gap time.Duration, onSamples func([]float32)) {
	n := int(gap.Milliseconds()) * outputSamplesPerMs
	if n <= 0 {
		return
	}
	slog.Debug("bridging audio gap with silence", slog.Duration("gap", gap), slog.Int("samples", n), slog.String("trackID", r.track.ID()))
	onSamples(make([]float32, n))
}
