// Package wav replays a 16kHz mono WAV file at wall-clock pace, standing in
// for a live audio source when driving the Processor offline, the Go
// equivalent of feeding whisper_online in min_chunk_size-paced slices from a
// file loaded once up front.
package wav

import (
	"context"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/localagreement/livetranscriber/internal/asr"
)

const requiredChannels = 1

// Load decodes path as a 16kHz mono WAV file, returning its samples as
// float32 PCM in [-1, 1]. No resampling or channel mixdown is performed:
// a file at another rate or channel count is rejected outright.
func Load(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav file: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("wav file contains no audio data")
	}
	if int(dec.SampleRate) != asr.SampleRate {
		return nil, fmt.Errorf("unsupported wav sample rate %d, expected %d", dec.SampleRate, asr.SampleRate)
	}
	if int(dec.NumChans) != requiredChannels {
		return nil, fmt.Errorf("unsupported wav channel count %d, expected %d", dec.NumChans, requiredChannels)
	}

	return intBufferToFloat32(buf), nil
}

func intBufferToFloat32(buf *goaudio.IntBuffer) []float32 {
	out := make([]float32, len(buf.Data))
	fullScale := float64(int(1) << uint(buf.SourceBitDepth-1))
	for i, v := range buf.Data {
		out[i] = float32(float64(v) / fullScale)
	}
	return out
}

// Driver replays a loaded file as a Session source, slicing it into
// chunkSeconds-sized pieces and sleeping between them to mimic the pace of a
// live feed.
type Driver struct {
	samples       []float32
	chunkSamples  int
	chunkDuration time.Duration
}

// NewDriver loads path and prepares it for replay at chunkSeconds-sized
// increments.
func NewDriver(path string, chunkSeconds float64) (*Driver, error) {
	samples, err := Load(path)
	if err != nil {
		return nil, err
	}
	chunkSamples := int(chunkSeconds * asr.SampleRate)
	if chunkSamples <= 0 {
		return nil, fmt.Errorf("chunkSeconds must be positive, got %v", chunkSeconds)
	}
	return &Driver{
		samples:       samples,
		chunkSamples:  chunkSamples,
		chunkDuration: time.Duration(chunkSeconds * float64(time.Second)),
	}, nil
}

// Run satisfies session.Source: it feeds the loaded file to onSamples in
// fixed-size chunks, pacing itself against a ticker so the replay runs at
// roughly the rate a live capture would.
func (d *Driver) Run(ctx context.Context, onSamples func([]float32)) error {
	ticker := time.NewTicker(d.chunkDuration)
	defer ticker.Stop()

	pos := 0
	for pos < len(d.samples) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			end := pos + d.chunkSamples
			if end > len(d.samples) {
				end = len(d.samples)
			}
			chunk := make([]float32, end-pos)
			copy(chunk, d.samples[pos:end])
			onSamples(chunk)
			pos = end
		}
	}
	return nil
}
