package wav

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const stdinFrameSamples = 320 // 20ms at 16kHz

// StdinSource satisfies session.Source, reading raw little-endian float32
// PCM samples from r until EOF or ctx cancellation. There is no framing or
// header: the caller is responsible for feeding already-decoded audio at
// the expected sample rate.
func StdinSource(r io.Reader) func(ctx context.Context, onSamples func([]float32)) error {
	return func(ctx context.Context, onSamples func([]float32)) error {
		buf := make([]byte, stdinFrameSamples*4)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			n, err := io.ReadFull(r, buf)
			if n > 0 {
				onSamples(bytesToFloat32(buf[:n-(n%4)]))
			}
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil
				}
				return fmt.Errorf("failed to read pcm from stdin: %w", err)
			}
		}
	}
}

func bytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
