package asr

import (
	"context"
	"errors"
	"fmt"
)

// MaxPromptChars is the hard cap on the conditioning prompt handed to a
// Transcriber, per the external contract.
const MaxPromptChars = 200

// ErrTranscriberFailed wraps any error a Transcriber backend surfaces. The
// Processor logs and skips the iteration on this error; no buffer mutates.
var ErrTranscriberFailed = errors.New("transcriber failed")

// Segment is produced by a Transcriber. The only attribute the core reads
// besides Words is End, used by chunk_completed_segment.
type Segment struct {
	End   float64
	Words Words
}

// Transcriber is the uniform contract around an external, offline,
// Whisper-family ASR backend. Timestamps returned by Transcribe are local to
// audio's first sample, never global session time.
type Transcriber interface {
	// Transcribe runs one offline pass over audio, conditioned by initPrompt
	// (already truncated to MaxPromptChars by the caller). Implementations
	// must not retain audio beyond the call and must not mutate caller state
	// on error.
	Transcribe(ctx context.Context, audio []float32, initPrompt string) ([]Segment, error)

	// UseVAD enables the backend's own voice-activity filter for subsequent
	// calls. This never triggers any local VAD logic in this package.
	UseVAD()

	// SetTranslateTask switches the backend's output language to an English
	// translation of the source audio.
	SetTranslateTask()

	// Sep is the backend's join separator: "" if Text already carries
	// intra-word spacing, " " otherwise.
	Sep() string
}

func wrapTranscriberErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTranscriberFailed, err)
}
