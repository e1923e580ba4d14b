package asr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedTranscriber replays a fixed sequence of responses, one per call,
// and records the prompts it was given.
type scriptedTranscriber struct {
	responses [][]Segment
	errs      []error
	calls     int
	prompts   []string
	sep       string
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, _ []float32, initPrompt string) ([]Segment, error) {
	s.prompts = append(s.prompts, initPrompt)
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return nil, nil
}

func (s *scriptedTranscriber) UseVAD()           {}
func (s *scriptedTranscriber) SetTranslateTask() {}
func (s *scriptedTranscriber) Sep() string       { return s.sep }

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noSentenceSegmenter always fails, mimicking a session run without a
// configured Segmenter: sentence-based scrolling degrades to a no-op rather
// than crashing, exercising the same path as a genuine SegmenterError.
type noSentenceSegmenter struct{}

func (noSentenceSegmenter) Split(string) ([]string, error) {
	return nil, errors.New("no segmenter configured")
}

func TestProcessorCommitsOnAgreementAcrossIterations(t *testing.T) {
	tr := &scriptedTranscriber{
		responses: [][]Segment{
			{{End: 2, Words: Words{{Start: 0, End: 1, Text: "hello"}, {Start: 1, End: 2, Text: " world"}}}},
			{{End: 3, Words: Words{{Start: 0, End: 1, Text: "hello"}, {Start: 1, End: 2, Text: " world"}, {Start: 2, End: 3, Text: " again"}}}},
		},
	}
	p := NewProcessor(tr, noSentenceSegmenter{}, 0, silentLogger())
	p.InsertAudioChunk(samplesOfLen(3 * SampleRate))

	first := p.ProcessIter(context.Background())
	require.True(t, first.Empty(), "nothing can commit before a second confirming pass")

	second := p.ProcessIter(context.Background())
	require.False(t, second.Empty())
	require.Equal(t, "hello world", second.Text)
}

func TestProcessorSkipsIterationOnTranscriberError(t *testing.T) {
	boom := errors.New("boom")
	tr := &scriptedTranscriber{errs: []error{boom}}
	p := NewProcessor(tr, noSentenceSegmenter{}, 0, silentLogger())
	p.InsertAudioChunk(samplesOfLen(SampleRate))

	out := p.ProcessIter(context.Background())
	require.True(t, out.Empty())
	require.Empty(t, p.committed)
}

func TestProcessorFinishReturnsIncompleteTail(t *testing.T) {
	tr := &scriptedTranscriber{
		responses: [][]Segment{
			{{End: 1, Words: Words{{Start: 0, End: 1, Text: "partial"}}}},
		},
	}
	p := NewProcessor(tr, noSentenceSegmenter{}, 0, silentLogger())
	p.InsertAudioChunk(samplesOfLen(SampleRate))
	p.ProcessIter(context.Background())

	out := p.Finish()
	require.False(t, out.Empty())
	require.Equal(t, "partial", out.Text)
}

func TestProcessorBuildPromptTruncatesToMax(t *testing.T) {
	p := NewProcessor(&scriptedTranscriber{}, noSentenceSegmenter{}, 0, silentLogger())
	for i := 0; i < 60; i++ {
		p.committed = append(p.committed, Word{Start: float64(i), End: float64(i + 1), Text: "word123456"})
	}
	p.lastChunkedAt = 0
	// Force every committed word to be scrolled-out context by setting the
	// scroll boundary ahead of all of them except the very last.
	for i := range p.committed[:len(p.committed)-1] {
		p.committed[i].End = -1
	}

	prompt, _ := p.buildPrompt()
	require.LessOrEqual(t, len(prompt), MaxPromptChars)
}

func TestProcessorChunkAtPopsAndTrims(t *testing.T) {
	p := NewProcessor(&scriptedTranscriber{}, noSentenceSegmenter{}, 0, silentLogger())
	p.InsertAudioChunk(samplesOfLen(5 * SampleRate))
	p.hypothesis.committedInBuffer = Words{{Start: 0, End: 1, Text: "a"}, {Start: 4, End: 5, Text: "b"}}

	p.chunkAt(2)

	require.Equal(t, Words{{Start: 4, End: 5, Text: "b"}}, p.hypothesis.committedInBuffer)
	require.Equal(t, 2.0, p.window.Offset())
	require.Equal(t, 2.0, p.lastChunkedAt)
}
