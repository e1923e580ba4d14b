package asr

import (
	"context"
	"log/slog"
)

// MaxWindowSeconds is the length-based scroll threshold (spec.md §4.4 step 6).
const MaxWindowSeconds = 30.0

// Processor orchestrates one processing iteration end to end: it builds the
// prompt, invokes the Transcriber, feeds the Hypothesis Buffer, emits
// committed words, and decides whether and where to scroll the window.
//
// A Processor exclusively owns its AudioWindow, HypothesisBuffer, and
// committed log; callers must serialize access to a single instance (see
// spec.md §5) — it performs no internal locking.
type Processor struct {
	transcriber Transcriber
	segmenter   Segmenter
	log         *slog.Logger

	window     *AudioWindow
	hypothesis *HypothesisBuffer
	committed  Words

	lastChunkedAt    float64
	maxWindowSeconds float64
}

// NewProcessor wires a Transcriber and Segmenter into a fresh session.
// maxWindowSeconds overrides the length-based scroll threshold; 0 selects
// MaxWindowSeconds.
func NewProcessor(transcriber Transcriber, segmenter Segmenter, maxWindowSeconds float64, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	if maxWindowSeconds == 0 {
		maxWindowSeconds = MaxWindowSeconds
	}
	return &Processor{
		transcriber:      transcriber,
		segmenter:        segmenter,
		log:              log,
		window:           NewAudioWindow(),
		hypothesis:       NewHypothesisBuffer(),
		maxWindowSeconds: maxWindowSeconds,
	}
}

// InsertAudioChunk appends newly captured samples to the audio window.
func (p *Processor) InsertAudioChunk(samples []float32) {
	p.window.Append(samples)
}

// buildPrompt locates the committed-text suffix that has already scrolled
// out of the audio window and returns up to MaxPromptChars of it, most
// recent words first when accumulating, in original order in the result.
// It also returns the context: the committed words still inside the window.
func (p *Processor) buildPrompt() (prompt string, contextWords Words) {
	k := 0
	if len(p.committed) > 0 {
		k = len(p.committed) - 1
		for k > 0 && p.committed[k-1].End > p.lastChunkedAt {
			k--
		}
	}

	scrolledOut := p.committed[:k]
	contextWords = p.committed[k:]

	var acc []string
	length := 0
	for i := len(scrolledOut) - 1; i >= 0 && length < MaxPromptChars; i-- {
		acc = append(acc, scrolledOut[i].Text)
		length += len(scrolledOut[i].Text) + 1
	}
	for i, j := 0, len(acc)-1; i < j; i, j = i+1, j-1 {
		acc[i], acc[j] = acc[j], acc[i]
	}

	for _, t := range acc {
		prompt += t
	}
	return prompt, contextWords
}

// ProcessIter runs one iteration over the current audio window: transcribe,
// insert into the Hypothesis Buffer, flush newly committed words, and scroll
// the window if warranted. It returns the formatted newly-committed chunk,
// or an empty Emission if a transcriber error occurred or nothing committed.
func (p *Processor) ProcessIter(ctx context.Context) Emission {
	prompt, contextWords := p.buildPrompt()
	p.log.Debug("processing iteration",
		slog.String("prompt", prompt),
		slog.Int("contextWords", len(contextWords)),
		slog.Float64("windowDuration", p.window.DurationSeconds()),
		slog.Float64("windowOffset", p.window.Offset()))

	segments, err := p.transcriber.Transcribe(ctx, p.window.Samples(), prompt)
	if err != nil {
		p.log.Error("transcribe failed, skipping iteration", slog.String("err", wrapTranscriberErr(err).Error()))
		return Emission{}
	}

	var localWords Words
	for _, seg := range segments {
		localWords = append(localWords, seg.Words...)
	}

	p.hypothesis.Insert(localWords, p.window.Offset())
	newlyCommitted := p.hypothesis.Flush()
	p.committed = append(p.committed, newlyCommitted...)

	p.log.Debug("iteration result",
		slog.Int("newlyCommitted", len(newlyCommitted)),
		slog.String("incomplete", p.hypothesis.Complete().Join("")))

	if len(newlyCommitted) > 0 {
		p.chunkCompletedSentence()
	}

	if p.window.DurationSeconds() > p.maxWindowSeconds {
		p.chunkCompletedSegment(segments)
	}

	return Format(newlyCommitted, p.transcriber.Sep(), 0)
}

// chunkCompletedSentence scrolls the window to the end-time of the
// second-to-last sentence in the full committed log, leaving the (possibly
// still-growing) last sentence untouched. It is a no-op unless at least two
// sentences can be projected.
func (p *Processor) chunkCompletedSentence() {
	if len(p.committed) == 0 {
		return
	}

	sentences, err := ProjectSentences(p.committed, p.segmenter)
	if err != nil {
		p.log.Warn("sentence projection failed, skipping sentence-based scroll", slog.String("err", err.Error()))
		return
	}
	if len(sentences) < 2 {
		return
	}

	chunkAt := sentences[len(sentences)-2].End
	p.log.Debug("sentence chunked", slog.Float64("at", chunkAt))
	p.chunkAt(chunkAt)
}

// chunkCompletedSegment scrolls the window to the last segment end-time at
// or before the most recently committed word's end, as reported by res (the
// segments from this iteration's transcription). It walks backward from the
// second-to-last candidate, popping any trailing end that still exceeds the
// committed coverage, and accepts the first candidate at or before it without
// re-checking further pops once found — this matches the source's behavior
// (see design notes) rather than re-deriving a tighter bound.
func (p *Processor) chunkCompletedSegment(segments []Segment) {
	if len(p.committed) == 0 {
		return
	}
	if len(segments) < 2 {
		p.log.Debug("not enough segments to chunk")
		return
	}

	ends := make([]float64, len(segments))
	for i, s := range segments {
		ends[i] = s.End + p.window.Offset()
	}

	t := p.committed[len(p.committed)-1].End

	e := ends[len(ends)-2]
	for len(ends) > 2 && e > t {
		ends = ends[:len(ends)-1]
		e = ends[len(ends)-2]
	}

	if e <= t {
		p.log.Debug("segment chunked", slog.Float64("at", e))
		p.chunkAt(e)
	} else {
		p.log.Debug("last segment not within committed area")
	}
}

// chunkAt trims the hypothesis buffer and audio window at the given global
// time, recording it as the new scroll boundary.
func (p *Processor) chunkAt(time float64) {
	p.hypothesis.PopCommitted(time)
	p.window.TrimTo(time)
	p.lastChunkedAt = time
}

// Finish flushes the incomplete tail when processing ends; no further
// transcription is performed.
func (p *Processor) Finish() Emission {
	return Format(p.hypothesis.Complete(), p.transcriber.Sep(), 0)
}
