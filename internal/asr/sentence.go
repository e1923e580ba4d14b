package asr

import (
	"fmt"
	"strings"
)

// Segmenter splits a run of text into sentence strings. A real
// implementation's concatenation of the returned sentences (including
// whitespace) must reproduce the input text.
type Segmenter interface {
	Split(text string) ([]string, error)
}

// SentenceSpan is one sentence recovered from a run of committed words,
// carrying the Start of its first word and the End of its last.
type SentenceSpan struct {
	Start float64
	End   float64
	Text  string
}

// ProjectSentences reconstructs sentence spans, with start/end times, from
// committed timestamped words and a Segmenter. A Segmenter error is treated
// as "no sentences available": the caller sees it wrapped in
// ErrSegmenterFailed and should skip sentence-based scrolling this
// iteration, not abort the session.
func ProjectSentences(words Words, seg Segmenter) ([]SentenceSpan, error) {
	if len(words) == 0 {
		return nil, nil
	}

	joined := words.Join(" ")
	sentences, err := seg.Split(joined)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSegmenterFailed, err)
	}

	cwords := append(Words(nil), words...)
	var out []SentenceSpan

	for _, raw := range sentences {
		sent := strings.TrimSpace(raw)
		fullSent := sent

		var start, end *float64
		for len(cwords) > 0 {
			w := cwords[0]
			cwords = cwords[1:]
			wordText := strings.TrimSpace(w.Text)

			// Comparisons are whitespace-normalized: words carry their own
			// leading space from the transcriber, while sent accumulates an
			// extra join separator at each boundary. The sentence/word
			// invariant only holds modulo whitespace (spec), so stripping
			// both sides before comparing keeps this in step without
			// losing a trailing word whenever it has a leading space.
			if start == nil && strings.HasPrefix(sent, wordText) {
				s := w.Start
				start = &s
			}

			if start != nil && end == nil && sent == wordText {
				e := w.End
				end = &e
				out = append(out, SentenceSpan{Start: *start, End: e, Text: fullSent})
				break
			}

			sent = strings.TrimSpace(strings.TrimPrefix(sent, wordText))
		}

		if start == nil || end == nil {
			return nil, fmt.Errorf("%w: sentence %q not found in word sequence", ErrInvariantViolation, fullSent)
		}
	}

	return out, nil
}
