// Package asr implements the LocalAgreement-2 commitment algorithm and the
// windowed audio/hypothesis management that turns a non-streaming Whisper-like
// transcriber into a low-latency live transcription service.
package asr

// Word is a single timestamped token as emitted by a Transcriber, or as
// committed by the Hypothesis Buffer. Text is preserved verbatim, including
// any leading whitespace the backend emits: it is a joinable token, not a
// stripped word.
type Word struct {
	Start float64
	End   float64
	Text  string
}

// Words is an ordered sequence of Word, with the cheap front-pop/back-append
// operations the Hypothesis Buffer and Sentence Projector need.
type Words []Word

// shiftedBy returns a copy of w with every timestamp shifted by offset
// seconds, translating local (window-relative) time to global session time.
func (w Words) shiftedBy(offset float64) Words {
	out := make(Words, len(w))
	for i, word := range w {
		out[i] = Word{Start: word.Start + offset, End: word.End + offset, Text: word.Text}
	}
	return out
}

// Join concatenates the text of every word using sep.
func (w Words) Join(sep string) string {
	var out string
	for i, word := range w {
		if i > 0 {
			out += sep
		}
		out += word.Text
	}
	return out
}
