package asr

// maxNgramLookback bounds the n-gram head-tail dedup window: at most this
// many consecutive leading words of new are ever dropped by one insert.
const maxNgramLookback = 5

// commitSlackSeconds is the jitter slack subtracted from lastCommittedTime
// when filtering candidate words in insert: new words must start strictly
// beyond lastCommittedTime - commitSlackSeconds.
const commitSlackSeconds = 0.1

// ngramMatchWindowSeconds bounds how close a new batch's first word must
// start to lastCommittedTime before the n-gram dedup pass even runs.
const ngramMatchWindowSeconds = 1.0

// HypothesisBuffer implements the LocalAgreement-2 commitment policy: a word
// is committed only once it has appeared, in the same relative position, in
// two consecutive overlapping transcriptions. It also eliminates n-gram
// repeats that Whisper-family models emit when re-transcribing audio whose
// leading portion has already been committed.
type HypothesisBuffer struct {
	// committedInBuffer holds every word committed so far this session, in
	// emission order. Its prefix is popped by PopCommitted as the audio
	// window scrolls past it.
	committedInBuffer Words
	// buffer holds the previous iteration's proposal, not yet confirmed.
	buffer Words
	// new holds the current iteration's proposal, after offset translation
	// and trimming against already-committed time.
	new Words

	lastCommittedTime float64
	lastCommittedWord string
}

// NewHypothesisBuffer returns an empty buffer ready for the first insert.
func NewHypothesisBuffer() *HypothesisBuffer {
	return &HypothesisBuffer{}
}

// Insert translates newWords to global time by adding offset, drops stale
// candidates, and deduplicates n-gram repeats of already-committed text. The
// surviving words become the candidate set consumed by the next Flush.
func (h *HypothesisBuffer) Insert(newWords Words, offset float64) {
	shifted := newWords.shiftedBy(offset)

	filtered := make(Words, 0, len(shifted))
	for _, w := range shifted {
		if w.Start > h.lastCommittedTime-commitSlackSeconds {
			filtered = append(filtered, w)
		}
	}
	h.new = filtered

	if len(h.new) == 0 || len(h.committedInBuffer) == 0 {
		return
	}

	if abs(h.new[0].Start-h.lastCommittedTime) >= ngramMatchWindowSeconds {
		return
	}

	cn := len(h.committedInBuffer)
	nn := len(h.new)
	limit := min(min(cn, nn), maxNgramLookback)
	for i := 1; i <= limit; i++ {
		committedTail := joinLastN(h.committedInBuffer, i)
		newHead := joinFirstN(h.new, i)
		if committedTail == newHead {
			h.new = h.new[i:]
			break
		}
	}
}

// Flush commits the longest common prefix (by exact text equality) between
// new and buffer, returning the newly committed words in order. buffer is
// then replaced by the remainder of new, and new is cleared.
func (h *HypothesisBuffer) Flush() Words {
	var committed Words

	for len(h.new) > 0 && len(h.buffer) > 0 {
		if h.new[0].Text != h.buffer[0].Text {
			break
		}
		w := h.new[0]
		committed = append(committed, w)
		h.lastCommittedWord = w.Text
		h.lastCommittedTime = w.End
		h.buffer = h.buffer[1:]
		h.new = h.new[1:]
	}

	h.buffer = h.new
	h.new = nil
	h.committedInBuffer = append(h.committedInBuffer, committed...)

	return committed
}

// PopCommitted discards every prefix word of committedInBuffer whose End is
// at or before time. Called when the audio window scrolls past them.
func (h *HypothesisBuffer) PopCommitted(time float64) {
	i := 0
	for i < len(h.committedInBuffer) && h.committedInBuffer[i].End <= time {
		i++
	}
	h.committedInBuffer = h.committedInBuffer[i:]
}

// Complete returns the current pending, unconfirmed tail.
func (h *HypothesisBuffer) Complete() Words {
	return h.buffer
}

// LastCommittedTime is the End of the most recently committed word, or 0 if
// nothing has committed yet.
func (h *HypothesisBuffer) LastCommittedTime() float64 {
	return h.lastCommittedTime
}

func joinLastN(words Words, n int) string {
	start := len(words) - n
	out := words[start].Text
	for _, w := range words[start+1:] {
		out += " " + w.Text
	}
	return out
}

func joinFirstN(words Words, n int) string {
	out := words[0].Text
	for _, w := range words[1:n] {
		out += " " + w.Text
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
