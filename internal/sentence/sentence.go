// Package sentence adapts a Punkt-style sentence tokenizer to the
// asr.Segmenter contract used for sentence-based window scrolling.
package sentence

import (
	"fmt"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/localagreement/livetranscriber/internal/asr"
)

// Segmenter wraps a trained sentence tokenizer. It is safe for concurrent
// use; the underlying tokenizer holds no mutable per-call state.
type Segmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// New loads the built-in Punkt training data for language. Only "en" is
// bundled by the underlying library; "" also selects it, and any other value
// returns an error.
func New(language string) (*Segmenter, error) {
	switch language {
	case "", "en":
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load english sentence tokenizer: %w", err)
		}
		return &Segmenter{tokenizer: tokenizer}, nil
	default:
		return nil, fmt.Errorf("unsupported sentence segmenter language: %q", language)
	}
}

// Split satisfies asr.Segmenter.
func (s *Segmenter) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	sents := s.tokenizer.Tokenize(text)
	out := make([]string, len(sents))
	for i, sent := range sents {
		out[i] = sent.Text
	}
	return out, nil
}

var _ asr.Segmenter = (*Segmenter)(nil)
