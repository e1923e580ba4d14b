// Package whispercpp adapts a local whisper.cpp model to the asr.Transcriber
// contract, extending the segment-level bindings with word-level timestamps
// recovered from whisper.cpp's token data.
package whispercpp

// #cgo LDFLAGS: -l:libwhisper.a -lm -lstdc++
// #include <whisper.h>
// #include <stdlib.h>
import "C"

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/localagreement/livetranscriber/internal/asr"
)

// Config describes the local whisper.cpp model to load.
type Config struct {
	ModelFile  string
	NumThreads int
}

func (c Config) IsValid() error {
	if c == (Config{}) {
		return fmt.Errorf("invalid empty config")
	}

	if c.ModelFile == "" {
		return fmt.Errorf("invalid ModelFile: should not be empty")
	}

	if _, err := os.Stat(c.ModelFile); err != nil {
		return fmt.Errorf("invalid ModelFile: failed to stat model file: %w", err)
	}

	if numCPU := runtime.NumCPU(); c.NumThreads == 0 || c.NumThreads > numCPU {
		return fmt.Errorf("invalid NumThreads: should be in the range [1, %d]", numCPU)
	}

	return nil
}

// Transcriber wraps a whisper.cpp context. A single whisper_context is not
// safe for concurrent whisper_full calls, so mu serializes Transcribe.
type Transcriber struct {
	cfg Config
	ctx *C.struct_whisper_context

	mu        sync.Mutex
	useVAD    bool
	translate bool
}

// New loads the GGML model file at cfg.ModelFile.
func New(cfg Config) (*Transcriber, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	path := C.CString(cfg.ModelFile)
	defer C.free(unsafe.Pointer(path))

	cctx := C.whisper_init_from_file(path)
	if cctx == nil {
		return nil, fmt.Errorf("failed to load model file")
	}

	return &Transcriber{cfg: cfg, ctx: cctx}, nil
}

// Close releases the underlying whisper_context.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx == nil {
		return fmt.Errorf("context is not initialized")
	}
	C.whisper_free(t.ctx)
	t.ctx = nil
	return nil
}

func (t *Transcriber) UseVAD() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.useVAD = true
}

func (t *Transcriber) SetTranslateTask() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.translate = true
}

// Sep is empty: whisper.cpp token text already carries its own leading
// space, so words join directly.
func (t *Transcriber) Sep() string { return "" }

// Transcribe runs one offline whisper_full pass over audio. no_context is
// forced true: the caller supplies initPrompt fresh on every call instead of
// relying on whisper.cpp's own cross-call context carryover, since the
// Hypothesis Buffer already tracks what has been committed.
func (t *Transcriber) Transcribe(ctx context.Context, audio []float32, initPrompt string) ([]asr.Segment, error) {
	if len(audio) == 0 {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx == nil {
		return nil, fmt.Errorf("context is not initialized")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	params := C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
	params.no_context = C.bool(true)
	params.n_threads = C.int(t.cfg.NumThreads)
	params.token_timestamps = C.bool(true)
	params.translate = C.bool(t.translate)
	if t.useVAD {
		params.no_speech_thold = C.float(0.8)
	}

	var cPrompt *C.char
	if initPrompt != "" {
		cPrompt = C.CString(initPrompt)
		defer C.free(unsafe.Pointer(cPrompt))
		params.initial_prompt = cPrompt
	}

	ret := C.whisper_full(t.ctx, params, (*C.float)(&audio[0]), C.int(len(audio)))
	if ret != 0 {
		return nil, fmt.Errorf("whisper_full failed with code %d", ret)
	}

	eot := C.whisper_token_eot(t.ctx)
	n := int(C.whisper_full_n_segments(t.ctx))
	segments := make([]asr.Segment, 0, n)

	for i := 0; i < n; i++ {
		segEnd := float64(C.whisper_full_get_segment_t1(t.ctx, C.int(i))) / 100.0
		words := wordsFromTokens(t.ctx, i, eot)
		segments = append(segments, asr.Segment{End: segEnd, Words: words})
	}

	return segments, nil
}

// wordsFromTokens groups a segment's tokens into words: whisper.cpp decodes
// tokens with their own leading space, so a token starting with one begins a
// new word; any other token is a continuation of the current one.
func wordsFromTokens(ctx *C.struct_whisper_context, segment int, eot C.whisper_token) asr.Words {
	n := int(C.whisper_full_n_tokens(ctx, C.int(segment)))
	var words asr.Words

	for j := 0; j < n; j++ {
		data := C.whisper_full_get_token_data(ctx, C.int(segment), C.int(j))
		if data.id >= eot {
			continue
		}

		text := C.GoString(C.whisper_full_get_token_text(ctx, C.int(segment), C.int(j)))
		if text == "" {
			continue
		}

		start := float64(data.t0) / 100.0
		end := float64(data.t1) / 100.0

		if len(words) > 0 && text[0] != ' ' {
			last := &words[len(words)-1]
			last.Text += text
			last.End = end
			continue
		}

		words = append(words, asr.Word{Start: start, End: end, Text: text})
	}

	return words
}
