// Package azure adapts the Microsoft Cognitive Services Speech SDK to the
// asr.Transcriber contract: a synchronous wrapper around a push-audio-stream
// plus continuous recognition, re-initialized fresh on every call since the
// core always supplies a full window rather than a live stream.
package azure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/localagreement/livetranscriber/internal/asr"
)

const (
	audioSampleRate = 16000
	audioBitDepth   = 16
	audioChannels   = 1
)

// Config describes the Azure subscription and language settings.
type Config struct {
	SpeechKey      string
	SpeechRegion   string
	InputLanguage  string
	OutputLanguage string
	DataDir        string
}

func (c Config) IsValid() error {
	if c.SpeechKey == "" {
		return fmt.Errorf("invalid SpeechKey: should not be empty")
	}
	if c.SpeechRegion == "" {
		return fmt.Errorf("invalid SpeechRegion: should not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("invalid DataDir: should not be empty")
	}
	return nil
}

// Transcriber wraps a reusable SpeechConfig. Each Transcribe call spins up
// its own recognizer, since the SDK's push stream cannot be rewound or
// reused safely across independent windows.
type Transcriber struct {
	cfg Config

	speechConfig      *speech.SpeechConfig
	translationConfig *speech.SpeechTranslationConfig

	translate bool
	// useVAD is intentionally inert: Azure's continuous recognition always
	// performs its own server-side endpointing, so there is no local VAD
	// toggle to forward.
	useVAD bool
}

// New creates a reusable speech config from the subscription credentials.
func New(cfg Config) (*Transcriber, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	speechConfig, err := speech.NewSpeechConfigFromSubscription(cfg.SpeechKey, cfg.SpeechRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech config: %w", err)
	}
	if err := speechConfig.SetProperty(common.SpeechLogFilename, filepath.Join(cfg.DataDir, "azure.log")); err != nil {
		return nil, fmt.Errorf("failed to set log property: %w", err)
	}
	if cfg.InputLanguage != "" {
		if err := speechConfig.SetSpeechRecognitionLanguage(cfg.InputLanguage); err != nil {
			return nil, fmt.Errorf("failed to set speech recognition language: %w", err)
		}
	}

	return &Transcriber{cfg: cfg, speechConfig: speechConfig}, nil
}

func (t *Transcriber) UseVAD() { t.useVAD = true }

// SetTranslateTask switches subsequent Transcribe calls to a
// TranslationRecognizer targeting cfg.OutputLanguage.
func (t *Transcriber) SetTranslateTask() {
	if t.translate {
		return
	}
	t.translate = true

	config, err := speech.NewSpeechTranslationConfigFromSubscription(t.cfg.SpeechKey, t.cfg.SpeechRegion)
	if err != nil {
		slog.Error("failed to create speech translation config", slog.String("err", err.Error()))
		t.translate = false
		return
	}
	if err := config.SetProperty(common.SpeechLogFilename, filepath.Join(t.cfg.DataDir, "azure_translator.log")); err != nil {
		slog.Error("failed to set log property", slog.String("err", err.Error()))
	}
	if t.cfg.InputLanguage != "" {
		if err := config.SetSpeechRecognitionLanguage(t.cfg.InputLanguage); err != nil {
			slog.Error("failed to set speech recognition language", slog.String("err", err.Error()))
		}
	}
	outputLanguage := t.cfg.OutputLanguage
	if outputLanguage == "" {
		outputLanguage = "en"
	}
	if err := config.AddTargetLanguage(outputLanguage); err != nil {
		slog.Error("failed to set speech target language", slog.String("err", err.Error()))
	}
	t.translationConfig = config
}

// Sep is a single space: Azure's recognized text is already word-tokenized
// with natural spacing, and the word-level splits below strip it.
func (t *Transcriber) Sep() string { return " " }

// Transcribe pushes the entire window into a fresh recognizer session and
// waits for end-of-stream. In recognition mode initPrompt seeds a
// PhraseListGrammar to bias recognition toward words already committed but no
// longer in context; in translate mode initPrompt is not used.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, initPrompt string) ([]asr.Segment, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	if t.translate {
		return t.transcribeTranslate(ctx, samples, initPrompt)
	}
	return t.transcribeRecognize(ctx, samples, initPrompt)
}

func (t *Transcriber) transcribeRecognize(ctx context.Context, samples []float32, initPrompt string) ([]asr.Segment, error) {
	audioStream, err := audio.CreatePushAudioInputStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create audio stream: %w", err)
	}
	audioConfig, err := audio.NewAudioConfigFromStreamInput(audioStream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio config: %w", err)
	}
	recognizer, err := speech.NewSpeechRecognizerFromConfig(t.speechConfig, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
	}
	defer func() {
		audioStream.CloseStream()
		audioConfig.Close()
		recognizer.Close()
	}()

	addPhraseList(recognizer, initPrompt)

	resultsCh := make(chan speech.SpeechRecognitionResult, 4)
	errCh := make(chan error, 1)
	eosCh := make(chan struct{})

	recognizer.Recognized(func(event speech.SpeechRecognitionEventArgs) {
		defer event.Close()
		if event.Result.Reason == common.NoMatch || len(event.Result.Text) == 0 {
			return
		}
		resultsCh <- event.Result
	})
	recognizer.Canceled(func(event speech.SpeechRecognitionCanceledEventArgs) {
		defer event.Close()
		if event.Reason == common.EndOfStream {
			close(eosCh)
		} else if event.Reason == common.Error {
			errCh <- errors.New(event.ErrorDetails)
		}
	})

	if err := <-recognizer.StartContinuousRecognitionAsync(); err != nil {
		return nil, fmt.Errorf("failed to start recognizer: %w", err)
	}
	defer func() {
		if err := <-recognizer.StopContinuousRecognitionAsync(); err != nil {
			slog.Error("failed to stop recognizer", slog.String("err", err.Error()))
		}
	}()

	if err := audioStream.Write(f32PCMToWAV(samples)); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	audioStream.CloseStream()

	inputDuration := time.Duration(float64(len(samples))/float64(audioSampleRate)) * time.Second
	timeoutCh := time.After(max(inputDuration*2, 10*time.Second))

	var segments []asr.Segment
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-resultsCh:
			segments = append(segments, segmentFromResult(result.Text, result.Offset, result.Duration))
		case <-timeoutCh:
			return nil, fmt.Errorf("timed out waiting for transcription")
		case err := <-errCh:
			return nil, fmt.Errorf("transcription failed: %w", err)
		case <-eosCh:
			return segments, nil
		}
	}
}

func (t *Transcriber) transcribeTranslate(ctx context.Context, samples []float32, initPrompt string) ([]asr.Segment, error) {
	if t.translationConfig == nil {
		return nil, fmt.Errorf("translation config not initialized")
	}

	audioStream, err := audio.CreatePushAudioInputStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create audio stream: %w", err)
	}
	audioConfig, err := audio.NewAudioConfigFromStreamInput(audioStream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio config: %w", err)
	}
	recognizer, err := speech.NewTranslationRecognizerFromConfig(t.translationConfig, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation recognizer: %w", err)
	}
	defer func() {
		audioStream.CloseStream()
		audioConfig.Close()
		recognizer.Close()
	}()

	outputLanguage := t.cfg.OutputLanguage
	if outputLanguage == "" {
		outputLanguage = "en"
	}

	resultsCh := make(chan speech.TranslationRecognitionResult, 4)
	errCh := make(chan error, 1)
	eosCh := make(chan struct{})

	recognizer.Recognized(func(event speech.TranslationRecognitionEventArgs) {
		defer event.Close()
		if event.Result == nil {
			return
		}
		resultsCh <- *event.Result
	})
	recognizer.Canceled(func(event speech.TranslationRecognitionCanceledEventArgs) {
		defer event.Close()
		if event.Reason == common.EndOfStream {
			close(eosCh)
		} else if event.Reason == common.Error {
			errCh <- errors.New(event.ErrorDetails)
		}
	})

	if err := <-recognizer.StartContinuousRecognitionAsync(); err != nil {
		return nil, fmt.Errorf("failed to start recognizer: %w", err)
	}
	defer func() {
		if err := <-recognizer.StopContinuousRecognitionAsync(); err != nil {
			slog.Error("failed to stop recognizer", slog.String("err", err.Error()))
		}
	}()

	if err := audioStream.Write(f32PCMToWAV(samples)); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	audioStream.CloseStream()

	inputDuration := time.Duration(float64(len(samples))/float64(audioSampleRate)) * time.Second
	timeoutCh := time.After(max(inputDuration*2, 10*time.Second))

	var segments []asr.Segment
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-resultsCh:
			text := result.GetTranslation(outputLanguage)
			if text == "" {
				continue
			}
			segments = append(segments, segmentFromResult(text, result.Offset, result.Duration))
		case <-timeoutCh:
			return nil, fmt.Errorf("timed out waiting for translation")
		case err := <-errCh:
			return nil, fmt.Errorf("translation failed: %w", err)
		case <-eosCh:
			return segments, nil
		}
	}
}

// segmentFromResult splits a whole-utterance Azure result into words,
// distributing the result's duration evenly across them: the Go SDK surfaces
// offset/duration only at the utterance level, not per word.
func segmentFromResult(text string, offset, duration time.Duration) asr.Segment {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return asr.Segment{}
	}

	start := offset.Seconds()
	total := duration.Seconds()
	per := total / float64(len(tokens))

	words := make(asr.Words, len(tokens))
	for i, tok := range tokens {
		wStart := start + float64(i)*per
		wEnd := wStart + per
		words[i] = asr.Word{Start: wStart, End: wEnd, Text: tok}
	}

	return asr.Segment{End: start + total, Words: words}
}

func addPhraseList(recognizer *speech.SpeechRecognizer, initPrompt string) {
	if initPrompt == "" {
		return
	}
	grammar, err := speech.NewPhraseListGrammarFromRecognizer(recognizer)
	if err != nil {
		slog.Warn("failed to create phrase list grammar", slog.String("err", err.Error()))
		return
	}
	if err := grammar.AddPhrase(initPrompt); err != nil {
		slog.Warn("failed to add phrase to grammar", slog.String("err", err.Error()))
	}
}
