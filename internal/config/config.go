// Package config loads and validates the settings that select and tune the
// live transcription session: which transcriber backend to use, its model
// and credentials, and the processing window bounds.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

const (
	NumThreadsDefault       = 2
	BackendDefault          = BackendWhisperCPP
	MinChunkSecondsDefault  = 1.0
	MaxWindowSecondsDefault = 30.0
	SentenceLanguageDefault = "en"
	ListenAddrDefault       = ":8099"
)

// Backend selects which Transcriber implementation a session uses.
type Backend string

const (
	BackendWhisperCPP Backend = "whisper.cpp"
	BackendAzure      Backend = "azure"
)

func (b Backend) IsValid() bool {
	switch b {
	case BackendWhisperCPP, BackendAzure:
		return true
	default:
		return false
	}
}

// Config holds every tunable of a live transcription session.
type Config struct {
	Backend    Backend
	NumThreads int

	// whisper.cpp backend
	ModelFile string

	// azure backend
	AzureSpeechKey    string
	AzureSpeechRegion string
	AzureLanguage     string

	UseVAD    bool
	Translate bool

	MinChunkSeconds  float64
	MaxWindowSeconds float64

	SentenceSegmenterLanguage string

	ListenAddr string
}

func (cfg Config) IsValid() error {
	if !cfg.Backend.IsValid() {
		return fmt.Errorf("Backend value is not valid")
	}

	switch cfg.Backend {
	case BackendWhisperCPP:
		if cfg.ModelFile == "" {
			return fmt.Errorf("ModelFile cannot be empty")
		}
		if _, err := os.Stat(cfg.ModelFile); err != nil {
			return fmt.Errorf("invalid ModelFile: failed to stat model file: %w", err)
		}
	case BackendAzure:
		if cfg.AzureSpeechKey == "" {
			return fmt.Errorf("AzureSpeechKey cannot be empty")
		}
		if cfg.AzureSpeechRegion == "" {
			return fmt.Errorf("AzureSpeechRegion cannot be empty")
		}
	}

	numCPU := runtime.NumCPU()
	if cfg.NumThreads < 1 || cfg.NumThreads > numCPU {
		return fmt.Errorf("NumThreads should be in the range [1, %d]", numCPU)
	}

	if cfg.MinChunkSeconds <= 0 {
		return fmt.Errorf("MinChunkSeconds should be greater than 0")
	}

	if cfg.MaxWindowSeconds <= cfg.MinChunkSeconds {
		return fmt.Errorf("MaxWindowSeconds should be greater than MinChunkSeconds")
	}

	if cfg.SentenceSegmenterLanguage == "" {
		return fmt.Errorf("SentenceSegmenterLanguage cannot be empty")
	}

	if cfg.ListenAddr == "" {
		return fmt.Errorf("ListenAddr cannot be empty")
	}

	return nil
}

func (cfg *Config) SetDefaults() {
	if cfg.Backend == "" {
		cfg.Backend = BackendDefault
	}

	if cfg.NumThreads == 0 {
		cfg.NumThreads = min(NumThreadsDefault, max(1, runtime.NumCPU()/2))
	}

	if cfg.MinChunkSeconds == 0 {
		cfg.MinChunkSeconds = MinChunkSecondsDefault
	}

	if cfg.MaxWindowSeconds == 0 {
		cfg.MaxWindowSeconds = MaxWindowSecondsDefault
	}

	if cfg.SentenceSegmenterLanguage == "" {
		cfg.SentenceSegmenterLanguage = SentenceLanguageDefault
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ListenAddrDefault
	}
}

// FromEnv populates a Config from LIVETRANSCRIBER_-prefixed environment
// variables, then applies SetDefaults.
func FromEnv() (Config, error) {
	var cfg Config

	cfg.Backend = Backend(os.Getenv("LIVETRANSCRIBER_BACKEND"))
	cfg.ModelFile = os.Getenv("LIVETRANSCRIBER_MODEL_FILE")
	cfg.AzureSpeechKey = os.Getenv("LIVETRANSCRIBER_AZURE_SPEECH_KEY")
	cfg.AzureSpeechRegion = os.Getenv("LIVETRANSCRIBER_AZURE_SPEECH_REGION")
	cfg.AzureLanguage = os.Getenv("LIVETRANSCRIBER_AZURE_LANGUAGE")
	cfg.SentenceSegmenterLanguage = os.Getenv("LIVETRANSCRIBER_SENTENCE_LANGUAGE")
	cfg.ListenAddr = os.Getenv("LIVETRANSCRIBER_LISTEN_ADDR")

	if val := os.Getenv("LIVETRANSCRIBER_NUM_THREADS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse LIVETRANSCRIBER_NUM_THREADS: %w", err)
		}
		cfg.NumThreads = n
	}

	if val := os.Getenv("LIVETRANSCRIBER_USE_VAD"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse LIVETRANSCRIBER_USE_VAD: %w", err)
		}
		cfg.UseVAD = b
	}

	if val := os.Getenv("LIVETRANSCRIBER_TRANSLATE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse LIVETRANSCRIBER_TRANSLATE: %w", err)
		}
		cfg.Translate = b
	}

	if val := os.Getenv("LIVETRANSCRIBER_MIN_CHUNK_SECONDS"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse LIVETRANSCRIBER_MIN_CHUNK_SECONDS: %w", err)
		}
		cfg.MinChunkSeconds = f
	}

	if val := os.Getenv("LIVETRANSCRIBER_MAX_WINDOW_SECONDS"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse LIVETRANSCRIBER_MAX_WINDOW_SECONDS: %w", err)
		}
		cfg.MaxWindowSeconds = f
	}

	cfg.SetDefaults()

	return cfg, nil
}
