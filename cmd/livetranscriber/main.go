package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localagreement/livetranscriber/internal/asr"
	"github.com/localagreement/livetranscriber/internal/config"
	"github.com/localagreement/livetranscriber/internal/ingest/wav"
	"github.com/localagreement/livetranscriber/internal/sentence"
	"github.com/localagreement/livetranscriber/internal/server"
	"github.com/localagreement/livetranscriber/internal/session"
	"github.com/localagreement/livetranscriber/internal/transcribe/azure"
	"github.com/localagreement/livetranscriber/internal/transcribe/whispercpp"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	wavPath := flag.String("wav", "", "path to a 16kHz mono WAV file to replay")
	stdin := flag.Bool("stdin", false, "read raw f32le PCM from stdin instead of -wav")
	backend := flag.String("backend", "", "transcriber backend: whisper.cpp or azure (overrides LIVETRANSCRIBER_BACKEND)")
	vad := flag.Bool("vad", false, "enable the backend's own voice-activity detection")
	translate := flag.Bool("translate", false, "translate speech to English instead of transcribing it")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Backend = config.Backend(*backend)
	}
	if *vad {
		cfg.UseVAD = true
	}
	if *translate {
		cfg.Translate = true
	}
	cfg.SetDefaults()

	if err := cfg.IsValid(); err != nil {
		slog.Error("invalid config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	if *wavPath == "" && !*stdin {
		slog.Error("one of -wav or -stdin is required")
		os.Exit(1)
	}

	transcriber, closeTranscriber, err := buildTranscriber(cfg)
	if err != nil {
		slog.Error("failed to build transcriber backend", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeTranscriber()

	if cfg.UseVAD {
		transcriber.UseVAD()
	}
	if cfg.Translate {
		transcriber.SetTranslateTask()
	}

	segmenter, err := sentence.New(cfg.SentenceSegmenterLanguage)
	if err != nil {
		slog.Error("failed to build sentence segmenter", slog.String("err", err.Error()))
		os.Exit(1)
	}

	proc := asr.NewProcessor(transcriber, segmenter, cfg.MaxWindowSeconds, logger)

	hub := server.NewHub(logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		slog.Info("starting live caption server", slog.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("live caption server failed", slog.String("err", err.Error()))
		}
	}()

	sess := session.New(proc, cfg.MinChunkSeconds, os.Stdout, hub, logger)

	source, err := buildSource(*wavPath, *stdin, cfg.MinChunkSeconds)
	if err != nil {
		slog.Error("failed to build audio source", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("received signal, stopping session")
		cancel()
	}()

	if err := sess.Run(ctx, source); err != nil && err != context.Canceled {
		slog.Error("session ended with error", slog.String("err", err.Error()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down live caption server", slog.String("err", err.Error()))
	}
}

func buildTranscriber(cfg config.Config) (asr.Transcriber, func(), error) {
	switch cfg.Backend {
	case config.BackendWhisperCPP:
		tr, err := whispercpp.New(whispercpp.Config{ModelFile: cfg.ModelFile, NumThreads: cfg.NumThreads})
		if err != nil {
			return nil, nil, err
		}
		return tr, func() { _ = tr.Close() }, nil
	case config.BackendAzure:
		tr, err := azure.New(azure.Config{
			SpeechKey:     cfg.AzureSpeechKey,
			SpeechRegion:  cfg.AzureSpeechRegion,
			InputLanguage: cfg.AzureLanguage,
			DataDir:       os.TempDir(),
		})
		if err != nil {
			return nil, nil, err
		}
		return tr, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func buildSource(wavPath string, useStdin bool, minChunkSeconds float64) (session.Source, error) {
	if useStdin {
		return session.Source(wav.StdinSource(os.Stdin)), nil
	}
	driver, err := wav.NewDriver(wavPath, minChunkSeconds)
	if err != nil {
		return nil, err
	}
	return session.Source(driver.Run), nil
}
