package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackendIsValid(t *testing.T) {
	require.True(t, BackendWhisperCPP.IsValid())
	require.True(t, BackendAzure.IsValid())
	require.False(t, Backend("nope").IsValid())
}

func TestConfigIsValid(t *testing.T) {
	modelFile, err := os.CreateTemp(t.TempDir(), "model-*.bin")
	require.NoError(t, err)
	defer modelFile.Close()

	validWhisper := Config{
		Backend:                   BackendWhisperCPP,
		ModelFile:                 modelFile.Name(),
		NumThreads:                1,
		MinChunkSeconds:           1,
		MaxWindowSeconds:          30,
		SentenceSegmenterLanguage: "en",
		ListenAddr:                ":8099",
	}
	require.NoError(t, validWhisper.IsValid())

	t.Run("invalid backend", func(t *testing.T) {
		cfg := validWhisper
		cfg.Backend = "nope"
		require.Error(t, cfg.IsValid())
	})

	t.Run("whisper.cpp requires model file", func(t *testing.T) {
		cfg := validWhisper
		cfg.ModelFile = ""
		require.Error(t, cfg.IsValid())
	})

	t.Run("whisper.cpp model file must exist", func(t *testing.T) {
		cfg := validWhisper
		cfg.ModelFile = "/does/not/exist"
		require.Error(t, cfg.IsValid())
	})

	t.Run("azure requires speech key and region", func(t *testing.T) {
		cfg := validWhisper
		cfg.Backend = BackendAzure
		cfg.ModelFile = ""
		require.Error(t, cfg.IsValid())

		cfg.AzureSpeechKey = "key"
		require.Error(t, cfg.IsValid())

		cfg.AzureSpeechRegion = "region"
		require.NoError(t, cfg.IsValid())
	})

	t.Run("num threads out of range", func(t *testing.T) {
		cfg := validWhisper
		cfg.NumThreads = 0
		require.Error(t, cfg.IsValid())
	})

	t.Run("min chunk seconds must be positive", func(t *testing.T) {
		cfg := validWhisper
		cfg.MinChunkSeconds = 0
		require.Error(t, cfg.IsValid())
	})

	t.Run("max window must exceed min chunk", func(t *testing.T) {
		cfg := validWhisper
		cfg.MaxWindowSeconds = cfg.MinChunkSeconds
		require.Error(t, cfg.IsValid())
	})

	t.Run("sentence language cannot be empty", func(t *testing.T) {
		cfg := validWhisper
		cfg.SentenceSegmenterLanguage = ""
		require.Error(t, cfg.IsValid())
	})

	t.Run("listen addr cannot be empty", func(t *testing.T) {
		cfg := validWhisper
		cfg.ListenAddr = ""
		require.Error(t, cfg.IsValid())
	})
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	require.Equal(t, BackendDefault, cfg.Backend)
	require.Greater(t, cfg.NumThreads, 0)
	require.Equal(t, MinChunkSecondsDefault, cfg.MinChunkSeconds)
	require.Equal(t, MaxWindowSecondsDefault, cfg.MaxWindowSeconds)
	require.Equal(t, SentenceLanguageDefault, cfg.SentenceSegmenterLanguage)
	require.Equal(t, ListenAddrDefault, cfg.ListenAddr)
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, BackendDefault, cfg.Backend)
	require.Equal(t, ListenAddrDefault, cfg.ListenAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LIVETRANSCRIBER_BACKEND", "azure")
	t.Setenv("LIVETRANSCRIBER_MIN_CHUNK_SECONDS", "2.5")
	t.Setenv("LIVETRANSCRIBER_USE_VAD", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, BackendAzure, cfg.Backend)
	require.Equal(t, 2.5, cfg.MinChunkSeconds)
	require.True(t, cfg.UseVAD)
}

func TestFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("LIVETRANSCRIBER_MIN_CHUNK_SECONDS", "not-a-number")
	_, err := FromEnv()
	require.Error(t, err)
}
