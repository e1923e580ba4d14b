package whispercpp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func getModelPath() string {
	modelsDir := os.Getenv("MODELS_DIR")
	if modelsDir == "" {
		modelsDir = "../../../models"
	}
	return filepath.Join(modelsDir, "ggml-tiny.bin")
}

func TestConfigIsValid(t *testing.T) {
	tcs := []struct {
		name string
		cfg  Config
		err  string
	}{
		{
			name: "empty config",
			err:  "invalid empty config",
		},
		{
			name: "non existent model file",
			err:  "invalid ModelFile: failed to stat model file: stat /tmp/invalid.ggml: no such file or directory",
			cfg: Config{
				ModelFile: "/tmp/invalid.ggml",
			},
		},
		{
			name: "valid",
			cfg: Config{
				ModelFile:  getModelPath(),
				NumThreads: 1,
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.IsValid()
			if tc.err != "" {
				require.EqualError(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("missing model file", func(t *testing.T) {
		tr, err := New(Config{})
		require.Error(t, err)
		require.Nil(t, tr)
	})

	t.Run("success", func(t *testing.T) {
		tr, err := New(Config{NumThreads: 1, ModelFile: getModelPath()})
		require.NoError(t, err)
		require.NotNil(t, tr)
		require.NoError(t, tr.Close())
	})

	t.Run("double close", func(t *testing.T) {
		tr, err := New(Config{NumThreads: 1, ModelFile: getModelPath()})
		require.NoError(t, err)
		require.NoError(t, tr.Close())
		require.EqualError(t, tr.Close(), "context is not initialized")
	})
}

func TestSep(t *testing.T) {
	tr := &Transcriber{}
	require.Equal(t, "", tr.Sep())
}

func TestTranscribeEmptyAudio(t *testing.T) {
	tr, err := New(Config{NumThreads: 1, ModelFile: getModelPath()})
	require.NoError(t, err)
	defer tr.Close()

	segments, err := tr.Transcribe(context.Background(), nil, "")
	require.NoError(t, err)
	require.Empty(t, segments)
}
