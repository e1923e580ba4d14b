package asr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplesOfLen(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i)
	}
	return s
}

func TestAudioWindowAppend(t *testing.T) {
	w := NewAudioWindow()
	w.Append(samplesOfLen(100))
	w.Append(samplesOfLen(50))
	require.Len(t, w.Samples(), 150)
	require.Equal(t, float64(150)/SampleRate, w.DurationSeconds())
}

func TestAudioWindowTrimToIntegerSecondQuirk(t *testing.T) {
	w := NewAudioWindow()
	w.Append(samplesOfLen(2 * SampleRate))

	// Trimming to 1.9s only drops floor(1.9)=1 whole second, not 1.9s worth.
	w.TrimTo(1.9)
	require.Len(t, w.Samples(), 2*SampleRate-SampleRate)
	require.Equal(t, 1.9, w.Offset())
}

func TestAudioWindowTrimToClampsAtLength(t *testing.T) {
	w := NewAudioWindow()
	w.Append(samplesOfLen(SampleRate / 2))
	w.TrimTo(5)
	require.Empty(t, w.Samples())
	require.Equal(t, float64(5), w.Offset())
}

func TestAudioWindowTrimToNoOpWhenBeforeOffset(t *testing.T) {
	w := NewAudioWindow()
	w.Append(samplesOfLen(SampleRate))
	w.TrimTo(0)
	require.Len(t, w.Samples(), SampleRate)
	require.Equal(t, float64(0), w.Offset())
}
