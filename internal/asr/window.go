package asr

// SampleRate is the fixed input sample rate this package operates at: 16 kHz
// mono float32 PCM, with no resampling performed anywhere in the core.
const SampleRate = 16000

// AudioWindow is an append-only float32 PCM buffer with a scalar time offset
// locating its first sample on the global session timeline: sample index i
// corresponds to global time Offset + i/SampleRate.
type AudioWindow struct {
	samples []float32
	offset  float64
}

// NewAudioWindow returns an empty window starting at global time 0.
func NewAudioWindow() *AudioWindow {
	return &AudioWindow{}
}

// Append concatenates samples onto the window.
func (a *AudioWindow) Append(samples []float32) {
	a.samples = append(a.samples, samples...)
}

// Samples returns the window's current contents. The slice is owned by the
// window and must not be retained past the next TrimTo/Append call.
func (a *AudioWindow) Samples() []float32 {
	return a.samples
}

// Offset is the global time of the window's first sample.
func (a *AudioWindow) Offset() float64 {
	return a.offset
}

// DurationSeconds is the window's length in seconds.
func (a *AudioWindow) DurationSeconds() float64 {
	return float64(len(a.samples)) / SampleRate
}

// TrimTo drops the first floor(time-Offset) whole seconds of samples and
// advances Offset to the exact, possibly-fractional, time requested. A time
// at or before the current Offset leaves both samples and Offset unchanged.
//
// The truncation to whole seconds (rather than rounding to the nearest
// sample) is preserved from the source implementation: it can leave up to
// ~1s of residual audio after a trim, and a corresponding mismatch with the
// fractional Offset that is set regardless. This is a known, deliberately
// unfixed property of the algorithm (see design notes); Offset remains
// monotonically non-decreasing regardless.
func (a *AudioWindow) TrimTo(time float64) {
	cutSeconds := time - a.offset
	if cutSeconds > 0 {
		cutSamples := int(cutSeconds) * SampleRate
		if cutSamples > len(a.samples) {
			cutSamples = len(a.samples)
		}
		a.samples = a.samples[cutSamples:]
		a.offset = time
	}
}
