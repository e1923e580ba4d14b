package webrtc

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

// fakeTrack replays a fixed packet sequence then returns io.EOF.
type fakeTrack struct {
	id      string
	packets []*rtp.Packet
	pos     int
}

func (f *fakeTrack) ID() string { return f.id }

func (f *fakeTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	if f.pos >= len(f.packets) {
		return nil, nil, io.EOF
	}
	pkt := f.packets[f.pos]
	f.pos++
	return pkt, nil, nil
}

func TestReaderRunStopsOnEOF(t *testing.T) {
	track := &fakeTrack{id: "t1"}
	r, err := NewReader(track)
	require.NoError(t, err)
	defer r.Close()

	var chunks int
	err = r.Run(context.Background(), func([]float32) { chunks++ })
	require.NoError(t, err)
	require.Equal(t, 0, chunks)
}

func TestReaderRunSkipsEmptyPayloads(t *testing.T) {
	track := &fakeTrack{id: "t1", packets: []*rtp.Packet{
		{Payload: nil},
	}}
	r, err := NewReader(track)
	require.NoError(t, err)
	defer r.Close()

	var chunks int
	err = r.Run(context.Background(), func([]float32) { chunks++ })
	require.NoError(t, err)
	require.Equal(t, 0, chunks)
}

func TestEmitSilenceProducesExpectedSampleCount(t *testing.T) {
	track := &fakeTrack{id: "t1"}
	r, err := NewReader(track)
	require.NoError(t, err)
	defer r.Close()

	var got []float32
	r.emitSilence(250*time.Millisecond, func(chunk []float32) { got = append(got, chunk...) })

	require.Len(t, got, 250*outputSamplesPerMs)
	for _, s := range got {
		require.Equal(t, float32(0), s)
	}
}

func TestEmitSilenceNoopForNonPositiveGap(t *testing.T) {
	track := &fakeTrack{id: "t1"}
	r, err := NewReader(track)
	require.NoError(t, err)
	defer r.Close()

	var calls int
	r.emitSilence(0, func([]float32) { calls++ })
	require.Equal(t, 0, calls)
}

func TestReaderRunStopsOnContextCancel(t *testing.T) {
	track := &fakeTrack{id: "t1"}
	r, err := NewReader(track)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Run(ctx, func([]float32) {})
	require.ErrorIs(t, err, context.Canceled)
}
