package webrtc

import (
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
)

// trackRemote is the subset of *webrtc.TrackRemote the Reader depends on,
// kept narrow so tests can supply a fake.
type trackRemote interface {
	ID() string
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}
