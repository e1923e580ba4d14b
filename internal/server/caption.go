package server

import (
	"time"

	"github.com/localagreement/livetranscriber/internal/asr"
)

// CaptionFromEmission converts an asr.Emission to the wire format broadcast
// to clients, stamping emissionMs as the time the emission was produced
// rather than any timestamp carried on the words themselves.
func CaptionFromEmission(e asr.Emission, emittedAt time.Time) CaptionMessage {
	msg := CaptionMessage{
		EmissionMs: emittedAt.UnixMilli(),
		Text:       e.Text,
	}
	if e.Start != nil {
		ms := int64(*e.Start * 1000)
		msg.StartMs = &ms
	}
	if e.End != nil {
		ms := int64(*e.End * 1000)
		msg.EndMs = &ms
	}
	return msg
}
