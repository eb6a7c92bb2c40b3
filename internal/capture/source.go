// Package capture provides packet sources for the classification pipeline.
//
// Two implementations exist: AFPacketSource reads live traffic from a
// network interface through a TPacket v3 ring buffer, and FileSource
// replays a pcap capture. Both deliver raw Ethernet frames; decoding is
// the pipeline's job.
package capture

import (
	"github.com/google/gopacket/afpacket"
)

// ErrTimeout is returned by ReadPacket when no frame arrived within the
// source's poll timeout. Callers should treat it as "try again", not as
// a failure.
var ErrTimeout = afpacket.ErrTimeout

// Stats is a snapshot of a source's packet counters.
type Stats struct {
	// Received counts frames handed to the caller.
	Received uint64
	// Dropped counts frames the kernel discarded because the ring was
	// full. Always zero for file sources.
	Dropped uint64
}

// Source yields raw Ethernet frames one at a time.
type Source interface {
	// ReadPacket returns the next frame. It returns ErrTimeout when the
	// poll timeout expires with no traffic and io.EOF when the source is
	// exhausted (file replay only).
	ReadPacket() ([]byte, error)

	// Stats reports the source's counters since it was opened.
	Stats() (Stats, error)

	// Close releases the source and restores any interface state it
	// changed.
	Close() error
}
