package pipeline

import "sync/atomic"

// counters holds the pipeline's atomic counters. Prometheus sees the
// same numbers through the metrics package; these stay readable without
// an HTTP round trip.
type counters struct {
	Received     atomic.Uint64
	Allowed      atomic.Uint64
	Denied       atomic.Uint64
	QueueDropped atomic.Uint64
	SinkErrors   atomic.Uint64
}

// Stats is a point-in-time copy of the pipeline counters.
type Stats struct {
	Received     uint64
	Allowed      uint64
	Denied       uint64
	QueueDropped uint64
	SinkErrors   uint64
	// KernelDropped comes from the capture source, not the pipeline;
	// zero for file replay.
	KernelDropped uint64
}
