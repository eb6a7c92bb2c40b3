package pipeline

import (
	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/firewall"
	"firestige.xyz/strix/internal/report"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to using Config directly.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSource sets the frame source.
func (b *Builder) WithSource(s capture.Source) *Builder {
	b.config.Source = s
	return b
}

// WithEngine sets the classification engine.
func (b *Builder) WithEngine(e *firewall.Engine) *Builder {
	b.config.Engine = e
	return b
}

// WithReporters sets the report sinks.
func (b *Builder) WithReporters(reporters ...report.Reporter) *Builder {
	b.config.Reporters = reporters
	return b
}

// WithWorkers sets the number of classification workers.
func (b *Builder) WithWorkers(n int) *Builder {
	b.config.Workers = n
	return b
}

// WithQueueSize sets the frame queue bound.
func (b *Builder) WithQueueSize(size int) *Builder {
	b.config.QueueSize = size
	return b
}

// WithDropWhenFull makes the reader discard frames when the queue is
// full instead of blocking.
func (b *Builder) WithDropWhenFull(drop bool) *Builder {
	b.config.DropWhenFull = drop
	return b
}

// WithLabel tags the pipeline's metrics, usually with the interface name.
func (b *Builder) WithLabel(label string) *Builder {
	b.config.Label = label
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
