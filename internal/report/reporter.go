// Package report delivers classification decisions to configured sinks.
package report

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/core"
)

// Reporter delivers decisions to one destination.
type Reporter interface {
	// Report delivers the decision made on frame. frame holds the raw
	// bytes the decision was made on; sinks that do not need them ignore
	// the argument.
	Report(ctx context.Context, frame []byte, d *core.Decision) error

	// Name identifies the sink in logs and metrics.
	Name() string

	// Close flushes pending output and releases the sink.
	Close() error
}

// Build constructs one reporter per configured sink. On failure every
// reporter built so far is closed again.
func Build(sinks []config.SinkConfig) ([]Reporter, error) {
	reporters := make([]Reporter, 0, len(sinks))
	for i, sc := range sinks {
		r, err := newReporter(sc)
		if err != nil {
			for _, built := range reporters {
				built.Close()
			}
			return nil, fmt.Errorf("sink %d (%s): %w", i, sc.Type, err)
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}

func newReporter(sc config.SinkConfig) (Reporter, error) {
	switch sc.Type {
	case "console":
		return NewConsoleReporter(sc.Options)
	case "pcap":
		return NewPcapReporter(sc.Options)
	case "kafka":
		return NewKafkaReporter(sc.Options)
	default:
		return nil, fmt.Errorf("unknown sink type %q", sc.Type)
	}
}

// decodeOptions maps a sink's options block onto its typed options
// struct. Unknown keys are rejected so a typo fails at startup instead
// of being silently ignored.
func decodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("invalid sink options: %w", err)
	}
	return nil
}
