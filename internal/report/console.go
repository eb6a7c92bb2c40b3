package report

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"firestige.xyz/strix/internal/core"
)

// ConsoleOptions configures the console sink.
type ConsoleOptions struct {
	// DeniesOnly drops allow decisions instead of logging them.
	DeniesOnly bool `mapstructure:"denies_only"`
	// MaxPerSource caps logged decisions per source IP per window,
	// 0 disables the cap.
	MaxPerSource int `mapstructure:"max_per_source"`
	// WindowSeconds is the suppression window size, default 10s.
	WindowSeconds int `mapstructure:"window_seconds"`
}

// ConsoleReporter writes one structured log line per decision: Info for
// allowed packets, Warning for denied ones.
type ConsoleReporter struct {
	opts     ConsoleOptions
	limiter  *RateLimiter
	reported atomic.Uint64
}

// NewConsoleReporter creates a console reporter from its options block.
func NewConsoleReporter(options map[string]any) (*ConsoleReporter, error) {
	var opts ConsoleOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	r := &ConsoleReporter{opts: opts}
	r.limiter = NewRateLimiter(RateLimiterConfig{
		MaxPerSource: opts.MaxPerSource,
		Window:       time.Duration(opts.WindowSeconds) * time.Second,
	})
	return r, nil
}

// Name returns the sink name.
func (r *ConsoleReporter) Name() string {
	return "console"
}

// Report logs one decision.
func (r *ConsoleReporter) Report(_ context.Context, _ []byte, d *core.Decision) error {
	if d == nil {
		return fmt.Errorf("nil decision")
	}
	if r.opts.DeniesOnly && d.Action == core.ActionAllow {
		return nil
	}
	if r.limiter != nil && d.SrcIP.IsValid() && !r.limiter.Allow(d.SrcIP, time.Now()) {
		return nil
	}

	fields := logrus.Fields{
		"action": d.Action.String(),
		"proto":  core.ProtocolName(d.Protocol),
		"port":   d.PortString(),
		"reason": d.Reason.String(),
	}
	if d.SrcIP.IsValid() {
		fields["src"] = d.SrcIP.String()
	}
	if d.DstIP.IsValid() {
		fields["dst"] = d.DstIP.String()
	}
	if d.Reason == core.ReasonRule {
		if d.RuleName != "" {
			fields["rule"] = d.RuleName
		} else {
			fields["rule"] = fmt.Sprintf("#%d", d.Rule)
		}
	}

	entry := logrus.WithFields(fields)
	if d.Action == core.ActionAllow {
		entry.Info("packet allowed")
	} else {
		entry.Warning("packet denied")
	}

	r.reported.Add(1)
	return nil
}

// Close logs the sink's totals.
func (r *ConsoleReporter) Close() error {
	fields := logrus.Fields{"total_reported": r.reported.Load()}
	if r.limiter != nil {
		fields["total_suppressed"] = r.limiter.Suppressed()
	}
	logrus.WithFields(fields).Info("console sink closed")
	return nil
}
