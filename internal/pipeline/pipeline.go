// Package pipeline implements the frame processing pipeline: one reader
// feeding a bounded queue, a pool of classification workers, and the
// configured report sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/firewall"
	"firestige.xyz/strix/internal/metrics"
	"firestige.xyz/strix/internal/report"
)

// statsInterval is how often kernel capture counters are folded into the
// Prometheus metrics.
const statsInterval = 10 * time.Second

// Pipeline pulls frames from a source, classifies them and hands every
// decision to the report sinks.
type Pipeline struct {
	source    capture.Source
	engine    *firewall.Engine
	reporters []report.Reporter

	workers      int
	queueSize    int
	dropWhenFull bool
	label        string

	counters counters
}

// Config contains pipeline configuration.
type Config struct {
	Source    capture.Source
	Engine    *firewall.Engine
	Reporters []report.Reporter

	// Workers is the number of classification goroutines, 0 means one
	// per CPU.
	Workers int
	// QueueSize bounds the frame channel between reader and workers,
	// 0 means 8192.
	QueueSize int
	// DropWhenFull discards frames when the queue is full instead of
	// blocking the reader. Live capture wants this on; file replay
	// wants every frame and leaves it off.
	DropWhenFull bool
	// Label tags this pipeline's metrics, usually the interface name.
	Label string
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 8192
	}
	if cfg.Label == "" {
		cfg.Label = "unknown"
	}

	return &Pipeline{
		source:       cfg.Source,
		engine:       cfg.Engine,
		reporters:    cfg.Reporters,
		workers:      cfg.Workers,
		queueSize:    cfg.QueueSize,
		dropWhenFull: cfg.DropWhenFull,
		label:        cfg.Label,
	}
}

// Run processes frames until the context is cancelled, the source is
// exhausted, or the source fails. It blocks; cancelling ctx is the
// graceful way to stop a live capture.
func (p *Pipeline) Run(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"workers":    p.workers,
		"queue_size": p.queueSize,
		"sinks":      len(p.reporters),
		"rules":      p.engine.Ruleset().Len(),
	}).Info("pipeline starting")

	statsCtx, stopStats := context.WithCancel(ctx)
	var statsWG sync.WaitGroup
	statsWG.Add(1)
	go func() {
		defer statsWG.Done()
		p.statsLoop(statsCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan []byte, p.queueSize)

	g.Go(func() error {
		defer close(frames)
		return p.readLoop(gctx, frames)
	})
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.workLoop(gctx, frames)
		})
	}

	err := g.Wait()
	stopStats()
	statsWG.Wait()

	p.logSummary()
	return err
}

// readLoop pulls frames from the source into the queue.
func (p *Pipeline) readLoop(ctx context.Context, frames chan<- []byte) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		data, err := p.source.ReadPacket()
		switch {
		case err == nil:
		case errors.Is(err, capture.ErrTimeout):
			continue
		case errors.Is(err, io.EOF):
			logrus.Debug("capture source exhausted")
			return nil
		default:
			return fmt.Errorf("capture read failed: %w", err)
		}

		p.counters.Received.Add(1)
		metrics.FramesTotal.WithLabelValues(p.label).Inc()

		if p.dropWhenFull {
			select {
			case frames <- data:
			default:
				p.counters.QueueDropped.Add(1)
				metrics.QueueDropsTotal.Inc()
			}
		} else {
			select {
			case frames <- data:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// workLoop drains the queue until it is closed.
func (p *Pipeline) workLoop(ctx context.Context, frames <-chan []byte) error {
	for frame := range frames {
		p.processFrame(ctx, frame)
	}
	return nil
}

// processFrame classifies one frame and reports the decision.
func (p *Pipeline) processFrame(ctx context.Context, frame []byte) {
	start := time.Now()
	d := p.engine.Classify(frame)
	metrics.ClassifyDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.DecisionsTotal.WithLabelValues(d.Action.String(), d.Reason.String()).Inc()

	if d.Action == core.ActionAllow {
		p.counters.Allowed.Add(1)
	} else {
		p.counters.Denied.Add(1)
	}

	for _, r := range p.reporters {
		if err := r.Report(ctx, frame, &d); err != nil {
			p.counters.SinkErrors.Add(1)
			metrics.SinkErrorsTotal.WithLabelValues(r.Name()).Inc()
			logrus.WithError(err).WithField("sink", r.Name()).Error("sink delivery failed")
		}
	}
}

// statsLoop periodically folds kernel capture counters into Prometheus.
func (p *Pipeline) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var lastDropped uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := p.source.Stats()
			if err != nil {
				logrus.WithError(err).Debug("failed to read capture stats")
				continue
			}
			if delta := st.Dropped - lastDropped; delta > 0 {
				metrics.CaptureDropsTotal.WithLabelValues(p.label).Add(float64(delta))
				lastDropped = st.Dropped
			}
		}
	}
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Received:     p.counters.Received.Load(),
		Allowed:      p.counters.Allowed.Load(),
		Denied:       p.counters.Denied.Load(),
		QueueDropped: p.counters.QueueDropped.Load(),
		SinkErrors:   p.counters.SinkErrors.Load(),
	}
	if st, err := p.source.Stats(); err == nil {
		s.KernelDropped = st.Dropped
	}
	return s
}

func (p *Pipeline) logSummary() {
	s := p.Stats()
	logrus.WithFields(logrus.Fields{
		"received":       s.Received,
		"allowed":        s.Allowed,
		"denied":         s.Denied,
		"queue_dropped":  s.QueueDropped,
		"kernel_dropped": s.KernelDropped,
		"sink_errors":    s.SinkErrors,
	}).Info("pipeline stopped")
}
