package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/sirupsen/logrus"

	"firestige.xyz/strix/internal/core"
)

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultCompression  = "snappy"
	defaultMaxAttempts  = 3
)

// KafkaOptions configures the Kafka sink.
type KafkaOptions struct {
	Brokers      []string      `mapstructure:"brokers"`       // required
	Topic        string        `mapstructure:"topic"`         // required
	BatchSize    int           `mapstructure:"batch_size"`    // optional, default 100
	BatchTimeout time.Duration `mapstructure:"batch_timeout"` // optional, default 100ms
	Compression  string        `mapstructure:"compression"`   // optional: none|gzip|snappy|lz4, default snappy
	MaxAttempts  int           `mapstructure:"max_attempts"`  // optional, default 3
}

// KafkaReporter publishes decisions to a Kafka topic as JSON events,
// keyed by source IP so one sender's verdicts land on one partition.
type KafkaReporter struct {
	writer *kafka.Writer
	opts   KafkaOptions

	reported atomic.Uint64
	errors   atomic.Uint64
}

// kafkaEvent is the wire form of one published decision.
type kafkaEvent struct {
	TimestampMS int64         `json:"timestamp_ms"`
	Decision    core.Decision `json:"decision"`
}

// NewKafkaReporter creates a Kafka reporter from its options block.
func NewKafkaReporter(options map[string]any) (*KafkaReporter, error) {
	opts := KafkaOptions{
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Compression:  defaultCompression,
		MaxAttempts:  defaultMaxAttempts,
	}
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires 'brokers'")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("kafka sink requires 'topic'")
	}

	writerConfig := kafka.WriterConfig{
		Brokers:      opts.Brokers,
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    opts.BatchSize,
		BatchTimeout: opts.BatchTimeout,
		MaxAttempts:  opts.MaxAttempts,
		Async:        false,
	}

	switch opts.Compression {
	case "none", "":
		writerConfig.CompressionCodec = nil
	case "gzip":
		writerConfig.CompressionCodec = compress.Gzip.Codec()
	case "snappy":
		writerConfig.CompressionCodec = compress.Snappy.Codec()
	case "lz4":
		writerConfig.CompressionCodec = compress.Lz4.Codec()
	default:
		return nil, fmt.Errorf("invalid compression type: %s", opts.Compression)
	}

	return &KafkaReporter{
		writer: kafka.NewWriter(writerConfig),
		opts:   opts,
	}, nil
}

// Name returns the sink name.
func (r *KafkaReporter) Name() string {
	return "kafka"
}

// Report publishes one decision.
func (r *KafkaReporter) Report(ctx context.Context, _ []byte, d *core.Decision) error {
	if d == nil {
		return fmt.Errorf("nil decision")
	}

	value, err := json.Marshal(kafkaEvent{
		TimestampMS: time.Now().UnixMilli(),
		Decision:    *d,
	})
	if err != nil {
		r.errors.Add(1)
		return fmt.Errorf("failed to serialize decision: %w", err)
	}

	msg := kafka.Message{Value: value}
	if d.SrcIP.IsValid() {
		msg.Key = []byte(d.SrcIP.String())
	}

	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.errors.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}

	r.reported.Add(1)
	return nil
}

// Close flushes any batched messages.
func (r *KafkaReporter) Close() error {
	err := r.writer.Close()
	logrus.WithFields(logrus.Fields{
		"topic":          r.opts.Topic,
		"total_reported": r.reported.Load(),
		"total_errors":   r.errors.Load(),
	}).Info("kafka sink closed")
	if err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
