// Package config handles agent configuration loading using viper and
// rules-file parsing.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level agent configuration.
// Maps to the `strix:` root key in YAML.
type Config struct {
	Capture  CaptureConfig  `mapstructure:"capture"`
	Firewall FirewallConfig `mapstructure:"firewall"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Report   ReportConfig   `mapstructure:"report"`
}

// ─── Capture ───

// CaptureConfig configures the AF_PACKET capture source.
type CaptureConfig struct {
	Interface    string `mapstructure:"interface"`
	SnapLen      int    `mapstructure:"snaplen"`
	BufferSizeMB int    `mapstructure:"buffer_size_mb"`
	TimeoutMS    int    `mapstructure:"timeout_ms"`
	Promiscuous  bool   `mapstructure:"promiscuous"`
	FanoutID     int    `mapstructure:"fanout_id"` // 0 = no fanout group
	BPF          string `mapstructure:"bpf"`       // optional kernel prefilter expression
}

// ─── Firewall ───

// FirewallConfig points at the rules file.
type FirewallConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// ─── Pipeline ───

// PipelineConfig sizes the classification pipeline.
type PipelineConfig struct {
	Workers   int `mapstructure:"workers"` // 0 = GOMAXPROCS
	QueueSize int `mapstructure:"queue_size"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // debug / info / warn / error
	Format string           `mapstructure:"format"` // json / text
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Report ───

// ReportConfig lists the decision sinks.
type ReportConfig struct {
	Sinks []SinkConfig `mapstructure:"sinks"`
}

// SinkConfig selects one sink type with its type-specific options.
type SinkConfig struct {
	Type    string         `mapstructure:"type"` // console | pcap | kafka
	Options map[string]any `mapstructure:"options"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `strix: ...`.
type configRoot struct {
	Strix Config `mapstructure:"strix"`
}

// Load loads configuration from file.
// The YAML file uses `strix:` as root key; env vars use the STRIX_ prefix
// through the key replacer (e.g. key "strix.log.level" → env "STRIX_LOG_LEVEL").
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Strix

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading a file.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal defaults: %w", err)
	}
	cfg := root.Strix

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "strix." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("strix.capture.snaplen", 65535)
	v.SetDefault("strix.capture.buffer_size_mb", 8)
	v.SetDefault("strix.capture.timeout_ms", 100)
	v.SetDefault("strix.capture.promiscuous", true)
	v.SetDefault("strix.capture.fanout_id", 0)

	// Firewall defaults
	v.SetDefault("strix.firewall.rules_file", "/etc/strix/rules.yml")

	// Pipeline defaults
	v.SetDefault("strix.pipeline.workers", 0)
	v.SetDefault("strix.pipeline.queue_size", 8192)

	// Log defaults
	v.SetDefault("strix.log.level", "info")
	v.SetDefault("strix.log.format", "text")
	v.SetDefault("strix.log.file.enabled", false)
	v.SetDefault("strix.log.file.path", "/var/log/strix/strix.log")
	v.SetDefault("strix.log.file.rotation.max_size_mb", 100)
	v.SetDefault("strix.log.file.rotation.max_age_days", 30)
	v.SetDefault("strix.log.file.rotation.max_backups", 5)
	v.SetDefault("strix.log.file.rotation.compress", true)

	// Metrics defaults
	v.SetDefault("strix.metrics.enabled", true)
	v.SetDefault("strix.metrics.listen", ":9091")
	v.SetDefault("strix.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime
// defaults. The capture interface is deliberately not required here: replay
// and validate run without one, the start command checks it itself.
func (cfg *Config) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}

	if cfg.Capture.SnapLen <= 0 || cfg.Capture.SnapLen > 256*1024 {
		return fmt.Errorf("invalid capture snaplen: %d", cfg.Capture.SnapLen)
	}
	if cfg.Capture.BufferSizeMB <= 0 {
		return fmt.Errorf("invalid capture buffer_size_mb: %d", cfg.Capture.BufferSizeMB)
	}
	if cfg.Capture.TimeoutMS <= 0 {
		return fmt.Errorf("invalid capture timeout_ms: %d", cfg.Capture.TimeoutMS)
	}
	if cfg.Capture.FanoutID < 0 || cfg.Capture.FanoutID > 65535 {
		return fmt.Errorf("invalid capture fanout_id: %d (must fit uint16)", cfg.Capture.FanoutID)
	}

	if cfg.Pipeline.Workers < 0 {
		return fmt.Errorf("invalid pipeline workers: %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.QueueSize <= 0 {
		return fmt.Errorf("invalid pipeline queue_size: %d", cfg.Pipeline.QueueSize)
	}

	if cfg.Firewall.RulesFile == "" {
		return fmt.Errorf("firewall.rules_file is required")
	}

	// No sinks configured means log decisions to the console
	if len(cfg.Report.Sinks) == 0 {
		cfg.Report.Sinks = []SinkConfig{{Type: "console"}}
	}
	for i, sink := range cfg.Report.Sinks {
		switch sink.Type {
		case "console", "pcap", "kafka":
		default:
			return fmt.Errorf("unsupported sink type %q (sink %d)", sink.Type, i)
		}
	}

	return nil
}
