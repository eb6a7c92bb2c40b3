package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
strix:
  capture:
    interface: "eth0"
    snaplen: 2048
    buffer_size_mb: 16
    promiscuous: false
    bpf: "ip"
  firewall:
    rules_file: "/tmp/rules.yml"
  pipeline:
    workers: 4
    queue_size: 1024
  log:
    level: "debug"
    format: "json"
  metrics:
    enabled: true
    listen: "0.0.0.0:9090"
  report:
    sinks:
      - type: "console"
        options:
          denies_only: true
      - type: "pcap"
        options:
          path: "/tmp/denied.pcap"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Capture.Interface != "eth0" {
		t.Errorf("Expected interface eth0, got %s", cfg.Capture.Interface)
	}
	if cfg.Capture.SnapLen != 2048 {
		t.Errorf("Expected snaplen 2048, got %d", cfg.Capture.SnapLen)
	}
	if cfg.Capture.Promiscuous {
		t.Error("Expected promiscuous false")
	}
	if cfg.Capture.BPF != "ip" {
		t.Errorf("Expected bpf \"ip\", got %q", cfg.Capture.BPF)
	}
	if cfg.Firewall.RulesFile != "/tmp/rules.yml" {
		t.Errorf("Expected rules file /tmp/rules.yml, got %s", cfg.Firewall.RulesFile)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
	if cfg.Metrics.Listen != "0.0.0.0:9090" {
		t.Errorf("Expected metrics listen 0.0.0.0:9090, got %s", cfg.Metrics.Listen)
	}
	if len(cfg.Report.Sinks) != 2 {
		t.Fatalf("Expected 2 sinks, got %d", len(cfg.Report.Sinks))
	}
	if cfg.Report.Sinks[0].Type != "console" {
		t.Errorf("Expected first sink console, got %s", cfg.Report.Sinks[0].Type)
	}
	if v, ok := cfg.Report.Sinks[0].Options["denies_only"].(bool); !ok || !v {
		t.Errorf("Expected denies_only option true, got %v", cfg.Report.Sinks[0].Options["denies_only"])
	}
}

func TestLoadDefaults(t *testing.T) {
	// Minimal config: only the interface is given
	configPath := writeConfig(t, `
strix:
  capture:
    interface: "eth0"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Capture.SnapLen != 65535 {
		t.Errorf("Expected default snaplen 65535, got %d", cfg.Capture.SnapLen)
	}
	if cfg.Capture.BufferSizeMB != 8 {
		t.Errorf("Expected default buffer_size_mb 8, got %d", cfg.Capture.BufferSizeMB)
	}
	if !cfg.Capture.Promiscuous {
		t.Error("Expected default promiscuous true")
	}
	if cfg.Firewall.RulesFile != "/etc/strix/rules.yml" {
		t.Errorf("Expected default rules file, got %s", cfg.Firewall.RulesFile)
	}
	if cfg.Pipeline.QueueSize != 8192 {
		t.Errorf("Expected default queue_size 8192, got %d", cfg.Pipeline.QueueSize)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected default metrics enabled true")
	}
	if cfg.Metrics.Listen != ":9091" {
		t.Errorf("Expected default metrics listen :9091, got %s", cfg.Metrics.Listen)
	}

	// An empty sink list falls back to a single console sink
	if len(cfg.Report.Sinks) != 1 || cfg.Report.Sinks[0].Type != "console" {
		t.Errorf("Expected default console sink, got %+v", cfg.Report.Sinks)
	}
}

func TestLoadInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
strix:
  log:
    level: "invalid"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid log level, got nil")
	}
}

func TestLoadInvalidLogFormat(t *testing.T) {
	configPath := writeConfig(t, `
strix:
  log:
    format: "xml"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid log format, got nil")
	}
}

func TestLoadInvalidSinkType(t *testing.T) {
	configPath := writeConfig(t, `
strix:
  report:
    sinks:
      - type: "syslog"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for unsupported sink type, got nil")
	}
}

func TestLoadInvalidCaptureValues(t *testing.T) {
	cases := map[string]string{
		"zero snaplen": `
strix:
  capture:
    snaplen: 0
`,
		"negative timeout": `
strix:
  capture:
    timeout_ms: -5
`,
		"fanout beyond uint16": `
strix:
  capture:
    fanout_id: 70000
`,
		"zero queue": `
strix:
  pipeline:
    queue_size: 0
`,
	}

	for name, content := range cases {
		configPath := writeConfig(t, content)
		if _, err := Load(configPath); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	configPath := writeConfig(t, `
strix:
  log:
    level: "info"
`)

	os.Setenv("STRIX_LOG_LEVEL", "debug")
	defer os.Unsetenv("STRIX_LOG_LEVEL")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug from env var, got %s", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}
