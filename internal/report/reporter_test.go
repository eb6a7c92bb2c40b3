package report

import (
	"path/filepath"
	"strings"
	"testing"

	"firestige.xyz/strix/internal/config"
)

func TestBuild_ConsoleByDefault(t *testing.T) {
	reporters, err := Build([]config.SinkConfig{{Type: "console"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		for _, r := range reporters {
			r.Close()
		}
	}()

	if len(reporters) != 1 {
		t.Fatalf("built %d reporters, want 1", len(reporters))
	}
	if reporters[0].Name() != "console" {
		t.Errorf("Name() = %q, want console", reporters[0].Name())
	}
}

func TestBuild_Multiple(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")
	reporters, err := Build([]config.SinkConfig{
		{Type: "console", Options: map[string]any{"denies_only": true}},
		{Type: "pcap", Options: map[string]any{"path": path}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		for _, r := range reporters {
			r.Close()
		}
	}()

	if len(reporters) != 2 {
		t.Fatalf("built %d reporters, want 2", len(reporters))
	}
	if reporters[0].Name() != "console" || reporters[1].Name() != "pcap" {
		t.Errorf("names = %q, %q; want console, pcap", reporters[0].Name(), reporters[1].Name())
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := Build([]config.SinkConfig{{Type: "syslog"}})
	if err == nil {
		t.Fatal("unknown sink type was accepted")
	}
	if !strings.Contains(err.Error(), "syslog") {
		t.Errorf("error %q does not name the offending type", err)
	}
}

func TestBuild_ErrorNamesSink(t *testing.T) {
	_, err := Build([]config.SinkConfig{
		{Type: "console"},
		{Type: "pcap"}, // missing path
	})
	if err == nil {
		t.Fatal("pcap sink without a path was accepted")
	}
	if !strings.Contains(err.Error(), "sink 1") {
		t.Errorf("error %q does not name the failing sink index", err)
	}
}
