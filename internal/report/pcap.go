package report

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/sirupsen/logrus"

	"firestige.xyz/strix/internal/core"
)

// PcapOptions configures the pcap dump sink.
type PcapOptions struct {
	// Path of the capture file to write. Required.
	Path string `mapstructure:"path"`
	// SnapLen truncates written frames. Default 65535.
	SnapLen int `mapstructure:"snap_len"`
	// IncludeAllowed also dumps allowed frames. Default is denied only.
	IncludeAllowed bool `mapstructure:"include_allowed"`
}

// PcapReporter appends frames to a pcap file for offline analysis. The
// file is valid pcap, so tcpdump and Wireshark open it directly.
type PcapReporter struct {
	mu      sync.Mutex
	file    *os.File
	writer  *pcapgo.Writer
	opts    PcapOptions
	written atomic.Uint64
}

// NewPcapReporter creates a pcap dump reporter from its options block.
func NewPcapReporter(options map[string]any) (*PcapReporter, error) {
	var opts PcapOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("pcap sink requires 'path'")
	}
	if opts.SnapLen <= 0 {
		opts.SnapLen = 65535
	}

	f, err := os.Create(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap file: %w", err)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(opts.SnapLen), layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write pcap file header: %w", err)
	}

	return &PcapReporter{file: f, writer: w, opts: opts}, nil
}

// Name returns the sink name.
func (r *PcapReporter) Name() string {
	return "pcap"
}

// Report writes the frame behind a denied decision to the capture file.
func (r *PcapReporter) Report(_ context.Context, frame []byte, d *core.Decision) error {
	if d == nil {
		return fmt.Errorf("nil decision")
	}
	if d.Action == core.ActionAllow && !r.opts.IncludeAllowed {
		return nil
	}
	if len(frame) == 0 {
		return nil
	}

	data := frame
	if len(data) > r.opts.SnapLen {
		data = data[:r.opts.SnapLen]
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(frame),
	}

	r.mu.Lock()
	err := r.writer.WritePacket(ci, data)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	r.written.Add(1)
	return nil
}

// Close flushes and closes the capture file.
func (r *PcapReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"path":          r.opts.Path,
		"total_written": r.written.Load(),
	}).Info("pcap sink closed")
	return r.file.Close()
}
