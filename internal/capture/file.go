package capture

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// FileSource replays Ethernet frames from a pcap file. ReadPacket
// returns io.EOF once the file is exhausted.
type FileSource struct {
	file     *os.File
	reader   *pcapgo.Reader
	received atomic.Uint64
}

// NewFileSource opens path for replay. Captures taken on anything other
// than an Ethernet link are rejected, since the decoder expects frames
// to start with an Ethernet header.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file: %w", err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header from %s: %w", path, err)
	}
	if lt := r.LinkType(); lt != layers.LinkTypeEthernet {
		f.Close()
		return nil, fmt.Errorf("unsupported link type %v in %s, want Ethernet", lt, path)
	}
	return &FileSource{file: f, reader: r}, nil
}

func (s *FileSource) ReadPacket() ([]byte, error) {
	data, _, err := s.reader.ReadPacketData()
	if err != nil {
		return nil, err
	}
	s.received.Add(1)
	return data, nil
}

func (s *FileSource) Stats() (Stats, error) {
	return Stats{Received: s.received.Load()}, nil
}

func (s *FileSource) Close() error {
	return s.file.Close()
}
