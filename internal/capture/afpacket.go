package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket/afpacket"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"

	"firestige.xyz/strix/internal/utils"
)

// AFPacketConfig holds the knobs for a live AF_PACKET capture.
type AFPacketConfig struct {
	Interface    string
	SnapLen      int
	BufferSizeMB int
	TimeoutMS    int
	Promiscuous  bool
	FanoutID     uint16
	BPF          string
}

// AFPacketSource reads frames from a TPACKET_V3 ring on a live interface.
type AFPacketSource struct {
	handle *afpacket.TPacket

	iface       string
	promiscLink netlink.Link
}

// NewAFPacketSource opens a TPacket v3 ring on cfg.Interface, optionally
// joining a fanout group, attaching a BPF prefilter and switching the
// interface to promiscuous mode. Close undoes the promiscuous switch.
func NewAFPacketSource(cfg AFPacketConfig) (*AFPacketSource, error) {
	geo, err := computeRingGeometry(cfg.SnapLen, cfg.BufferSizeMB)
	if err != nil {
		return nil, err
	}

	handle, err := afpacket.NewTPacket(
		afpacket.OptInterface(cfg.Interface),
		afpacket.OptFrameSize(geo.frameSize),
		afpacket.OptBlockSize(geo.blockSize),
		afpacket.OptNumBlocks(geo.numBlocks),
		afpacket.OptPollTimeout(time.Duration(cfg.TimeoutMS)*time.Millisecond),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open AF_PACKET ring on %s: %w", cfg.Interface, err)
	}

	s := &AFPacketSource{handle: handle, iface: cfg.Interface}

	if cfg.FanoutID > 0 {
		if err := handle.SetFanout(afpacket.FanoutHashWithDefrag, cfg.FanoutID); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to join fanout group %d: %w", cfg.FanoutID, err)
		}
	}

	if cfg.BPF != "" {
		raw, err := utils.CompileBpf(cfg.BPF, cfg.SnapLen)
		if err != nil {
			handle.Close()
			return nil, err
		}
		if err := handle.SetBPF(raw); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to attach BPF filter: %w", err)
		}
	}

	if cfg.Promiscuous {
		if err := s.enablePromiscuous(); err != nil {
			handle.Close()
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"interface":   cfg.Interface,
		"frame_size":  geo.frameSize,
		"block_size":  geo.blockSize,
		"num_blocks":  geo.numBlocks,
		"promiscuous": cfg.Promiscuous,
	}).Info("AF_PACKET source opened")

	return s, nil
}

func (s *AFPacketSource) enablePromiscuous() error {
	link, err := netlink.LinkByName(s.iface)
	if err != nil {
		return fmt.Errorf("failed to look up interface %s: %w", s.iface, err)
	}
	if err := netlink.SetPromiscOn(link); err != nil {
		return fmt.Errorf("failed to enable promiscuous mode on %s: %w", s.iface, err)
	}
	s.promiscLink = link
	return nil
}

// ReadPacket returns a copy of the next frame from the ring. The poll
// timeout surfaces as ErrTimeout.
func (s *AFPacketSource) ReadPacket() ([]byte, error) {
	data, _, err := s.handle.ReadPacketData()
	return data, err
}

// Stats reports kernel counters accumulated since the ring was opened.
func (s *AFPacketSource) Stats() (Stats, error) {
	_, v3, err := s.handle.SocketStats()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read socket stats: %w", err)
	}
	return Stats{Received: uint64(v3.Packets()), Dropped: uint64(v3.Drops())}, nil
}

// Close tears down the ring and restores the interface's promiscuous flag.
func (s *AFPacketSource) Close() error {
	s.handle.Close()
	if s.promiscLink != nil {
		if err := netlink.SetPromiscOff(s.promiscLink); err != nil {
			return fmt.Errorf("failed to disable promiscuous mode on %s: %w", s.iface, err)
		}
		s.promiscLink = nil
	}
	return nil
}
