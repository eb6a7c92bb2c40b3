// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// EtherType values the decoder recognizes.
const (
	EtherTypeIPv4 = 0x0800
	EtherTypeARP  = 0x0806
	EtherTypeVLAN = 0x8100
	EtherTypeQinQ = 0x88A8
)

// IP protocol numbers (IANA). ProtoAny doubles as the rule wildcard, so
// HOPOPT (0) is not matchable by number.
const (
	ProtoAny  uint8 = 0
	ProtoICMP uint8 = 1
	ProtoTCP  uint8 = 6
	ProtoUDP  uint8 = 17
)

var protocolNames = map[uint8]string{
	ProtoICMP: "icmp",
	ProtoTCP:  "tcp",
	ProtoUDP:  "udp",
}

// ProtocolName returns the lowercase name for an IP protocol number,
// or "unknown" for anything the engine does not classify by name.
func ProtocolName(p uint8) string {
	if n, ok := protocolNames[p]; ok {
		return n
	}
	return "unknown"
}

// EthernetHeader represents the L2 Ethernet frame header.
type EthernetHeader struct {
	DstMAC    [6]byte
	SrcMAC    [6]byte
	EtherType uint16   // 0x0800=IPv4, 0x0806=ARP, ...
	VLANs     []uint16 // 0~2 VLAN IDs (QinQ carries 2)
}

// IPv4Header represents the L3 IPv4 header.
type IPv4Header struct {
	Version   uint8
	HeaderLen int // IHL * 4, 20..60 bytes
	Protocol  uint8
	TotalLen  uint16 // total length as declared on the wire
	Fragment  bool   // second or later fragment, or MF set
	SrcIP     netip.Addr
	DstIP     netip.Addr
}

// TransportHeader represents the L4 header fields the engine matches on.
// Only ports are extracted; anything deeper is not inspected.
type TransportHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}
