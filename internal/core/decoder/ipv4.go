// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"net/netip"

	"firestige.xyz/strix/internal/core"
)

const ipv4HeaderMinLen = 20

// decodeIPv4 decodes an IPv4 header. Returns the IPv4Header and the
// remaining payload. The header length is taken from the IHL field, so the
// buffer must cover the full declared header before any payload exists.
func decodeIPv4(data []byte) (core.IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, core.ErrTruncated
	}

	// Version (upper 4 bits of first byte). The EtherType already said
	// IPv4; a disagreeing version nibble means the header is garbage.
	version := data[0] >> 4
	if version != 4 {
		return core.IPv4Header{}, nil, core.ErrMalformedHeader
	}

	// IHL (lower 4 bits of first byte), in 32-bit words
	ihl := uint8(data[0] & 0x0F)
	headerLen := int(ihl) * 4

	if headerLen < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, core.ErrMalformedHeader
	}
	if len(data) < headerLen {
		return core.IPv4Header{}, nil, core.ErrTruncated
	}

	ip := core.IPv4Header{
		Version:   version,
		HeaderLen: headerLen,
	}

	// Total Length (2 bytes at offset 2)
	ip.TotalLen = binary.BigEndian.Uint16(data[2:4])

	// Flags and Fragment Offset (2 bytes at offset 6)
	flagsOffset := binary.BigEndian.Uint16(data[6:8])
	moreFragments := flagsOffset&0x2000 != 0
	fragmentOffset := flagsOffset & 0x1FFF
	ip.Fragment = moreFragments || fragmentOffset != 0

	// Protocol (1 byte at offset 9)
	ip.Protocol = data[9]

	// Source IP (4 bytes at offset 12)
	srcIP, ok := netip.AddrFromSlice(data[12:16])
	if !ok {
		return ip, nil, core.ErrMalformedHeader
	}
	ip.SrcIP = srcIP

	// Destination IP (4 bytes at offset 16)
	dstIP, ok := netip.AddrFromSlice(data[16:20])
	if !ok {
		return ip, nil, core.ErrMalformedHeader
	}
	ip.DstIP = dstIP

	// Payload starts after the declared header, options included
	payload := data[headerLen:]
	return ip, payload, nil
}
