// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/strix/internal/core"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20
)

// decodeTransport decodes the transport header for TCP or UDP. Only the
// port pair is extracted; sequence numbers, flags and payload are not
// inspected. Protocols without ports (ICMP and the rest) never reach here.
func decodeTransport(data []byte, protocol uint8) (core.TransportHeader, error) {
	switch protocol {
	case core.ProtoTCP:
		return decodeTCP(data)
	case core.ProtoUDP:
		return decodeUDP(data)
	default:
		return core.TransportHeader{Protocol: protocol}, nil
	}
}

// decodeUDP decodes a UDP header.
func decodeUDP(data []byte) (core.TransportHeader, error) {
	if len(data) < udpHeaderLen {
		return core.TransportHeader{}, core.ErrTruncated
	}

	transport := core.TransportHeader{
		Protocol: core.ProtoUDP,
	}

	// Source Port (2 bytes at offset 0)
	transport.SrcPort = binary.BigEndian.Uint16(data[0:2])

	// Destination Port (2 bytes at offset 2)
	transport.DstPort = binary.BigEndian.Uint16(data[2:4])

	return transport, nil
}

// decodeTCP decodes a TCP header. The full 20-byte fixed header must be
// present even though only the ports are read, so a sliver of a header is
// reported as truncated rather than trusted.
func decodeTCP(data []byte) (core.TransportHeader, error) {
	if len(data) < tcpHeaderMinLen {
		return core.TransportHeader{}, core.ErrTruncated
	}

	transport := core.TransportHeader{
		Protocol: core.ProtoTCP,
	}

	// Source Port (2 bytes at offset 0)
	transport.SrcPort = binary.BigEndian.Uint16(data[0:2])

	// Destination Port (2 bytes at offset 2)
	transport.DstPort = binary.BigEndian.Uint16(data[2:4])

	return transport, nil
}
