// Package decoder implements bounds-checked L2-L4 header decoding.
package decoder

import "firestige.xyz/strix/internal/core"

// Decoder turns a raw link-layer frame into a structured, bounds-checked view.
type Decoder interface {
	Decode(data []byte) core.ParsedPacket
}

// StandardDecoder is the default Decoder. It is stateless and safe for
// concurrent use: Decode never mutates the input buffer and keeps no state
// between calls, so identical input always yields an identical ParsedPacket.
type StandardDecoder struct{}

// NewStandardDecoder creates a decoder for Ethernet/IPv4/TCP/UDP headers.
func NewStandardDecoder() *StandardDecoder {
	return &StandardDecoder{}
}

// Decode parses data as Ethernet → IPv4 → transport and classifies the
// outcome. No offset is ever read past len(data); a frame that claims more
// header than it carries comes back StatusTruncated with whatever layers
// decoded cleanly before the cut.
func (d *StandardDecoder) Decode(data []byte) core.ParsedPacket {
	p := core.ParsedPacket{WireLen: len(data)}

	eth, payload, err := decodeEthernet(data)
	if err != nil {
		p.Status = core.StatusTruncated
		return p
	}
	p.Ethernet = eth

	if eth.EtherType != core.EtherTypeIPv4 {
		// ARP, LLDP, IPv6 and friends all land here. Not an error:
		// the caller decides what non-IP traffic means.
		p.Status = core.StatusNonIP
		return p
	}

	ip, payload, err := decodeIPv4(payload)
	if err != nil {
		p.Status = core.StatusTruncated
		return p
	}
	p.IP = ip

	// Non-first fragments carry payload bytes where a transport header
	// would be, and even first fragments are not reassembled here. Ports
	// are left unset for all fragments.
	if ip.Fragment {
		p.Status = core.StatusOK
		return p
	}

	switch ip.Protocol {
	case core.ProtoTCP, core.ProtoUDP:
		transport, err := decodeTransport(payload, ip.Protocol)
		if err != nil {
			p.Status = core.StatusTruncatedTransport
			return p
		}
		p.Transport = transport
		p.HasPort = true
	}

	p.Status = core.StatusOK
	return p
}
