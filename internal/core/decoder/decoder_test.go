package decoder

import (
	"net/netip"
	"reflect"
	"testing"

	"firestige.xyz/strix/internal/core"
)

// makeUDPFrame builds a complete Ethernet + IPv4 + UDP frame:
// 192.168.1.1:5000 → 192.168.1.2:53.
func makeUDPFrame() []byte {
	frame := make([]byte, 42)

	// Ethernet header (14 bytes)
	// Dst MAC: 00:11:22:33:44:55
	frame[0], frame[1], frame[2] = 0x00, 0x11, 0x22
	frame[3], frame[4], frame[5] = 0x33, 0x44, 0x55
	// Src MAC: AA:BB:CC:DD:EE:FF
	frame[6], frame[7], frame[8] = 0xAA, 0xBB, 0xCC
	frame[9], frame[10], frame[11] = 0xDD, 0xEE, 0xFF
	// EtherType: IPv4 (0x0800)
	frame[12], frame[13] = 0x08, 0x00

	// IPv4 header (20 bytes)
	frame[14] = 0x45                  // Version 4, IHL 5
	frame[15] = 0x00                  // DSCP, ECN
	frame[16], frame[17] = 0x00, 0x1C // Total Length: 28
	frame[18], frame[19] = 0x12, 0x34 // Identification
	frame[20], frame[21] = 0x00, 0x00 // Flags, Fragment Offset
	frame[22] = 0x40                  // TTL: 64
	frame[23] = 0x11                  // Protocol: UDP (17)
	frame[24], frame[25] = 0x00, 0x00 // Checksum (not calculated)
	// Src IP: 192.168.1.1
	frame[26], frame[27], frame[28], frame[29] = 192, 168, 1, 1
	// Dst IP: 192.168.1.2
	frame[30], frame[31], frame[32], frame[33] = 192, 168, 1, 2

	// UDP header (8 bytes)
	frame[34], frame[35] = 0x13, 0x88 // Src Port: 5000
	frame[36], frame[37] = 0x00, 0x35 // Dst Port: 53
	frame[38], frame[39] = 0x00, 0x08 // Length
	frame[40], frame[41] = 0x00, 0x00 // Checksum

	return frame
}

// makeTCPFrame builds an Ethernet + IPv4 + TCP frame to port 80.
func makeTCPFrame() []byte {
	frame := makeUDPFrame()[:34]
	frame[16], frame[17] = 0x00, 0x28 // Total Length: 40
	frame[23] = 0x06                  // Protocol: TCP (6)

	tcp := make([]byte, 20)
	tcp[0], tcp[1] = 0xC0, 0x00 // Src Port: 49152
	tcp[2], tcp[3] = 0x00, 0x50 // Dst Port: 80
	tcp[12] = 0x50              // Data Offset 5
	tcp[13] = 0x02              // Flags: SYN

	return append(frame, tcp...)
}

// makeICMPFrame builds an Ethernet + IPv4 + ICMP echo request frame.
func makeICMPFrame() []byte {
	frame := makeUDPFrame()[:34]
	frame[23] = 0x01 // Protocol: ICMP (1)

	icmp := []byte{
		0x08, 0x00, // Type: Echo Request, Code 0
		0x00, 0x00, // Checksum
		0x00, 0x01, // Identifier
		0x00, 0x01, // Sequence
	}

	return append(frame, icmp...)
}

func TestStandardDecoderUDP(t *testing.T) {
	d := NewStandardDecoder()

	p := d.Decode(makeUDPFrame())

	if p.Status != core.StatusOK {
		t.Fatalf("Expected StatusOK, got %v", p.Status)
	}

	expectedSrcMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	if p.Ethernet.SrcMAC != expectedSrcMAC {
		t.Errorf("Expected SrcMAC %v, got %v", expectedSrcMAC, p.Ethernet.SrcMAC)
	}
	if p.Ethernet.EtherType != core.EtherTypeIPv4 {
		t.Errorf("Expected EtherType 0x0800, got 0x%04x", p.Ethernet.EtherType)
	}

	if p.IP.Version != 4 {
		t.Errorf("Expected IP version 4, got %d", p.IP.Version)
	}
	if p.IP.Protocol != core.ProtoUDP {
		t.Errorf("Expected protocol 17 (UDP), got %d", p.IP.Protocol)
	}
	expectedSrc := netip.MustParseAddr("192.168.1.1")
	if p.IP.SrcIP != expectedSrc {
		t.Errorf("Expected SrcIP %v, got %v", expectedSrc, p.IP.SrcIP)
	}

	if !p.HasPort {
		t.Fatal("Expected HasPort=true for complete UDP frame")
	}
	if p.Transport.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", p.Transport.SrcPort)
	}
	if p.Transport.DstPort != 53 {
		t.Errorf("Expected DstPort 53, got %d", p.Transport.DstPort)
	}

	if p.WireLen != 42 {
		t.Errorf("Expected WireLen 42, got %d", p.WireLen)
	}
}

func TestStandardDecoderTCP(t *testing.T) {
	d := NewStandardDecoder()

	p := d.Decode(makeTCPFrame())

	if p.Status != core.StatusOK {
		t.Fatalf("Expected StatusOK, got %v", p.Status)
	}
	if p.IP.Protocol != core.ProtoTCP {
		t.Errorf("Expected protocol 6 (TCP), got %d", p.IP.Protocol)
	}
	if !p.HasPort {
		t.Fatal("Expected HasPort=true for complete TCP frame")
	}
	if p.Transport.DstPort != 80 {
		t.Errorf("Expected DstPort 80, got %d", p.Transport.DstPort)
	}
}

func TestStandardDecoderICMP(t *testing.T) {
	d := NewStandardDecoder()

	p := d.Decode(makeICMPFrame())

	if p.Status != core.StatusOK {
		t.Fatalf("Expected StatusOK, got %v", p.Status)
	}
	if p.IP.Protocol != core.ProtoICMP {
		t.Errorf("Expected protocol 1 (ICMP), got %d", p.IP.Protocol)
	}
	if p.HasPort {
		t.Error("Expected HasPort=false for ICMP")
	}
	if p.Transport.DstPort != 0 {
		t.Errorf("Expected zero DstPort for ICMP, got %d", p.Transport.DstPort)
	}
}

func TestStandardDecoderNonIP(t *testing.T) {
	d := NewStandardDecoder()

	// ARP request frame
	frame := makeUDPFrame()[:14]
	frame[12], frame[13] = 0x08, 0x06 // EtherType: ARP
	frame = append(frame, make([]byte, 28)...)

	p := d.Decode(frame)

	if p.Status != core.StatusNonIP {
		t.Fatalf("Expected StatusNonIP, got %v", p.Status)
	}
	// The Ethernet layer is still recorded
	if p.Ethernet.EtherType != core.EtherTypeARP {
		t.Errorf("Expected EtherType 0x0806, got 0x%04x", p.Ethernet.EtherType)
	}
	if p.IP.SrcIP.IsValid() {
		t.Error("Expected no IP fields for non-IP frame")
	}
}

func TestStandardDecoderTruncated(t *testing.T) {
	d := NewStandardDecoder()

	cases := map[string][]byte{
		"empty":            {},
		"three bytes":      {0x01, 0x02, 0x03},
		"one short of eth": make([]byte, 13),
		"eth only, IPv4":   makeUDPFrame()[:14],
		"partial IP":       makeUDPFrame()[:25],
	}

	for name, data := range cases {
		p := d.Decode(data)
		if p.Status != core.StatusTruncated {
			t.Errorf("%s: expected StatusTruncated, got %v", name, p.Status)
		}
	}
}

func TestStandardDecoderTruncatedTransport(t *testing.T) {
	d := NewStandardDecoder()

	// Full IP header, then only 4 of the 8 UDP bytes
	p := d.Decode(makeUDPFrame()[:38])

	if p.Status != core.StatusTruncatedTransport {
		t.Fatalf("Expected StatusTruncatedTransport, got %v", p.Status)
	}
	// IP-layer fields survive
	expectedSrc := netip.MustParseAddr("192.168.1.1")
	if p.IP.SrcIP != expectedSrc {
		t.Errorf("Expected SrcIP %v, got %v", expectedSrc, p.IP.SrcIP)
	}
	if p.IP.Protocol != core.ProtoUDP {
		t.Errorf("Expected protocol 17, got %d", p.IP.Protocol)
	}
	// But the port is unusable
	if p.HasPort {
		t.Error("Expected HasPort=false for truncated transport header")
	}
}

func TestStandardDecoderFragment(t *testing.T) {
	d := NewStandardDecoder()

	// Non-first fragment: offset 185, no transport header in the payload
	frame := makeUDPFrame()
	frame[20], frame[21] = 0x00, 0xB9

	p := d.Decode(frame)

	if p.Status != core.StatusOK {
		t.Fatalf("Expected StatusOK, got %v", p.Status)
	}
	if !p.IP.Fragment {
		t.Error("Expected Fragment=true")
	}
	if p.HasPort {
		t.Error("Expected HasPort=false for fragment")
	}
}

func TestStandardDecoderVLAN(t *testing.T) {
	d := NewStandardDecoder()

	// Insert a VLAN tag between the MACs and the IPv4 payload
	base := makeUDPFrame()
	frame := make([]byte, 0, len(base)+4)
	frame = append(frame, base[:12]...)
	frame = append(frame, 0x81, 0x00, 0x00, 0x64) // VLAN ID 100
	frame = append(frame, base[12:]...)

	p := d.Decode(frame)

	if p.Status != core.StatusOK {
		t.Fatalf("Expected StatusOK, got %v", p.Status)
	}
	if len(p.Ethernet.VLANs) != 1 || p.Ethernet.VLANs[0] != 100 {
		t.Errorf("Expected VLANs [100], got %v", p.Ethernet.VLANs)
	}
	if p.Transport.DstPort != 53 {
		t.Errorf("Expected DstPort 53 behind VLAN tag, got %d", p.Transport.DstPort)
	}
}

func TestStandardDecoderIdempotent(t *testing.T) {
	d := NewStandardDecoder()
	frame := makeUDPFrame()

	first := d.Decode(frame)
	second := d.Decode(frame)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Decode not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func BenchmarkStandardDecoderDecode(b *testing.B) {
	d := NewStandardDecoder()
	frame := makeUDPFrame()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := d.Decode(frame)
		if p.Status != core.StatusOK {
			b.Fatalf("unexpected status %v", p.Status)
		}
	}
}
