// Package core defines core data structures with zero external dependencies.
package core

import (
	"encoding/json"
	"fmt"
	"net/netip"
)

// ParseStatus records how far header decoding got before it had to stop.
type ParseStatus uint8

const (
	// StatusOK means all headers up to the transport layer decoded.
	StatusOK ParseStatus = iota
	// StatusNonIP means a valid Ethernet frame whose payload is not IPv4.
	// Not an error: non-IP traffic (ARP and friends) is classified, not parsed.
	StatusNonIP
	// StatusTruncated means the frame is shorter than a header it claims
	// to carry, or the IPv4 header itself is malformed.
	StatusTruncated
	// StatusTruncatedTransport means IPv4 decoded but the TCP/UDP header
	// is incomplete; IP-layer fields are usable, the port is not.
	StatusTruncatedTransport
)

func (s ParseStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNonIP:
		return "non_ip"
	case StatusTruncated:
		return "truncated"
	case StatusTruncatedTransport:
		return "truncated_transport"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParsedPacket is the bounds-checked view over one captured frame. Every
// field was read inside WireLen; nothing points back into the frame buffer.
type ParsedPacket struct {
	Status    ParseStatus
	Ethernet  EthernetHeader
	IP        IPv4Header
	Transport TransportHeader
	HasPort   bool // destination port extracted (TCP/UDP with a full header)
	WireLen   int  // bytes that were available for decoding
}

// Action is the verdict side of a decision.
type Action uint8

const (
	// ActionDeny is the zero value so that an uninitialized action never
	// lets a frame through.
	ActionDeny Action = iota
	ActionAllow
)

func (a Action) String() string {
	if a == ActionAllow {
		return "allow"
	}
	return "deny"
}

// Reason records which part of the policy produced a decision.
type Reason uint8

const (
	ReasonRule      Reason = iota // an explicit rule matched
	ReasonDefault                 // no rule matched, default policy applied
	ReasonNonIP                   // non-IPv4 frame, always allowed
	ReasonTruncated               // malformed/short frame, always denied
)

func (r Reason) String() string {
	switch r {
	case ReasonRule:
		return "rule"
	case ReasonDefault:
		return "default"
	case ReasonNonIP:
		return "non_ip"
	case ReasonTruncated:
		return "truncated"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Decision is the outcome of classifying one frame. Created fresh per frame;
// it has no identity beyond the call that produced it.
type Decision struct {
	Action   Action
	Reason   Reason
	Status   ParseStatus
	Protocol uint8 // IP protocol number; 0 for non-IP frames
	Port     uint16
	HasPort  bool
	SrcIP    netip.Addr
	DstIP    netip.Addr
	Rule     int    // index of the matched rule, -1 when none applied
	RuleName string // optional name of the matched rule
}

// PortString renders the destination port for logs, "n/a" when the packet
// carries none.
func (d Decision) PortString() string {
	if !d.HasPort {
		return "n/a"
	}
	return fmt.Sprintf("%d", d.Port)
}

func (d Decision) String() string {
	rule := "default"
	if d.Reason == ReasonRule {
		rule = fmt.Sprintf("#%d", d.Rule)
		if d.RuleName != "" {
			rule = d.RuleName
		}
	}
	return fmt.Sprintf("%s proto=%s port=%s src=%s reason=%s rule=%s",
		d.Action, ProtocolName(d.Protocol), d.PortString(), d.SrcIP, d.Reason, rule)
}

// MarshalJSON renders a decision as a flat event for export sinks.
func (d Decision) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"action":   d.Action.String(),
		"reason":   d.Reason.String(),
		"status":   d.Status.String(),
		"protocol": ProtocolName(d.Protocol),
	}
	if d.SrcIP.IsValid() {
		out["src_ip"] = d.SrcIP.String()
	}
	if d.DstIP.IsValid() {
		out["dst_ip"] = d.DstIP.String()
	}
	if d.HasPort {
		out["dst_port"] = d.Port
	}
	if d.Reason == ReasonRule {
		out["rule"] = d.Rule
		if d.RuleName != "" {
			out["rule_name"] = d.RuleName
		}
	}
	return json.Marshal(out)
}
