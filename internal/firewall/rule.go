// Package firewall evaluates parsed packets against an ordered rule table.
// Evaluation is first match wins: rules are consulted top to bottom and the
// first one whose fields all match decides the packet.
package firewall

import (
	"fmt"
	"net/netip"
	"strconv"

	"firestige.xyz/strix/internal/core"
)

// Rule is one entry of the ordered table. Zero fields are wildcards:
// Protocol 0, Port 0 and an invalid Source prefix all mean "any".
type Rule struct {
	Name     string
	Protocol uint8        // IP protocol number, 0 = any
	Port     uint16       // destination port, 0 = any
	Source   netip.Prefix // source network, zero value = any
	Action   core.Action
}

// Matches reports whether the rule applies to the packet. Wildcard fields
// always match. A port-specific rule never matches a packet whose port is
// unknown (ICMP, fragments, truncated transport headers).
func (r Rule) Matches(p *core.ParsedPacket) bool {
	if r.Protocol != core.ProtoAny && r.Protocol != p.IP.Protocol {
		return false // Protocol doesn't match
	}

	if r.Port != 0 {
		if !p.HasPort || r.Port != p.Transport.DstPort {
			return false // Port doesn't match or is unavailable
		}
	}

	if r.Source.IsValid() && !r.Source.Contains(p.IP.SrcIP) {
		return false // Source doesn't match
	}

	return true
}

// String renders the rule as one table line, e.g.
// "allow-http: allow proto=tcp port=80 src=any".
func (r Rule) String() string {
	proto := "any"
	if r.Protocol != core.ProtoAny {
		proto = core.ProtocolName(r.Protocol)
	}

	port := "any"
	if r.Port != 0 {
		port = strconv.Itoa(int(r.Port))
	}

	src := "any"
	if r.Source.IsValid() {
		src = r.Source.String()
	}

	line := fmt.Sprintf("%s proto=%s port=%s src=%s", r.Action, proto, port, src)
	if r.Name != "" {
		line = r.Name + ": " + line
	}
	return line
}
