package firewall

import "firestige.xyz/strix/internal/core"

// DefaultAction applies when no rule matches and the rules file does not
// set default_policy. Allow-by-default is the documented policy here: the
// table only blocks what it names. Operators who want a default-deny
// posture set `default_policy: deny` in the rules file; nothing else in
// the matching logic changes.
const DefaultAction = core.ActionAllow

// Ruleset is an immutable ordered rule table with an explicit default
// action. It never changes after construction, so any number of goroutines
// may call Decide concurrently without locks.
type Ruleset struct {
	rules         []Rule
	defaultAction core.Action
}

// NewRuleset copies rules into an immutable table. An empty table is
// valid: every IP packet then gets the default action.
func NewRuleset(rules []Rule, defaultAction core.Action) *Ruleset {
	rs := &Ruleset{
		rules:         make([]Rule, len(rules)),
		defaultAction: defaultAction,
	}
	copy(rs.rules, rules)
	return rs
}

// Len returns the number of rules in the table.
func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// Rules returns a copy of the table in evaluation order.
func (rs *Ruleset) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Default returns the action applied when no rule matches.
func (rs *Ruleset) Default() core.Action {
	return rs.defaultAction
}

// Decide applies the table to one parsed packet and returns exactly one
// Decision. Two outcomes bypass the table entirely:
//
//   - non-IP frames are always allowed: link-layer traffic such as ARP
//     is out of filtering scope and must keep working;
//   - truncated frames are always denied: a frame that claims more
//     header than it carries is dropped no matter what the table says.
//
// Everything else is evaluated in table order, first match wins, default
// action when nothing matches. Decide is pure: same packet, same table,
// same Decision, every time.
func (rs *Ruleset) Decide(p *core.ParsedPacket) core.Decision {
	d := core.Decision{
		Status: p.Status,
		Rule:   -1,
	}

	switch p.Status {
	case core.StatusNonIP:
		d.Action = core.ActionAllow
		d.Reason = core.ReasonNonIP
		return d
	case core.StatusTruncated:
		d.Action = core.ActionDeny
		d.Reason = core.ReasonTruncated
		return d
	}

	d.Protocol = p.IP.Protocol
	d.SrcIP = p.IP.SrcIP
	d.DstIP = p.IP.DstIP
	if p.HasPort {
		d.Port = p.Transport.DstPort
		d.HasPort = true
	}

	for i, rule := range rs.rules {
		if !rule.Matches(p) {
			continue
		}
		d.Action = rule.Action
		d.Reason = core.ReasonRule
		d.Rule = i
		d.RuleName = rule.Name
		return d
	}

	d.Action = rs.defaultAction
	d.Reason = core.ReasonDefault
	return d
}
