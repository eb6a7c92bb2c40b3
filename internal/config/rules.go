package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/firewall"
)

// rulesFile is the YAML form of a rules file:
//
//	default_policy: allow
//	rules:
//	  - name: allow-http
//	    protocol: tcp
//	    port: 80
//	    action: allow
//	  - {protocol: icmp, action: deny}
//
// Decoding is strict: unknown fields and malformed values reject the whole
// file at load time rather than silently dropping a rule.
type rulesFile struct {
	DefaultPolicy string    `yaml:"default_policy"`
	Rules         []rawRule `yaml:"rules"`
}

// rawRule is the YAML form of one rule. Protocol, port and source default
// to "any"; action is required.
type rawRule struct {
	Name     string    `yaml:"name"`
	Protocol string    `yaml:"protocol"`
	Port     portValue `yaml:"port"`
	Source   string    `yaml:"source"`
	Action   string    `yaml:"action"`
}

// portValue accepts either an integer port or the string "any".
type portValue uint16

func (p *portValue) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		if s == "any" {
			*p = 0
			return nil
		}
		return fmt.Errorf("invalid port %q (want an integer or \"any\")", s)
	}

	var n int
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("invalid port %q (want an integer or \"any\")", node.Value)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", n)
	}
	*p = portValue(n)
	return nil
}

// LoadRules reads a rules file and builds the immutable ruleset.
func LoadRules(path string) (*firewall.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}

// ParseRules parses rules-file bytes into a ruleset. An empty document is
// valid and yields an empty table under the package default action.
func ParseRules(data []byte) (*firewall.Ruleset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f rulesFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return firewall.NewRuleset(nil, firewall.DefaultAction), nil
		}
		return nil, err
	}

	defaultAction, err := parsePolicy(f.DefaultPolicy)
	if err != nil {
		return nil, err
	}

	rules := make([]firewall.Rule, 0, len(f.Rules))
	for i, rr := range f.Rules {
		rule, err := ruleFromRaw(rr)
		if err != nil {
			if rr.Name != "" {
				return nil, fmt.Errorf("rule %d (%s): %w", i, rr.Name, err)
			}
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}

	return firewall.NewRuleset(rules, defaultAction), nil
}

func parsePolicy(s string) (core.Action, error) {
	switch s {
	case "":
		return firewall.DefaultAction, nil
	case "allow":
		return core.ActionAllow, nil
	case "deny":
		return core.ActionDeny, nil
	default:
		return core.ActionDeny, fmt.Errorf("invalid default_policy %q (allow or deny)", s)
	}
}

func ruleFromRaw(rr rawRule) (firewall.Rule, error) {
	r := firewall.Rule{
		Name: rr.Name,
		Port: uint16(rr.Port),
	}

	switch rr.Protocol {
	case "", "any":
		r.Protocol = core.ProtoAny
	case "icmp":
		r.Protocol = core.ProtoICMP
	case "tcp":
		r.Protocol = core.ProtoTCP
	case "udp":
		r.Protocol = core.ProtoUDP
	default:
		return r, fmt.Errorf("invalid protocol %q (tcp, udp, icmp or any)", rr.Protocol)
	}

	switch rr.Action {
	case "allow":
		r.Action = core.ActionAllow
	case "deny":
		r.Action = core.ActionDeny
	case "":
		return r, fmt.Errorf("action is required (allow or deny)")
	default:
		return r, fmt.Errorf("invalid action %q (allow or deny)", rr.Action)
	}

	if rr.Source != "" && rr.Source != "any" {
		prefix, err := parseSource(rr.Source)
		if err != nil {
			return r, err
		}
		r.Source = prefix
	}

	// Port-specific rules only ever match TCP or UDP traffic; a port on an
	// ICMP rule would silently never match, so reject it.
	if r.Port != 0 && r.Protocol != core.ProtoAny &&
		r.Protocol != core.ProtoTCP && r.Protocol != core.ProtoUDP {
		return r, fmt.Errorf("port %d cannot apply to protocol %s", r.Port, core.ProtocolName(r.Protocol))
	}

	return r, nil
}

// parseSource accepts a CIDR prefix or a bare IPv4 address (treated as /32).
func parseSource(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid source %q: %w", s, err)
		}
		if !prefix.Addr().Is4() {
			return netip.Prefix{}, fmt.Errorf("invalid source %q: only IPv4 is classified", s)
		}
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid source %q: %w", s, err)
	}
	if !addr.Is4() {
		return netip.Prefix{}, fmt.Errorf("invalid source %q: only IPv4 is classified", s)
	}
	return netip.PrefixFrom(addr, 32), nil
}
