package firewall

import (
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/core/decoder"
)

// Engine ties the header decoder and a ruleset into a single
// classification call. It holds no mutable state: concurrent Classify
// calls from a worker pool need no synchronization.
type Engine struct {
	decoder decoder.Decoder
	rules   *Ruleset
}

// New builds an engine over the given ruleset using the standard decoder.
func New(rs *Ruleset) *Engine {
	return &Engine{
		decoder: decoder.NewStandardDecoder(),
		rules:   rs,
	}
}

// Classify decodes one raw frame and applies the rule table. Every input,
// however malformed, yields a Decision; nothing panics, blocks or retries.
func (e *Engine) Classify(data []byte) core.Decision {
	p := e.decoder.Decode(data)
	return e.rules.Decide(&p)
}

// Ruleset returns the engine's immutable rule table.
func (e *Engine) Ruleset() *Ruleset {
	return e.rules
}
