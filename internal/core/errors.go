// Package core defines sentinel errors.
package core

import "errors"

var (
	// Packet decoding errors
	ErrTruncated       = errors.New("strix: truncated frame")
	ErrMalformedHeader = errors.New("strix: malformed header")
)
