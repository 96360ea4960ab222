package common

import "errors"

// Error taxonomy shared by every component. Package level errors wrap one of
// these so callers can classify failures with errors.Is.
var (
	// ErrNotFound transaction, log or checkpoint absent
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange inverted bounds or out of range index
	ErrInvalidRange = errors.New("invalid range")
	// ErrUnverifiable the artifact cannot be proven or would not verify on-chain
	ErrUnverifiable = errors.New("unverifiable")
	// ErrUpstreamUnavailable node or indexer unreachable
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
