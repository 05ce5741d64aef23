package ports

import "errors"

// Provider failure taxonomy shared by every adapter.
//
// Both classes degrade locally (a failed tile or road fetch never aborts the
// whole request); they are kept distinct so logs can tell a dead provider
// from a provider speaking the wrong schema.
var (
	// Network failure, timeout, or non-2xx status from an external provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// Response decoded but a required field was missing or inconsistent.
	ErrMalformedResponse = errors.New("malformed provider response")
)
