package auth

import "errors"

// Verification error types. Missing and malformed signatures report
// without confirming whether the secret ID exists.
var (
	ErrMissingSignature = errors.New("webhook signature required in x-webhook-signature header")
	ErrInvalidFormat    = errors.New("invalid webhook signature format")
	ErrUnknownSecret    = errors.New("unknown secret ID")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
