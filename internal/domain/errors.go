package domain

import "errors"

// Sentinel errors for the verification-resolution-issuance pipeline.
// Components wrap these with fmt.Errorf("context: %w", ...) so the
// handler can branch with errors.Is while logs keep the detail.
var (
	// ErrIdPUnreachable covers network, DNS, TLS, and timeout failures
	// while talking to the identity provider.
	ErrIdPUnreachable = errors.New("identity provider unreachable")

	// ErrIdPRejected means the provider answered with a non-2xx status.
	ErrIdPRejected = errors.New("identity provider rejected the request")

	// ErrIdPMalformed means the provider response did not parse into
	// the expected introspection shape.
	ErrIdPMalformed = errors.New("malformed identity provider response")

	// ErrTokenInvalid means the provider inspected the token and
	// reported it invalid. Expected during normal operation.
	ErrTokenInvalid = errors.New("invalid access token")

	// ErrStoreRequest covers transport and parse failures against the
	// user store, on lookup or create.
	ErrStoreRequest = errors.New("user store request failed")

	// ErrAmbiguousIdentity means the store holds two or more user rows
	// for one external identity. The store invariant is broken; the
	// resolver must never pick one.
	ErrAmbiguousIdentity = errors.New("multiple users share one external identity")

	// ErrCreateConflict means a concurrent request inserted the same
	// external identity first. Recoverable by re-running the lookup.
	ErrCreateConflict = errors.New("user created concurrently")

	// ErrSigningFailure means the session token could not be signed.
	ErrSigningFailure = errors.New("session token signing failed")

	// ErrClockFailure means the time source was unavailable during
	// token issuance.
	ErrClockFailure = errors.New("system clock unavailable")
)
