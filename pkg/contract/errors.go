// Copyright 2025 Certen Protocol

package contract

import "errors"

// Sentinel errors surfaced by the contract state machine and the stores it
// composes. Checked with errors.Is/errors.As at the HTTP boundary to select
// a status code, following the teacher's fmt.Errorf("...: %w", err) wrapping
// convention throughout.
var (
	// ErrValidation is returned when a contract document violates one of
	// the shape invariants; surfaced as HTTP 400.
	ErrValidation = errors.New("contract: validation failed")

	// ErrAuthFailed is returned by the Authentication Gate on signature
	// verification failure; surfaced as HTTP 401.
	ErrAuthFailed = errors.New("contract: authentication failed")

	// ErrForbidden is returned when the caller is not authorized for the
	// requested operation on this contract; surfaced as HTTP 403.
	ErrForbidden = errors.New("contract: forbidden")

	// ErrNotFound is returned when a contract or step is absent; surfaced
	// as HTTP 404.
	ErrNotFound = errors.New("contract: not found")

	// ErrStepAlreadyComplete is returned on a sign attempt against a step
	// that is already fully signed; surfaced as HTTP 400.
	ErrStepAlreadyComplete = errors.New("contract: step already complete")

	// ErrInvalidStepSignature is returned when a step signature fails to
	// verify against its canonical message; surfaced as HTTP 401.
	ErrInvalidStepSignature = errors.New("contract: invalid step signature")

	// ErrKeyNotFound signals a missing keypair binding for a contract,
	// a data-integrity error; surfaced as HTTP 500. Never silently re-minted.
	ErrKeyNotFound = errors.New("contract: key not found")

	// ErrStoreError wraps a local filesystem I/O failure; surfaced as HTTP 500.
	ErrStoreError = errors.New("contract: store error")
)
