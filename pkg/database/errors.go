// Copyright 2025 Certen Protocol
//
// Package database provides sentinel errors for repository operations.

package database

import "errors"

// Sentinel errors for audit ledger operations.
var (
	// ErrAuditWriteFailed wraps a failed append to the audit trail. Callers
	// treat this as non-fatal: the audit ledger is observability only.
	ErrAuditWriteFailed = errors.New("audit write failed")
)
