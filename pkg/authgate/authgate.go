// Copyright 2025 Certen Protocol
//
// Package authgate is the authentication gate (C7): a uniform guard for
// mutating entry points, checking the endpoint-auth signature over the
// canonical message. It performs no authorization - that depends on
// contract contents and is the state machine's job.
package authgate

import (
	"fmt"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/signature"
)

// Request carries the fields every mutating entry point requires.
type Request struct {
	Signature string
	Timestamp string
	UserUUID  string
	PubKey    string
}

// Verify checks signature over "timestamp ∥ userUUID" for operations
// without a contract (create contract, create user).
func Verify(req Request) error {
	canonical := req.Timestamp + req.UserUUID
	if !signature.Verify(req.Signature, canonical, req.PubKey) {
		return fmt.Errorf("%w", contract.ErrAuthFailed)
	}
	return nil
}

// VerifyWithContract checks signature over
// "timestamp ∥ userUUID ∥ contractUUID" for operations scoped to a contract.
func VerifyWithContract(req Request, contractUUID string) error {
	canonical := req.Timestamp + req.UserUUID + contractUUID
	if !signature.Verify(req.Signature, canonical, req.PubKey) {
		return fmt.Errorf("%w", contract.ErrAuthFailed)
	}
	return nil
}
