// Copyright 2025 Certen Protocol

package server

import (
	"errors"

	"github.com/certen/contract-coordinator/pkg/contract"
)

func isValidation(err error) bool           { return errors.Is(err, contract.ErrValidation) }
func isAuthFailed(err error) bool           { return errors.Is(err, contract.ErrAuthFailed) }
func isForbidden(err error) bool            { return errors.Is(err, contract.ErrForbidden) }
func isNotFound(err error) bool             { return errors.Is(err, contract.ErrNotFound) }
func isStepAlreadyComplete(err error) bool  { return errors.Is(err, contract.ErrStepAlreadyComplete) }
func isInvalidStepSignature(err error) bool { return errors.Is(err, contract.ErrInvalidStepSignature) }
func isKeyNotFound(err error) bool          { return errors.Is(err, contract.ErrKeyNotFound) }
