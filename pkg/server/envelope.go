// Copyright 2025 Certen Protocol
//
// Package server hosts the HTTP surface (C10): one handler-group struct per
// concern, each constructed with its dependencies and a logger, the exact
// shape of the teacher's NewProofHandlers/NewBatchHandlers family. The
// response envelope here is {success, data?, error?} rather than the
// teacher's {error:{code,message}} shape, per the protocol's own contract.
package server

import (
	"encoding/json"
	"log"
	"net/http"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data}); err != nil {
		logger.Printf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: message}); err != nil {
		logger.Printf("error encoding error response: %v", err)
	}
}

// spellFailureCode is the protocol's resolver-specific failure marker (spec
// §7). It is never a transport status line; it rides inside the response
// body of an otherwise-200 response, since the resolver's own transport
// does not carry arbitrary HTTP status codes.
const spellFailureCode = 900

func writeSpellFailure(w http.ResponseWriter, logger *log.Logger, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: message, Code: spellFailureCode}); err != nil {
		logger.Printf("error encoding spell failure response: %v", err)
	}
}

// statusForError maps a core sentinel error to the HTTP status code the
// protocol's error handling design assigns it.
func statusForError(err error) int {
	switch {
	case isValidation(err):
		return http.StatusBadRequest
	case isAuthFailed(err), isInvalidStepSignature(err):
		return http.StatusUnauthorized
	case isForbidden(err):
		return http.StatusForbidden
	case isNotFound(err):
		return http.StatusNotFound
	case isStepAlreadyComplete(err):
		return http.StatusBadRequest
	case isKeyNotFound(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
