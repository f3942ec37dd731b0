// Copyright 2025 Certen Protocol
//
// Package metrics registers the service's Prometheus instruments, mirroring
// the teacher's own prometheus/client_golang dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignatureVerifications counts step signature checks by outcome
	// ("valid" or "invalid"). Endpoint-auth checks are not counted.
	SignatureVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contract_coordinator_signature_verifications_total",
		Help: "Count of signature verifications by outcome.",
	}, []string{"outcome"})

	// StoreOperationDuration observes local store operation latency by
	// operation ("save", "load", "list", "delete").
	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "contract_coordinator_store_operation_duration_seconds",
		Help: "Local contract store operation latency in seconds.",
	}, []string{"operation"})

	// RemoteAdapterOutcomes counts remote object-store calls by
	// classification ("success", "unavailable", "auth_failed", "not_found").
	RemoteAdapterOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contract_coordinator_remote_adapter_outcomes_total",
		Help: "Count of remote object-store adapter calls by outcome classification.",
	}, []string{"operation", "outcome"})

	// EffectsTriggered counts step completions that emitted an
	// effect-triggered event.
	EffectsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contract_coordinator_effects_triggered_total",
		Help: "Count of step completions that triggered an effect.",
	})
)
