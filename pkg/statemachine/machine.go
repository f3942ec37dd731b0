// Copyright 2025 Certen Protocol
//
// Package statemachine implements the contract state machine (C6): all
// state transitions on a contract document, applied through the replicated
// store. Grounded on the teacher's handler-construction style
// (NewXHandlers(deps..., logger) returning a struct of bound methods)
// applied here to domain operations instead of read-only queries.
package statemachine

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/database"
	"github.com/certen/contract-coordinator/pkg/metrics"
	"github.com/certen/contract-coordinator/pkg/replicatedstore"
	"github.com/certen/contract-coordinator/pkg/signature"
)

// Machine drives contracts through create/update/sign-step/delete.
type Machine struct {
	store  *replicatedstore.Store
	locks  *lockTable
	logger *log.Logger

	// audit is optional: the audit trail degrades to a no-op when the
	// service was started without DATABASE_URL.
	audit *database.Client
}

// Option configures a Machine.
type Option func(*Machine)

// WithAudit attaches the Postgres audit ledger. Audit writes are
// best-effort: a failure is logged and never fails the caller's
// operation, since the ledger is an observability surface, not the
// source of truth.
func WithAudit(client *database.Client) Option {
	return func(m *Machine) { m.audit = client }
}

// New creates a contract state machine backed by store.
func New(store *replicatedstore.Store, logger *log.Logger, opts ...Option) *Machine {
	if logger == nil {
		logger = log.New(os.Stdout, "[StateMachine] ", log.LstdFlags)
	}
	m := &Machine{store: store, locks: newLockTable(), logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// recordAudit appends a best-effort audit entry. It never returns an
// error: audit failures are logged and swallowed.
func (m *Machine) recordAudit(ctx context.Context, contractUUID, operation, actorPubKey, outcome string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.RecordAudit(ctx, database.AuditEntry{
		ContractUUID: contractUUID,
		Operation:    operation,
		ActorPubKey:  actorPubKey,
		Outcome:      outcome,
	}); err != nil {
		m.logger.Printf("audit write failed: %v", err)
	}
}

// StepInput is a single step as supplied on contract creation.
type StepInput struct {
	StepID      string
	Description string
	Effect      *contract.EffectDescriptor
}

// CreateInput carries the fields accepted by the create operation.
type CreateInput struct {
	Title        string
	Description  string
	Participants []string
	Steps        []StepInput
	Creator      string
	ProductID    string
	LocationID   string
}

// Create assigns a new UUID, initializes every step's signature map,
// validates, and persists the contract via the replicated store.
func (m *Machine) Create(ctx context.Context, in CreateInput) (*contract.Contract, error) {
	now := nowMillis()

	steps := make([]contract.Step, len(in.Steps))
	for i, si := range in.Steps {
		stepID := si.StepID
		if stepID == "" {
			stepID = uuid.NewString()
		}
		sigs := make(map[string]*contract.SignatureRecord, len(in.Participants))
		for _, p := range in.Participants {
			sigs[p] = nil
		}
		steps[i] = contract.Step{
			StepID:      stepID,
			Description: si.Description,
			Order:       i,
			Effect:      si.Effect,
			Completed:   false,
			Signatures:  sigs,
		}
	}

	c := &contract.Contract{
		UUID:         uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Participants: in.Participants,
		Steps:        steps,
		Creator:      in.Creator,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       "active",
		ProductID:    in.ProductID,
		LocationID:   in.LocationID,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	lock := m.locks.lockFor(c.UUID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("statemachine: create: %w", err)
	}
	m.recordAudit(ctx, c.UUID, "create", in.Creator, "success")
	return c, nil
}

// UpdatePatch restricts mutation to the fields the protocol permits on
// update; all other fields of the persisted document are left untouched.
type UpdatePatch struct {
	Title       *string
	Description *string
	Steps       []contract.Step
	Status      *string
}

// Update overlays the permitted fields onto the persisted contract,
// revalidates, and persists. Authorization: caller must be the creator or a
// participant.
func (m *Machine) Update(ctx context.Context, contractUUID, callerPubKey string, patch UpdatePatch) (*contract.Contract, error) {
	lock := m.locks.lockFor(contractUUID)
	lock.Lock()
	defer lock.Unlock()

	c, err := m.store.Read(ctx, contractUUID)
	if err != nil {
		return nil, err
	}

	if callerPubKey != c.Creator && !isParticipant(c.Participants, callerPubKey) {
		return nil, contract.ErrForbidden
	}

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Steps != nil {
		c.Steps = patch.Steps
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	c.UpdatedAt = nowMillis()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := m.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("statemachine: update: %w", err)
	}
	m.recordAudit(ctx, contractUUID, "update", callerPubKey, "success")
	return c, nil
}

// SignResult is returned by SignStep; it drives the HTTP response's
// stepCompleted and magicTriggered flags.
type SignResult struct {
	Contract       *contract.Contract
	StepCompleted  bool
	MagicTriggered bool
}

// SignStep verifies and applies a single participant's signature to a step,
// then recomputes completion.
func (m *Machine) SignStep(ctx context.Context, contractUUID, callerPubKey, stepID, stepSignature, timestamp, callerUUID string) (*SignResult, error) {
	lock := m.locks.lockFor(contractUUID)
	lock.Lock()
	defer lock.Unlock()

	c, err := m.store.Read(ctx, contractUUID)
	if err != nil {
		return nil, err
	}

	if !isParticipant(c.Participants, callerPubKey) {
		return nil, contract.ErrForbidden
	}

	stepIdx := -1
	for i := range c.Steps {
		if c.Steps[i].StepID == stepID {
			stepIdx = i
			break
		}
	}
	if stepIdx == -1 {
		return nil, contract.ErrNotFound
	}
	step := &c.Steps[stepIdx]

	canonical := timestamp + callerUUID + contractUUID + stepID
	if !signature.Verify(stepSignature, canonical, callerPubKey) {
		metrics.SignatureVerifications.WithLabelValues("invalid").Inc()
		return nil, contract.ErrInvalidStepSignature
	}
	metrics.SignatureVerifications.WithLabelValues("valid").Inc()

	if step.Completed {
		return nil, contract.ErrStepAlreadyComplete
	}

	now := nowMillis()
	step.Signatures[callerPubKey] = &contract.SignatureRecord{
		Signature: stepSignature,
		Timestamp: timestamp,
		SignerKey: callerPubKey,
		Message:   canonical,
		SignedAt:  now,
	}

	allSigned := true
	for _, p := range c.Participants {
		if step.Signatures[p] == nil {
			allSigned = false
			break
		}
	}

	magicTriggered := false
	if allSigned {
		step.Completed = true
		step.CompletedAt = now
		if step.Effect != nil {
			magicTriggered = true
			metrics.EffectsTriggered.Inc()
		}
	}

	c.UpdatedAt = now
	if err := m.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("statemachine: sign-step: %w", err)
	}
	m.recordAudit(ctx, contractUUID, "sign-step", callerPubKey, "success")

	return &SignResult{Contract: c, StepCompleted: step.Completed, MagicTriggered: magicTriggered}, nil
}

// Delete removes the contract. Authorization: caller must be the creator.
func (m *Machine) Delete(ctx context.Context, contractUUID, callerPubKey string) error {
	lock := m.locks.lockFor(contractUUID)
	lock.Lock()
	defer lock.Unlock()

	c, err := m.store.Read(ctx, contractUUID)
	if err != nil {
		return err
	}
	if callerPubKey != c.Creator {
		return contract.ErrForbidden
	}

	if err := m.store.Delete(ctx, contractUUID); err != nil {
		return fmt.Errorf("statemachine: delete: %w", err)
	}
	m.recordAudit(ctx, contractUUID, "delete", callerPubKey, "success")
	return nil
}

// Read fetches a contract without authorization (the HTTP surface exposes
// GET /contract/:uuid with no auth requirement).
func (m *Machine) Read(ctx context.Context, contractUUID string) (*contract.Contract, error) {
	return m.store.Read(ctx, contractUUID)
}

// List returns contract summaries, optionally filtered by participant.
func (m *Machine) List(participant string) ([]contract.Summary, error) {
	return m.store.List(participant)
}

func isParticipant(participants []string, pubKey string) bool {
	for _, p := range participants {
		if p == pubKey {
			return true
		}
	}
	return false
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
