// Copyright 2025 Certen Protocol
//
// Package resolver is the effect-resolver adapter (C8): a second entry path
// for pre-signed "spell" messages whose caster signature has already been
// verified upstream by the resolver. The adapter adds no signature check of
// its own: it builds the same authgate.Request the HTTP handlers build from
// the spell's caster signature, so that signature is checked once more by
// the same Auth Gate, and then dispatches into the same state machine path
// the HTTP surface uses, so it runs through identical authorization and
// validation.
package resolver

import (
	"context"
	"fmt"

	"github.com/certen/contract-coordinator/pkg/authgate"
	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/statemachine"
	"github.com/certen/contract-coordinator/pkg/users"
)

// Spell is a resolver-routed invocation.
type Spell struct {
	Name            string
	Components      map[string]any
	Timestamp       string
	CasterSignature string
	CasterUUID      string
	CasterPubKey    string
}

// Resolver maps spells to core operations.
type Resolver struct {
	machine *statemachine.Machine
	users   *users.Directory
}

// New creates an effect-resolver adapter.
func New(machine *statemachine.Machine, userDir *users.Directory) *Resolver {
	return &Resolver{machine: machine, users: userDir}
}

// Dispatch translates and executes a spell, returning the same shape of
// result the equivalent HTTP endpoint would.
func (r *Resolver) Dispatch(ctx context.Context, spell Spell) (any, error) {
	switch spell.Name {
	case "userCreate":
		return r.userCreate(spell)
	case "contractCreate":
		return r.contractCreate(ctx, spell)
	case "contractUpdate":
		return r.contractUpdate(ctx, spell)
	case "contractSign":
		return r.contractSign(ctx, spell)
	case "contractDelete":
		return r.contractDelete(ctx, spell)
	case "purchaseLesson":
		return r.purchaseLesson(ctx, spell)
	default:
		return nil, fmt.Errorf("resolver: unknown spell %q", spell.Name)
	}
}

func (r *Resolver) gateRequest(spell Spell) authgate.Request {
	return authgate.Request{
		Signature: spell.CasterSignature,
		Timestamp: spell.Timestamp,
		UserUUID:  spell.CasterUUID,
		PubKey:    spell.CasterPubKey,
	}
}

func (r *Resolver) userCreate(spell Spell) (any, error) {
	if err := authgate.Verify(r.gateRequest(spell)); err != nil {
		return nil, err
	}
	pubKey, _ := spell.Components["pubKey"].(string)
	if pubKey == "" {
		pubKey = spell.CasterPubKey
	}
	return r.users.Create(pubKey)
}

func (r *Resolver) contractCreate(ctx context.Context, spell Spell) (any, error) {
	if err := authgate.Verify(r.gateRequest(spell)); err != nil {
		return nil, err
	}

	in := statemachine.CreateInput{
		Title:        stringComponent(spell.Components, "title"),
		Description:  stringComponent(spell.Components, "description"),
		Participants: stringSliceComponent(spell.Components, "participants"),
		Creator:      spell.CasterPubKey,
		ProductID:    stringComponent(spell.Components, "productId"),
		LocationID:   stringComponent(spell.Components, "locationId"),
	}
	for _, raw := range sliceComponent(spell.Components, "steps") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		in.Steps = append(in.Steps, statemachine.StepInput{Description: stringComponent(m, "description")})
	}

	return r.machine.Create(ctx, in)
}

func (r *Resolver) contractUpdate(ctx context.Context, spell Spell) (any, error) {
	contractUUID := stringComponent(spell.Components, "contractUuid")
	if err := authgate.VerifyWithContract(r.gateRequest(spell), contractUUID); err != nil {
		return nil, err
	}

	patch := statemachine.UpdatePatch{}
	if title, ok := spell.Components["title"].(string); ok {
		patch.Title = &title
	}
	if description, ok := spell.Components["description"].(string); ok {
		patch.Description = &description
	}
	if status, ok := spell.Components["status"].(string); ok {
		patch.Status = &status
	}

	return r.machine.Update(ctx, contractUUID, spell.CasterPubKey, patch)
}

func (r *Resolver) contractSign(ctx context.Context, spell Spell) (any, error) {
	contractUUID := stringComponent(spell.Components, "contractUuid")
	if err := authgate.VerifyWithContract(r.gateRequest(spell), contractUUID); err != nil {
		return nil, err
	}

	stepID := stringComponent(spell.Components, "stepId")
	stepSignature := stringComponent(spell.Components, "stepSignature")

	return r.machine.SignStep(ctx, contractUUID, spell.CasterPubKey, stepID, stepSignature, spell.Timestamp, spell.CasterUUID)
}

func (r *Resolver) contractDelete(ctx context.Context, spell Spell) (any, error) {
	contractUUID := stringComponent(spell.Components, "contractUuid")
	if err := authgate.VerifyWithContract(r.gateRequest(spell), contractUUID); err != nil {
		return nil, err
	}
	return nil, r.machine.Delete(ctx, contractUUID, spell.CasterPubKey)
}

// purchaseLesson is the composite spell: it creates a 5-step template
// contract between a teacher and a student, with the student as both caller
// and creator. The template is loaded from an embedded YAML document.
func (r *Resolver) purchaseLesson(ctx context.Context, spell Spell) (any, error) {
	if err := authgate.Verify(r.gateRequest(spell)); err != nil {
		return nil, err
	}

	teacherPubKey := stringComponent(spell.Components, "teacherPubKey")
	studentPubKey := stringComponent(spell.Components, "studentPubKey")
	if teacherPubKey == "" || studentPubKey == "" {
		return nil, fmt.Errorf("%w: purchaseLesson requires teacherPubKey and studentPubKey", contract.ErrValidation)
	}

	tpl, err := loadPurchaseLessonTemplate()
	if err != nil {
		return nil, err
	}

	return r.machine.Create(ctx, statemachine.CreateInput{
		Title:        tpl.Title,
		Description:  tpl.Description,
		Participants: []string{teacherPubKey, studentPubKey},
		Steps:        tpl.toStepInputs(),
		Creator:      studentPubKey,
	})
}

func stringComponent(components map[string]any, key string) string {
	v, _ := components[key].(string)
	return v
}

func sliceComponent(components map[string]any, key string) []any {
	v, _ := components[key].([]any)
	return v
}

func stringSliceComponent(components map[string]any, key string) []string {
	raw := sliceComponent(components, key)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
