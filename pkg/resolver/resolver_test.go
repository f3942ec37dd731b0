package resolver

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/keyring"
	"github.com/certen/contract-coordinator/pkg/localstore"
	"github.com/certen/contract-coordinator/pkg/remotestore"
	"github.com/certen/contract-coordinator/pkg/replicatedstore"
	"github.com/certen/contract-coordinator/pkg/signature"
	"github.com/certen/contract-coordinator/pkg/statemachine"
	"github.com/certen/contract-coordinator/pkg/users"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	dir := t.TempDir()
	keys := keyring.New(dir + "/keys")
	if err := keys.Restore(); err != nil {
		t.Fatalf("keys.Restore: %v", err)
	}
	local, err := localstore.New(dir + "/contracts")
	if err != nil {
		t.Fatalf("localstore.New: %v", err)
	}
	remote := remotestore.New(remotestore.Config{Enabled: false})
	store := replicatedstore.New(keys, local, remote, nil)
	machine := statemachine.New(store, nil)

	userDir, err := users.New(dir + "/users")
	if err != nil {
		t.Fatalf("users.New: %v", err)
	}

	return New(machine, userDir)
}

// casterSpell builds a spell whose caster signature verifies over
// "timestamp + callerUUID", matching the Gate's no-contract canonical form.
func casterSpell(t *testing.T, kp signature.KeyPair, components map[string]any) Spell {
	t.Helper()
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	callerUUID := "caster-uuid"

	sig, err := signature.Sign(ts+callerUUID, kp.PrivateKey)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return Spell{
		Components:      components,
		Timestamp:       ts,
		CasterSignature: sig,
		CasterUUID:      callerUUID,
		CasterPubKey:    kp.PubKey,
	}
}

// contractSpell builds a spell whose caster signature verifies over
// "timestamp + callerUUID + contractUUID", matching authgate.VerifyWithContract's
// canonical form used by the contract-scoped spells.
func contractSpell(t *testing.T, kp signature.KeyPair, contractUUID string, components map[string]any) Spell {
	t.Helper()
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	callerUUID := "caster-uuid"

	sig, err := signature.Sign(ts+callerUUID+contractUUID, kp.PrivateKey)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return Spell{
		Components:      components,
		Timestamp:       ts,
		CasterSignature: sig,
		CasterUUID:      callerUUID,
		CasterPubKey:    kp.PubKey,
	}
}

func TestPurchaseLessonCreatesFiveStepContract(t *testing.T) {
	r := newTestResolver(t)
	student, _ := signature.GenerateKeyPair()
	teacher, _ := signature.GenerateKeyPair()

	spell := casterSpell(t, student, map[string]any{
		"teacherPubKey": teacher.PubKey,
		"studentPubKey": student.PubKey,
	})
	spell.Name = "purchaseLesson"

	result, err := r.Dispatch(context.Background(), spell)
	if err != nil {
		t.Fatalf("Dispatch purchaseLesson: %v", err)
	}
	c, ok := result.(*contract.Contract)
	if !ok {
		t.Fatalf("expected *contract.Contract, got %T", result)
	}
	if len(c.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(c.Steps))
	}
	if c.Creator != student.PubKey {
		t.Fatalf("expected student as creator, got %q", c.Creator)
	}
}

func TestUserCreateDispatches(t *testing.T) {
	r := newTestResolver(t)
	kp, _ := signature.GenerateKeyPair()

	spell := casterSpell(t, kp, map[string]any{"pubKey": kp.PubKey})
	spell.Name = "userCreate"

	result, err := r.Dispatch(context.Background(), spell)
	if err != nil {
		t.Fatalf("Dispatch userCreate: %v", err)
	}
	if result == nil {
		t.Fatalf("expected a created user record")
	}
}

func TestContractUpdateDispatches(t *testing.T) {
	r := newTestResolver(t)
	creator, _ := signature.GenerateKeyPair()
	participant, _ := signature.GenerateKeyPair()
	stranger, _ := signature.GenerateKeyPair()

	createSpell := casterSpell(t, creator, map[string]any{
		"title":        "original title",
		"participants": []any{creator.PubKey, participant.PubKey},
		"steps":        []any{map[string]any{"description": "first step"}},
	})
	createSpell.Name = "contractCreate"
	created, err := r.Dispatch(context.Background(), createSpell)
	if err != nil {
		t.Fatalf("Dispatch contractCreate: %v", err)
	}
	c, ok := created.(*contract.Contract)
	if !ok {
		t.Fatalf("expected *contract.Contract, got %T", created)
	}

	updateSpell := contractSpell(t, creator, c.UUID, map[string]any{
		"contractUuid": c.UUID,
		"title":        "updated title",
	})
	updateSpell.Name = "contractUpdate"
	result, err := r.Dispatch(context.Background(), updateSpell)
	if err != nil {
		t.Fatalf("Dispatch contractUpdate: %v", err)
	}
	updated, ok := result.(*contract.Contract)
	if !ok {
		t.Fatalf("expected *contract.Contract, got %T", result)
	}
	if updated.Title != "updated title" {
		t.Fatalf("expected title to be updated, got %q", updated.Title)
	}

	// A caller who is neither creator nor participant must be rejected, even
	// with a signature that passes authgate.VerifyWithContract, since the
	// participant check is the state machine's job.
	forbiddenSpell := contractSpell(t, stranger, c.UUID, map[string]any{
		"contractUuid": c.UUID,
		"title":        "hijacked",
	})
	forbiddenSpell.Name = "contractUpdate"
	if _, err := r.Dispatch(context.Background(), forbiddenSpell); err == nil {
		t.Fatalf("expected contractUpdate from a non-participant to be rejected")
	}
}

func TestContractSignDispatches(t *testing.T) {
	r := newTestResolver(t)
	creator, _ := signature.GenerateKeyPair()
	participant, _ := signature.GenerateKeyPair()

	createSpell := casterSpell(t, creator, map[string]any{
		"title":        "sign me",
		"participants": []any{creator.PubKey, participant.PubKey},
		"steps":        []any{map[string]any{"description": "first step"}},
	})
	createSpell.Name = "contractCreate"
	created, err := r.Dispatch(context.Background(), createSpell)
	if err != nil {
		t.Fatalf("Dispatch contractCreate: %v", err)
	}
	c, ok := created.(*contract.Contract)
	if !ok {
		t.Fatalf("expected *contract.Contract, got %T", created)
	}
	if len(c.Steps) == 0 {
		t.Fatalf("expected at least one step on the created contract")
	}
	step := c.Steps[0]

	signAs := func(kp signature.KeyPair) *statemachine.SignResult {
		t.Helper()
		spell := contractSpell(t, kp, c.UUID, map[string]any{"contractUuid": c.UUID})
		canonical := spell.Timestamp + spell.CasterUUID + c.UUID + step.StepID
		stepSig, err := signature.Sign(canonical, kp.PrivateKey)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		spell.Name = "contractSign"
		spell.Components["stepId"] = step.StepID
		spell.Components["stepSignature"] = stepSig

		result, err := r.Dispatch(context.Background(), spell)
		if err != nil {
			t.Fatalf("Dispatch contractSign: %v", err)
		}
		signResult, ok := result.(*statemachine.SignResult)
		if !ok {
			t.Fatalf("expected *statemachine.SignResult, got %T", result)
		}
		return signResult
	}

	if got := signAs(creator); got.StepCompleted {
		t.Fatalf("expected step to remain incomplete until every participant signs")
	}
	if got := signAs(participant); !got.StepCompleted {
		t.Fatalf("expected step to complete once every participant has signed")
	}
}

func TestContractDeleteDispatches(t *testing.T) {
	r := newTestResolver(t)
	creator, _ := signature.GenerateKeyPair()
	participant, _ := signature.GenerateKeyPair()

	createSpell := casterSpell(t, creator, map[string]any{
		"title":        "to be deleted",
		"participants": []any{creator.PubKey, participant.PubKey},
		"steps":        []any{map[string]any{"description": "first step"}},
	})
	createSpell.Name = "contractCreate"
	created, err := r.Dispatch(context.Background(), createSpell)
	if err != nil {
		t.Fatalf("Dispatch contractCreate: %v", err)
	}
	c, ok := created.(*contract.Contract)
	if !ok {
		t.Fatalf("expected *contract.Contract, got %T", created)
	}

	// A participant who isn't the creator must be rejected, even with a
	// signature that passes authgate.VerifyWithContract.
	forbiddenSpell := contractSpell(t, participant, c.UUID, map[string]any{"contractUuid": c.UUID})
	forbiddenSpell.Name = "contractDelete"
	if _, err := r.Dispatch(context.Background(), forbiddenSpell); err == nil {
		t.Fatalf("expected contractDelete from a non-creator to be rejected")
	}

	deleteSpell := contractSpell(t, creator, c.UUID, map[string]any{"contractUuid": c.UUID})
	deleteSpell.Name = "contractDelete"
	if _, err := r.Dispatch(context.Background(), deleteSpell); err != nil {
		t.Fatalf("Dispatch contractDelete: %v", err)
	}
}

func TestUnknownSpellErrors(t *testing.T) {
	r := newTestResolver(t)
	kp, _ := signature.GenerateKeyPair()

	spell := casterSpell(t, kp, map[string]any{})
	spell.Name = "doesNotExist"

	if _, err := r.Dispatch(context.Background(), spell); err == nil {
		t.Fatalf("expected an error for unknown spell")
	}
}
