package replicatedstore

import (
	"context"
	"errors"
	"testing"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/keyring"
	"github.com/certen/contract-coordinator/pkg/localstore"
	"github.com/certen/contract-coordinator/pkg/remotestore"
)

func newTestStore(t *testing.T, remoteEnabled bool) (*Store, string) {
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
	remote := remotestore.New(remotestore.Config{Enabled: remoteEnabled})

	return New(keys, local, remote, nil), dir
}

func sampleContract(uuid string) *contract.Contract {
	return &contract.Contract{
		UUID:         uuid,
		Title:        "Test",
		Participants: []string{"pa", "pb"},
		Steps: []contract.Step{{
			StepID:      "s1",
			Description: "Ship it",
			Signatures:  map[string]*contract.SignatureRecord{"pa": nil, "pb": nil},
		}},
		Creator: "pa",
		Status:  "active",
	}
}

func TestCreateWithRemoteUnavailableFallsBackToLocalOnly(t *testing.T) {
	s, _ := newTestStore(t, false)
	c := sampleContract("c1")

	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.PubKey == "" {
		t.Fatalf("expected contract to carry a public key even with remote disabled")
	}
	if c.RemoteRecordID != "" {
		t.Fatalf("expected no remote record id when remote is disabled, got %q", c.RemoteRecordID)
	}

	read, err := s.Read(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if read.PubKey != c.PubKey {
		t.Fatalf("expected read to return local fallback document")
	}
}

func TestReadMissingContractReturnsNotFound(t *testing.T) {
	s, _ := newTestStore(t, false)
	_, err := s.Read(context.Background(), "nonexistent")
	if !errors.Is(err, contract.ErrNotFound) {
		t.Fatalf("expected contract.ErrNotFound, got %v", err)
	}
}

func TestKeyBindingPersistsAcrossRegistryRestart(t *testing.T) {
	s, dir := newTestStore(t, false)
	c := sampleContract("c1")
	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	firstPubKey := c.PubKey

	keys2 := keyring.New(dir + "/keys")
	if err := keys2.Restore(); err != nil {
		t.Fatalf("restart Restore: %v", err)
	}
	local2, err := localstore.New(dir + "/contracts")
	if err != nil {
		t.Fatalf("localstore.New: %v", err)
	}
	remote2 := remotestore.New(remotestore.Config{Enabled: false})
	s2 := New(keys2, local2, remote2, nil)

	c.Title = "Updated title"
	if err := s2.Update(context.Background(), c); err != nil {
		t.Fatalf("Update after restart: %v", err)
	}
	if c.PubKey != firstPubKey {
		t.Fatalf("expected pubKey to remain stable across restart, got %q want %q", c.PubKey, firstPubKey)
	}

	read, err := s2.Read(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Read after restart: %v", err)
	}
	if read.PubKey != firstPubKey || read.Title != "Updated title" {
		t.Fatalf("unexpected document after restart: %+v", read)
	}
}

func TestDeleteThenReadReturnsNotFound(t *testing.T) {
	s, _ := newTestStore(t, false)
	c := sampleContract("c1")
	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(context.Background(), "c1"); !errors.Is(err, contract.ErrNotFound) {
		t.Fatalf("expected contract.ErrNotFound after delete, got %v", err)
	}
}
