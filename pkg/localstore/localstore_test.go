package localstore

import (
	"errors"
	"testing"

	"github.com/certen/contract-coordinator/pkg/contract"
)

func sampleContract(uuid, updatedAt string, participants ...string) *contract.Contract {
	return &contract.Contract{
		UUID:         uuid,
		Title:        "Test Contract",
		Participants: participants,
		Steps: []contract.Step{{
			StepID:      "step-1",
			Description: "Ship it",
			Order:       0,
			Signatures:  map[string]*contract.SignatureRecord{},
		}},
		Creator:   participants[0],
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
		Status:    "active",
		PubKey:    "contract-pubkey-" + uuid,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c := sampleContract("c1", "1000", "pa", "pb")
	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load("c1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Title != c.Title || loaded.PubKey != c.PubKey {
		t.Fatalf("loaded contract mismatch: %+v", loaded)
	}
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteThenLoadReturnsErrNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := sampleContract("c1", "1000", "pa", "pb")
	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListSortsByUpdatedDescendingAndFilters(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = s.Save(sampleContract("c1", "1000", "pa", "pb"))
	_ = s.Save(sampleContract("c2", "2000", "pa", "pc"))
	_ = s.Save(sampleContract("c3", "1500", "pb", "pc"))

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(all))
	}
	if all[0].UUID != "c2" || all[1].UUID != "c3" || all[2].UUID != "c1" {
		t.Fatalf("expected descending order by updatedAt, got %v", all)
	}

	filtered, err := s.List("pa")
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 summaries for participant pa, got %d", len(filtered))
	}
}
