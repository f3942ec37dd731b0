// Copyright 2025 Certen Protocol
//
// Package localstore is the local contract store (C3): a file-per-record
// JSON store under contracts/<uuid>.json. Writes go through a temp file plus
// os.Rename so a racing reader never observes a partial document. Structured
// the way the teacher's pkg/database.Client wraps a storage backend
// (constructor plus logger), adapted from SQL rows to files because the
// protocol mandates a JSON-file layout.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/metrics"
)

// ErrNotFound is returned when a contract document is absent.
var ErrNotFound = errors.New("localstore: contract not found")

// Store is the file-per-contract local store.
type Store struct {
	dir    string
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger for the store.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store rooted at dir (typically "<DATA_DIR>/contracts").
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:    dir,
		logger: log.New(log.Writer(), "[LocalStore] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("localstore: create contracts directory: %w", err)
	}
	return s, nil
}

func (s *Store) path(uuid string) string {
	return filepath.Join(s.dir, uuid+".json")
}

// Save persists c, overwriting any existing document with the same UUID.
func (s *Store) Save(c *contract.Contract) error {
	defer observeDuration("save", time.Now())

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: marshal contract: %w", err)
	}

	path := s.path(c.UUID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("localstore: write contract file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("localstore: rename contract file: %w", err)
	}
	return nil
}

// Load returns the contract document for uuid, or ErrNotFound if absent.
func (s *Store) Load(uuid string) (*contract.Contract, error) {
	defer observeDuration("load", time.Now())

	data, err := os.ReadFile(s.path(uuid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read contract file: %w", err)
	}

	var c contract.Contract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("localstore: parse contract file: %w", err)
	}
	return &c, nil
}

// Delete removes the contract document for uuid. Deleting an absent
// document is not an error.
func (s *Store) Delete(uuid string) error {
	defer observeDuration("delete", time.Now())

	if err := os.Remove(s.path(uuid)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localstore: delete contract file: %w", err)
	}
	return nil
}

// List returns summaries of every persisted contract, optionally filtered to
// those whose participant list contains participant, sorted by updated
// timestamp descending.
func (s *Store) List(participant string) ([]contract.Summary, error) {
	defer observeDuration("list", time.Now())

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("localstore: read contracts directory: %w", err)
	}

	var summaries []contract.Summary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		uuid := e.Name()[:len(e.Name())-len(".json")]

		c, err := s.Load(uuid)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			s.logger.Printf("skipping unreadable contract %s: %v", uuid, err)
			continue
		}

		if participant != "" && !containsParticipant(c.Participants, participant) {
			continue
		}
		summaries = append(summaries, c.ToSummary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt > summaries[j].UpdatedAt
	})
	return summaries, nil
}

func observeDuration(operation string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func containsParticipant(participants []string, pubKey string) bool {
	for _, p := range participants {
		if p == pubKey {
			return true
		}
	}
	return false
}
