// Copyright 2025 Certen Protocol
//
// Package replicatedstore is the replicated store (C5): it composes the key
// registry, local store, and remote adapter. Local is authoritative; the
// remote is a replica that may lag or be temporarily missing. Writes always
// reach local; remote failures are logged and swallowed, never fatal.
package replicatedstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/keyring"
	"github.com/certen/contract-coordinator/pkg/localstore"
	"github.com/certen/contract-coordinator/pkg/remotestore"
	"github.com/certen/contract-coordinator/pkg/signature"
)

// Store composes the key registry, local store, and remote adapter into the
// single persistence surface the contract state machine depends on.
type Store struct {
	keys   *keyring.Registry
	local  *localstore.Store
	remote *remotestore.Adapter
	logger *log.Logger
}

// New creates a replicated store.
func New(keys *keyring.Registry, local *localstore.Store, remote *remotestore.Adapter, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stdout, "[ReplicatedStore] ", log.LstdFlags)
	}
	return &Store{keys: keys, local: local, remote: remote, logger: logger}
}

// Create mints a new keypair, binds it to the contract, stamps the contract
// with its public key, attempts a remote createRecord, and always saves to
// local last (authoritative).
func (s *Store) Create(ctx context.Context, c *contract.Contract) error {
	kp, err := s.keys.Mint()
	if err != nil {
		return fmt.Errorf("replicatedstore: mint key: %w", err)
	}
	if err := s.keys.Bind(c.UUID, kp.PubKey); err != nil {
		return fmt.Errorf("replicatedstore: bind key: %w", err)
	}
	c.PubKey = kp.PubKey

	recordID, err := s.remote.CreateRecord(ctx, c.UUID, c, kp)
	if err != nil {
		s.logger.Printf("remote createRecord failed for contract %s, proceeding local-only: %v", c.UUID, err)
	} else {
		c.RemoteRecordID = recordID
	}

	if err := s.local.Save(c); err != nil {
		return fmt.Errorf("replicatedstore: local save: %w", err)
	}
	return nil
}

// Update looks up the contract's bound keypair, attempts a remote
// updateRecord when the contract has a remote record id, and saves to local
// regardless of the remote outcome. A contract without a remote record id
// is saved locally only; no remote createRecord is retried.
func (s *Store) Update(ctx context.Context, c *contract.Contract) error {
	kp, err := s.keypairFor(c.UUID)
	if err != nil {
		return err
	}

	if c.RemoteRecordID != "" {
		if err := s.remote.UpdateRecord(ctx, c.RemoteRecordID, c.UUID, c, kp); err != nil {
			s.logger.Printf("remote updateRecord failed for contract %s: %v", c.UUID, err)
		}
	}

	if err := s.local.Save(c); err != nil {
		return fmt.Errorf("replicatedstore: local save: %w", err)
	}
	return nil
}

// Read attempts a remote fetchRecord when a record id and bound keypair
// exist, falling back to the local document on any remote failure, then to
// ErrNotFound if local is also absent.
func (s *Store) Read(ctx context.Context, uuid string) (*contract.Contract, error) {
	localDoc, localErr := s.local.Load(uuid)

	kp, keyErr := s.keypairFor(uuid)
	if keyErr == nil && localErr == nil && localDoc.RemoteRecordID != "" {
		var remoteDoc contract.Contract
		if err := s.remote.FetchRecord(ctx, localDoc.RemoteRecordID, uuid, kp, &remoteDoc); err == nil {
			return &remoteDoc, nil
		} else {
			s.logger.Printf("remote fetchRecord failed for contract %s, falling back to local: %v", uuid, err)
		}
	}

	if localErr != nil {
		if errors.Is(localErr, localstore.ErrNotFound) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("replicatedstore: local load: %w", localErr)
	}
	return localDoc, nil
}

// Delete attempts a remote deleteRecord and, regardless of outcome, removes
// the local document. Key material is never touched.
func (s *Store) Delete(ctx context.Context, uuid string) error {
	localDoc, err := s.local.Load(uuid)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return fmt.Errorf("replicatedstore: local load before delete: %w", err)
	}

	if err == nil && localDoc.RemoteRecordID != "" {
		if kp, keyErr := s.keypairFor(uuid); keyErr == nil {
			if err := s.remote.DeleteRecord(ctx, localDoc.RemoteRecordID, uuid, kp); err != nil {
				s.logger.Printf("remote deleteRecord failed for contract %s: %v", uuid, err)
			}
		}
	}

	if err := s.local.Delete(uuid); err != nil {
		return fmt.Errorf("replicatedstore: local delete: %w", err)
	}
	return nil
}

// List delegates to the local store; summaries are never served from the
// remote replica.
func (s *Store) List(participant string) ([]contract.Summary, error) {
	summaries, err := s.local.List(participant)
	if err != nil {
		return nil, fmt.Errorf("replicatedstore: list: %w", err)
	}
	return summaries, nil
}

func (s *Store) keypairFor(contractUUID string) (signature.KeyPair, error) {
	pubKey, err := s.keys.Lookup(contractUUID)
	if err != nil {
		return signature.KeyPair{}, contract.ErrKeyNotFound
	}
	kp, err := s.keys.Load(pubKey)
	if err != nil {
		return signature.KeyPair{}, contract.ErrKeyNotFound
	}
	return kp, nil
}
