// Copyright 2025 Certen Protocol
//
// Package keyring is the per-contract key registry (C2): it mints, persists,
// caches, and retrieves secp256k1 keypairs, one per contract, and keeps the
// contract-UUID-to-public-key binding durable across restarts. Grounded on
// the teacher's pkg/crypto/bls key manager (hex-encoded key files, 0600
// permissions, lazy load-or-generate) adapted from one process-wide BLS key
// to many per-contract secp256k1 keys.
package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/certen/contract-coordinator/pkg/signature"
)

// ErrKeyNotFound is returned when a public key has no persisted keypair, or
// a contract UUID has no bound public key.
var ErrKeyNotFound = errors.New("keyring: key not found")

const mappingFile = "contract-pubkey-mapping.json"

// Registry is the in-memory-cached, disk-backed per-contract key registry.
type Registry struct {
	dir string

	mu      sync.RWMutex
	keys    map[string]signature.KeyPair // pubKey -> keypair
	mapping map[string]string            // contract UUID -> pubKey
}

// New creates a registry rooted at dir (typically "<DATA_DIR>/keys").
func New(dir string) *Registry {
	return &Registry{
		dir:     dir,
		keys:    make(map[string]signature.KeyPair),
		mapping: make(map[string]string),
	}
}

// Restore loads the entire aggregate contract-key mapping into memory. It is
// called once at process start; a missing mapping file is not an error (a
// fresh data directory starts with an empty map).
func (r *Registry) Restore() error {
	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return fmt.Errorf("keyring: create key directory: %w", err)
	}

	path := filepath.Join(r.dir, mappingFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keyring: read mapping file: %w", err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return fmt.Errorf("keyring: parse mapping file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping = mapping
	return nil
}

// Mint generates a new random secp256k1 keypair and persists it under its
// public key. The caller binds it to a contract separately via Bind.
func (r *Registry) Mint() (signature.KeyPair, error) {
	kp, err := signature.GenerateKeyPair()
	if err != nil {
		return signature.KeyPair{}, fmt.Errorf("keyring: mint: %w", err)
	}
	if err := r.save(kp); err != nil {
		return signature.KeyPair{}, err
	}

	r.mu.Lock()
	r.keys[kp.PubKey] = kp
	r.mu.Unlock()

	return kp, nil
}

// Load returns the keypair for pubKey, from cache if present, else from disk.
func (r *Registry) Load(pubKey string) (signature.KeyPair, error) {
	r.mu.RLock()
	kp, ok := r.keys[pubKey]
	r.mu.RUnlock()
	if ok {
		return kp, nil
	}

	path := filepath.Join(r.dir, pubKey+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return signature.KeyPair{}, ErrKeyNotFound
	}
	if err != nil {
		return signature.KeyPair{}, fmt.Errorf("keyring: read key file: %w", err)
	}

	if err := json.Unmarshal(data, &kp); err != nil {
		return signature.KeyPair{}, fmt.Errorf("keyring: parse key file: %w", err)
	}

	r.mu.Lock()
	r.keys[pubKey] = kp
	r.mu.Unlock()

	return kp, nil
}

// Bind associates a contract UUID with a public key, updating both the
// aggregate map document on disk and the in-memory cache atomically.
func (r *Registry) Bind(contractUUID, pubKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]string, len(r.mapping)+1)
	for k, v := range r.mapping {
		next[k] = v
	}
	next[contractUUID] = pubKey

	if err := r.writeMapping(next); err != nil {
		return err
	}
	r.mapping = next
	return nil
}

// Lookup returns the public key bound to a contract UUID.
func (r *Registry) Lookup(contractUUID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pubKey, ok := r.mapping[contractUUID]
	if !ok {
		return "", ErrKeyNotFound
	}
	return pubKey, nil
}

func (r *Registry) save(kp signature.KeyPair) error {
	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return fmt.Errorf("keyring: create key directory: %w", err)
	}

	data, err := json.Marshal(kp)
	if err != nil {
		return fmt.Errorf("keyring: marshal keypair: %w", err)
	}

	path := filepath.Join(r.dir, kp.PubKey+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("keyring: write key file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("keyring: rename key file: %w", err)
	}
	return nil
}

func (r *Registry) writeMapping(mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("keyring: marshal mapping: %w", err)
	}

	path := filepath.Join(r.dir, mappingFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("keyring: write mapping file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("keyring: rename mapping file: %w", err)
	}
	return nil
}
