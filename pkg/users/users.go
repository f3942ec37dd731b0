// Copyright 2025 Certen Protocol
//
// Package users is the user directory: a file-backed store of user records
// (pubKey <-> UUID), mirroring the local contract store's file-per-record
// design with a smaller schema.
package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested user record does not exist.
var ErrNotFound = errors.New("users: not found")

// User is a minimal identity record created by PUT /user/create.
type User struct {
	UUID      string `json:"uuid"`
	PubKey    string `json:"pubKey"`
	CreatedAt string `json:"createdAt"`
}

// Directory is the file-per-user store.
type Directory struct {
	dir string
}

// New creates a Directory rooted at dir (typically "<DATA_DIR>/users").
func New(dir string) (*Directory, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("users: create users directory: %w", err)
	}
	return &Directory{dir: dir}, nil
}

func (d *Directory) path(id string) string {
	return filepath.Join(d.dir, id+".json")
}

// Create mints a new user UUID for pubKey and persists the record.
func (d *Directory) Create(pubKey string) (*User, error) {
	u := &User{
		UUID:      uuid.NewString(),
		PubKey:    pubKey,
		CreatedAt: fmt.Sprintf("%d", time.Now().UnixMilli()),
	}

	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("users: marshal user: %w", err)
	}

	path := d.path(u.UUID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return nil, fmt.Errorf("users: write user file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("users: rename user file: %w", err)
	}
	return u, nil
}

// Get returns the user record for uuid.
func (d *Directory) Get(userUUID string) (*User, error) {
	data, err := os.ReadFile(d.path(userUUID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: read user file: %w", err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("users: parse user file: %w", err)
	}
	return &u, nil
}
