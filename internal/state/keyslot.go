// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package state provides in-memory holders for transient secret state that
// must never be persisted.
package state

import (
	"sync"

	"github.com/toeirei/passmaster/internal/model"
	"github.com/toeirei/passmaster/internal/security"
)

// KeySlot is a concurrency-safe holder for at most one session key. It keeps
// its own copy of the key material and wipes that copy whenever the key is
// replaced or cleared.
type KeySlot struct {
	mu  sync.RWMutex
	key *security.SessionKey
}

// Set stores a copy of secret bound to owner, wiping any previous key.
// A nil secret clears the slot.
func (s *KeySlot) Set(owner model.UserID, secret security.Secret) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wipe()
	if secret == nil {
		return
	}
	s.key = &security.SessionKey{UserID: owner, Secret: security.FromBytes(secret)}
}

// Get returns a copy of the key if one is held for owner. A key bound to a
// different identity is never returned.
func (s *KeySlot) Get(owner model.UserID) (*security.SessionKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil || s.key.UserID != owner {
		return nil, false
	}
	return s.key.Clone(), true
}

// Owner reports which identity the held key belongs to.
func (s *KeySlot) Owner() (model.UserID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return "", false
	}
	return s.key.UserID, true
}

// Clear wipes the key, reporting whether one was held.
func (s *KeySlot) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.key != nil
	s.wipe()
	return had
}

func (s *KeySlot) wipe() {
	if s.key != nil {
		s.key.Zero()
		s.key = nil
	}
}
