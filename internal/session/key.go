// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"context"
	"fmt"

	"github.com/toeirei/passmaster/internal/logging"
	"github.com/toeirei/passmaster/internal/scope"
	"github.com/toeirei/passmaster/internal/security"
)

// Deriver produces key material from a user's name and master password.
type Deriver interface {
	Derive(name string, password security.Secret) (security.Secret, error)
}

// SetKey binds a copy of key to the active user. A nil key clears it. It fails
// with ErrNoActiveUser while logged out.
func (c *Coordinator) SetKey(key security.Secret) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active.IsZero() {
		return ErrNoActiveUser
	}
	c.key.Set(c.active, key)
	return nil
}

// Key returns a copy of the active user's session key, or (nil, nil) when the
// session is not unlocked. It fails with ErrNoActiveUser while logged out.
// Callers zero the returned key when done.
func (c *Coordinator) Key() (*security.SessionKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active.IsZero() {
		return nil, ErrNoActiveUser
	}
	k, ok := c.key.Get(c.active)
	if !ok {
		return nil, nil
	}
	return k, nil
}

// ClearKey wipes the session key but keeps the active user.
func (c *Coordinator) ClearKey() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key.Clear()
}

// Unlock derives the active user's key from password and makes it the session
// key. The first unlock records the key's fingerprint on the user; later
// unlocks must reproduce it or fail with ErrIncorrectPassword. The user's
// last-use time is updated on success. Unlock works in the scope for role.
func (c *Coordinator) Unlock(ctx context.Context, role scope.Role, deriver Deriver, password security.Secret) error {
	h, err := c.ActiveUser(ctx, role)
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	if h == nil {
		return fmt.Errorf("unlock: %w", ErrNoActiveUser)
	}
	if role == scope.Background {
		defer h.Scope().Close()
	}

	key, err := deriver.Derive(h.Name(), password)
	if err != nil {
		return fmt.Errorf("unlock: deriving key: %w", err)
	}
	defer key.Zero()

	// Fingerprint check, save and key install run as one step so concurrent
	// first unlocks cannot both record a fingerprint.
	c.unlockMu.Lock()
	defer c.unlockMu.Unlock()

	// The handle may predate an unlock done in another scope.
	stored, err := h.Scope().Backend().FetchUser(ctx, h.ID())
	if err != nil {
		_, err = c.afterResolve(ctx, h.ID(), nil, err)
		return fmt.Errorf("unlock: %w", err)
	}
	keyID := security.KeyID(key)
	if stored.KeyID != "" && stored.KeyID != keyID {
		logging.Warnf("session: unlock of %s rejected", h.ID())
		return fmt.Errorf("unlock: %w", ErrIncorrectPassword)
	}
	h.SetKeyID(keyID)
	h.Touch(c.now().UTC())
	if err := h.Save(ctx); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != h.ID() {
		return fmt.Errorf("unlock: active user changed: %w", ErrNoActiveUser)
	}
	c.key.Set(c.active, key)
	logging.Debugf("session: unlocked %s", c.active)
	return nil
}
