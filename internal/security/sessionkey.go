// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import "github.com/toeirei/passmaster/internal/model"

// SessionKey is derived key material bound to exactly one user.
type SessionKey struct {
	UserID model.UserID
	Secret Secret
}

// KeyID returns the fingerprint of the key material.
func (k *SessionKey) KeyID() string {
	if k == nil {
		return ""
	}
	return KeyID(k.Secret)
}

// Clone returns a deep copy. Callers zero the copy when done.
func (k *SessionKey) Clone() *SessionKey {
	if k == nil {
		return nil
	}
	return &SessionKey{UserID: k.UserID, Secret: FromBytes(k.Secret)}
}

// Zero wipes the key material. The user binding is kept so callers can still
// tell which identity the wiped key belonged to.
func (k *SessionKey) Zero() {
	if k == nil {
		return
	}
	k.Secret.Zero()
}
