// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the plain data types shared by the store, the scopes
// and the session coordinator.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidUserID is returned by ParseUserID for empty or malformed input.
var ErrInvalidUserID = errors.New("invalid user id")

// UserID permanently names one user across the lifetime of the store. It is
// assigned once when the user is first persisted and never changes. Two
// UserIDs are the same user exactly when they compare equal.
type UserID string

// NewUserID returns a fresh random identifier.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// ParseUserID validates s and returns it in canonical form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, s)
	}
	return UserID(u.String()), nil
}

// IsZero reports whether id is unset.
func (id UserID) IsZero() bool { return id == "" }

func (id UserID) String() string { return string(id) }

// User is the stored representation of a password manager user.
type User struct {
	ID     UserID
	Name   string
	KeyID  string // fingerprint of the last accepted master key; empty until first unlock
	Avatar int

	LastUsed  time.Time
	CreatedAt time.Time
}

// String returns the user's full name.
func (u User) String() string {
	return u.Name
}
