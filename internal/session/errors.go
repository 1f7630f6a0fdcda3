// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"errors"

	"github.com/toeirei/passmaster/internal/identity"
	"github.com/toeirei/passmaster/internal/scope"
)

var (
	// ErrNoActiveUser is returned by key operations while logged out.
	ErrNoActiveUser = errors.New("no active user")

	// ErrEntitlementUnknown means the entitlement cache has no verdict for a
	// product. The caller consults the verifier (see VerifyPurchase) or
	// populates the cache with SetPurchased.
	ErrEntitlementUnknown = errors.New("entitlement unknown")

	// ErrIncorrectPassword is returned by Unlock when the derived key does not
	// match the fingerprint stored for the user.
	ErrIncorrectPassword = errors.New("incorrect master password")
)

// Errors surfaced from the layers below, re-exported so callers need only
// this package.
var (
	ErrScopeUnavailable = scope.ErrScopeUnavailable
	ErrScopeMismatch    = scope.ErrScopeMismatch
	ErrNotFound         = identity.ErrNotFound
)
