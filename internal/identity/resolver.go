// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package identity turns permanent user identifiers into scope-local handles.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/passmaster/internal/db"
	"github.com/toeirei/passmaster/internal/model"
	"github.com/toeirei/passmaster/internal/scope"
)

// ErrNotFound is returned when an identifier no longer names a stored user.
// Callers treat it as "no active user".
var ErrNotFound = db.ErrNotFound

// Resolver materialises users inside scopes produced by one Accessor. It only
// ever touches the handle table of the scope it is given.
type Resolver struct {
	accessor *scope.Accessor
}

// NewResolver returns a Resolver that accepts scopes produced by accessor.
func NewResolver(accessor *scope.Accessor) *Resolver {
	return &Resolver{accessor: accessor}
}

// Resolve returns the handle for id in sc. A user already materialised in sc
// is returned as-is; otherwise it is fetched through sc's store and registered.
//
// Resolve fails with scope.ErrScopeMismatch when sc is nil, closed, or was not
// produced by the Resolver's Accessor, and with ErrNotFound when id does not
// name a stored user.
func (r *Resolver) Resolve(ctx context.Context, id model.UserID, sc *scope.Scope) (*scope.UserHandle, error) {
	if err := r.checkScope(sc); err != nil {
		return nil, err
	}
	if id.IsZero() {
		return nil, fmt.Errorf("resolve user: empty id: %w", ErrNotFound)
	}

	if h, ok := sc.Lookup(id); ok {
		return h, nil
	}

	u, err := sc.Backend().FetchUser(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("resolve user %s in %s: %w", id, sc, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve user %s in %s: %w", id, sc, err)
	}
	return sc.Adopt(*u), nil
}

// ResolveAs is Resolve with the additional check that sc is confined to role.
func (r *Resolver) ResolveAs(ctx context.Context, role scope.Role, id model.UserID, sc *scope.Scope) (*scope.UserHandle, error) {
	if sc != nil && sc.Role() != role {
		return nil, fmt.Errorf("%w: %s scope used for %s caller", scope.ErrScopeMismatch, sc, role)
	}
	return r.Resolve(ctx, id, sc)
}

func (r *Resolver) checkScope(sc *scope.Scope) error {
	switch {
	case sc == nil:
		return fmt.Errorf("%w: nil scope", scope.ErrScopeMismatch)
	case !sc.OwnedBy(r.accessor):
		return fmt.Errorf("%w: %s belongs to another accessor", scope.ErrScopeMismatch, sc)
	case sc.Closed():
		return fmt.Errorf("%w: %s is closed", scope.ErrScopeMismatch, sc)
	}
	return nil
}
