// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package scope provides role-confined views onto the persistent store.
//
// Every flow of execution works through its own *Scope. A scope owns a table
// of user handles keyed by permanent identifier, so within one scope each user
// is materialised at most once, and handles are never shared between scopes.
//
// Confinement contract:
//   - The Main scope belongs to the UI flow. It must never be used from two
//     flows at the same time.
//   - A Background scope belongs to the flow that requested it from
//     Accessor.ScopeFor and must be closed by that flow when done.
//
// Violations are programming errors. Overlapping use of one scope from two
// flows, and any use of a closed scope, panic. Detection is best effort: two
// flows that never overlap in time will not be caught.
package scope

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/toeirei/passmaster/internal/model"
)

// Backend is the persistent store contract the scopes need. FetchUser and
// SaveUser must report a missing user with an error wrapping db.ErrNotFound,
// distinct from I/O failures.
type Backend interface {
	FetchUser(ctx context.Context, id model.UserID) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	SaveUser(ctx context.Context, u *model.User) error
}

// Scope is one isolated view of the store, bound to one Role.
type Scope struct {
	owner   *Accessor
	role    Role
	id      uint64
	backend Backend

	handles map[model.UserID]*UserHandle
	busy    atomic.Bool
	closed  atomic.Bool
}

func newScope(owner *Accessor, role Role, id uint64, backend Backend) *Scope {
	return &Scope{
		owner:   owner,
		role:    role,
		id:      id,
		backend: backend,
		handles: make(map[model.UserID]*UserHandle),
	}
}

// ID is unique per Accessor and useful in logs.
func (s *Scope) ID() uint64 { return s.id }

// Role returns the role the scope is confined to.
func (s *Scope) Role() Role { return s.role }

// Backend returns the store this scope reads from.
func (s *Scope) Backend() Backend { return s.backend }

// OwnedBy reports whether s was produced by a.
func (s *Scope) OwnedBy(a *Accessor) bool { return s != nil && a != nil && s.owner == a }

// Closed reports whether the scope has been closed.
func (s *Scope) Closed() bool { return s.closed.Load() }

func (s *Scope) String() string {
	return fmt.Sprintf("%s#%d", s.role, s.id)
}

// Lookup returns the handle already materialised in this scope for id.
func (s *Scope) Lookup(id model.UserID) (*UserHandle, bool) {
	release := s.enter()
	defer release()
	h, ok := s.handles[id]
	return h, ok
}

// Adopt registers u in this scope and returns its handle. If a handle for
// u.ID already exists it is returned unchanged, so local edits on it are kept
// and the scope never holds two handles for one user.
func (s *Scope) Adopt(u model.User) *UserHandle {
	release := s.enter()
	defer release()
	if h, ok := s.handles[u.ID]; ok {
		return h
	}
	h := &UserHandle{scope: s, user: u}
	s.handles[u.ID] = h
	return h
}

// NewUser creates a temporary handle for a user that does not exist in the
// store yet. It gains a permanent identifier when saved.
func (s *Scope) NewUser(name string) *UserHandle {
	release := s.enter()
	defer release()
	return &UserHandle{scope: s, user: model.User{Name: name}, temporary: true}
}

// Reset drops every handle materialised in the scope. Handles obtained before
// the reset stay usable but are no longer returned by Lookup; the next
// resolution fetches a fresh copy from the store.
func (s *Scope) Reset() {
	release := s.enter()
	defer release()
	s.handles = make(map[model.UserID]*UserHandle)
}

// Close discards the scope and its handles. Closing twice is harmless.
// Closing the Main scope is a no-op; it lives until the Accessor is closed.
func (s *Scope) Close() {
	if s.role == Main {
		return
	}
	s.close()
}

func (s *Scope) close() {
	if s.closed.Load() {
		return
	}
	release := s.enter()
	s.closed.Store(true)
	s.handles = nil
	release()
}

// enter marks the scope busy for the duration of one operation and panics if
// another flow is already inside it or the scope is closed.
func (s *Scope) enter() func() {
	if s.closed.Load() {
		panic(fmt.Sprintf("scope: %s used after close", s))
	}
	if !s.busy.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("scope: %s used concurrently from two flows", s))
	}
	return func() { s.busy.Store(false) }
}

func (s *Scope) mustBeOpen() {
	if s.closed.Load() {
		panic(fmt.Sprintf("scope: %s used after close", s))
	}
}
