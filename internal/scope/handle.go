// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package scope

import (
	"context"
	"fmt"
	"time"

	"github.com/toeirei/passmaster/internal/model"
)

// UserHandle is a scope-local, mutable view of one user. It is valid only in
// the scope that produced it; pass the UserID between flows instead.
type UserHandle struct {
	scope     *Scope
	user      model.User
	temporary bool
}

// Scope returns the scope that produced the handle.
func (h *UserHandle) Scope() *Scope { return h.scope }

// IsTemporary reports whether the user has not been saved yet and so has no
// permanent identifier.
func (h *UserHandle) IsTemporary() bool { return h.temporary }

// ID returns the permanent identifier, or the zero UserID for temporary handles.
func (h *UserHandle) ID() model.UserID {
	h.scope.mustBeOpen()
	return h.user.ID
}

func (h *UserHandle) Name() string {
	h.scope.mustBeOpen()
	return h.user.Name
}

func (h *UserHandle) KeyID() string {
	h.scope.mustBeOpen()
	return h.user.KeyID
}

func (h *UserHandle) Avatar() int {
	h.scope.mustBeOpen()
	return h.user.Avatar
}

func (h *UserHandle) LastUsed() time.Time {
	h.scope.mustBeOpen()
	return h.user.LastUsed
}

// Snapshot returns a copy of the handle's current values, safe to hand to
// another flow.
func (h *UserHandle) Snapshot() model.User {
	h.scope.mustBeOpen()
	return h.user
}

func (h *UserHandle) SetName(name string) {
	release := h.scope.enter()
	defer release()
	h.user.Name = name
}

func (h *UserHandle) SetKeyID(keyID string) {
	release := h.scope.enter()
	defer release()
	h.user.KeyID = keyID
}

func (h *UserHandle) SetAvatar(avatar int) {
	release := h.scope.enter()
	defer release()
	h.user.Avatar = avatar
}

// Touch records t as the last time the user was used.
func (h *UserHandle) Touch(t time.Time) {
	release := h.scope.enter()
	defer release()
	h.user.LastUsed = t
}

// Save writes the handle to the store. A temporary handle is inserted under a
// newly assigned permanent identifier and registered in its scope; on failure
// it stays temporary.
func (h *UserHandle) Save(ctx context.Context) error {
	release := h.scope.enter()
	defer release()

	if !h.temporary {
		u := h.user
		return h.scope.backend.SaveUser(ctx, &u)
	}

	u := h.user
	u.ID = model.NewUserID()
	if err := h.scope.backend.CreateUser(ctx, &u); err != nil {
		return err
	}
	h.user = u
	h.temporary = false
	h.scope.handles[u.ID] = h
	return nil
}

// Refresh reloads the handle from the store, discarding unsaved edits. The
// handle keeps its identity within the scope.
func (h *UserHandle) Refresh(ctx context.Context) error {
	release := h.scope.enter()
	defer release()

	if h.temporary {
		return fmt.Errorf("refresh %q: user not saved yet", h.user.Name)
	}
	u, err := h.scope.backend.FetchUser(ctx, h.user.ID)
	if err != nil {
		return err
	}
	h.user = *u
	return nil
}
