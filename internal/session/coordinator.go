// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package session holds the process-wide session coordinator: which user is
// active, the key unlocked for that user, and the purchase entitlements seen
// so far.
//
// A Coordinator is created once at startup (New, then Restore) and passed by
// reference to everything that needs the active user. Close it at process
// exit to wipe the session key.
//
// The active user is stored as a permanent model.UserID. Each caller resolves
// it into a handle inside its own scope (ActiveUser / ActiveUserIn); handles
// are never shared between flows. Changes made on one flow become visible to
// another flow on its next ActiveUser call; flows that cache a handle should
// subscribe with Watch.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/toeirei/passmaster/internal/identity"
	"github.com/toeirei/passmaster/internal/logging"
	"github.com/toeirei/passmaster/internal/model"
	"github.com/toeirei/passmaster/internal/scope"
	"github.com/toeirei/passmaster/internal/state"
)

// ActiveUserPreference is the preference key holding the last active user.
const ActiveUserPreference = "session.active_user"

// PreferenceStore persists small string values across restarts.
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
	DeletePreference(ctx context.Context, key string) error
}

// Change describes a switch of the active user. Seq increases with every
// switch; watchers may receive changes from concurrent writers out of order
// and should compare Seq or re-read ActiveID.
type Change struct {
	Seq        uint64
	Previous   model.UserID
	Current    model.UserID // zero after logout
	KeyCleared bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock injects the time source used for last-use stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// Coordinator owns the active identity and its session key. The two fields
// are only changed under mu, one writer at a time; the entitlement cache is
// independently safe for concurrent use.
type Coordinator struct {
	accessor *scope.Accessor
	resolver *identity.Resolver
	prefs    PreferenceStore
	now      func() time.Time

	mu     sync.RWMutex
	active model.UserID
	key    state.KeySlot
	seq    uint64 // bumped on every switch of active

	unlockMu sync.Mutex

	entitlements *xsync.MapOf[string, bool]
	verifying    singleflight.Group

	watchMu  sync.Mutex
	watchSeq uint64
	watchers map[uint64]func(Change)
}

// New returns a logged-out Coordinator. prefs may be nil, in which case the
// active user is not persisted.
func New(accessor *scope.Accessor, resolver *identity.Resolver, prefs PreferenceStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		accessor:     accessor,
		resolver:     resolver,
		prefs:        prefs,
		now:          time.Now,
		entitlements: xsync.NewMapOf[string, bool](),
		watchers:     make(map[uint64]func(Change)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads the last active user from the preference store. A malformed
// stored value is discarded. Restore does not check that the user still
// exists; the first ActiveUser call does.
func (c *Coordinator) Restore(ctx context.Context) error {
	if c.prefs == nil {
		return nil
	}
	v, found, err := c.prefs.GetPreference(ctx, ActiveUserPreference)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !found {
		return nil
	}
	id, err := model.ParseUserID(v)
	if err != nil {
		logging.Warnf("session: discarding stored active user: %v", err)
		if derr := c.prefs.DeletePreference(ctx, ActiveUserPreference); derr != nil {
			return fmt.Errorf("restore session: %w", derr)
		}
		return nil
	}

	c.mu.Lock()
	c.active = id
	c.mu.Unlock()
	logging.Debugf("session: restored active user %s", id)
	return nil
}

// ActiveID returns the active user's identifier, zero when logged out.
func (c *Coordinator) ActiveID() model.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// State reports where the session is in its lifecycle.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active.IsZero() {
		return LoggedOut
	}
	if owner, ok := c.key.Owner(); ok && owner == c.active {
		return ActiveUnlocked
	}
	return ActiveNoKey
}

// ActiveUser resolves the active user in the scope for role. It returns
// (nil, nil) when logged out. For Background a new scope is used on every
// call; the caller closes h.Scope() when done, or uses ActiveUserIn to keep
// working in a scope it already holds.
//
// If the active user no longer exists the coordinator logs out and returns an
// error wrapping ErrNotFound.
func (c *Coordinator) ActiveUser(ctx context.Context, role scope.Role) (*scope.UserHandle, error) {
	id := c.ActiveID()
	if id.IsZero() {
		return nil, nil
	}
	sc, err := c.accessor.ScopeFor(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("active user: %w", err)
	}
	h, err := c.resolver.ResolveAs(ctx, role, id, sc)
	if err != nil && role == scope.Background {
		sc.Close()
	}
	return c.afterResolve(ctx, id, h, err)
}

// ActiveUserIn resolves the active user inside sc, which must come from the
// coordinator's Accessor. Repeated calls with the same scope return the same
// handle.
func (c *Coordinator) ActiveUserIn(ctx context.Context, sc *scope.Scope) (*scope.UserHandle, error) {
	id := c.ActiveID()
	if id.IsZero() {
		return nil, nil
	}
	h, err := c.resolver.Resolve(ctx, id, sc)
	return c.afterResolve(ctx, id, h, err)
}

func (c *Coordinator) afterResolve(ctx context.Context, id model.UserID, h *scope.UserHandle, err error) (*scope.UserHandle, error) {
	if err == nil {
		return h, nil
	}
	if errors.Is(err, ErrNotFound) {
		c.signOutIfActive(ctx, id)
	}
	return nil, fmt.Errorf("active user: %w", err)
}

// signOutIfActive logs out when id is still the active user. A concurrent
// switch to another user wins over this implicit logout.
func (c *Coordinator) signOutIfActive(ctx context.Context, id model.UserID) {
	c.mu.Lock()
	if c.active != id {
		c.mu.Unlock()
		return
	}
	if c.prefs != nil {
		if err := c.prefs.DeletePreference(ctx, ActiveUserPreference); err != nil {
			logging.Warnf("session: clearing stored active user: %v", err)
		}
	}
	c.active = ""
	cleared := c.key.Clear()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	logging.Warnf("session: active user %s no longer exists, signed out", id)
	c.notify(Change{Seq: seq, Previous: id, KeyCleared: cleared})
}

// SetActiveUser makes the user behind h the active user. A nil handle logs
// out. Temporary handles are saved first so the stored identifier is
// permanent. Switching to a different user wipes the session key; setting the
// same user again keeps it.
//
// On any error the previous active user and key are left untouched.
func (c *Coordinator) SetActiveUser(ctx context.Context, h *scope.UserHandle) error {
	if h == nil {
		return c.logout(ctx)
	}
	sc := h.Scope()
	switch {
	case sc == nil || !sc.OwnedBy(c.accessor):
		return fmt.Errorf("set active user: %w: handle from a foreign scope", ErrScopeMismatch)
	case sc.Closed():
		return fmt.Errorf("set active user: %w: %s is closed", ErrScopeMismatch, sc)
	}
	if h.IsTemporary() {
		if err := h.Save(ctx); err != nil {
			return fmt.Errorf("set active user: saving new user: %w", err)
		}
	}
	id := h.ID()
	if id.IsZero() {
		return fmt.Errorf("set active user: %w: handle has no identifier", ErrNotFound)
	}

	c.mu.Lock()
	prev := c.active
	if c.prefs != nil {
		if err := c.prefs.SetPreference(ctx, ActiveUserPreference, id.String()); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("set active user: %w", err)
		}
	}
	c.active = id
	cleared := false
	var seq uint64
	if prev != id {
		cleared = c.key.Clear()
		c.seq++
		seq = c.seq
	}
	c.mu.Unlock()

	if prev != id {
		logging.Infof("session: active user %s (was %q)", id, prev)
		c.notify(Change{Seq: seq, Previous: prev, Current: id, KeyCleared: cleared})
	}
	return nil
}

// Logout clears the active user and wipes the session key.
func (c *Coordinator) Logout(ctx context.Context) error {
	return c.SetActiveUser(ctx, nil)
}

func (c *Coordinator) logout(ctx context.Context) error {
	c.mu.Lock()
	prev := c.active
	if c.prefs != nil {
		if err := c.prefs.DeletePreference(ctx, ActiveUserPreference); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("logout: %w", err)
		}
	}
	c.active = ""
	cleared := c.key.Clear()
	var seq uint64
	if !prev.IsZero() {
		c.seq++
		seq = c.seq
	}
	c.mu.Unlock()

	if !prev.IsZero() {
		logging.Infof("session: logged out %s", prev)
		c.notify(Change{Seq: seq, Previous: prev, KeyCleared: cleared})
	}
	return nil
}

// Watch registers fn to be called after every change of the active user.
// fn runs on the flow that made the change, after the coordinator's lock is
// released, so concurrent changes can arrive out of order (see Change.Seq).
// The returned function unregisters fn.
func (c *Coordinator) Watch(fn func(Change)) (cancel func()) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	c.watchSeq++
	id := c.watchSeq
	c.watchers[id] = fn
	return func() {
		c.watchMu.Lock()
		delete(c.watchers, id)
		c.watchMu.Unlock()
	}
}

func (c *Coordinator) notify(ch Change) {
	c.watchMu.Lock()
	fns := make([]func(Change), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.watchMu.Unlock()
	for _, fn := range fns {
		fn(ch)
	}
}

// Close wipes the session key. The active user stays persisted so the next
// start restores it.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key.Clear()
}
