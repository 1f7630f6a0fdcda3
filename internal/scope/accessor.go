// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package scope

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/toeirei/passmaster/internal/logging"
)

// Opener opens the persistent store. It is called lazily by the Accessor the
// first time a scope is requested, and again after a failed attempt.
type Opener func(ctx context.Context) (Backend, error)

// Accessor hands out data scopes by role. It owns the single main scope and
// mints a fresh scope for every background request.
type Accessor struct {
	open Opener

	mu      sync.Mutex
	backend Backend
	main    *Scope
	closed  bool

	seq atomic.Uint64
}

// NewAccessor returns an Accessor that opens the store with open on first use.
func NewAccessor(open Opener) *Accessor {
	return &Accessor{open: open}
}

// ScopeFor returns the scope valid for role. Main always yields the same
// canonical scope; Background yields a new scope per call that must only be
// used by the calling flow. ScopeFor fails with ErrScopeUnavailable when the
// store cannot be opened.
func (a *Accessor) ScopeFor(ctx context.Context, role Role) (*Scope, error) {
	if role != Main && role != Background {
		return nil, fmt.Errorf("scope for %s: unknown role", role)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, fmt.Errorf("%w: accessor closed", ErrScopeUnavailable)
	}
	if a.backend == nil {
		if a.open == nil {
			return nil, fmt.Errorf("%w: no store configured", ErrScopeUnavailable)
		}
		b, err := a.open(ctx)
		if err != nil {
			logging.Errorf("scope: opening store failed: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrScopeUnavailable, err)
		}
		if b == nil {
			return nil, fmt.Errorf("%w: opener returned no store", ErrScopeUnavailable)
		}
		a.backend = b
	}

	if role == Main {
		if a.main == nil {
			a.main = newScope(a, Main, a.seq.Add(1), a.backend)
		}
		return a.main, nil
	}
	return newScope(a, Background, a.seq.Add(1), a.backend), nil
}

// Close tears down the main scope and closes the store when it implements
// io.Closer. Subsequent ScopeFor calls fail with ErrScopeUnavailable.
func (a *Accessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if a.main != nil {
		a.main.close()
		a.main = nil
	}
	if c, ok := a.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
