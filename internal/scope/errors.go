package scope

import "errors"

var (
	// ErrScopeUnavailable means the store behind the scopes could not be
	// opened (permissions, corruption, closed accessor). It is fatal to the
	// operation that hit it and is never retried here.
	ErrScopeUnavailable = errors.New("data scope unavailable")

	// ErrScopeMismatch is a programming error: a scope that was not produced
	// by the expected Accessor, for the expected role, or that has already
	// been closed.
	ErrScopeMismatch = errors.New("data scope mismatch")
)
