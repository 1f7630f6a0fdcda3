// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/uptrace/bun"
)

// Store is the Bun-backed persistent store. It is safe for concurrent use;
// scope isolation is layered on top by the scope package, not here.
type Store struct {
	bun    *bun.DB
	dbType string
}

// BunDB exposes the underlying Bun handle for maintenance and tests.
func (s *Store) BunDB() *bun.DB { return s.bun }

// Type returns the configured database type ("sqlite", "postgres", "mysql").
func (s *Store) Type() string { return s.dbType }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.bun == nil {
		return nil
	}
	return s.bun.Close()
}
