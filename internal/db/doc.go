// Package db contains the data-access layer used by the session core.
//
// Open returns a *Store backed by a long-lived *bun.DB. The store knows
// nothing about scopes or the active user; it only persists:
//
//   - users: the permanent identifier, full name, key fingerprint, avatar and
//     last-use time of every account on this device.
//   - preferences: a small key/value table; the session coordinator keeps the
//     last active user here.
//
// Errors
//   - ErrNotFound distinguishes a missing row from driver or I/O failures.
//   - ErrDuplicate is returned for unique-constraint violations (duplicate
//     names). MapDBError performs both mappings.
//
// Testing notes
//   - Prefer `Open("sqlite", "file:<test>?mode=memory&cache=shared")` in tests
//     that need real DB semantics and migrations.
package db
