// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/toeirei/passmaster/internal/model"
)

// CreateUser inserts u. The caller assigns u.ID; CreatedAt defaults to now.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u == nil || u.ID.IsZero() {
		return errors.New("create user: missing id")
	}
	if u.Name == "" {
		return errors.New("create user: missing name")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := s.bun.NewInsert().Model(userToModel(u)).Exec(ctx); err != nil {
		return fmt.Errorf("create user %q: %w", u.Name, MapDBError(err))
	}
	dbLogf("db: created user %s", u.ID)
	return nil
}

// FetchUser loads the user with the given id. It returns ErrNotFound when no
// such user exists.
func (s *Store) FetchUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var m UserModel
	err := s.bun.NewSelect().Model(&m).Where("id = ?", id.String()).Limit(1).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, MapDBError(err))
	}
	u := userModelToModel(m)
	return &u, nil
}

// FindUserByName loads the user with the given full name.
func (s *Store) FindUserByName(ctx context.Context, name string) (*model.User, error) {
	var m UserModel
	err := s.bun.NewSelect().Model(&m).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", name, MapDBError(err))
	}
	u := userModelToModel(m)
	return &u, nil
}

// ListUsers returns all users, most recently used first, then by name.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []UserModel
	err := s.bun.NewSelect().Model(&rows).
		OrderExpr("CASE WHEN last_used IS NULL THEN 1 ELSE 0 END").
		OrderExpr("last_used DESC").
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", MapDBError(err))
	}
	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, userModelToModel(r))
	}
	return out, nil
}

// SaveUser writes the mutable fields of u. It returns ErrNotFound when the
// user no longer exists.
func (s *Store) SaveUser(ctx context.Context, u *model.User) error {
	if u == nil || u.ID.IsZero() {
		return errors.New("save user: missing id")
	}
	res, err := s.bun.NewUpdate().Model(userToModel(u)).
		Column("name", "key_id", "avatar", "last_used").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save user %s: %w", u.ID, MapDBError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows for unchanged values; confirm the row exists.
		if _, ferr := s.FetchUser(ctx, u.ID); ferr != nil {
			if errors.Is(ferr, ErrNotFound) {
				return fmt.Errorf("save user %s: %w", u.ID, ErrNotFound)
			}
			return fmt.Errorf("save user %s: confirming row: %w", u.ID, ferr)
		}
	}
	return nil
}

// DeleteUser removes the user with the given id.
func (s *Store) DeleteUser(ctx context.Context, id model.UserID) error {
	res, err := s.bun.NewDelete().Model((*UserModel)(nil)).Where("id = ?", id.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, MapDBError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete user %s: %w", id, ErrNotFound)
	}
	dbLogf("db: deleted user %s", id)
	return nil
}
