// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// GetPreference returns the stored value for key. found is false when the key
// has never been set or was deleted.
func (s *Store) GetPreference(ctx context.Context, key string) (value string, found bool, err error) {
	var m PreferenceModel
	err = s.bun.NewSelect().Model(&m).Where("pref_key = ?", key).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(MapDBError(err), ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return m.Value, true, nil
}

// SetPreference stores value under key, replacing any previous value. The
// replace runs as delete+insert in one transaction so it works the same on
// every dialect.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*PreferenceModel)(nil)).Where("pref_key = ?", key).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&PreferenceModel{Key: key, Value: value}).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, MapDBError(err))
	}
	return nil
}

// DeletePreference removes key. Deleting a missing key is not an error.
func (s *Store) DeletePreference(ctx context.Context, key string) error {
	if _, err := s.bun.NewDelete().Model((*PreferenceModel)(nil)).Where("pref_key = ?", key).Exec(ctx); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, MapDBError(err))
	}
	return nil
}
