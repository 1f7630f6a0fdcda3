package db

import (
	"context"

	"github.com/uptrace/bun"
)

// WithTx runs fn inside a transaction, committing on success and rolling back
// when fn returns an error.
func WithTx(ctx context.Context, bdb *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	return bdb.RunInTx(ctx, nil, fn)
}
