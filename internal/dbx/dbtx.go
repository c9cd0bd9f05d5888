// Package dbx is the thin database seam the account and refresh token
// repositories are built on: the DBTX interface, satisfied by *sql.DB
// and *sql.Tx alike, and WithTx for running a function transactionally.
// Token rotation in particular relies on WithTx so that consuming the
// old token and storing its replacement land atomically.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX covers the database/sql calls the repositories issue. Passing a
// *sql.Tx routes a repository call through an open transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, committing when fn returns nil
// and rolling back when it returns an error or panics. Panics are
// rethrown after the rollback. The services pass the tx handle to every
// repository call they make inside fn.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
