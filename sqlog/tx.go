package sqlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Tx wraps sqlx.Tx with the same statement logging as DB.
type Tx struct {
	*sqlx.Tx
	cfg *config

	// ctx is the BeginTxx context. Commit and Rollback take no context
	// of their own, so their log events reuse it for request identity.
	ctx context.Context
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	start := time.Now()

	err := tx.Tx.Commit()

	tx.cfg.control(tx.ctx, "COMMIT", err, time.Since(start))
	return err
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	start := time.Now()

	err := tx.Tx.Rollback()

	tx.cfg.control(tx.ctx, "ROLLBACK", err, time.Since(start))
	return err
}

// Unsafe returns a copy whose scan errors on missing destination fields
// are suppressed.
func (tx *Tx) Unsafe() *Tx {
	return &Tx{Tx: tx.Tx.Unsafe(), cfg: tx.cfg, ctx: tx.ctx}
}

// GetContext runs a query expected to return one row and scans it into
// dest.
func (tx *Tx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()

	err := tx.Tx.GetContext(ctx, dest, query, args...)

	st := statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)}
	if err == nil {
		st.rows, st.hasRows = 1, true
	}
	tx.cfg.record(ctx, st)
	return err
}

// SelectContext runs a query and scans all rows into dest.
func (tx *Tx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()

	err := tx.Tx.SelectContext(ctx, dest, query, args...)

	st := statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)}
	if err == nil {
		st.rows, st.hasRows = destLen(dest)
	}
	tx.cfg.record(ctx, st)
	return err
}

// QueryContext runs a query that returns rows.
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()

	rows, err := tx.Tx.QueryContext(ctx, query, args...)

	tx.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)})
	return rows, err
}

// QueryxContext is QueryContext returning sqlx.Rows.
func (tx *Tx) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	start := time.Now()

	rows, err := tx.Tx.QueryxContext(ctx, query, args...)

	tx.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)})
	return rows, err
}

// QueryRowContext runs a query expected to return at most one row.
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()

	row := tx.Tx.QueryRowContext(ctx, query, args...)

	tx.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), elapsed: time.Since(start)})
	return row
}

// QueryRowxContext is QueryRowContext returning an sqlx.Row.
func (tx *Tx) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	start := time.Now()

	row := tx.Tx.QueryRowxContext(ctx, query, args...)

	tx.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), elapsed: time.Since(start)})
	return row
}

// ExecContext runs a statement that returns no rows.
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()

	res, err := tx.Tx.ExecContext(ctx, query, args...)

	st := statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)}
	st.rows, st.hasRows = affected(res, err)
	tx.cfg.record(ctx, st)
	return res, err
}

// NamedExecContext runs a statement with named parameters bound from
// arg.
func (tx *Tx) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	start := time.Now()

	res, err := tx.Tx.NamedExecContext(ctx, query, arg)

	st := statement{op: operation(query), query: query, args: 1, err: err, elapsed: time.Since(start)}
	st.rows, st.hasRows = affected(res, err)
	tx.cfg.record(ctx, st)
	return res, err
}
