package sqlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// DB wraps sqlx.DB so every statement run through it is logged. Methods
// not redeclared here pass through to sqlx unlogged.
type DB struct {
	*sqlx.DB
	cfg *config
}

// Open opens a database handle without pinging it.
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db, cfg: newConfig(opts...)}, nil
}

// MustOpen is Open, panicking on error.
func MustOpen(driverName, dsn string, opts ...Option) *DB {
	db, err := Open(driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// Connect opens a database handle and verifies it with a ping.
func Connect(ctx context.Context, driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db, cfg: newConfig(opts...)}, nil
}

// MustConnect is Connect, panicking on error.
func MustConnect(ctx context.Context, driverName, dsn string, opts ...Option) *DB {
	db, err := Connect(ctx, driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// NewDB wraps an existing sql.DB.
func NewDB(db *sql.DB, driverName string, opts ...Option) *DB {
	return &DB{DB: sqlx.NewDb(db, driverName), cfg: newConfig(opts...)}
}

// Unsafe returns a copy whose scan errors on missing destination fields
// are suppressed.
func (db *DB) Unsafe() *DB {
	return &DB{DB: db.DB.Unsafe(), cfg: db.cfg}
}

// PingContext verifies the connection is alive.
func (db *DB) PingContext(ctx context.Context) error {
	start := time.Now()

	err := db.DB.PingContext(ctx)

	db.cfg.control(ctx, "PING", err, time.Since(start))
	return err
}

// GetContext runs a query expected to return one row and scans it into
// dest. A successful call logs rows=1; sql.ErrNoRows logs at trace.
func (db *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()

	err := db.DB.GetContext(ctx, dest, query, args...)

	st := statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)}
	if err == nil {
		st.rows, st.hasRows = 1, true
	}
	db.cfg.record(ctx, st)
	return err
}

// SelectContext runs a query and scans all rows into dest. The logged
// row count is the length of dest after the scan.
func (db *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()

	err := db.DB.SelectContext(ctx, dest, query, args...)

	st := statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)}
	if err == nil {
		st.rows, st.hasRows = destLen(dest)
	}
	db.cfg.record(ctx, st)
	return err
}

// QueryContext runs a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()

	rows, err := db.DB.QueryContext(ctx, query, args...)

	db.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)})
	return rows, err
}

// QueryxContext is QueryContext returning sqlx.Rows.
func (db *DB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	start := time.Now()

	rows, err := db.DB.QueryxContext(ctx, query, args...)

	db.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)})
	return rows, err
}

// QueryRowContext runs a query expected to return at most one row. Scan
// errors surface on the returned row, not in the log event.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()

	row := db.DB.QueryRowContext(ctx, query, args...)

	db.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), elapsed: time.Since(start)})
	return row
}

// QueryRowxContext is QueryRowContext returning an sqlx.Row.
func (db *DB) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	start := time.Now()

	row := db.DB.QueryRowxContext(ctx, query, args...)

	db.cfg.record(ctx, statement{op: operation(query), query: query, args: len(args), elapsed: time.Since(start)})
	return row
}

// ExecContext runs a statement that returns no rows. The logged row
// count is RowsAffected when the driver reports it.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()

	res, err := db.DB.ExecContext(ctx, query, args...)

	st := statement{op: operation(query), query: query, args: len(args), err: err, elapsed: time.Since(start)}
	st.rows, st.hasRows = affected(res, err)
	db.cfg.record(ctx, st)
	return res, err
}

// NamedExecContext runs a statement with named parameters bound from
// arg.
func (db *DB) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	start := time.Now()

	res, err := db.DB.NamedExecContext(ctx, query, arg)

	st := statement{op: operation(query), query: query, args: 1, err: err, elapsed: time.Since(start)}
	st.rows, st.hasRows = affected(res, err)
	db.cfg.record(ctx, st)
	return res, err
}

// NamedQueryContext runs a query with named parameters bound from arg.
func (db *DB) NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error) {
	start := time.Now()

	rows, err := db.DB.NamedQueryContext(ctx, query, arg)

	db.cfg.record(ctx, statement{op: operation(query), query: query, args: 1, err: err, elapsed: time.Since(start)})
	return rows, err
}

// BeginTxx starts a transaction. Statements on the returned Tx log like
// statements on the DB; Commit and Rollback reuse ctx for identity.
func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	start := time.Now()

	tx, err := db.DB.BeginTxx(ctx, opts)

	db.cfg.control(ctx, "BEGIN", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, cfg: db.cfg, ctx: ctx}, nil
}

// Beginx starts a transaction with background context and default
// options.
func (db *DB) Beginx() (*Tx, error) {
	return db.BeginTxx(context.Background(), nil)
}

// affected extracts the statement's row count from its result. Drivers
// that cannot report it leave the count unset.
func affected(res sql.Result, err error) (int64, bool) {
	if err != nil || res == nil {
		return 0, false
	}
	n, raErr := res.RowsAffected()
	if raErr != nil {
		return 0, false
	}
	return n, true
}
