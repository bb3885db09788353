// Package store is the orders repository, backed by postgres through
// the statement-logging wrapper.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/example/internal/config"
	"github.com/kroma-labs/beacon-go/sqlog"
)

type Order struct {
	ID        int64     `db:"id" json:"id"`
	SKU       string    `db:"sku" json:"sku"`
	Qty       int       `db:"qty" json:"qty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Store struct {
	db *sqlog.DB
}

// Open connects to postgres and configures the pool. Every statement
// the store runs is logged with the request identity of its context.
func Open(ctx context.Context, dsn string, log *zerolog.Logger) (*Store, error) {
	db, err := sqlog.Connect(ctx, "postgres", dsn,
		sqlog.WithLogger(log),
		sqlog.WithSystem(config.DBSystem),
		sqlog.WithDatabase(config.DBName),
		sqlog.WithSanitizer(sqlog.DefaultSanitizer),
		sqlog.WithSlowThreshold(config.SlowQueryThreshold),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id         BIGSERIAL   PRIMARY KEY,
			sku        TEXT        NOT NULL,
			qty        INT         NOT NULL,
			status     TEXT        NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS movements (
			id       BIGSERIAL   PRIMARY KEY,
			order_id BIGINT      NOT NULL REFERENCES orders (id),
			kind     TEXT        NOT NULL,
			at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Create inserts a pending order and returns it with its generated id.
func (s *Store) Create(ctx context.Context, sku string, qty int) (*Order, error) {
	var o Order
	err := s.db.GetContext(ctx, &o, `
		INSERT INTO orders (sku, qty) VALUES ($1, $2)
		RETURNING id, sku, qty, status, created_at`, sku, qty)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Get returns one order. sql.ErrNoRows when the id is unknown.
func (s *Store) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := s.db.GetContext(ctx, &o, `
		SELECT id, sku, qty, status, created_at
		FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns the newest orders, capped at limit.
func (s *Store) List(ctx context.Context, limit int) ([]Order, error) {
	orders := []Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, sku, qty, status, created_at
		FROM orders ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Fulfil marks a pending order fulfilled and records the stock
// movement in one transaction. sql.ErrNoRows when the order is missing
// or already fulfilled.
func (s *Store) Fulfil(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'fulfilled'
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO movements (order_id, kind) VALUES ($1, 'out')`, id); err != nil {
		return err
	}

	return tx.Commit()
}
