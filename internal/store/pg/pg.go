// Package pg implements the store adapter for PostgreSQL using pgxpool.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-pm/atrium/internal/store"
)

func init() {
	store.RegisterAdapter(&adapter{})
}

type adapter struct{}

func (a *adapter) Name() string { return "postgres" }

func (a *adapter) Open(ctx context.Context, cfg store.Config) (store.Database, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pcfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &poolDB{pool: pool}, nil
}

// querier is the subset of pgxpool.Pool and pgx.Tx both satisfy.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// poolDB is the pool-backed Database.
type poolDB struct {
	pool *pgxpool.Pool
}

func (db *poolDB) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgRows{rows: rows}, nil
}

func (db *poolDB) QueryOne(ctx context.Context, sql string, args ...any) store.Row {
	return pgRow{row: db.pool.QueryRow(ctx, sql, args...)}
}

func (db *poolDB) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(ctx, db.pool, sql, args...)
}

func (db *poolDB) Batch(ctx context.Context, stmts []store.Statement) error {
	return db.Transaction(ctx, func(tx store.Database) error {
		for _, s := range stmts {
			if _, err := tx.Execute(ctx, s.SQL, s.Args...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *poolDB) Transaction(ctx context.Context, fn func(tx store.Database) error) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		return fn(&txDB{tx: tx})
	})
}

func (db *poolDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *poolDB) Close() {
	db.pool.Close()
}

// txDB is the transaction-backed Database handed to Transaction callbacks.
type txDB struct {
	tx pgx.Tx
}

func (db *txDB) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	rows, err := db.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgRows{rows: rows}, nil
}

func (db *txDB) QueryOne(ctx context.Context, sql string, args ...any) store.Row {
	return pgRow{row: db.tx.QueryRow(ctx, sql, args...)}
}

func (db *txDB) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(ctx, db.tx, sql, args...)
}

func (db *txDB) Batch(ctx context.Context, stmts []store.Statement) error {
	// Already inside a transaction; run sequentially.
	for _, s := range stmts {
		if _, err := db.Execute(ctx, s.SQL, s.Args...); err != nil {
			return err
		}
	}
	return nil
}

func (db *txDB) Transaction(ctx context.Context, fn func(tx store.Database) error) error {
	// Nested transactions become savepoints via pgx.
	return pgx.BeginFunc(ctx, db.tx, func(tx pgx.Tx) error {
		return fn(&txDB{tx: tx})
	})
}

func (db *txDB) Ping(ctx context.Context) error { return nil }

func (db *txDB) Close() {}

// ─── shared plumbing ───

func execute(ctx context.Context, q querier, sql string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

// mapErr translates pgx/pgconn sentinels to store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNoRows
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicate
	}
	return err
}

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	return mapErr(r.row.Scan(dest...))
}

type pgRows struct {
	rows pgx.Rows
}

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return mapErr(r.rows.Scan(dest...)) }
func (r *pgRows) Err() error             { return r.rows.Err() }
func (r *pgRows) Close()                 { r.rows.Close() }
