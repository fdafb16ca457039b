// Package store decouples domain code from the concrete database
// technology. Repositories speak the Database interface; adapters
// (postgres today) register themselves with the factory and own the
// underlying pool. Parameterized statements only.
package store

import (
	"context"
	"errors"
)

// ErrNoRows is returned by Row.Scan when a QueryOne matched nothing.
// Adapters translate their driver-native sentinel to this one so
// repositories never import a driver package.
var ErrNoRows = errors.New("store: no rows")

// ErrDuplicate is returned by Execute on a unique-constraint violation.
var ErrDuplicate = errors.New("store: duplicate key")

// Row is the result of a single-row query.
type Row interface {
	Scan(dest ...any) error
}

// Rows is an iterator over a multi-row result.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Statement is one parameterized SQL statement of a batch.
type Statement struct {
	SQL  string
	Args []any
}

// Database is the provider-neutral SQL surface.
type Database interface {
	// Query runs a multi-row select.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryOne runs a single-row select; Scan yields ErrNoRows when empty.
	QueryOne(ctx context.Context, sql string, args ...any) Row

	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, sql string, args ...any) (int64, error)

	// Batch executes all statements atomically: either every statement
	// commits or none do.
	Batch(ctx context.Context, stmts []Statement) error

	// Transaction runs fn against a transactional Database; returning an
	// error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Database) error) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the pool. No-op inside a transaction.
	Close()
}

// Config selects and configures an adapter.
type Config struct {
	Provider        string // "postgres"
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}
