// Package db owns the Postgres pool shared by the sqlc queries and the
// runtime-built cascade statements.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"funnelhq.app/portal/core/db/sqlc"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2

	// txAttempts bounds reruns of a transaction that lost a serialization or
	// deadlock race, e.g. two concurrent accepts of the same invitation.
	txAttempts = 3
)

type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
	AppName  string // reported as application_name in pg_stat_activity
}

type DB struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

func New(ctx context.Context, cfg Config) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	poolCfg.MaxConns = orDefault(cfg.MaxConns, defaultMaxConns)
	poolCfg.MinConns = orDefault(cfg.MinConns, defaultMinConns)
	if cfg.AppName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}

	return &DB{pool: pool, sqlDB: stdlib.OpenDBFromPool(pool)}, nil
}

func (db *DB) Close() {
	_ = db.sqlDB.Close()
	db.pool.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Queries() *sqlc.Queries {
	return sqlc.New(db.pool)
}

// SQL exposes the pool through database/sql for the cascade deletion plan,
// whose statements are assembled at runtime.
func (db *DB) SQL() *sql.DB {
	return db.sqlDB
}

// WithTx runs fn in a transaction and commits when it returns nil. Serialization
// failures and deadlocks rerun fn from the start, so fn must not have side
// effects outside the transaction.
func (db *DB) WithTx(ctx context.Context, fn func(q *sqlc.Queries) error) error {
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
			return fn(sqlc.New(tx))
		})
		if !Retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", txAttempts, err)
}

// Retryable reports whether err is a serialization failure or deadlock.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func orDefault(v, def int32) int32 {
	if v > 0 {
		return v
	}
	return def
}
