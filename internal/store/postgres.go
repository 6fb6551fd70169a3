package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/wxcounter/internal/config"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS counters (
	id         UUID        PRIMARY KEY,
	count      INTEGER     NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Store = (*Postgres)(nil)

// Postgres stores records in PostgreSQL through a pgx pool.
type Postgres struct {
	q       querier
	pool    *pgxpool.Pool
	stamper stamper
}

// NewPostgres wraps an existing querier. The caller keeps ownership of it;
// Close is a no-op unless the store was created by OpenPostgres.
func NewPostgres(q querier) *Postgres {
	return &Postgres{q: q, stamper: defaultStamper()}
}

// OpenPostgres creates a pool from cfg and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPostgres(pool)
	s.pool = pool
	return s, nil
}

func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, postgresSchema); err != nil {
		return mapPgError("store.postgres.EnsureSchema", err)
	}
	return nil
}

func (s *Postgres) Append(ctx context.Context) error {
	const op = "store.postgres.Append"

	rec, err := s.stamper.stamp()
	if err != nil {
		return mapError(op, err, func(error) bool { return true })
	}
	_, err = s.q.Exec(ctx,
		"INSERT INTO counters (id, created_at, updated_at) VALUES ($1, $2, $2)",
		rec.ID, rec.At)
	if err != nil {
		return mapPgError(op, err)
	}
	return nil
}

func (s *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRow(ctx, "SELECT COUNT(*) FROM counters").Scan(&n); err != nil {
		return 0, mapPgError("store.postgres.Count", err)
	}
	return n, nil
}

func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, "TRUNCATE TABLE counters"); err != nil {
		return mapPgError("store.postgres.Clear", err)
	}
	return nil
}

func (s *Postgres) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func mapPgError(op string, err error) error {
	return mapError(op, err, isPgRejection)
}

// isPgRejection reports server-side errors other than connection exceptions
// (class 08) and operator intervention (class 57, e.g. admin shutdown).
func isPgRejection(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return !strings.HasPrefix(pgErr.Code, "08") && !strings.HasPrefix(pgErr.Code, "57")
}
