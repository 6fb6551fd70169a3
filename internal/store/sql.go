package store

import (
	"context"
	"database/sql"
)

// dialect holds the statements that differ between database/sql backends.
type dialect struct {
	name     string
	schema   string
	insert   string
	clear    string
	rejected func(error) bool
}

// sqlStore implements Store over database/sql. MySQL and SQLite share it.
type sqlStore struct {
	db      *sql.DB
	d       dialect
	stamper stamper
}

func newSQLStore(db *sql.DB, d dialect) *sqlStore {
	return &sqlStore{db: db, d: d, stamper: defaultStamper()}
}

func (s *sqlStore) op(name string) string {
	return "store." + s.d.name + "." + name
}

func (s *sqlStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.schema); err != nil {
		return mapError(s.op("EnsureSchema"), err, s.d.rejected)
	}
	return nil
}

func (s *sqlStore) Append(ctx context.Context) error {
	rec, err := s.stamper.stamp()
	if err != nil {
		return mapError(s.op("Append"), err, func(error) bool { return true })
	}
	if _, err := s.db.ExecContext(ctx, s.d.insert, rec.ID.String(), rec.At, rec.At); err != nil {
		return mapError(s.op("Append"), err, s.d.rejected)
	}
	return nil
}

func (s *sqlStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM counters").Scan(&n); err != nil {
		return 0, mapError(s.op("Count"), err, s.d.rejected)
	}
	return n, nil
}

func (s *sqlStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.clear); err != nil {
		return mapError(s.op("Clear"), err, s.d.rejected)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
