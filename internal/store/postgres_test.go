package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/wxcounter/internal/errx"
)

/***************
 * Mocks / Stubs
 ***************/

// mockQuerier implements the querier interface for testing.
type mockQuerier struct {
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return stubRow{}
}

type stubRow struct {
	n   int64
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.n
	return nil
}

func fixedStamper(id uuid.UUID, at time.Time) stamper {
	return stamper{
		newID: func() (uuid.UUID, error) { return id, nil },
		now:   func() time.Time { return at },
	}
}

/***************
 * Tests
 ***************/

func TestPostgres_EnsureSchema(t *testing.T) {
	var gotSQL string
	s := NewPostgres(&mockQuerier{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.NewCommandTag("CREATE TABLE"), nil
		},
	})

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	if !strings.Contains(gotSQL, "CREATE TABLE IF NOT EXISTS counters") {
		t.Errorf("schema statement = %q", gotSQL)
	}
	if !strings.Contains(gotSQL, "DEFAULT 1") {
		t.Error("count column should default to 1")
	}
}

func TestPostgres_Append(t *testing.T) {
	id := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	var gotSQL string
	var gotArgs []any
	s := NewPostgres(&mockQuerier{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL, gotArgs = sql, args
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	})
	s.stamper = fixedStamper(id, at)

	if err := s.Append(context.Background()); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !strings.HasPrefix(gotSQL, "INSERT INTO counters") {
		t.Errorf("sql = %q", gotSQL)
	}
	if len(gotArgs) != 2 || gotArgs[0] != id || gotArgs[1] != at {
		t.Errorf("args = %v, want [%v %v]", gotArgs, id, at)
	}
}

func TestPostgres_Count(t *testing.T) {
	s := NewPostgres(&mockQuerier{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if sql != "SELECT COUNT(*) FROM counters" {
				t.Errorf("sql = %q", sql)
			}
			return stubRow{n: 42}
		},
	})

	got, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if got != 42 {
		t.Errorf("Count() = %d, want 42", got)
	}
}

func TestPostgres_Clear(t *testing.T) {
	var gotSQL string
	s := NewPostgres(&mockQuerier{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.NewCommandTag("TRUNCATE TABLE"), nil
		},
	})

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if gotSQL != "TRUNCATE TABLE counters" {
		t.Errorf("sql = %q", gotSQL)
	}
}

func TestPostgres_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind errx.Kind
	}{
		{
			name:     "undefined table is internal",
			err:      &pgconn.PgError{Code: "42P01", Message: `relation "counters" does not exist`},
			wantKind: errx.Internal,
		},
		{
			name:     "connection exception is unavailable",
			err:      &pgconn.PgError{Code: "08006"},
			wantKind: errx.Unavailable,
		},
		{
			name:     "admin shutdown is unavailable",
			err:      &pgconn.PgError{Code: "57P01"},
			wantKind: errx.Unavailable,
		},
		{
			name:     "deadline is unavailable",
			err:      context.DeadlineExceeded,
			wantKind: errx.Unavailable,
		},
		{
			name:     "unclassified defaults to unavailable",
			err:      errors.New("conn closed"),
			wantKind: errx.Unavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPostgres(&mockQuerier{
				queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					return stubRow{err: tt.err}
				},
			})

			_, err := s.Count(context.Background())
			if got := errx.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
			}
			if !errors.Is(err, tt.err) {
				t.Error("mapped error should wrap the driver error")
			}
			if got := errx.OpOf(err); got != "store.postgres.Count" {
				t.Errorf("OpOf() = %q", got)
			}
		})
	}
}

func TestPostgres_CloseWithoutPool(t *testing.T) {
	if err := NewPostgres(&mockQuerier{}).Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
