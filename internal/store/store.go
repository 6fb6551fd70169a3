// Package store holds the Record Store backends. Every backend keeps one
// record per increment event, so the counter value is the number of stored
// records and the table doubles as an audit trail.
//
// Implementations are safe for concurrent use. Each of Append, Count and
// Clear is a single atomic backend operation; sequences of calls are not.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/wxcounter/internal/config"
)

// Store is the record store the counter service runs on.
type Store interface {
	// EnsureSchema creates the backing table (or verifies reachability for
	// schemaless backends). It must succeed before the HTTP listener starts.
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return OpenMySQL(ctx, cfg.MySQL)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.Postgres)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLite.Path)
	case config.DriverRedis:
		return OpenRedis(ctx, cfg.Redis)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// recordStamp carries the generated columns of a new record.
type recordStamp struct {
	ID uuid.UUID
	At time.Time
}

// stamper produces ids and timestamps for new records. Tests swap the
// functions to get deterministic rows.
type stamper struct {
	newID func() (uuid.UUID, error)
	now   func() time.Time
}

func defaultStamper() stamper {
	return stamper{
		newID: uuid.NewV7,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s stamper) stamp() (recordStamp, error) {
	id, err := s.newID()
	if err != nil {
		return recordStamp{}, fmt.Errorf("generate record id: %w", err)
	}
	return recordStamp{ID: id, At: s.now()}, nil
}
