package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS counters (
	id         TEXT     NOT NULL PRIMARY KEY,
	count      INTEGER  NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

var sqliteDialect = dialect{
	name:     "sqlite",
	schema:   sqliteSchema,
	insert:   "INSERT INTO counters (id, created_at, updated_at) VALUES (?, ?, ?)",
	clear:    "DELETE FROM counters",
	rejected: isSQLiteRejection,
}

// OpenSQLite opens (or creates) a SQLite database at path.
// Use ":memory:" for an in-memory database.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single connection: SQLite serialises writers anyway, and ":memory:"
	// databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return newSQLStore(db, sqliteDialect), nil
}

func isSQLiteRejection(err error) bool {
	var sqlErr *sqlite.Error
	return errors.As(err, &sqlErr)
}
