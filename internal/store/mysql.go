package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/sundayezeilo/wxcounter/internal/config"
)

const mysqlSchema = `CREATE TABLE IF NOT EXISTS counters (
	id         CHAR(36)    NOT NULL PRIMARY KEY,
	count      INT         NOT NULL DEFAULT 1,
	created_at DATETIME(6) NOT NULL,
	updated_at DATETIME(6) NOT NULL
) DEFAULT CHARSET = utf8mb4`

var mysqlDialect = dialect{
	name:     "mysql",
	schema:   mysqlSchema,
	insert:   "INSERT INTO counters (id, created_at, updated_at) VALUES (?, ?, ?)",
	clear:    "TRUNCATE TABLE counters",
	rejected: isMySQLRejection,
}

// mysqlConfig builds the driver config. parseTime + UTC keeps DATETIME
// columns round-tripping as time.Time.
func mysqlConfig(c config.MySQLConfig) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Address
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Timeout = 5 * time.Second
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(ctx context.Context, c config.MySQLConfig) (Store, error) {
	connector, err := mysql.NewConnector(mysqlConfig(c))
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(c.MaxConns)
	db.SetMaxIdleConns(c.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql at %s: %w", c.Address, err)
	}

	return newSQLStore(db, mysqlDialect), nil
}

func isMySQLRejection(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return false
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr)
}
