package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	// Vacuum rewrites the database file, dropping free pages.
	Vacuum = "VACUUM;"
	// Reindex rebuilds every index after the rewrite moved pages around.
	Reindex = "REINDEX;"
)

const DefaultBusyTimeout = 5 * time.Second

// Opener opens a connection to one database file.
type Opener interface {
	Open(ctx context.Context, path string) (Conn, error)
}

type Conn interface {
	Exec(ctx context.Context, stmt string) error
	Close() error
}

// SQLite opens database files with the pure Go modernc.org/sqlite driver.
type SQLite struct {
	BusyTimeout time.Duration
}

func NewSQLite(busyTimeout time.Duration) *SQLite {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	return &SQLite{BusyTimeout: busyTimeout}
}

func (s *SQLite) Open(ctx context.Context, path string) (Conn, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sql open")
	}

	// VACUUM needs exclusive use of the file, one connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragma := fmt.Sprintf("PRAGMA busy_timeout=%d;", s.BusyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}

	// The driver opens lazily; reading the schema cookie makes a
	// non-database file fail here instead of at VACUUM.
	var version int64
	if err := db.QueryRowContext(ctx, "PRAGMA schema_version;").Scan(&version); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "read header")
	}

	return &sqliteConn{db: db}, nil
}

type sqliteConn struct {
	db *sql.DB
}

func (c *sqliteConn) Exec(ctx context.Context, stmt string) error {
	_, err := c.db.ExecContext(ctx, stmt)
	return err
}

func (c *sqliteConn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
