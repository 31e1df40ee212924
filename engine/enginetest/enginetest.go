// Package enginetest provides SQLite fixtures and a scriptable Opener for
// tests of the packages built on engine.
package enginetest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/engine"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Bloated creates a real SQLite database at path holding an indexed table
// from which most rows were deleted, leaving free pages for VACUUM.
func Bloated(t testing.TB, path string) int64 {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE blobs (id INTEGER PRIMARY KEY, name TEXT, payload BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE INDEX blobs_name ON blobs(name)`)
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	payload := []byte(strings.Repeat("p", 1024))
	for i := 0; i < 512; i++ {
		_, err = tx.Exec(`INSERT INTO blobs (name, payload) VALUES (?, ?)`, strings.Repeat("n", i%64), payload)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	_, err = db.Exec(`DELETE FROM blobs WHERE id % 8 != 0`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

// Opener is a fake engine. Files listed in Shrink are truncated to the
// given size on VACUUM; OpenErr and ExecErr make the matching step fail.
type Opener struct {
	mu      sync.Mutex
	Shrink  map[string]int64
	OpenErr map[string]error
	ExecErr map[string]map[string]error

	opened []string
	execs  map[string][]string
	closed map[string]int
}

func NewOpener() *Opener {
	return &Opener{
		Shrink:  make(map[string]int64),
		OpenErr: make(map[string]error),
		ExecErr: make(map[string]map[string]error),
		execs:   make(map[string][]string),
		closed:  make(map[string]int),
	}
}

func (o *Opener) FailExec(path, stmt string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ExecErr[path] == nil {
		o.ExecErr[path] = make(map[string]error)
	}
	o.ExecErr[path][stmt] = err
}

func (o *Opener) Open(_ context.Context, path string) (engine.Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, path)
	if err := o.OpenErr[path]; err != nil {
		return nil, err
	}
	return &conn{o: o, path: path}, nil
}

// Execs returns the statements run against path, in order.
func (o *Opener) Execs(path string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.execs[path]...)
}

func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

func (o *Opener) Closed(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed[path]
}

type conn struct {
	o    *Opener
	path string
}

func (c *conn) Exec(_ context.Context, stmt string) error {
	c.o.mu.Lock()
	c.o.execs[c.path] = append(c.o.execs[c.path], stmt)
	execErr := c.o.ExecErr[c.path][stmt]
	size, shrink := c.o.Shrink[c.path]
	c.o.mu.Unlock()

	if execErr != nil {
		return execErr
	}
	if stmt == engine.Vacuum && shrink {
		return errors.Wrap(os.Truncate(c.path, size), "truncate")
	}
	return nil
}

func (c *conn) Close() error {
	c.o.mu.Lock()
	defer c.o.mu.Unlock()
	c.o.closed[c.path]++
	return nil
}
