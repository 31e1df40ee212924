package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/riadafridishibly/sqlitevacuum/engine"
	"github.com/riadafridishibly/sqlitevacuum/engine/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteVacuumShrinksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bloated.db")
	before := enginetest.Bloated(t, path)

	ctx := context.Background()
	conn, err := engine.NewSQLite(0).Open(ctx, path)
	require.NoError(t, err)

	require.NoError(t, conn.Exec(ctx, engine.Vacuum))
	require.NoError(t, conn.Exec(ctx, engine.Reindex))
	require.NoError(t, conn.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), before)
}

func TestSQLiteOpenRejectsNonDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.sqlite")
	garbage := make([]byte, 2048)
	for i := range garbage {
		garbage[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, garbage, 0o644))

	_, err := engine.NewSQLite(0).Open(context.Background(), path)
	assert.Error(t, err)
}

func TestNewSQLiteDefaultsBusyTimeout(t *testing.T) {
	assert.Equal(t, engine.DefaultBusyTimeout, engine.NewSQLite(0).BusyTimeout)
	assert.Equal(t, engine.DefaultBusyTimeout, engine.NewSQLite(-1).BusyTimeout)
	assert.Equal(t, 2*engine.DefaultBusyTimeout, engine.NewSQLite(2*engine.DefaultBusyTimeout).BusyTimeout)
}

func TestBloatedCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "app.sqlite")
	size := enginetest.Bloated(t, path)
	assert.Positive(t, size)

	conn, err := engine.NewSQLite(0).Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}
