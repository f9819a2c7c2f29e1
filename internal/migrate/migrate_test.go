package migrate

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// migrationsDir writes a small sqlite-compatible migration set to a
// temp directory: the real migrations/*.sql target MySQL syntax
// (AUTO_INCREMENT), so Run's version/dirty/force logic is exercised
// here against an equivalent sqlite schema instead.
func migrationsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"000001_create_sectors_table.up.sql":   "CREATE TABLE sectors (id INTEGER PRIMARY KEY, weekly_target DOUBLE NOT NULL);",
		"000001_create_sectors_table.down.sql": "DROP TABLE sectors;",
	}
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	return dir
}

func TestRunAppliesAllMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "controller.sqlite")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := Config{Driver: "sqlite", MigrationsPath: migrationsDir(t), DatabaseName: "controller"}
	require.NoError(t, Run(db, cfg, zap.NewNop()))

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='sectors'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "sectors", name)
}

func TestRunIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "controller.sqlite")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := Config{Driver: "sqlite", MigrationsPath: migrationsDir(t), DatabaseName: "controller"}
	require.NoError(t, Run(db, cfg, zap.NewNop()))
	require.NoError(t, Run(db, cfg, zap.NewNop()), "re-running migrations against an up-to-date schema must be a no-op")
}
