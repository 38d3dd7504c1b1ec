package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "gatehouse",
		Password: "secret",
		Name:     "gatehouse",
		Host:     "db.internal",
		Port:     5433,
	})
	require.NoError(t, err)
	require.Equal(t, "host=db.internal port=5433 user=gatehouse dbname=gatehouse password=secret sslmode=disable", dsn)
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{User: "gatehouse"})
	require.Error(t, err)
}

func TestBuildPostgresDSNHonoursExplicitDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://u:p@h/db"})
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@h/db", dsn)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "gatehouse",
		Password: "secret",
		Name:     "gatehouse",
	})
	require.NoError(t, err)
	require.Equal(t, "gatehouse:secret@tcp(localhost:3306)/gatehouse?charset=utf8mb4&loc=Local&parseTime=True", dsn)
}

func TestBuildSQLiteDSNDefaultsToMemory(t *testing.T) {
	for _, path := range []string{"", ":memory:", "  "} {
		dsn, err := buildSQLiteDSN(Config{Path: path})
		require.NoError(t, err)
		require.Equal(t, memorySQLiteDSN, dsn)
	}
}

func TestBuildSQLiteDSNHonoursExplicitDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{DSN: "file:custom.db?_foreign_keys=1"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db?_foreign_keys=1", dsn)
}

func TestBuildSQLiteDSNFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "gatehouse.sqlite")
	dsn, err := buildSQLiteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.DirExists(t, filepath.Dir(path))
}

func TestBuildMySQLDSNOptionsOverrideDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:    "u",
		Name:    "db",
		Options: map[string]string{"loc": "UTC"},
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "loc=UTC")
}
