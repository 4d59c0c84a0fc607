package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"ddl-pump/internal/ddl"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	tables = nil
	t.Cleanup(func() {
		viper.Reset()
		tables = nil
	})
}

func TestGetActiveDBConfig(t *testing.T) {
	resetConfig(t)

	_, err := GetActiveDBConfig()
	require.Error(t, err)

	viper.Set("databases", []map[string]any{
		{"name": "local", "driver": "postgres", "dsn": "postgres://localhost/a", "active": false},
		{"name": "ci", "driver": "sqlite", "dsn": "file:ci.db", "active": true},
	})
	cfg, err := GetActiveDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "ci", cfg.Name)

	viper.Set("databases", []map[string]any{
		{"name": "a", "active": true},
		{"name": "b", "active": true},
	})
	_, err = GetActiveDBConfig()
	assert.ErrorContains(t, err, "multiple active")
}

func TestResolveDBConfig_FallsBackToFlags(t *testing.T) {
	resetConfig(t)

	_, err := resolveDBConfig()
	require.Error(t, err)

	viper.Set("database.dsn", "postgres://u:p@localhost/shop?sslmode=disable")
	cfg, err := resolveDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver, "detected from the DSN")

	viper.Set("database.driver", "sqlite3")
	cfg, err = resolveDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Driver)
}

func TestTargetTables(t *testing.T) {
	resetConfig(t)
	s, _ := ddl.Parse(`CREATE TABLE users (id INT);
CREATE TABLE Orders (id INT);
CREATE TABLE audit (id INT);`)

	names, err := targetTables(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "Orders", "audit"}, names)

	viper.Set("settings.tables", []string{"audit", "orders"})
	names, err = targetTables(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders", "audit"}, names, "schema order, case-insensitive")

	tables = []string{"users"}
	names, err = targetTables(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, names, "flag wins over config")

	tables = []string{"ghost"}
	_, err = targetTables(s)
	assert.ErrorContains(t, err, "no matching tables")
}

func TestLoadSchema(t *testing.T) {
	resetConfig(t)

	_, err := loadSchema()
	require.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(`
CREATE TABLE orders (id INT PRIMARY KEY, customer_id INT REFERENCES customers(id));
CREATE TABLE customers (id INT PRIMARY KEY);`), 0o644))
	viper.Set("settings.ddl", path)

	s, err := loadSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers"}, s.TableNames())

	empty := filepath.Join(dir, "empty.sql")
	require.NoError(t, os.WriteFile(empty, []byte("-- nothing here\n"), 0o644))
	viper.Set("settings.ddl", empty)
	_, err = loadSchema()
	assert.ErrorContains(t, err, "no tables found")
}
