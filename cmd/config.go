package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"ddl-pump/internal/ddl"
	"ddl-pump/internal/dialect"
	"ddl-pump/internal/engine"
	"ddl-pump/internal/schema"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// resolveDBConfig prefers the active entry of databases[] and falls back to
// the database.* keys, which the --dsn and --driver flags feed.
func resolveDBConfig() (*DBConfig, error) {
	cfg, err := GetActiveDBConfig()
	if err != nil {
		connStr := viper.GetString("database.dsn")
		if connStr == "" {
			return nil, fmt.Errorf("database.dsn is required (via flag, env or config): %w", err)
		}
		cfg = &DBConfig{
			Name:   "CLI",
			Driver: viper.GetString("database.driver"),
			DSN:    connStr,
			Schema: viper.GetString("database.schema"),
			Active: true,
		}
	}
	if cfg.Driver == "" {
		cfg.Driver = dialect.DetectDriver(cfg.DSN)
	}
	cfg.Driver = dialect.DriverName(cfg.Driver)
	return cfg, nil
}

// Connection is an open database with the dialect and schema it is read with.
type Connection struct {
	Config  *DBConfig
	DB      *sql.DB
	Dialect dialect.Dialect
	Schema  string
}

func connect(ctx context.Context) (*Connection, error) {
	cfg, err := resolveDBConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	d := dialect.GetDialect(cfg.Driver)
	schemaName := cfg.Schema
	// Fetch current database name for MySQL
	if schemaName == "" && cfg.Driver == "mysql" {
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schemaName); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to get database name: %w", err)
		}
		if schemaName == "" {
			db.Close()
			return nil, fmt.Errorf("no database selected in DSN")
		}
	}
	logger.Debug("connected", "driver", cfg.Driver, "name", cfg.Name, "schema", d.GetSchemaName(schemaName))

	return &Connection{Config: cfg, DB: db, Dialect: d, Schema: d.GetSchemaName(schemaName)}, nil
}

// readDDL returns the configured DDL file and its path.
func readDDL() (string, string, error) {
	path := viper.GetString("settings.ddl")
	if path == "" {
		return "", "", fmt.Errorf("a DDL file is required (--ddl or settings.ddl)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", path, fmt.Errorf("failed to read DDL: %w", err)
	}
	return string(data), path, nil
}

// loadSchema parses the configured DDL file. Diagnostics are logged by the
// parser; only a document with no usable table is an error.
func loadSchema() (*schema.Schema, error) {
	text, path, err := readDDL()
	if err != nil {
		return nil, err
	}

	p := ddl.Parser{Logger: logger}
	s, diags := p.Parse(text)
	if len(diags) > 0 {
		logger.Info("DDL parsed with diagnostics", "file", path, "tables", len(s.Tables), "diagnostics", len(diags))
	}
	if len(s.Tables) == 0 {
		return nil, fmt.Errorf("no tables found in %s", path)
	}
	return s, nil
}

// targetTables applies the table filter:
// 1. CLI flag --tables
// 2. config settings.tables
// 3. every table in the DDL.
func targetTables(s *schema.Schema) ([]string, error) {
	requested := tables
	if len(requested) == 0 {
		requested = viper.GetStringSlice("settings.tables")
	}
	if len(requested) == 0 {
		return s.TableNames(), nil
	}

	want := make(map[string]bool, len(requested))
	for _, t := range requested {
		want[strings.ToLower(strings.TrimSpace(t))] = true
	}
	var names []string
	for _, t := range s.Tables {
		if want[strings.ToLower(t.Name)] {
			names = append(names, t.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no matching tables found for inputs: %v", requested)
	}
	return names, nil
}

// tablesOf looks names up in s, keeping their order.
func tablesOf(s *schema.Schema, names []string) []*schema.Table {
	out := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		out = append(out, s.Table(name))
	}
	return out
}

func engineOptions() engine.Options {
	return engine.Options{
		Seed:        viper.GetInt64("settings.seed"),
		Workers:     viper.GetInt("settings.workers"),
		MaxAttempts: viper.GetInt("settings.max_attempts"),
		MaxPasses:   viper.GetInt("settings.max_passes"),
		Logger:      logger,
	}
}
