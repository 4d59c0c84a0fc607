package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"ddl-pump/internal/ddl"
	"ddl-pump/internal/dialect"
	"ddl-pump/internal/schema"
)

// Apply creates the given tables from the DDL's own statements, parents
// first. Tables the database already has are left alone unless drop is set,
// in which case every given table is dropped first, children first. Other
// statements (types, extensions) run once before the first CREATE TABLE and
// only warn on failure; indexes and ALTER TABLE statements run after the
// table they change. DDL is not transactional on every server, so nothing
// is rolled back when a statement fails.
func Apply(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string, stmts []ddl.Statement,
	tables []*schema.Table, drop bool, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if drop {
		for i := len(tables) - 1; i >= 0; i-- {
			name := dialect.TableName(d, tables[i])
			if _, err := db.ExecContext(ctx, d.DropTableQuery(name)); err != nil {
				logger.Warn("failed to drop table, continuing", "table", name, "err", err)
			}
		}
	}

	existing, err := storedTables(ctx, db, d, schemaName)
	if err != nil {
		return nil, err
	}

	creates := make(map[string]ddl.Statement)
	for _, st := range stmts {
		key := strings.ToLower(st.Table)
		if _, dup := creates[key]; st.Kind == ddl.CreateTableStatement && !dup {
			creates[key] = st
		}
	}

	var created []string
	for _, t := range tables {
		key := strings.ToLower(t.Name)
		if existing[key] {
			logger.Debug("table exists, not created", "table", t.Name)
			continue
		}
		st, ok := creates[key]
		if !ok {
			return created, fmt.Errorf("no CREATE TABLE statement for %s", t.Name)
		}

		if len(created) == 0 {
			runOthers(ctx, db, stmts, logger)
		}
		if _, err := db.ExecContext(ctx, st.Text); err != nil {
			return created, fmt.Errorf("failed to create table %s (line %d): %w", t.Name, st.Line, err)
		}
		created = append(created, t.Name)
		logger.Info("table created", "table", t.Name)
	}

	for _, st := range stmts {
		if st.Kind != ddl.TableChangeStatement || !inList(created, st.Table) {
			continue
		}
		if _, err := db.ExecContext(ctx, st.Text); err != nil {
			return created, fmt.Errorf("failed to apply statement on %s (line %d): %w", st.Table, st.Line, err)
		}
	}
	return created, nil
}

func runOthers(ctx context.Context, db *sql.DB, stmts []ddl.Statement, logger *slog.Logger) {
	for _, st := range stmts {
		if st.Kind != ddl.OtherStatement {
			continue
		}
		if _, err := db.ExecContext(ctx, st.Text); err != nil {
			logger.Warn("statement failed, continuing", "line", st.Line, "err", err)
		}
	}
}

// storedTables lists the tables of the schema, lower-cased.
func storedTables(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, d.TablesQuery(), d.GetSchemaName(schemaName))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[strings.ToLower(name)] = true
	}
	return names, rows.Err()
}

func inList(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
