package dialect

import (
	"database/sql"
	"fmt"
	"strings"
)

type PostgresDialect struct{}

func (d *PostgresDialect) TablesQuery() string {
	// use $1 placeholder
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = $1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *PostgresDialect) UniqueConstraintsQuery() string {
	// pg_index covers UNIQUE constraints and CREATE UNIQUE INDEX alike;
	// information_schema only knows the former.
	return `SELECT t.relname, i.relname, a.attname
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE n.nspname = $1 AND ix.indisunique AND NOT ix.indisprimary
ORDER BY t.relname, i.relname, k.ord`
}

func (d *PostgresDialect) BeforePump(tx *sql.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	// Use DEFERRED constraints for circular dependencies.
	// This works for foreign keys defined as DEFERRABLE.
	_, err := tx.Exec("SET CONSTRAINTS ALL DEFERRED")
	return err
}

func (d *PostgresDialect) AfterPump(tx *sql.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	// 커밋 전에 지연된 FK 를 즉시 검사
	_, err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE")
	return err
}

func (d *PostgresDialect) BeforeTable(tx *sql.Tx, table, identity string) error {
	return nil
}

// AfterTable moves the column's sequence past the explicit values just
// written, so later inserts relying on the default do not collide.
func (d *PostgresDialect) AfterTable(tx *sql.Tx, table, identity string) error {
	if identity == "" {
		return nil
	}
	q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 1)) FROM %s",
		strings.ReplaceAll(d.Quote(table), "'", "''"),
		strings.ReplaceAll(identity, "'", "''"),
		d.Quote(identity), d.Quote(table))
	_, err := tx.Exec(q)
	return err
}

func (d *PostgresDialect) InsertQuery(table string, cols []string) string {
	// Rows that still collide with live data are skipped and show up as
	// missing in the load result.
	return insertQuery(d, "INSERT INTO", table, cols) + " ON CONFLICT DO NOTHING"
}

func (d *PostgresDialect) TruncateQuery(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s CASCADE", d.Quote(table))
}

func (d *PostgresDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.Quote(table))
}

func (d *PostgresDialect) SelectColumnsQuery(table string, cols []string) string {
	return selectColumns(d, table, cols)
}

func (d *PostgresDialect) CountQuery(table string) string {
	return countRows(d, table)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) Quote(ident string) string {
	return foldQuote(ident, d.Fold)
}

func (d *PostgresDialect) Fold(ident string) string {
	return strings.ToLower(ident)
}

// A failed statement aborts a Postgres transaction until it is rolled back,
// so row inserts run under a savepoint.
func (d *PostgresDialect) SavepointQuery(name string) string {
	return "SAVEPOINT " + name
}

func (d *PostgresDialect) RollbackToQuery(name string) string {
	return "ROLLBACK TO SAVEPOINT " + name
}

func (d *PostgresDialect) ReleaseQuery(name string) string {
	return "RELEASE SAVEPOINT " + name
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}

func (d *PostgresDialect) GetLimitRowQuery(query string, limit int) string {
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}
