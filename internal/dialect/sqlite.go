package dialect

import (
	"database/sql"
	"fmt"
)

// SQLiteDialect targets modernc.org/sqlite, registered as "sqlite".
type SQLiteDialect struct{}

func (d *SQLiteDialect) TablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND ? IS NOT NULL`
}

func (d *SQLiteDialect) UniqueConstraintsQuery() string {
	return `SELECT m.name, il.name, ii.name
FROM sqlite_master m
JOIN pragma_index_list(m.name) il
JOIN pragma_index_info(il.name) ii
WHERE m.type = 'table' AND il."unique" = 1 AND il.origin <> 'pk' AND ? IS NOT NULL
ORDER BY m.name, il.name, ii.seqno`
}

// BeforePump defers foreign key checks to commit. SQLite resets the pragma
// itself at COMMIT or ROLLBACK, so AfterPump has nothing to undo.
func (d *SQLiteDialect) BeforePump(tx *sql.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := tx.Exec("PRAGMA defer_foreign_keys = ON")
	return err
}

func (d *SQLiteDialect) AfterPump(tx *sql.Tx, tables []string) error {
	return nil
}

func (d *SQLiteDialect) BeforeTable(tx *sql.Tx, table, identity string) error {
	return nil
}

func (d *SQLiteDialect) AfterTable(tx *sql.Tx, table, identity string) error {
	return nil
}

func (d *SQLiteDialect) InsertQuery(table string, cols []string) string {
	return insertQuery(d, "INSERT OR IGNORE INTO", table, cols)
}

// SQLite has no TRUNCATE; an unqualified DELETE takes the truncate path.
func (d *SQLiteDialect) TruncateQuery(table string) string {
	return fmt.Sprintf("DELETE FROM %s", d.Quote(table))
}

func (d *SQLiteDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.Quote(table))
}

func (d *SQLiteDialect) SelectColumnsQuery(table string, cols []string) string {
	return selectColumns(d, table, cols)
}

func (d *SQLiteDialect) CountQuery(table string) string {
	return countRows(d, table)
}

func (d *SQLiteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SQLiteDialect) Quote(ident string) string {
	return wrap(ident, `"`, `"`)
}

func (d *SQLiteDialect) Fold(ident string) string {
	return ident
}

func (d *SQLiteDialect) GetSchemaName(input string) string {
	if input == "" {
		return "main"
	}
	return input
}

func (d *SQLiteDialect) GetLimitRowQuery(query string, limit int) string {
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}
