package dialect

import (
	"database/sql"
	"fmt"
	"strings"
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) often prefers @p1, @p2 named parameters over ?
// especially when prepared statements are involved or simple Exec.

func (d *MSSQLDialect) TablesQuery() string {
	// Use @p1 for schema binding
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) UniqueConstraintsQuery() string {
	return `
		SELECT
			t.name AS TABLE_NAME,
			idx.name AS INDEX_NAME,
			col.name AS COLUMN_NAME
		FROM sys.indexes idx
		JOIN sys.index_columns ic ON idx.object_id = ic.object_id AND idx.index_id = ic.index_id
		JOIN sys.columns col ON ic.object_id = col.object_id AND ic.column_id = col.column_id
		JOIN sys.tables t ON idx.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE idx.is_unique = 1
			AND idx.is_primary_key = 0
			AND ic.is_included_column = 0
			AND s.name = @p1
		ORDER BY t.name, idx.name, ic.key_ordinal
	`
}

// BeforePump disables constraints on the tables of a cycle so they can be
// filled in any order.
func (d *MSSQLDialect) BeforePump(tx *sql.Tx, tables []string) error {
	for _, t := range tables {
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s NOCHECK CONSTRAINT all", d.Quote(t))); err != nil {
			return fmt.Errorf("failed to disable constraints on %s: %w", t, err)
		}
	}
	return nil
}

func (d *MSSQLDialect) AfterPump(tx *sql.Tx, tables []string) error {
	for _, t := range tables {
		// WITH CHECK CHECK validates the rows written while checks were off.
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s WITH CHECK CHECK CONSTRAINT all", d.Quote(t))); err != nil {
			return fmt.Errorf("failed to enable constraints on %s: %w", t, err)
		}
	}
	return nil
}

func (d *MSSQLDialect) BeforeTable(tx *sql.Tx, table, identity string) error {
	if identity == "" {
		return nil
	}
	_, err := tx.Exec(fmt.Sprintf("SET IDENTITY_INSERT %s ON", d.Quote(table)))
	return err
}

func (d *MSSQLDialect) AfterTable(tx *sql.Tx, table, identity string) error {
	if identity == "" {
		return nil
	}
	_, err := tx.Exec(fmt.Sprintf("SET IDENTITY_INSERT %s OFF", d.Quote(table)))
	return err
}

func (d *MSSQLDialect) InsertQuery(table string, cols []string) string {
	return insertQuery(d, "INSERT INTO", table, cols)
}

// TruncateQuery deletes instead: TRUNCATE is refused on tables referenced by
// a foreign key.
func (d *MSSQLDialect) TruncateQuery(table string) string {
	return fmt.Sprintf("DELETE FROM %s", d.Quote(table))
}

func (d *MSSQLDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.Quote(table))
}

// ReseedQuery resets the IDENTITY seed after DELETE.
func (d *MSSQLDialect) ReseedQuery(table string) string {
	return fmt.Sprintf("DBCC CHECKIDENT ('%s', RESEED, 0)", strings.ReplaceAll(table, "'", "''"))
}

func (d *MSSQLDialect) SelectColumnsQuery(table string, cols []string) string {
	return selectColumns(d, table, cols)
}

func (d *MSSQLDialect) CountQuery(table string) string {
	return countRows(d, table)
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) Quote(ident string) string {
	return wrap(ident, "[", "]")
}

func (d *MSSQLDialect) Fold(ident string) string {
	return ident
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}

func (d *MSSQLDialect) GetLimitRowQuery(query string, limit int) string {
	// Simple T-SQL TOP injection
	trimmed := strings.TrimSpace(query)
	if strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		// Replaces the first occurrence only: "SELECT ..." becomes "SELECT TOP N ...".
		return strings.Replace(query, "SELECT", fmt.Sprintf("SELECT TOP %d", limit), 1)
	}
	return query
}
