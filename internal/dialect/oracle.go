package dialect

import (
	"database/sql"
	"fmt"
	"strings"
)

type OracleDialect struct{}

func (d *OracleDialect) TablesQuery() string {
	// USER_TABLES lists tables owned by the current user.
	// The dummy clause consumes the schema argument passed by standard callers.
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL`
}

func (d *OracleDialect) UniqueConstraintsQuery() string {
	return `
SELECT ui.TABLE_NAME, ui.INDEX_NAME, ic.COLUMN_NAME
FROM USER_INDEXES ui
JOIN USER_IND_COLUMNS ic ON ui.INDEX_NAME = ic.INDEX_NAME
WHERE ui.UNIQUENESS = 'UNIQUE'
AND ui.INDEX_NAME NOT IN (
    SELECT INDEX_NAME FROM USER_CONSTRAINTS
    WHERE CONSTRAINT_TYPE = 'P' AND INDEX_NAME IS NOT NULL
)
AND :1 IS NOT NULL
ORDER BY ui.TABLE_NAME, ui.INDEX_NAME, ic.COLUMN_POSITION`
}

type constraintRef struct {
	Table string
	Name  string
}

func (d *OracleDialect) foreignKeys(tx *sql.Tx, status string, tables []string) ([]constraintRef, error) {
	rows, err := tx.Query("SELECT TABLE_NAME, CONSTRAINT_NAME FROM USER_CONSTRAINTS WHERE CONSTRAINT_TYPE = 'R' AND STATUS = :1", status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []constraintRef
	for rows.Next() {
		var c constraintRef
		if err := rows.Scan(&c.Table, &c.Name); err != nil {
			return nil, err
		}
		if inSet(tables, c.Table) {
			refs = append(refs, c)
		}
	}
	return refs, rows.Err()
}

func (d *OracleDialect) BeforePump(tx *sql.Tx, tables []string) error {
	// 1. Set NLS Formats to match the date strings batches carry.
	if _, err := tx.Exec("ALTER SESSION SET NLS_DATE_FORMAT = 'YYYY-MM-DD HH24:MI:SS'"); err != nil {
		return fmt.Errorf("failed to set NLS_DATE_FORMAT: %w", err)
	}
	if _, err := tx.Exec("ALTER SESSION SET NLS_TIMESTAMP_FORMAT = 'YYYY-MM-DD HH24:MI:SS'"); err != nil {
		return fmt.Errorf("failed to set NLS_TIMESTAMP_FORMAT: %w", err)
	}
	if len(tables) == 0 {
		return nil
	}

	// 2. Disable FK constraints of the cyclic tables.
	// Note: In Oracle, DDL (ALTER) implicitly commits the transaction.
	refs, err := d.foreignKeys(tx, "ENABLED", tables)
	if err != nil {
		return err
	}
	for _, c := range refs {
		query := fmt.Sprintf("ALTER TABLE %s DISABLE CONSTRAINT %s", c.Table, c.Name)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to disable constraint %s on %s: %w", c.Name, c.Table, err)
		}
	}
	return nil
}

func (d *OracleDialect) AfterPump(tx *sql.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	refs, err := d.foreignKeys(tx, "DISABLED", tables)
	if err != nil {
		return err
	}
	for _, c := range refs {
		query := fmt.Sprintf("ALTER TABLE %s ENABLE CONSTRAINT %s", c.Table, c.Name)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to enable constraint %s on %s: %w", c.Name, c.Table, err)
		}
	}
	return nil
}

// Identity columns declared BY DEFAULT accept explicit values as is.
func (d *OracleDialect) BeforeTable(tx *sql.Tx, table, identity string) error {
	return nil
}

func (d *OracleDialect) AfterTable(tx *sql.Tx, table, identity string) error {
	return nil
}

func (d *OracleDialect) InsertQuery(table string, cols []string) string {
	return insertQuery(d, "INSERT INTO", table, cols)
}

func (d *OracleDialect) TruncateQuery(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", d.Quote(table))
}

// DropTableQuery has no IF EXISTS before 23c; callers treat a failed drop
// as a warning.
func (d *OracleDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE %s CASCADE CONSTRAINTS", d.Quote(table))
}

func (d *OracleDialect) SelectColumnsQuery(table string, cols []string) string {
	return selectColumns(d, table, cols)
}

func (d *OracleDialect) CountQuery(table string) string {
	return countRows(d, table)
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) Quote(ident string) string {
	return foldQuote(ident, d.Fold)
}

func (d *OracleDialect) Fold(ident string) string {
	return strings.ToUpper(ident)
}

func (d *OracleDialect) GetSchemaName(input string) string {
	return input
}

func (d *OracleDialect) GetLimitRowQuery(query string, limit int) string {
	return fmt.Sprintf("SELECT * FROM (%s) WHERE ROWNUM <= %d", query, limit)
}
