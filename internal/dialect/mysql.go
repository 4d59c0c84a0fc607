package dialect

import (
	"database/sql"
	"fmt"
)

type MysqlDialect struct{}

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) UniqueConstraintsQuery() string {
	return `SELECT TABLE_NAME, INDEX_NAME, COLUMN_NAME FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ? AND NON_UNIQUE = 0 AND INDEX_NAME <> 'PRIMARY' ORDER BY TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX`
}

func (d *MysqlDialect) BeforePump(tx *sql.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := tx.Exec("SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (d *MysqlDialect) AfterPump(tx *sql.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := tx.Exec("SET FOREIGN_KEY_CHECKS = 1")
	return err
}

// AUTO_INCREMENT advances past explicit values on its own.
func (d *MysqlDialect) BeforeTable(tx *sql.Tx, table, identity string) error {
	return nil
}

func (d *MysqlDialect) AfterTable(tx *sql.Tx, table, identity string) error {
	return nil
}

func (d *MysqlDialect) InsertQuery(table string, cols []string) string {
	return insertQuery(d, "INSERT IGNORE INTO", table, cols)
}

func (d *MysqlDialect) TruncateQuery(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", d.Quote(table))
}

func (d *MysqlDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.Quote(table))
}

func (d *MysqlDialect) SelectColumnsQuery(table string, cols []string) string {
	return selectColumns(d, table, cols)
}

func (d *MysqlDialect) CountQuery(table string) string {
	return countRows(d, table)
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) Quote(ident string) string {
	return wrap(ident, "`", "`")
}

func (d *MysqlDialect) Fold(ident string) string {
	return ident
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}

func (d *MysqlDialect) GetLimitRowQuery(query string, limit int) string {
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}
