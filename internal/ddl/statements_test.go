package ddl_test

import (
	"testing"

	"ddl-pump/internal/ddl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	src := `-- shop
CREATE EXTENSION IF NOT EXISTS pgcrypto;
CREATE TABLE IF NOT EXISTS shop.customers (
    id SERIAL PRIMARY KEY,
    note TEXT DEFAULT 'a;b'
);

CREATE UNIQUE INDEX customers_note ON ONLY customers (note);;
ALTER TABLE IF EXISTS "Orders" ADD COLUMN total INT;
CREATE TABLE "Orders" (id INT)`

	stmts := ddl.Statements(src)
	require.Len(t, stmts, 5)

	tests := []struct {
		kind  ddl.StatementKind
		table string
		line  int
	}{
		{ddl.OtherStatement, "", 2},
		{ddl.CreateTableStatement, "customers", 3},
		{ddl.TableChangeStatement, "customers", 8},
		{ddl.TableChangeStatement, "Orders", 9},
		{ddl.CreateTableStatement, "Orders", 10},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.kind, stmts[i].Kind, "statement %d", i)
		assert.Equal(t, tt.table, stmts[i].Table, "statement %d", i)
		assert.Equal(t, tt.line, stmts[i].Line, "statement %d", i)
	}

	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS pgcrypto", stmts[0].Text)
	assert.Contains(t, stmts[1].Text, "DEFAULT 'a;b'\n)")
	assert.Equal(t, `CREATE TABLE "Orders" (id INT)`, stmts[4].Text)
}

func TestStatements_Empty(t *testing.T) {
	assert.Empty(t, ddl.Statements(""))
	assert.Empty(t, ddl.Statements("-- nothing here\n;;"))
}
