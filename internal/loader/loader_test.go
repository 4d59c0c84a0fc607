package loader_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"ddl-pump/internal/ddl"
	"ddl-pump/internal/dialect"
	"ddl-pump/internal/engine"
	"ddl-pump/internal/loader"
	"ddl-pump/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopDDL = `
CREATE TABLE orders (
    id INT PRIMARY KEY,
    customer_id INT NOT NULL REFERENCES customers(id)
);
CREATE TABLE customers (
    id SERIAL PRIMARY KEY,
    email VARCHAR(40) UNIQUE NOT NULL
);`

func prepare(t *testing.T, src string, rows map[string][][]any) *engine.Plan {
	t.Helper()
	s, diags := ddl.Parse(src)
	require.Empty(t, diags)
	batches := make(map[string]engine.RowBatch)
	for name, rs := range rows {
		b := engine.NewRowBatch(s.Table(name))
		for _, r := range rs {
			b.Append(r)
		}
		batches[name] = b
	}
	plan, err := engine.Prepare(context.Background(), s, batches, nil, engine.Options{Seed: 1, Workers: 1})
	require.NoError(t, err)
	return plan
}

func count(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

// expectGuardedInsert expects one Postgres row insert wrapped in a savepoint.
func expectGuardedInsert(mock sqlmock.Sqlmock, query string, res driver.Result, args ...driver.Value) {
	mock.ExpectExec("SAVEPOINT pump_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(query).WithArgs(args...).WillReturnResult(res)
	mock.ExpectExec("RELEASE SAVEPOINT pump_row").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestLoad_InsertsInPlanOrder(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := prepare(t, shopDDL, map[string][][]any{
		"customers": {{1, "a@example.com"}, {2, "b@example.com"}},
		"orders":    {{10, 1}},
	})
	require.Equal(t, []string{"customers", "orders"}, plan.Order)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM customers").WillReturnRows(count(0))
	insertCustomer := "INSERT INTO customers (id, email) VALUES ($1, $2) ON CONFLICT DO NOTHING"
	expectGuardedInsert(mock, insertCustomer, sqlmock.NewResult(0, 1), 1, "a@example.com")
	// skipped on conflict with a row stored concurrently
	expectGuardedInsert(mock, insertCustomer, sqlmock.NewResult(0, 0), 2, "b@example.com")
	mock.ExpectExec("SELECT setval(pg_get_serial_sequence('customers', 'id'), COALESCE(MAX(id), 1)) FROM customers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT(*) FROM customers").WillReturnRows(count(1))
	mock.ExpectQuery("SELECT COUNT(*) FROM orders").WillReturnRows(count(0))
	expectGuardedInsert(mock, "INSERT INTO orders (id, customer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		sqlmock.NewResult(0, 1), 10, 1)
	mock.ExpectQuery("SELECT COUNT(*) FROM orders").WillReturnRows(count(1))
	mock.ExpectCommit()

	progress := 0
	results, err := loader.Load(context.Background(), db, &dialect.PostgresDialect{}, plan, func() { progress++ })
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 3, progress)
	require.Len(t, results, 2)
	assert.Equal(t, "customers", results[0].Table)
	assert.Equal(t, 2, results[0].Target)
	assert.Equal(t, 1, results[0].Actual)
	assert.Equal(t, loader.StatusMissing, results[0].Status)
	assert.Equal(t, "Only inserted 1 out of 2. Rows skipped on conflict with existing data?", results[0].ErrorMsg)

	assert.Equal(t, "orders", results[1].Table)
	assert.Equal(t, 1, results[1].Actual)
	assert.Equal(t, loader.StatusOK, results[1].Status)
	assert.Empty(t, results[1].ErrorMsg)
}

func TestLoad_DefersConstraintsForCycles(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := prepare(t, `
CREATE TABLE a (id INT PRIMARY KEY, b_id INT REFERENCES b(id));
CREATE TABLE b (id INT PRIMARY KEY, a_id INT REFERENCES a(id));`, map[string][][]any{
		"a": {{1, 1}},
		"b": {{1, 1}},
	})
	require.Equal(t, []string{"a", "b"}, plan.Cyclic)

	mock.ExpectBegin()
	mock.ExpectExec("SET CONSTRAINTS ALL DEFERRED").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT(*) FROM a").WillReturnRows(count(0))
	expectGuardedInsert(mock, "INSERT INTO a (id, b_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		sqlmock.NewResult(0, 1), 1, 1)
	mock.ExpectQuery("SELECT COUNT(*) FROM a").WillReturnRows(count(1))
	mock.ExpectQuery("SELECT COUNT(*) FROM b").WillReturnRows(count(0))
	expectGuardedInsert(mock, "INSERT INTO b (id, a_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		sqlmock.NewResult(0, 1), 1, 1)
	mock.ExpectQuery("SELECT COUNT(*) FROM b").WillReturnRows(count(1))
	mock.ExpectExec("SET CONSTRAINTS ALL IMMEDIATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	results, err := loader.Load(context.Background(), db, &dialect.PostgresDialect{}, plan, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	for _, r := range results {
		assert.Equal(t, loader.StatusOK, r.Status, r.Table)
	}
}

func TestLoad_PartialBatchAndRowErrors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := prepare(t, `CREATE TABLE flags (on_off BOOLEAN UNIQUE);
CREATE TABLE notes (body VARCHAR(10));`, map[string][][]any{
		"flags": {{true}, {false}, {true}},
		"notes": {{"one"}, {"two"}},
	})
	require.Equal(t, []string{"flags"}, plan.Partial())

	d := &dialect.MysqlDialect{}
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM `flags`").WillReturnRows(count(0))
	for _, v := range []bool{true, false, true} {
		mock.ExpectExec("INSERT IGNORE INTO `flags` (`on_off`) VALUES (?)").WithArgs(v).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectQuery("SELECT COUNT(*) FROM `flags`").WillReturnRows(count(2))
	mock.ExpectQuery("SELECT COUNT(*) FROM `notes`").WillReturnRows(count(0))
	mock.ExpectExec("INSERT IGNORE INTO `notes` (`body`) VALUES (?)").WithArgs("one").
		WillReturnError(errors.New("table is read only"))
	mock.ExpectExec("INSERT IGNORE INTO `notes` (`body`) VALUES (?)").WithArgs("two").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT(*) FROM `notes`").WillReturnRows(count(1))
	mock.ExpectCommit()

	results, err := loader.Load(context.Background(), db, d, plan, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, results, 2)

	assert.Equal(t, loader.StatusPartial, results[0].Status)
	assert.Equal(t, 2, results[0].Actual)
	assert.Equal(t, loader.StatusMissing, results[1].Status)
	assert.Contains(t, results[1].ErrorMsg, "1 of 2 inserts failed")
	assert.Contains(t, results[1].ErrorMsg, "read only")
}

func TestLoad_RejectedRowRollsBackToSavepoint(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := prepare(t, `CREATE TABLE hosts (name TEXT, ip INET);
CREATE TABLE notes (body TEXT);`, map[string][][]any{
		"hosts": {{"a", "10.0.0.1"}, {"b", "not-an-ip"}, {"c", "10.0.0.3"}},
		"notes": {{"one"}},
	})

	insertHost := "INSERT INTO hosts (name, ip) VALUES ($1, $2) ON CONFLICT DO NOTHING"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM hosts").WillReturnRows(count(0))
	expectGuardedInsert(mock, insertHost, sqlmock.NewResult(0, 1), "a", "10.0.0.1")
	mock.ExpectExec("SAVEPOINT pump_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertHost).WithArgs("b", "not-an-ip").
		WillReturnError(errors.New(`invalid input syntax for type inet: "not-an-ip"`))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT pump_row").WillReturnResult(sqlmock.NewResult(0, 0))
	expectGuardedInsert(mock, insertHost, sqlmock.NewResult(0, 1), "c", "10.0.0.3")
	mock.ExpectQuery("SELECT COUNT(*) FROM hosts").WillReturnRows(count(2))
	mock.ExpectQuery("SELECT COUNT(*) FROM notes").WillReturnRows(count(0))
	expectGuardedInsert(mock, "INSERT INTO notes (body) VALUES ($1) ON CONFLICT DO NOTHING",
		sqlmock.NewResult(0, 1), "one")
	mock.ExpectQuery("SELECT COUNT(*) FROM notes").WillReturnRows(count(1))
	mock.ExpectCommit()

	results, err := loader.Load(context.Background(), db, &dialect.PostgresDialect{}, plan, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, results, 2)

	assert.Equal(t, loader.StatusMissing, results[0].Status)
	assert.Equal(t, 2, results[0].Actual)
	assert.Contains(t, results[0].ErrorMsg, "1 of 3 inserts failed")
	assert.Equal(t, loader.StatusOK, results[1].Status, "later tables still load")
}

func TestLoad_QuotedNamesKeepTheirCase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := prepare(t, `CREATE TABLE "Users" ("Id" INT PRIMARY KEY, Email TEXT);`, map[string][][]any{
		"Users": {{1, "a@example.com"}},
	})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT(*) FROM "Users"`).WillReturnRows(count(0))
	expectGuardedInsert(mock, `INSERT INTO "Users" ("Id", email) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		sqlmock.NewResult(0, 1), 1, "a@example.com")
	mock.ExpectQuery(`SELECT COUNT(*) FROM "Users"`).WillReturnRows(count(1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT COUNT(*) FROM "Users"`).WillReturnRows(count(1))

	d := &dialect.PostgresDialect{}
	results, err := loader.Load(context.Background(), db, d, plan, nil)
	require.NoError(t, err)
	verified := loader.Verify(context.Background(), db, d, results)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "Users", verified[0].Table)
	assert.Equal(t, loader.StatusVerified, verified[0].Status)
}

func TestLoad_HookFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := prepare(t, `
CREATE TABLE a (id INT PRIMARY KEY, b_id INT REFERENCES b(id));
CREATE TABLE b (id INT PRIMARY KEY, a_id INT REFERENCES a(id));`, map[string][][]any{"a": {}, "b": {}})

	mock.ExpectBegin()
	mock.ExpectExec("SET FOREIGN_KEY_CHECKS = 0").WillReturnError(errors.New("access denied"))
	mock.ExpectRollback()

	_, err = loader.Load(context.Background(), db, &dialect.MysqlDialect{}, plan, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT(*) FROM customers").WillReturnRows(count(12))
	mock.ExpectQuery("SELECT COUNT(*) FROM orders").WillReturnRows(count(3))
	mock.ExpectQuery("SELECT COUNT(*) FROM audit").WillReturnError(errors.New("gone"))

	in := []loader.Result{
		{Table: "customers", Target: 10, Actual: 10, Status: loader.StatusOK},
		{Table: "orders", Target: 5, Actual: 3, Status: loader.StatusOK},
		{Table: "audit", Target: 1, Actual: 1, Status: loader.StatusOK},
	}
	out := loader.Verify(context.Background(), db, &dialect.PostgresDialect{}, in)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, loader.StatusVerified, out[0].Status)
	assert.Equal(t, 12, out[0].Total)
	assert.Equal(t, "PARTIAL: 3/5", out[1].Status)
	assert.Contains(t, out[2].Status, "VERIFY_FAIL")
	assert.Equal(t, loader.StatusOK, in[0].Status, "input untouched")
}

func TestTruncate_ReverseOrder(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE [customers] NOCHECK CONSTRAINT all").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE [orders] NOCHECK CONSTRAINT all").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM [orders]").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DBCC CHECKIDENT ('orders', RESEED, 0)").WillReturnError(errors.New("no identity"))
	mock.ExpectExec("DELETE FROM [customers]").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DBCC CHECKIDENT ('customers', RESEED, 0)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE [customers] WITH CHECK CHECK CONSTRAINT all").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE [orders] WITH CHECK CHECK CONSTRAINT all").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tables := []*schema.Table{{Name: "customers"}, {Name: "orders"}}
	err = loader.Truncate(context.Background(), db, &dialect.MSSQLDialect{}, tables, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
