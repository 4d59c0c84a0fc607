package engine_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ddl-pump/internal/catalog"
	"ddl-pump/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair_Scenario(t *testing.T) {
	tbl := mustTable(t, scenarioDDL, "t")
	b := batchOf(tbl, []any{1, "abcdefghij"}, []any{1, nil})

	vs := engine.Validate(tbl, b, nil)
	fixed, unrepairable := engine.NewRepairer(1).Repair(tbl, b, vs, nil)

	assert.Empty(t, unrepairable)
	require.Equal(t, b.Len(), fixed.Len())
	assert.Equal(t, b.Columns, fixed.Columns)

	assert.Equal(t, 1, fixed.Get(0, "id"), "first row of a group keeps its key")
	assert.Equal(t, int64(2), fixed.Get(1, "id"))
	assert.Equal(t, "abcdefghij", fixed.Get(0, "e"))
	assert.Equal(t, "", fixed.Get(1, "e"))

	assert.Empty(t, engine.Validate(tbl, fixed, nil))
	// input untouched
	assert.Nil(t, b.Get(1, "e"))
}

func TestRepair_TruncatesToMaxLength(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE c (code VARCHAR(5));`, "c")
	b := batchOf(tbl, []any{"abcdefghij"}, []any{"한국어데이터입니다"})

	fixed, _ := engine.NewRepairer(1).Fix(tbl, b, nil)
	assert.Equal(t, "abcde", fixed.Get(0, "code"))
	assert.Equal(t, 5, utf8.RuneCountInString(fixed.Get(1, "code").(string)))
	assert.Empty(t, engine.Validate(tbl, fixed, nil))
}

func TestRepair_Dates(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE d (day DATE NOT NULL, at TIMESTAMP);`, "d")
	b := batchOf(tbl,
		[]any{"2023-02-29", "2021-02-29 08:15:00"},
		[]any{"not a date", "garbage"},
		[]any{nil, nil},
	)

	fixed, rep := engine.NewRepairer(1).Fix(tbl, b, nil)
	assert.Empty(t, rep.Unrepairable)
	assert.Equal(t, "2023-02-28", fixed.Get(0, "day"))
	assert.Equal(t, "2021-02-28 08:15:00", fixed.Get(0, "at"))
	assert.Equal(t, "1970-01-01", fixed.Get(1, "day"))
	assert.Equal(t, "1970-01-01 00:00:00", fixed.Get(1, "at"))
	assert.Equal(t, "1970-01-01", fixed.Get(2, "day"))
	assert.Nil(t, fixed.Get(2, "at"))
}

func TestRepair_TypeDefaultsForNulls(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE x (
		n INT NOT NULL, p DECIMAL(8,2) NOT NULL, ok BOOLEAN NOT NULL,
		s TEXT NOT NULL, u UUID NOT NULL, j JSONB NOT NULL
	);`, "x")
	b := batchOf(tbl, []any{nil, nil, nil, nil, nil, nil})

	fixed, rep := engine.NewRepairer(1).Fix(tbl, b, nil)
	assert.Len(t, rep.Found, 6)
	assert.Empty(t, rep.Unrepairable)
	assert.Equal(t, []any{0, 0, false, "", "00000000-0000-0000-0000-000000000000", "{}"}, fixed.Rows[0])
}

func TestRepair_DuplicateValueShapes(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE users (
		id INT PRIMARY KEY,
		email VARCHAR(40) UNIQUE,
		username VARCHAR(12) UNIQUE,
		isbn CHAR(13) UNIQUE,
		label VARCHAR(8) UNIQUE,
		token UUID UNIQUE
	);`, "users")
	row := func(id int) []any {
		return []any{id, "kim@example.com", "kim", "9780306406157", "abcdefgh", "2b1f9a4e-0c44-4a5e-9a0e-0f8e4c8f1a11"}
	}
	b := batchOf(tbl, row(1), row(2), row(3))

	fixed, rep := engine.NewRepairer(42).Fix(tbl, b, nil)
	require.Empty(t, rep.Unrepairable)
	assert.Empty(t, engine.Validate(tbl, fixed, nil))

	for r := 1; r < 3; r++ {
		email := fixed.Get(r, "email").(string)
		assert.True(t, strings.HasPrefix(email, "kim"), email)
		assert.True(t, strings.HasSuffix(email, "@example.com"), email)

		user := fixed.Get(r, "username").(string)
		assert.True(t, strings.HasPrefix(user, "kim"), user)
		assert.LessOrEqual(t, utf8.RuneCountInString(user), 12)

		isbn := fixed.Get(r, "isbn").(string)
		assert.Len(t, isbn, 13)
		assert.True(t, strings.HasPrefix(isbn, "978"))

		assert.LessOrEqual(t, utf8.RuneCountInString(fixed.Get(r, "label").(string)), 8)
		assert.Len(t, fixed.Get(r, "token").(string), 36)
	}
	// first occurrence untouched
	assert.Equal(t, row(1), fixed.Rows[0])
}

func TestRepair_IntegerKeysTakeNextFreeValue(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE k (id INT PRIMARY KEY, name TEXT);`, "k")
	b := batchOf(tbl, []any{5, "a"}, []any{5, "b"}, []any{9, "c"}, []any{5, "d"})

	fixed, rep := engine.NewRepairer(1).Fix(tbl, b, nil)
	require.Empty(t, rep.Unrepairable)
	assert.Equal(t, 5, fixed.Get(0, "id"))
	assert.Equal(t, int64(10), fixed.Get(1, "id"))
	assert.Equal(t, int64(11), fixed.Get(3, "id"))
}

func TestRepair_CompositeKeyKeepsForeignKeyColumn(t *testing.T) {
	tbl := mustTable(t, `
CREATE TABLE orders (id INT PRIMARY KEY);
CREATE TABLE order_lines (
	order_id INT REFERENCES orders(id),
	line_no INT,
	PRIMARY KEY (order_id, line_no)
);`, "order_lines")
	b := batchOf(tbl, []any{1, 1}, []any{1, 1})

	fixed, rep := engine.NewRepairer(1).Fix(tbl, b, nil)
	require.Empty(t, rep.Unrepairable)
	assert.Equal(t, 1, fixed.Get(1, "order_id"))
	assert.Equal(t, int64(2), fixed.Get(1, "line_no"))
}

func TestRepair_AvoidsLiveValues(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE tags (name VARCHAR(20) UNIQUE);`, "tags")
	b := batchOf(tbl, []any{"go"}, []any{"go"})

	// Find what the first attempt would produce, then pretend it already exists.
	first, _ := engine.NewRepairer(7).Fix(tbl, b, nil)
	taken := first.Get(1, "name").(string)

	live := fakeLive{existing: map[string]bool{"tags|" + taken: true}}
	fixed, rep := engine.NewRepairer(7).Fix(tbl, b, live)
	require.Empty(t, rep.Unrepairable)
	assert.NotEqual(t, taken, fixed.Get(1, "name"))
	assert.NotEqual(t, "go", fixed.Get(1, "name"))
}

func TestRepair_UnrepairableAfterBudget(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE flags (on_off BOOLEAN UNIQUE);`, "flags")
	b := batchOf(tbl, []any{true}, []any{false}, []any{true})

	vs := engine.Validate(tbl, b, nil)
	fixed, unrepairable := engine.NewRepairer(1, engine.WithMaxAttempts(3)).Repair(tbl, b, vs, nil)

	require.Len(t, unrepairable, 1)
	assert.Equal(t, 2, unrepairable[0].Row)
	assert.Contains(t, unrepairable[0].Detail, "no free value")
	assert.Equal(t, true, fixed.Get(2, "on_off"), "unrepairable cell keeps its value")
	assert.Equal(t, 3, fixed.Len())

	_, rep := engine.NewRepairer(1, engine.WithMaxPasses(2)).Fix(tbl, b, nil)
	assert.Equal(t, 2, rep.Passes)
	require.Len(t, rep.Unrepairable, 1)
	assert.Equal(t, 2, rep.Unrepairable[0].Row, "the failing cell, not the whole group")
	assert.Equal(t, []int{2}, rep.Unrepairable[0].Rows)
	assert.Contains(t, rep.Unrepairable[0].Detail, "no free value for on_off")
}

func TestRepair_IdempotentAndRowCountPreserved(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE p (
		id INT PRIMARY KEY,
		code VARCHAR(4) UNIQUE NOT NULL,
		born DATE
	);`, "p")
	b := batchOf(tbl,
		[]any{1, "AAAAAA", "2023-02-29"},
		[]any{1, "AAAA", "2020-02-29"},
		[]any{2, nil, "oops"},
		[]any{3, "AAAA", nil},
	)

	once, rep := engine.NewRepairer(3).Fix(tbl, b, nil)
	require.Empty(t, rep.Unrepairable)
	assert.Equal(t, b.Len(), once.Len())

	twice, rep2 := engine.NewRepairer(3).Fix(tbl, once, nil)
	assert.Equal(t, once, twice)
	assert.Empty(t, rep2.Found)
	assert.Zero(t, rep2.Passes)

	again, unrepairable := engine.NewRepairer(9).Repair(tbl, once, engine.Validate(tbl, once, nil), nil)
	assert.Equal(t, once, again)
	assert.Empty(t, unrepairable)
}

func TestRepair_DeterministicForSeed(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE s (slug TEXT UNIQUE);`, "s")
	b := batchOf(tbl, []any{"x"}, []any{"x"}, []any{"x"})

	a, _ := engine.NewRepairer(11).Fix(tbl, b, nil)
	c, _ := engine.NewRepairer(11).Fix(tbl, b, nil)
	assert.Equal(t, a, c)
}

func TestRepair_IntegerKeysSkipStoredRun(t *testing.T) {
	tbl := mustTable(t, `CREATE TABLE k (id INT PRIMARY KEY);`, "k")
	stored := catalog.NewSnapshot()
	for i := int64(1); i <= 50; i++ {
		stored.AddValues("k", []string{"id"}, []any{i})
	}

	fixed, rep := engine.NewRepairer(1).Fix(tbl, batchOf(tbl, []any{1}, []any{2}), stored)
	require.Empty(t, rep.Unrepairable)
	assert.Equal(t, int64(51), fixed.Get(0, "id"))
	assert.Equal(t, int64(52), fixed.Get(1, "id"))
}
