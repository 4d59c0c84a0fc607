package catalog_test

import (
	"testing"
	"time"

	"ddl-pump/internal/catalog"
	"ddl-pump/internal/engine"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var _ engine.Introspection = (*catalog.Snapshot)(nil)

func TestSnapshot_UniqueKeys(t *testing.T) {
	s := catalog.NewSnapshot()
	s.AddUnique("Users", "email")
	s.AddUnique("users", "email")
	s.AddUnique("users", "org_id", "handle")
	s.AddUnique("users")

	assert.Equal(t, [][]string{{"email"}, {"org_id", "handle"}}, s.UniqueKeys("USERS"))
	assert.Empty(t, s.UniqueKeys("orders"))

	keys := s.UniqueKeys("users")
	keys[0][0] = "changed"
	assert.Equal(t, "email", s.UniqueKeys("users")[0][0], "callers get a copy")
}

func TestSnapshot_Contains(t *testing.T) {
	s := catalog.NewSnapshot()
	s.AddValues("books", []string{"id"}, []any{int64(7)}, []any{[]byte("12")})
	s.AddValues("books", []string{"isbn"}, []any{[]byte("9780306406157")})
	s.AddValues("books", []string{"price"}, []any{[]byte("12.50")})
	s.AddValues("books", []string{"published"}, []any{time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)})
	s.AddValues("books", []string{"shelf", "slot"}, []any{"A", int64(3)}, []any{"B", nil})

	tests := []struct {
		name    string
		columns []string
		values  []any
		want    bool
	}{
		{"int vs int64", []string{"id"}, []any{7}, true},
		{"float vs int64", []string{"id"}, []any{float64(7)}, true},
		{"string vs bytes", []string{"id"}, []any{"12"}, true},
		{"absent", []string{"id"}, []any{8}, false},
		{"text", []string{"ISBN"}, []any{"9780306406157"}, true},
		{"decimal scale", []string{"price"}, []any{decimal.RequireFromString("12.5")}, true},
		{"date string", []string{"published"}, []any{"2023-02-01"}, true},
		{"composite", []string{"shelf", "slot"}, []any{"A", 3}, true},
		{"composite other", []string{"shelf", "slot"}, []any{"A", 4}, false},
		{"null never matches", []string{"shelf", "slot"}, []any{"B", nil}, false},
		{"other key", []string{"isbn"}, []any{7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Contains("BOOKS", tt.columns, tt.values))
		})
	}
}

func TestSnapshot_Tables(t *testing.T) {
	s := catalog.NewSnapshot()
	s.AddTable("USERS")
	assert.True(t, s.Exists("users"))
	assert.False(t, s.Exists("orders"))
	assert.Empty(t, s.Missing())
}

func TestSnapshot_MaxInt(t *testing.T) {
	s := catalog.NewSnapshot()
	s.AddValues("Users", []string{"ID"}, []any{int64(3)}, []any{[]byte("41")}, []any{nil}, []any{"7"})
	s.AddValues("users", []string{"email"}, []any{"a@example.com"})
	s.AddValues("users", []string{"org_id", "seq"}, []any{int64(900), int64(1)})

	top, ok := s.MaxInt("users", "id")
	assert.True(t, ok)
	assert.Equal(t, int64(41), top)

	_, ok = s.MaxInt("users", "email")
	assert.False(t, ok, "text keys have no integer maximum")
	_, ok = s.MaxInt("users", "org_id")
	assert.False(t, ok, "composite keys are not tracked")
	var _ engine.KeyRange = s
}
