package rowsource_test

import (
	"strings"
	"testing"

	"ddl-pump/internal/engine"
	"ddl-pump/internal/rowsource"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_KeepsColumnOrder(t *testing.T) {
	b := engine.RowBatch{Columns: []string{"email", "age", "id"}}
	b.Append([]any{"a@example.com", 31, nil})

	out, err := rowsource.Encode(b)
	require.NoError(t, err)
	text := string(out)
	assert.Less(t, strings.Index(text, "email"), strings.Index(text, "age"))
	assert.Less(t, strings.Index(text, "age"), strings.Index(text, "id:"))
}

func TestWriteDir_ReadsBack(t *testing.T) {
	s := parse(t)
	users := engine.RowBatch{Columns: []string{"id", "email", "age"}}
	users.Append([]any{1, "a@example.com", 31})
	users.Append([]any{2, "b@example.com", nil})
	posts := engine.RowBatch{Columns: []string{"id", "title"}}
	posts.Append([]any{decimal.NewFromInt(7), []byte("hello")})

	dir := t.TempDir()
	require.NoError(t, rowsource.WriteDir(dir, map[string]engine.RowBatch{"users": users, "posts": posts}))

	got, err := rowsource.ReadDir(dir, s)
	require.NoError(t, err)
	assert.Equal(t, users, got["users"])
	assert.Equal(t, []string{"id", "title"}, got["posts"].Columns)
	assert.Equal(t, "hello", got["posts"].Get(0, "title"))
}
