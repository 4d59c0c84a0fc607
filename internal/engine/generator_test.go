package engine_test

import (
	"testing"

	"ddl-pump/internal/catalog"
	"ddl-pump/internal/engine"
	"ddl-pump/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryDDL = `
CREATE TABLE authors (
    id SERIAL PRIMARY KEY,
    name VARCHAR(30) NOT NULL,
    email VARCHAR(60) UNIQUE
);
CREATE TABLE books (
    isbn CHAR(13) PRIMARY KEY,
    author_id INT NOT NULL REFERENCES authors(id),
    title VARCHAR(100),
    price DECIMAL(5,2),
    status VARCHAR(10) CHECK (status IN ('draft', 'published')),
    published DATE,
    in_stock BOOLEAN
);`

func TestGenerator_ShapesRowsToTable(t *testing.T) {
	s := mustSchema(t, libraryDDL)
	order := schema.InsertionOrder(s, s.TableNames())

	batches := engine.NewGenerator(1).GenerateAll(s, order, 20)
	require.Len(t, batches, 2)

	authors := batches["authors"]
	assert.Equal(t, s.Table("authors").ColumnNames(), authors.Columns)
	require.Equal(t, 20, authors.Len())
	for i := 0; i < authors.Len(); i++ {
		assert.Equal(t, int64(i+1), authors.Get(i, "id"), "serial columns count up")
	}

	books := batches["books"]
	ids := map[any]bool{}
	for _, row := range authors.Rows {
		ids[row[0]] = true
	}
	for i := 0; i < books.Len(); i++ {
		assert.True(t, ids[books.Get(i, "author_id")], "foreign keys come from generated parents")
		assert.Contains(t, []any{"draft", "published"}, books.Get(i, "status"))
		assert.Len(t, books.Get(i, "isbn"), 13)
	}
}

func TestGenerator_OutputRepairsClean(t *testing.T) {
	s := mustSchema(t, libraryDDL)
	batches := engine.NewGenerator(3).GenerateAll(s, []string{"authors", "books"}, 50)

	for name, b := range batches {
		tbl := s.Table(name)
		fixed, rep := engine.NewRepairer(3).Fix(tbl, b, nil)
		assert.Empty(t, rep.Unrepairable, name)
		assert.Empty(t, engine.Validate(tbl, fixed, nil), name)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	s := mustSchema(t, libraryDDL)
	a := engine.NewGenerator(9).GenerateAll(s, []string{"authors", "books"}, 10)
	b := engine.NewGenerator(9).GenerateAll(s, []string{"authors", "books"}, 10)
	assert.Equal(t, a, b)
}

func TestGenerator_ContinuesAboveStoredKeys(t *testing.T) {
	s := mustSchema(t, libraryDDL)
	stored := catalog.NewSnapshot()
	stored.AddValues("authors", []string{"id"}, []any{int64(7)}, []any{int64(3)})

	gen := engine.NewGenerator(1)
	gen.ContinueFrom(stored)
	b := gen.Generate(s.Table("authors"), 2)
	assert.Equal(t, int64(8), b.Get(0, "id"))
	assert.Equal(t, int64(9), b.Get(1, "id"))
}
