package engine

import "ddl-pump/internal/schema"

// RowBatch is an ordered set of same-shaped rows for one table. Cells are
// positional against Columns; a nil cell is SQL NULL.
type RowBatch struct {
	Columns []string
	Rows    [][]any
}

// NewRowBatch returns an empty batch shaped like the table.
func NewRowBatch(t *schema.Table) RowBatch {
	return RowBatch{Columns: t.ColumnNames()}
}

func (b RowBatch) Len() int {
	return len(b.Rows)
}

// Index returns the position of the named column or -1.
func (b RowBatch) Index(column string) int {
	for i, c := range b.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Get returns the cell at row, column. Unknown columns and short rows read as NULL.
func (b RowBatch) Get(row int, column string) any {
	i := b.Index(column)
	if i < 0 || i >= len(b.Rows[row]) {
		return nil
	}
	return b.Rows[row][i]
}

// Set writes a cell in place. It reports false when the column is unknown.
func (b RowBatch) Set(row int, column string, v any) bool {
	i := b.Index(column)
	if i < 0 || i >= len(b.Rows[row]) {
		return false
	}
	b.Rows[row][i] = v
	return true
}

// Append adds a row; it must have one cell per column.
func (b *RowBatch) Append(row []any) {
	b.Rows = append(b.Rows, row)
}

// Clone copies the row slices so cell writes on the copy do not leak back.
func (b RowBatch) Clone() RowBatch {
	out := RowBatch{
		Columns: append([]string(nil), b.Columns...),
		Rows:    make([][]any, len(b.Rows)),
	}
	for i, r := range b.Rows {
		out.Rows[i] = append([]any(nil), r...)
	}
	return out
}
