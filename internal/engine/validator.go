package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ddl-pump/internal/schema"
)

type ViolationKind string

const (
	NullNotAllowed       ViolationKind = "null-not-allowed"
	LengthExceeded       ViolationKind = "length-exceeded"
	InvalidDate          ViolationKind = "invalid-date"
	DuplicatePrimaryKey  ViolationKind = "duplicate-primary-key"
	DuplicateUniqueValue ViolationKind = "duplicate-unique-value"
	ExistingKey          ViolationKind = "existing-key" // already stored in the live table
)

// Violation is one constraint breach found in a batch. Violations are
// reported, never raised.
type Violation struct {
	Kind   ViolationKind
	Row    int
	Column string
	// Rows and Columns are set for duplicate kinds: every row of the group,
	// first occurrence first, and the key columns.
	Rows    []int
	Columns []string
	Value   any
	Detail  string
}

func (v Violation) String() string {
	if len(v.Rows) > 1 {
		return fmt.Sprintf("rows %v (%s): %s: %s", v.Rows, strings.Join(v.Columns, ","), v.Kind, v.Detail)
	}
	return fmt.Sprintf("row %d (%s): %s: %s", v.Row, v.Column, v.Kind, v.Detail)
}

// IsDuplicate reports whether the violation concerns a key collision.
func (v Violation) IsDuplicate() bool {
	return v.Kind == DuplicatePrimaryKey || v.Kind == DuplicateUniqueValue || v.Kind == ExistingKey
}

// Introspection exposes constraints enforced by the target database that the
// DDL text may not show, plus the values already stored under them.
// Implementations must be safe for concurrent reads.
type Introspection interface {
	// UniqueKeys lists the unique constraints and unique indexes of a table.
	UniqueKeys(table string) [][]string
	// Contains reports whether the table already holds the given key.
	Contains(table string, columns []string, values []any) bool
}

// NoIntrospection is an Introspection with no live constraints or rows.
type NoIntrospection struct{}

func (NoIntrospection) UniqueKeys(string) [][]string           { return nil }
func (NoIntrospection) Contains(string, []string, []any) bool { return false }

// Validate checks every row of batch against table. It never mutates batch;
// an empty result means the batch is clean. Columns missing from the batch
// are not checked since the database fills them.
func Validate(table *schema.Table, batch RowBatch, live Introspection) []Violation {
	if table == nil {
		panic("engine: Validate called with a nil table")
	}
	if live == nil {
		live = NoIntrospection{}
	}

	var out []Violation
	for r := range batch.Rows {
		for _, col := range table.Columns {
			i := batch.Index(col.Name)
			if i < 0 || i >= len(batch.Rows[r]) {
				continue
			}
			out = append(out, checkCell(col, r, batch.Rows[r][i])...)
		}
	}

	unique := uniqueKeys(table, batch, live)
	if len(table.PrimaryKeys) > 0 {
		out = append(out, duplicates(batch, table.PrimaryKeys, DuplicatePrimaryKey)...)
	}
	for _, key := range unique {
		out = append(out, duplicates(batch, key, DuplicateUniqueValue)...)
	}

	// Keys the database already holds would be rejected or skipped on load.
	if len(table.PrimaryKeys) > 0 {
		out = append(out, existing(table, batch, table.PrimaryKeys, live)...)
	}
	for _, key := range unique {
		out = append(out, existing(table, batch, key, live)...)
	}
	return out
}

func checkCell(col *schema.Column, row int, v any) []Violation {
	if isEmpty(col, v) {
		if col.Required() {
			return []Violation{{
				Kind: NullNotAllowed, Row: row, Column: col.Name, Value: v,
				Detail: fmt.Sprintf("column %s does not accept NULL", col.Name),
			}}
		}
		return nil
	}

	var out []Violation
	if s, ok := v.(string); ok && col.Type.HasLength() && col.Length > 0 {
		if n := utf8.RuneCountInString(s); n > col.Length {
			out = append(out, Violation{
				Kind: LengthExceeded, Row: row, Column: col.Name, Value: v,
				Detail: fmt.Sprintf("%d characters, max %d", n, col.Length),
			})
		}
	}
	if col.Type.IsDateLike() {
		switch checkDate(v) {
		case dateFeb29:
			out = append(out, Violation{
				Kind: InvalidDate, Row: row, Column: col.Name, Value: v,
				Detail: "February 29 in a non-leap year",
			})
		case dateUnparseable:
			out = append(out, Violation{
				Kind: InvalidDate, Row: row, Column: col.Name, Value: v,
				Detail: fmt.Sprintf("%v is not a valid %s", v, col.Type),
			})
		}
	}
	return out
}

// isEmpty treats NULL as empty everywhere and a blank string as empty for
// every type but text, where "" is a real value.
func isEmpty(col *schema.Column, v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && !col.Type.IsText() {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// uniqueKeys gathers every unique key to check: column UNIQUE tags, table
// UNIQUE (a, b) declarations and live unique constraints. The primary key
// and keys naming columns outside the batch are skipped.
func uniqueKeys(table *schema.Table, batch RowBatch, live Introspection) [][]string {
	seen := map[string]bool{keyID(table.PrimaryKeys): true}
	var keys [][]string
	add := func(key []string) {
		if len(key) == 0 || seen[keyID(key)] {
			return
		}
		for _, c := range key {
			if batch.Index(c) < 0 {
				return
			}
		}
		seen[keyID(key)] = true
		keys = append(keys, key)
	}

	for _, col := range table.Columns {
		if col.IsUnique() {
			add([]string{col.Name})
		}
	}
	for _, key := range table.UniqueKeys {
		add(key)
	}
	for _, key := range live.UniqueKeys(table.Name) {
		add(key)
	}
	return keys
}

func keyID(columns []string) string {
	return strings.Join(columns, "\x1f")
}

// cellKey renders a value for equality checks. 1, 1.0 and "1" compare equal,
// as they would once stored in the same column.
func cellKey(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// rowKey builds the composite key of a row. ok is false when any part is
// NULL, since NULLs never collide.
func rowKey(row []any, idx []int) (string, bool) {
	parts := make([]string, len(idx))
	for k, i := range idx {
		if i >= len(row) || row[i] == nil {
			return "", false
		}
		parts[k] = cellKey(row[i])
	}
	return strings.Join(parts, "\x1f"), true
}

func columnIndexes(batch RowBatch, columns []string) ([]int, bool) {
	idx := make([]int, len(columns))
	for k, c := range columns {
		idx[k] = batch.Index(c)
		if idx[k] < 0 {
			return nil, false
		}
	}
	return idx, true
}

// existing reports one violation per row whose key is already stored in the
// live table. Rows with a NULL key part are skipped.
func existing(table *schema.Table, batch RowBatch, columns []string, live Introspection) []Violation {
	if _, none := live.(NoIntrospection); none {
		return nil
	}
	idx, ok := columnIndexes(batch, columns)
	if !ok {
		return nil
	}

	var out []Violation
	for r, row := range batch.Rows {
		if _, ok := rowKey(row, idx); !ok {
			continue
		}
		values := make([]any, len(idx))
		for k, i := range idx {
			values[k] = row[i]
		}
		if !live.Contains(table.Name, columns, values) {
			continue
		}
		var value any = values
		if len(values) == 1 {
			value = values[0]
		}
		out = append(out, Violation{
			Kind:    ExistingKey,
			Row:     r,
			Column:  strings.Join(columns, ","),
			Rows:    []int{r},
			Columns: columns,
			Value:   value,
			Detail:  fmt.Sprintf("%v is already stored in %s", value, table.Name),
		})
	}
	return out
}

// duplicates reports one violation per group of rows sharing a key.
func duplicates(batch RowBatch, columns []string, kind ViolationKind) []Violation {
	idx, ok := columnIndexes(batch, columns)
	if !ok {
		return nil
	}

	groups := make(map[string][]int)
	var order []string
	for r, row := range batch.Rows {
		key, ok := rowKey(row, idx)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	var out []Violation
	for _, key := range order {
		rows := groups[key]
		if len(rows) < 2 {
			continue
		}
		var value any
		if len(idx) == 1 {
			value = batch.Rows[rows[0]][idx[0]]
		} else {
			parts := make([]any, len(idx))
			for k, i := range idx {
				parts[k] = batch.Rows[rows[0]][i]
			}
			value = parts
		}
		out = append(out, Violation{
			Kind:    kind,
			Row:     rows[0],
			Column:  strings.Join(columns, ","),
			Rows:    rows,
			Columns: columns,
			Value:   value,
			Detail:  fmt.Sprintf("%v appears in %d rows", value, len(rows)),
		})
	}
	return out
}
