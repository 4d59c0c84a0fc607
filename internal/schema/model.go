package schema

import "strings"

// Schema is the ordered set of tables produced by one DDL parse.
type Schema struct {
	Tables []*Table
}

type Table struct {
	Name        string
	SchemaName  string // qualifier as written, e.g. "public" in public.users
	Quoted      bool   // name was a quoted identifier, so its case is significant
	Columns     []*Column
	PrimaryKeys []string
	ForeignKeys []*ForeignKey
	UniqueKeys  [][]string // table-level UNIQUE (a, b) declarations
	Checks      []string   // recorded, never evaluated
}

type Column struct {
	Name          string
	Type          DataType
	Quoted        bool
	RawType       string // type token as written, e.g. "character varying"
	Nullable      bool
	Default       string // verbatim, not evaluated
	HasDefault    bool
	Length        int
	Precision     int
	Scale         int
	PrimaryKey    bool
	AutoIncrement bool
	ForeignKey    bool
	RefTable      string
	RefColumn     string
	Constraints   []string // free-form tags: UNIQUE, CHECK(...)
}

// ForeignKey is a (local column, referenced table, referenced column) edge.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Table returns the table with the given name or nil.
func (s *Schema) Table(name string) *Table {
	if s == nil {
		return nil
	}
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Column returns the named column (case-sensitive) or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Dependencies lists the distinct tables this table references, excluding itself.
func (t *Table) Dependencies() []string {
	var deps []string
	seen := make(map[string]bool)
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == t.Name || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		deps = append(deps, fk.RefTable)
	}
	return deps
}

// IsPrimaryKey reports whether name belongs to the table's primary key.
func (t *Table) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKeys {
		if pk == name {
			return true
		}
	}
	return false
}

// HasConstraint reports whether the column carries the given tag (case-insensitive prefix match).
func (c *Column) HasConstraint(tag string) bool {
	tag = strings.ToUpper(tag)
	for _, con := range c.Constraints {
		if strings.HasPrefix(strings.ToUpper(con), tag) {
			return true
		}
	}
	return false
}

func (c *Column) IsUnique() bool {
	return c.HasConstraint("UNIQUE")
}

// Required reports whether NULL is rejected. A primary key column is
// implicitly NOT NULL even when the DDL omitted it.
func (c *Column) Required() bool {
	return !c.Nullable || c.PrimaryKey
}
