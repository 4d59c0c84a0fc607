package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"ddl-pump/internal/schema"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed and a function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return strings.Join(placeholders, ", ")
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved holds words that collide with column names found in real schemas.
var reserved = map[string]bool{
	"order": true, "user": true, "group": true, "select": true, "from": true,
	"where": true, "table": true, "key": true, "index": true, "desc": true,
	"asc": true, "limit": true, "check": true, "default": true, "column": true,
	"references": true, "primary": true, "unique": true, "to": true, "by": true,
	"level": true, "comment": true, "date": true, "size": true, "number": true,
	"offset": true, "values": true, "end": true, "access": true, "mode": true,
}

// foldQuote quotes ident unless the server would read it back unchanged
// without quotes: a plain identifier, already in the server's folded case,
// that is not a reserved word.
func foldQuote(ident string, fold func(string) string) string {
	if plainIdent.MatchString(ident) && fold(ident) == ident && !reserved[strings.ToLower(ident)] {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Name returns the spelling the server stores an identifier in: quoted names
// keep their case, unquoted ones are folded.
func Name(d Dialect, ident string, quoted bool) string {
	if quoted {
		return ident
	}
	return d.Fold(ident)
}

// TableName is the stored spelling of t's name.
func TableName(d Dialect, t *schema.Table) string {
	return Name(d, t.Name, t.Quoted)
}

// ColumnNames maps declared column names of t to their stored spelling.
// Names t does not declare are folded.
func ColumnNames(d Dialect, t *schema.Table, cols []string) []string {
	out := make([]string, len(cols))
	for i, name := range cols {
		quoted := false
		if c := t.Column(name); c != nil {
			quoted = c.Quoted
		}
		out[i] = Name(d, name, quoted)
	}
	return out
}

func wrap(ident, open, close string) string {
	return open + strings.ReplaceAll(ident, close, close+close) + close
}

func quoteAll(d Dialect, idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = d.Quote(id)
	}
	return strings.Join(quoted, ", ")
}

func insertQuery(d Dialect, verb, table string, cols []string) string {
	return fmt.Sprintf("%s %s (%s) VALUES (%s)", verb, d.Quote(table), quoteAll(d, cols),
		GeneratePlaceholders(len(cols), d.Placeholder))
}

func selectColumns(d Dialect, table string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", quoteAll(d, cols), d.Quote(table))
}

func countRows(d Dialect, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.Quote(table))
}

// inSet reports whether name is one of tables, ignoring case.
func inSet(tables []string, name string) bool {
	for _, t := range tables {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
