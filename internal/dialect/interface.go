package dialect

import "database/sql"

// Dialect abstracts database-specific SQL used to read live constraints and
// to load prepared batches. Table and column names are passed unquoted.
type Dialect interface {
	// Metadata Queries. Each binds the schema name as its only argument.
	TablesQuery() string
	// UniqueConstraintsQuery yields (table, index, column) rows ordered by
	// table, index and column position. Primary keys are left out.
	UniqueConstraintsQuery() string

	// Execution Hooks (Global Level). tables lists the tables whose foreign
	// key checks are relaxed until AfterPump; it is empty for acyclic loads.
	BeforePump(tx *sql.Tx, tables []string) error
	AfterPump(tx *sql.Tx, tables []string) error

	// Execution Hooks (Table Level). identity is the auto-increment column
	// written with explicit values, or "".
	BeforeTable(tx *sql.Tx, table, identity string) error
	AfterTable(tx *sql.Tx, table, identity string) error

	// Query Generation
	InsertQuery(table string, cols []string) string
	TruncateQuery(table string) string
	DropTableQuery(table string) string
	SelectColumnsQuery(table string, cols []string) string
	CountQuery(table string) string
	Placeholder(index int) string // Returns ?, $1, @p1, etc.
	// Quote expects the stored spelling (see Name) and quotes only when the
	// server would not read the identifier back unchanged.
	Quote(ident string) string
	// Fold returns the spelling the server stores an unquoted identifier in.
	Fold(ident string) string

	// Helpers
	GetSchemaName(input string) string
	GetLimitRowQuery(query string, limit int) string
}

// Reseeder is implemented by dialects whose row deletion leaves identity
// counters behind.
type Reseeder interface {
	ReseedQuery(table string) string
}

// Savepointer is implemented by dialects where one failed statement aborts
// the whole transaction. The loader then guards every row with a savepoint
// so a rejected row does not take the table down with it.
type Savepointer interface {
	SavepointQuery(name string) string
	RollbackToQuery(name string) string
	ReleaseQuery(name string) string
}
