package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ddl-pump/internal/dialect"
	"ddl-pump/internal/schema"

	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

type options struct {
	workers int
	limit   int
}

type Option func(*options)

// WithWorkers bounds how many tables are read at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithValueLimit caps the rows read per table. Values past the cap are not
// known to the snapshot, so the loader may still skip a colliding row.
func WithValueLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// Fetch reads the unique keys the database declares for tables and the
// values already stored under every primary and unique key. Tables absent
// from the database are listed by Snapshot.Missing.
func Fetch(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string, tables []*schema.Table, opts ...Option) (*Snapshot, error) {
	o := options{workers: defaultWorkers}
	for _, opt := range opts {
		opt(&o)
	}
	schemaName = d.GetSchemaName(schemaName)

	present, err := tableNames(ctx, db, d, schemaName)
	if err != nil {
		return nil, err
	}
	declared, err := uniqueConstraints(ctx, db, d, schemaName)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot()
	var live []*schema.Table
	for _, t := range tables {
		if _, ok := present[strings.ToLower(t.Name)]; !ok {
			snap.missing = append(snap.missing, t.Name)
			continue
		}
		snap.AddTable(t.Name)
		for _, key := range declared[strings.ToLower(t.Name)] {
			if cols, ok := mapColumns(t, key); ok {
				snap.AddUnique(t.Name, cols...)
			}
		}
		live = append(live, t)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, t := range live {
		t := t
		stored := present[strings.ToLower(t.Name)]
		g.Go(func() error {
			return loadValues(ctx, db, d, snap, t, stored, o.limit)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// tableNames maps lower-cased table names to their stored spelling.
func tableNames(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, d.TablesQuery(), schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[strings.ToLower(name)] = name
	}
	return names, rows.Err()
}

// uniqueConstraints groups (table, index, column) rows into column lists.
func uniqueConstraints(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) (map[string][][]string, error) {
	rows, err := db.QueryContext(ctx, d.UniqueConstraintsQuery(), schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to read unique constraints: %w", err)
	}
	defer rows.Close()

	keys := make(map[string][][]string)
	var lastTable, lastIndex string
	for rows.Next() {
		var table, index, column string
		if err := rows.Scan(&table, &index, &column); err != nil {
			return nil, err
		}
		t := strings.ToLower(table)
		if t != lastTable || index != lastIndex {
			keys[t] = append(keys[t], nil)
			lastTable, lastIndex = t, index
		}
		n := len(keys[t]) - 1
		keys[t][n] = append(keys[t][n], column)
	}
	return keys, rows.Err()
}

// mapColumns translates stored column names to the table's declared ones.
func mapColumns(t *schema.Table, stored []string) ([]string, bool) {
	out := make([]string, len(stored))
	for i, name := range stored {
		found := false
		for _, c := range t.Columns {
			if strings.EqualFold(c.Name, name) {
				out[i], found = c.Name, true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}

// keysOf lists the primary key and every unique key of t, declared or live.
func keysOf(t *schema.Table, live [][]string) [][]string {
	var keys [][]string
	seen := make(map[string]bool)
	add := func(k []string) {
		if len(k) == 0 || seen[keyID(k)] {
			return
		}
		seen[keyID(k)] = true
		keys = append(keys, k)
	}
	add(t.PrimaryKeys)
	for _, c := range t.Columns {
		if c.IsUnique() {
			add([]string{c.Name})
		}
	}
	for _, k := range t.UniqueKeys {
		add(k)
	}
	for _, k := range live {
		add(k)
	}
	return keys
}

func loadValues(ctx context.Context, db *sql.DB, d dialect.Dialect, snap *Snapshot, t *schema.Table, stored string, limit int) error {
	keys := keysOf(t, snap.UniqueKeys(t.Name))
	if len(keys) == 0 {
		return nil
	}

	var cols []string
	pos := make(map[string]int)
	for _, k := range keys {
		for _, c := range k {
			if _, ok := pos[c]; !ok {
				pos[c] = len(cols)
				cols = append(cols, c)
			}
		}
	}

	query := d.SelectColumnsQuery(stored, dialect.ColumnNames(d, t, cols))
	if limit > 0 {
		query = d.GetLimitRowQuery(query, limit)
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read existing rows of %s: %w", t.Name, err)
	}
	defer rows.Close()

	projected := make([][][]any, len(keys))
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan %s: %w", t.Name, err)
		}
		for n, k := range keys {
			p := make([]any, len(k))
			for i, c := range k {
				p[i] = vals[pos[c]]
			}
			projected[n] = append(projected[n], p)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for n, k := range keys {
		snap.AddValues(t.Name, k, projected[n]...)
	}
	return nil
}
