package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the live database's unique keys and
// the values already stored under them. It satisfies engine.Introspection.
// Table and column names match case-insensitively.
type Snapshot struct {
	mu      sync.RWMutex
	tables  map[string]bool
	keys    map[string][][]string
	values  map[string]map[string]bool // table -> key -> row
	maxima  map[string]int64           // table\x1fcolumn -> largest integer stored
	missing []string
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		tables: make(map[string]bool),
		keys:   make(map[string][][]string),
		values: make(map[string]map[string]bool),
		maxima: make(map[string]int64),
	}
}

// AddTable records that table exists in the database.
func (s *Snapshot) AddTable(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[strings.ToLower(table)] = true
}

// Exists reports whether table was seen in the database.
func (s *Snapshot) Exists(table string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[strings.ToLower(table)]
}

// Missing lists the requested tables the database does not have.
func (s *Snapshot) Missing() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.missing...)
}

// AddUnique registers a unique key declared in the database.
func (s *Snapshot) AddUnique(table string, columns ...string) {
	if len(columns) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := strings.ToLower(table)
	id := keyID(columns)
	for _, k := range s.keys[t] {
		if keyID(k) == id {
			return
		}
	}
	s.keys[t] = append(s.keys[t], append([]string(nil), columns...))
}

// AddValues records stored rows projected onto columns.
func (s *Snapshot) AddValues(table string, columns []string, rows ...[]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := strings.ToLower(table)
	if s.values[t] == nil {
		s.values[t] = make(map[string]bool)
	}
	id := keyID(columns)
	for _, row := range rows {
		k, ok := rowKey(row)
		if !ok {
			continue
		}
		s.values[t][id+"="+k] = true
		if len(columns) == 1 {
			if n, err := strconv.ParseInt(k, 10, 64); err == nil {
				m := t + "\x1f" + id
				if top, seen := s.maxima[m]; !seen || n > top {
					s.maxima[m] = n
				}
			}
		}
	}
}

// MaxInt returns the largest integer stored under a single-column key.
func (s *Snapshot) MaxInt(table, column string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.maxima[strings.ToLower(table)+"\x1f"+keyID([]string{column})]
	return n, ok
}

// UniqueKeys returns the unique keys the database declares for table.
func (s *Snapshot) UniqueKeys(table string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.keys[strings.ToLower(table)]
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = append([]string(nil), k...)
	}
	return out
}

// Contains reports whether a stored row already holds values under columns.
// A NULL part never matches.
func (s *Snapshot) Contains(table string, columns []string, values []any) bool {
	k, ok := rowKey(values)
	if !ok {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[strings.ToLower(table)][keyID(columns)+"="+k]
}

func keyID(columns []string) string {
	return strings.ToLower(strings.Join(columns, "\x1f"))
}

func rowKey(values []any) (string, bool) {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			return "", false
		}
		parts[i] = canonical(v)
	}
	return strings.Join(parts, "\x1f"), true
}

// canonical renders a value the way drivers and batches can agree on:
// numbers by value, dates without a midnight time part.
func canonical(v any) string {
	var s string
	switch x := v.(type) {
	case []byte:
		s = string(x)
	case time.Time:
		s = x.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.TrimSuffix(s, " 00:00:00")
}
