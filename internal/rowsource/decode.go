// Package rowsource turns externally generated row text into batches shaped
// like a parsed table.
package rowsource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ddl-pump/internal/engine"
	"ddl-pump/internal/schema"

	"gopkg.in/yaml.v3"
)

// Decode parses a JSON or YAML array of objects, optionally wrapped in a
// markdown code fence or under a single top-level key, into a batch for t.
// Object keys match column names exactly first, then case-insensitively.
// The batch carries only columns that appear in at least one record, in
// table order, so columns the database fills (serials, defaults) stay out.
func Decode(text string, t *schema.Table) (engine.RowBatch, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(stripFence(text)), &doc); err != nil {
		return engine.RowBatch{}, fmt.Errorf("decoding rows for %s: %w", t.Name, err)
	}

	records, err := recordList(doc)
	if err != nil {
		return engine.RowBatch{}, fmt.Errorf("decoding rows for %s: %w", t.Name, err)
	}

	// Resolve each record key to a column once.
	present := make(map[string]bool)
	shaped := make([]map[string]any, len(records))
	for i, rec := range records {
		shaped[i] = make(map[string]any, len(rec))
		for k, v := range rec {
			col := lookupColumn(t, k)
			if col == nil {
				continue
			}
			present[col.Name] = true
			shaped[i][col.Name] = normalize(v)
		}
	}

	var batch engine.RowBatch
	for _, c := range t.Columns {
		if present[c.Name] {
			batch.Columns = append(batch.Columns, c.Name)
		}
	}
	for _, rec := range shaped {
		row := make([]any, len(batch.Columns))
		for i, name := range batch.Columns {
			row[i] = rec[name]
		}
		batch.Append(row)
	}
	return batch, nil
}

func stripFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	// drop any prose and the opening fence line (```json), then everything
	// after the closing fence
	text = text[start:]
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		return ""
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return text
}

func recordList(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("record %d is %T, not an object", i, item)
			}
			out = append(out, rec)
		}
		return out, nil
	case map[string]any:
		// {"rows": [...]} or {"users": [...]}
		if len(v) == 1 {
			for _, inner := range v {
				if list, ok := inner.([]any); ok {
					return recordList(list)
				}
			}
		}
		return []map[string]any{v}, nil
	}
	return nil, fmt.Errorf("expected a list of objects, got %T", doc)
}

func lookupColumn(t *schema.Table, key string) *schema.Column {
	if c := t.Column(key); c != nil {
		return c
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, key) {
			return c
		}
	}
	return nil
}

// normalize flattens nested values (JSON columns) back to JSON text.
func normalize(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return v
}

var extensions = []string{".json", ".yaml", ".yml"}

// ReadDir loads <table>.json, <table>.yaml or <table>.yml files from dir.
// Files not named after a table of s are an error.
func ReadDir(dir string, s *schema.Schema) (map[string]engine.RowBatch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rows directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make(map[string]engine.RowBatch)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !hasExt(ext) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		t := lookupTable(s, base)
		if t == nil {
			return nil, fmt.Errorf("%s: no table named %q in the schema", e.Name(), base)
		}
		if _, dup := out[t.Name]; dup {
			return nil, fmt.Errorf("%s: rows for table %s given twice", e.Name(), t.Name)
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		batch, err := Decode(string(data), t)
		if err != nil {
			return nil, err
		}
		out[t.Name] = batch
	}
	return out, nil
}

func hasExt(ext string) bool {
	for _, x := range extensions {
		if ext == x {
			return true
		}
	}
	return false
}

func lookupTable(s *schema.Schema, name string) *schema.Table {
	if t := s.Table(name); t != nil {
		return t
	}
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}
