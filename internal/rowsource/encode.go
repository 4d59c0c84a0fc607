package rowsource

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ddl-pump/internal/engine"

	"gopkg.in/yaml.v3"
)

// Encode renders a batch as a YAML list of mappings in column order. Decode
// reads it back into the same columns.
func Encode(b engine.RowBatch) ([]byte, error) {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range b.Rows {
		rec := &yaml.Node{Kind: yaml.MappingNode}
		for i, name := range b.Columns {
			val := &yaml.Node{}
			if err := val.Encode(scalar(row[i])); err != nil {
				return nil, fmt.Errorf("encoding %s: %w", name, err)
			}
			rec.Content = append(rec.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, val)
		}
		list.Content = append(list.Content, rec)
	}
	return yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{list}})
}

// scalar keeps driver-level types the YAML encoder would otherwise expand.
func scalar(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return x.String()
	}
	return v
}

// WriteDir writes one <table>.yaml file per batch into dir.
func WriteDir(dir string, batches map[string]engine.RowBatch) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating rows directory: %w", err)
	}
	for name, b := range batches {
		data, err := Encode(b)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
