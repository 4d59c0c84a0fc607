package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"

	"ddl-pump/internal/schema"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	Seed        int64
	Workers     int
	MaxAttempts int
	MaxPasses   int
	Logger      *slog.Logger
}

// PreparedTable is one table's batch after validation and repair.
type PreparedTable struct {
	Table        *schema.Table
	Batch        RowBatch
	Found        []Violation
	Unrepairable []Violation
}

// Clean reports whether the batch has no outstanding violations.
func (p PreparedTable) Clean() bool {
	return len(p.Unrepairable) == 0
}

// Plan is the ordered hand-off to a loader.
type Plan struct {
	Order  []string
	Cyclic []string
	Tables []PreparedTable // same order as Order
}

// Partial lists tables whose batches still carry unrepairable violations.
func (p *Plan) Partial() []string {
	var names []string
	for _, t := range p.Tables {
		if !t.Clean() {
			names = append(names, t.Table.Name)
		}
	}
	return names
}

// Prepare orders the tables that have batches and fixes each one. Tables are
// independent, so they are repaired in parallel; each gets its own repairer
// seeded from opts.Seed and the table name, so results do not depend on
// scheduling.
func Prepare(ctx context.Context, s *schema.Schema, batches map[string]RowBatch, live Introspection, opts Options) (*Plan, error) {
	if s == nil {
		panic("engine: Prepare called with a nil schema")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if live == nil {
		live = NoIntrospection{}
	}

	var names []string
	for _, t := range s.Tables {
		if _, ok := batches[t.Name]; ok {
			names = append(names, t.Name)
		}
	}
	if len(names) != len(batches) {
		for name := range batches {
			if s.Table(name) == nil {
				return nil, fmt.Errorf("rows given for unknown table %q", name)
			}
		}
	}

	ordering := schema.Resolve(s, names)
	if ordering.HasCycle() {
		logger.Warn("foreign key cycle: best-effort insertion order, constraints must be deferred",
			"tables", ordering.Cyclic)
	}

	plan := &Plan{
		Order:  ordering.Tables,
		Cyclic: ordering.Cyclic,
		Tables: make([]PreparedTable, len(ordering.Tables)),
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, name := range ordering.Tables {
		i, name := i, name
		table := s.Table(name)
		batch := batches[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := NewRepairer(tableSeed(opts.Seed, name), WithMaxAttempts(opts.MaxAttempts), WithMaxPasses(opts.MaxPasses))
			fixed, rep := r.Fix(table, batch, live)
			plan.Tables[i] = PreparedTable{Table: table, Batch: fixed, Found: rep.Found, Unrepairable: rep.Unrepairable}

			logger.Debug("table prepared", "table", name, "rows", fixed.Len(),
				"violations", len(rep.Found), "passes", rep.Passes)
			if len(rep.Unrepairable) > 0 {
				logger.Warn("unrepairable violations left in batch", "table", name, "count", len(rep.Unrepairable))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plan, nil
}

func tableSeed(seed int64, table string) int64 {
	h := fnv.New64a()
	h.Write([]byte(table))
	return seed ^ int64(h.Sum64())
}
