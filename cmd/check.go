package cmd

import (
	"fmt"

	"ddl-pump/internal/engine"
	"ddl-pump/internal/rowsource"
	"ddl-pump/internal/schema"

	"github.com/spf13/cobra"
)

var (
	checkRows string
	repair    bool
	outDir    string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate row files against the DDL, optionally repairing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		batches, err := rowsource.ReadDir(checkRows, s)
		if err != nil {
			return err
		}
		targets, err := targetTables(s)
		if err != nil {
			return err
		}
		batches = only(batches, targets)

		var names []string
		for _, name := range targets {
			if _, ok := batches[name]; ok {
				names = append(names, name)
			}
		}
		ordering := schema.Resolve(s, names)

		fmt.Println("\n🔎 Validation Report (Dependency Order):")
		found := 0
		for i, name := range ordering.Tables {
			vs := engine.Validate(s.Table(name), batches[name], nil)
			icon := "✓"
			if len(vs) > 0 {
				icon = "!"
			}
			fmt.Printf("[%s] [%02d/%02d] %-20s : %d rows, %d violations\n",
				icon, i+1, len(ordering.Tables), name, batches[name].Len(), len(vs))
			for _, v := range vs {
				fmt.Printf("    └ %s\n", v)
			}
			found += len(vs)
		}

		if !repair {
			if found > 0 {
				return fmt.Errorf("%d violations found", found)
			}
			return nil
		}

		plan, err := engine.Prepare(cmd.Context(), s, batches, nil, engineOptions())
		if err != nil {
			return err
		}
		fmt.Println("\n🔧 Repair Report:")
		fixed := make(map[string]engine.RowBatch, len(plan.Tables))
		for _, pt := range plan.Tables {
			fmt.Printf("  %-20s : %d found, %d unrepairable\n", pt.Table.Name, len(pt.Found), len(pt.Unrepairable))
			for _, v := range pt.Unrepairable {
				fmt.Printf("    └ %s\n", v)
			}
			fixed[pt.Table.Name] = pt.Batch
		}
		if outDir != "" {
			if err := rowsource.WriteDir(outDir, fixed); err != nil {
				return err
			}
			fmt.Printf("Repaired rows written to %s\n", outDir)
		}
		if partial := plan.Partial(); len(partial) > 0 {
			return fmt.Errorf("unrepairable violations left in %v", partial)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkRows, "rows", "", "Directory of <table>.json|yaml|yml row files")
	checkCmd.Flags().BoolVar(&repair, "repair", false, "Repair violations and report what is left")
	checkCmd.Flags().StringVar(&outDir, "out", "", "Write repaired rows to this directory (with --repair)")
	checkCmd.MarkFlagRequired("rows")
}

// only keeps the batches of the named tables.
func only(batches map[string]engine.RowBatch, names []string) map[string]engine.RowBatch {
	out := make(map[string]engine.RowBatch, len(names))
	for _, n := range names {
		if b, ok := batches[n]; ok {
			out[n] = b
		}
	}
	return out
}
