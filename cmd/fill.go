package cmd

import (
	"fmt"
	"time"

	"ddl-pump/internal/catalog"
	"ddl-pump/internal/ddl"
	"ddl-pump/internal/engine"
	"ddl-pump/internal/loader"
	"ddl-pump/internal/rowsource"
	"ddl-pump/internal/schema"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	count        int
	clean        bool
	dryRun       bool
	fillRows     string
	create       bool
	dropExisting bool
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Validate, repair and load rows into the database",
	Long: `Rows come from --rows files or, without it, from the built-in generator.
Every batch is validated against the DDL and the live unique keys, repaired,
and loaded in dependency order inside one transaction. --create runs the
DDL's own statements first for tables the database lacks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if dropExisting && !create {
			return fmt.Errorf("--drop-existing needs --create")
		}

		s, err := loadSchema()
		if err != nil {
			return err
		}
		names, err := targetTables(s)
		if err != nil {
			return err
		}
		ordering := schema.Resolve(s, names)
		targets := tablesOf(s, ordering.Tables)

		// Fetch count from Viper (Flag > Config > Default)
		targetCount := viper.GetInt("settings.default_count")

		// Dry Run
		if dryRun {
			logger.Info("[SIMULATION] Dry-Run Mode Active: No data will be written.")
			batches, err := fillBatches(s, names, ordering.Tables, targetCount, nil)
			if err != nil {
				return err
			}
			printOrder(s, ordering)
			plan, err := engine.Prepare(ctx, s, batches, nil, engineOptions())
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		}

		// 1. Connect
		conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer conn.DB.Close()
		fmt.Printf("🦅 Connected via %s (%s)\n", conn.Config.Driver, conn.Config.Name)

		// Create (and drop) if requested
		if create {
			text, _, err := readDDL()
			if err != nil {
				return err
			}
			created, err := loader.Apply(ctx, conn.DB, conn.Dialect, conn.Schema, ddl.Statements(text), targets, dropExisting, logger)
			if err != nil {
				return err
			}
			logger.Info("schema applied", "created", len(created), "dropped", dropExisting)
		}

		// Clean if requested; dropped tables are already empty
		if clean && !dropExisting {
			if err := loader.Truncate(ctx, conn.DB, conn.Dialect, targets, logger); err != nil {
				return err
			}
		}

		// 2. Live constraints and values
		snap, err := catalog.Fetch(ctx, conn.DB, conn.Dialect, conn.Schema, targets,
			catalog.WithWorkers(viper.GetInt("settings.workers")),
			catalog.WithValueLimit(viper.GetInt("settings.max_live_values")))
		if err != nil {
			return err
		}
		if missing := snap.Missing(); len(missing) > 0 {
			return fmt.Errorf("tables missing from the database: %v", missing)
		}

		// 3. Rows
		batches, err := fillBatches(s, names, ordering.Tables, targetCount, snap)
		if err != nil {
			return err
		}

		// 4. Validate and repair
		plan, err := engine.Prepare(ctx, s, batches, snap, engineOptions())
		if err != nil {
			return err
		}

		total := 0
		for _, pt := range plan.Tables {
			total += pt.Batch.Len()
		}
		logger.Info("starting pump", "tables", len(plan.Tables), "rows", total)
		start := time.Now()

		// 5. Setup Progress Bar
		uiprogress.Start()
		bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Loading: "
		})

		// 6. Load
		results, err := loader.Load(ctx, conn.DB, conn.Dialect, plan, func() {
			bar.Incr()
		})

		uiprogress.Stop()

		if err != nil {
			return err
		}

		// 7. Verification Step
		verified := loader.Verify(ctx, conn.DB, conn.Dialect, results)
		printReport(verified)
		logger.Info("pump done", "elapsed", time.Since(start))
		return nil
	},
}

// fillBatches reads --rows or generates targetCount rows per table. With a
// snapshot, generated integer keys continue above the stored ones.
func fillBatches(s *schema.Schema, names, order []string, targetCount int, snap *catalog.Snapshot) (map[string]engine.RowBatch, error) {
	if fillRows != "" {
		all, err := rowsource.ReadDir(fillRows, s)
		if err != nil {
			return nil, err
		}
		batches := only(all, names)
		logger.Info("rows read", "dir", fillRows, "tables", len(batches))
		return batches, nil
	}
	gen := engine.NewGenerator(viper.GetInt64("settings.seed"))
	if snap != nil {
		gen.ContinueFrom(snap)
	}
	batches := gen.GenerateAll(s, order, targetCount)
	logger.Info("rows generated", "count", targetCount, "tables", len(batches))
	return batches, nil
}

func init() {
	RootCmd.AddCommand(fillCmd)

	// CLI Flags
	fillCmd.Flags().IntVar(&count, "count", 0, "Number of records to generate per table (overrides config)")
	fillCmd.Flags().BoolVar(&clean, "clean", false, "Clean tables before filling")
	fillCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and repair without touching the database")
	fillCmd.Flags().BoolVar(&create, "create", false, "Create the DDL's tables that the database does not have yet")
	fillCmd.Flags().BoolVar(&dropExisting, "drop-existing", false, "With --create, drop the tables first (children first)")
	fillCmd.Flags().StringVar(&fillRows, "rows", "", "Directory of <table>.json|yaml|yml row files instead of generated rows")

	viper.BindPFlag("settings.default_count", fillCmd.Flags().Lookup("count"))
}

func printPlan(plan *engine.Plan) {
	fmt.Println("\n🔧 Prepared Batches:")
	for i, pt := range plan.Tables {
		icon := "✓"
		if !pt.Clean() {
			icon = "!"
		}
		fmt.Printf("[%s] [%02d/%02d] %-20s : %d rows, %d repaired, %d unrepairable\n",
			icon, i+1, len(plan.Tables), pt.Table.Name, pt.Batch.Len(), len(pt.Found), len(pt.Unrepairable))
		for _, v := range pt.Unrepairable {
			fmt.Printf("    └ %s\n", v)
		}
	}
}

func printReport(results []loader.Result) {
	fmt.Println("\n📊 Summary Report (Dependency Order):")
	total := 0
	for i, r := range results {
		icon := "✓"
		if r.Status != loader.StatusVerified {
			icon = "!"
		}
		// Status color/format
		statusDisplay := r.Status
		if statusDisplay == loader.StatusVerified {
			statusDisplay = "OK (Verified)"
		}

		fmt.Printf("[%s] [%02d/%02d] %-20s : %d rows (Target: %d, Total: %d) - %s\n",
			icon, i+1, len(results), r.Table, r.Actual, r.Target, r.Total, statusDisplay)
		if r.ErrorMsg != "" {
			fmt.Printf("    └ Error: %s\n", r.ErrorMsg)
		}
		total += r.Actual
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Total Operations: %d\n", total)
}
