package cmd

import (
	"fmt"

	"ddl-pump/internal/schema"

	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the insertion order of the DDL's tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		names, err := targetTables(s)
		if err != nil {
			return err
		}

		ordering := schema.Resolve(s, names)
		printOrder(s, ordering)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(orderCmd)
}

func printOrder(s *schema.Schema, ordering schema.Ordering) {
	fmt.Printf("🔍 Insertion Order:\n")
	for i, name := range ordering.Tables {
		fmt.Printf("[%02d] %s (Dependencies: %v)\n", i+1, name, s.Table(name).Dependencies())
	}
	if ordering.HasCycle() {
		fmt.Printf("⚠️  Foreign key cycle among %v: best-effort order, constraints are deferred on load\n", ordering.Cyclic)
	}
}
