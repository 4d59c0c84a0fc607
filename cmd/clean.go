package cmd

import (
	"fmt"

	"ddl-pump/internal/loader"
	"ddl-pump/internal/schema"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean all data from the DDL's tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		names, err := targetTables(s)
		if err != nil {
			return err
		}

		conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.DB.Close()
		fmt.Printf("🦅 Connected to %s (%s)\n", conn.Config.Name, conn.Config.Driver)

		// children first: Truncate walks the insertion order backwards
		order := schema.InsertionOrder(s, names)
		if err := loader.Truncate(cmd.Context(), conn.DB, conn.Dialect, tablesOf(s, order), logger); err != nil {
			return err
		}
		logger.Info("Database Cleaned Successfully!", "tables", len(order))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cleanCmd)
}
