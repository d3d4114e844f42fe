package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ascentvc/diligence-cli/internal/warehouse"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply warehouse schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wh, err := warehouse.Open(ctx, cfg.Warehouse)
		if err != nil {
			return err
		}
		defer wh.Close()

		if err := wh.Migrate(ctx); err != nil {
			return err
		}
		fmt.Println("warehouse schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
