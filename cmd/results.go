package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ascentvc/diligence-cli/internal/warehouse"
)

var resultsCmd = &cobra.Command{
	Use:   "results <company>",
	Short: "Show the latest stored analysis for a company",
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().String("kind", string(warehouse.KindBenchmark),
		"analysis kind (benchmark, risk, extraction)")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	wh, err := initWarehouse(ctx)
	if err != nil {
		return err
	}
	defer wh.Close()

	companyID, err := wh.CompanyID(ctx, args[0])
	if err != nil {
		return err
	}
	rec, err := wh.LatestAnalysis(ctx, companyID, warehouse.Kind(kind))
	if err != nil {
		return err
	}
	if rec == nil {
		return eris.Errorf("cmd: no stored %s analysis for %q", kind, args[0])
	}
	return printJSON(rec)
}
