package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ascentvc/diligence-cli/internal/ingest"
	"github.com/ascentvc/diligence-cli/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis on a company profile or pitch deck",
	Long: `Scores a company against sector benchmarks, assesses risk, persists the
results, and publishes to the deal tracker. Provide metrics via flags,
or point --deck at a PDF to extract them from a pitch deck. Flag values
override extracted ones.`,
	RunE: runAnalyze,
}

func init() {
	addCompanyFlags(analyzeCmd)
	analyzeCmd.Flags().String("deck", "", "path to a pitch deck PDF")
	analyzeCmd.Flags().String("profile", "", "path to a company profile JSON file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	deck, err := cmd.Flags().GetString("deck")
	if err != nil {
		return err
	}
	profile, err := cmd.Flags().GetString("profile")
	if err != nil {
		return err
	}
	company, err := companyFromFlags(cmd)
	if err != nil {
		return err
	}
	if profile != "" {
		base, err := loadProfile(profile)
		if err != nil {
			return err
		}
		company = overlayFlags(base, company, cmd)
	}
	if deck == "" && company.Name == "" {
		return eris.New("cmd: either --deck, --profile, or --name is required")
	}

	ctx := cmd.Context()
	env, err := initPipeline(ctx, deck != "")
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := runAnalysis(ctx, env, deck, company)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func loadProfile(path string) (model.Company, error) {
	var c model.Company
	data, err := os.ReadFile(path)
	if err != nil {
		return c, eris.Wrap(err, "cmd: read profile")
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, eris.Wrap(err, "cmd: parse profile")
	}
	return c, nil
}

func runAnalysis(ctx context.Context, env *pipelineEnv, deck string, company model.Company) (*ingest.Result, error) {
	if deck != "" {
		return env.Pipeline.AnalyzeDeck(ctx, deck, company)
	}
	return env.Pipeline.AnalyzeCompany(ctx, company)
}
