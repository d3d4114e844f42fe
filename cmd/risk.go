package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ascentvc/diligence-cli/internal/risk"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Assess risk for a company profile without benchmarking",
	RunE:  runRisk,
}

func init() {
	addCompanyFlags(riskCmd)
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) error {
	company, err := companyFromFlags(cmd)
	if err != nil {
		return err
	}
	if company.Name == "" {
		return eris.New("cmd: --name is required")
	}
	return printJSON(risk.Assess(company))
}
