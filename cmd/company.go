package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/dataroom"
	"github.com/ascentvc/diligence-cli/internal/warehouse"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage the company registry",
}

var companyRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register or update a company profile",
	RunE:  runCompanyRegister,
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered companies",
	RunE:  runCompanyList,
}

var companyImportCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Import company profiles from a metrics workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanyImport,
}

func init() {
	addCompanyFlags(companyRegisterCmd)
	companyListCmd.Flags().String("sector", "", "filter by sector")
	companyListCmd.Flags().Int("limit", 0, "max companies to list")
	companyImportCmd.Flags().String("sheet", "", "sheet name (default: first sheet)")
	companyCmd.AddCommand(companyRegisterCmd, companyListCmd, companyImportCmd)
	rootCmd.AddCommand(companyCmd)
}

func runCompanyRegister(cmd *cobra.Command, args []string) error {
	company, err := companyFromFlags(cmd)
	if err != nil {
		return err
	}
	if company.Name == "" {
		return eris.New("cmd: --name is required")
	}

	ctx := cmd.Context()
	wh, err := initWarehouse(ctx)
	if err != nil {
		return err
	}
	defer wh.Close()

	id, err := wh.CreateCompany(ctx, company)
	if err != nil {
		return err
	}
	fmt.Printf("registered %q as %s\n", company.Name, id)
	return nil
}

func runCompanyList(cmd *cobra.Command, args []string) error {
	sector, err := cmd.Flags().GetString("sector")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	wh, err := initWarehouse(ctx)
	if err != nil {
		return err
	}
	defer wh.Close()

	companies, err := wh.ListCompanies(ctx, warehouse.CompanyFilter{Sector: sector, Limit: limit})
	if err != nil {
		return err
	}
	return printJSON(companies)
}

func runCompanyImport(cmd *cobra.Command, args []string) error {
	sheet, err := cmd.Flags().GetString("sheet")
	if err != nil {
		return err
	}
	companies, err := dataroom.ImportCompanies(args[0], dataroom.WorkbookOptions{SheetName: sheet})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	wh, err := initWarehouse(ctx)
	if err != nil {
		return err
	}
	defer wh.Close()

	imported := 0
	for _, c := range companies {
		if _, err := wh.CreateCompany(ctx, c); err != nil {
			zap.L().Warn("cmd: import company failed",
				zap.String("company", c.Name),
				zap.Error(err))
			continue
		}
		imported++
	}
	fmt.Printf("imported %d of %d companies\n", imported, len(companies))
	return nil
}
