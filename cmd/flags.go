package main

import (
	"github.com/spf13/cobra"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// metricFlags maps flag names to company metric fields. Flags left at
// their default are treated as absent, never as zero.
var metricFlags = []struct {
	name  string
	usage string
	field func(c *model.Company) **float64
}{
	{"revenue-growth", "revenue growth rate in percent (YoY)", func(c *model.Company) **float64 { return &c.RevenueGrowthPct }},
	{"burn-multiple", "net burn divided by net new ARR", func(c *model.Company) **float64 { return &c.BurnMultiple }},
	{"cac-payback", "CAC payback in months", func(c *model.Company) **float64 { return &c.CACPaybackMonths }},
	{"customers", "customer count", func(c *model.Company) **float64 { return &c.CustomerCount }},
	{"arr", "annual recurring revenue in USD", func(c *model.Company) **float64 { return &c.ARRUSD }},
	{"revenue", "trailing revenue in USD", func(c *model.Company) **float64 { return &c.RevenueUSD }},
	{"valuation", "latest valuation in USD", func(c *model.Company) **float64 { return &c.ValuationUSD }},
	{"tam", "total addressable market in USD", func(c *model.Company) **float64 { return &c.TAMUSD }},
	{"gross-margin", "gross margin in percent", func(c *model.Company) **float64 { return &c.GrossMarginPct }},
	{"runway", "runway in months", func(c *model.Company) **float64 { return &c.RunwayMonths }},
	{"employees", "employee count", func(c *model.Company) **float64 { return &c.EmployeeCount }},
	{"founders", "founder count", func(c *model.Company) **float64 { return &c.FounderCount }},
	{"churn", "annual churn in percent", func(c *model.Company) **float64 { return &c.ChurnPct }},
	{"cash", "cash on hand in USD", func(c *model.Company) **float64 { return &c.CashUSD }},
	{"debt", "outstanding debt in USD", func(c *model.Company) **float64 { return &c.DebtUSD }},
	{"net-income", "net income in USD", func(c *model.Company) **float64 { return &c.NetIncomeUSD }},
}

// addCompanyFlags registers the shared company profile flags.
func addCompanyFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "company name")
	cmd.Flags().String("sector", "", "sector (saas, fintech, healthtech, ...)")
	cmd.Flags().String("stage", "", "funding stage (seed, series_a, ...)")
	cmd.Flags().String("website", "", "company website")
	cmd.Flags().String("description", "", "one-line company description")
	for _, mf := range metricFlags {
		cmd.Flags().Float64(mf.name, 0, mf.usage)
	}
}

// companyFromFlags builds a company profile from whatever flags the
// caller actually set.
func companyFromFlags(cmd *cobra.Command) (model.Company, error) {
	c := model.Company{}
	var err error
	if c.Name, err = cmd.Flags().GetString("name"); err != nil {
		return c, err
	}
	if c.Sector, err = cmd.Flags().GetString("sector"); err != nil {
		return c, err
	}
	if c.Stage, err = cmd.Flags().GetString("stage"); err != nil {
		return c, err
	}
	if c.Website, err = cmd.Flags().GetString("website"); err != nil {
		return c, err
	}
	if c.Description, err = cmd.Flags().GetString("description"); err != nil {
		return c, err
	}
	for _, mf := range metricFlags {
		if !cmd.Flags().Changed(mf.name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(mf.name)
		if err != nil {
			return c, err
		}
		*mf.field(&c) = &v
	}
	return c, nil
}

// overlayFlags applies explicitly set flags on top of a base profile.
func overlayFlags(base, flags model.Company, cmd *cobra.Command) model.Company {
	if cmd.Flags().Changed("name") {
		base.Name = flags.Name
	}
	if cmd.Flags().Changed("sector") {
		base.Sector = flags.Sector
	}
	if cmd.Flags().Changed("stage") {
		base.Stage = flags.Stage
	}
	if cmd.Flags().Changed("website") {
		base.Website = flags.Website
	}
	if cmd.Flags().Changed("description") {
		base.Description = flags.Description
	}
	for _, mf := range metricFlags {
		if p := *mf.field(&flags); p != nil {
			*mf.field(&base) = p
		}
	}
	return base
}
