package dataroom

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// WorkbookOptions configures the metrics workbook importer.
type WorkbookOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ImportCompanies reads a metrics workbook and returns one company per
// data row. The first row is the header; columns are matched by
// normalized name (lowercased, spaces to underscores). Rows without a
// name are skipped.
func ImportCompanies(path string, opts WorkbookOptions) ([]model.Company, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("workbook: empty sheet")
	}

	header := rowToStrings(sheet.Rows[0])
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, eris.New("workbook: missing name column")
	}

	var companies []model.Company
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		company := parseRow(cells, cols)
		if company.Name == "" {
			continue
		}
		companies = append(companies, company)
	}
	return companies, nil
}

func parseRow(cells []string, cols map[string]int) model.Company {
	get := func(col string) string {
		idx, ok := cols[col]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}
	getFloat := func(col string) *float64 {
		raw := get(col)
		if raw == "" {
			return nil
		}
		raw = strings.NewReplacer("$", "", ",", "", "%", "").Replace(raw)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &v
	}

	return model.Company{
		Name:             get("name"),
		Sector:           get("sector"),
		Stage:            get("stage"),
		Website:          get("website"),
		Description:      get("description"),
		RevenueGrowthPct: getFloat("revenue_growth_pct"),
		BurnMultiple:     getFloat("burn_multiple"),
		CACPaybackMonths: getFloat("cac_payback_months"),
		CustomerCount:    getFloat("customer_count"),
		ARRUSD:           getFloat("arr_usd"),
		RevenueUSD:       getFloat("revenue_usd"),
		ValuationUSD:     getFloat("valuation_usd"),
		TAMUSD:           getFloat("tam_usd"),
		GrossMarginPct:   getFloat("gross_margin_pct"),
		RunwayMonths:     getFloat("runway_months"),
		EmployeeCount:    getFloat("employee_count"),
		FounderCount:     getFloat("founder_count"),
		ChurnPct:         getFloat("churn_pct"),
		CashUSD:          getFloat("cash_usd"),
		DebtUSD:          getFloat("debt_usd"),
		NetIncomeUSD:     getFloat("net_income_usd"),
	}
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

func getSheet(f *xlsx.File, opts WorkbookOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("workbook: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("workbook: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
