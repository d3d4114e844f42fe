package dataroom

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestImportCompanies_Basic(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Portfolio": {
			{"Name", "Sector", "Stage", "Revenue Growth Pct", "ARR USD", "Runway Months"},
			{"Acme", "saas", "series_a", "120", "$2,500,000", "18"},
			{"PayFast", "fintech", "seed", "85%", "", "9"},
		},
	})

	companies, err := ImportCompanies(path, WorkbookOptions{})
	require.NoError(t, err)
	require.Len(t, companies, 2)

	acme := companies[0]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, "saas", acme.Sector)
	assert.Equal(t, "series_a", acme.Stage)
	require.NotNil(t, acme.RevenueGrowthPct)
	assert.InDelta(t, 120.0, *acme.RevenueGrowthPct, 0.001)
	require.NotNil(t, acme.ARRUSD)
	assert.InDelta(t, 2.5e6, *acme.ARRUSD, 0.001)

	payfast := companies[1]
	require.NotNil(t, payfast.RevenueGrowthPct)
	assert.InDelta(t, 85.0, *payfast.RevenueGrowthPct, 0.001)
	assert.Nil(t, payfast.ARRUSD)
}

func TestImportCompanies_SkipsRowsWithoutName(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"Name", "Sector"},
			{"", "saas"},
			{"Acme", "saas"},
		},
	})

	companies, err := ImportCompanies(path, WorkbookOptions{})
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}

func TestImportCompanies_MissingNameColumn(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"Sector", "Stage"},
			{"saas", "seed"},
		},
	})

	_, err := ImportCompanies(path, WorkbookOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name column")
}

func TestImportCompanies_SheetName(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Cover":   {{"nothing", "here"}},
		"Metrics": {{"Name"}, {"Acme"}},
	})

	companies, err := ImportCompanies(path, WorkbookOptions{SheetName: "Metrics"})
	require.NoError(t, err)
	require.Len(t, companies, 1)
}

func TestImportCompanies_SheetNameNotFound(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Sheet1": {{"Name"}},
	})

	_, err := ImportCompanies(path, WorkbookOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestImportCompanies_UnparsableNumberLeftNil(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"Name", "Burn Multiple"},
			{"Acme", "n/a"},
		},
	})

	companies, err := ImportCompanies(path, WorkbookOptions{})
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Nil(t, companies[0].BurnMultiple)
}
