package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascentvc/diligence-cli/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }

func TestRate_FullMatrix(t *testing.T) {
	tests := []struct {
		likelihood Level
		impact     Level
		want       Level
	}{
		{LevelHigh, LevelHigh, LevelHigh},
		{LevelHigh, LevelMedium, LevelHigh},
		{LevelMedium, LevelHigh, LevelHigh},
		{LevelHigh, LevelLow, LevelMedium},
		{LevelLow, LevelHigh, LevelMedium},
		{LevelMedium, LevelMedium, LevelMedium},
		{LevelMedium, LevelLow, LevelLow},
		{LevelLow, LevelMedium, LevelLow},
		{LevelLow, LevelLow, LevelLow},
	}

	for _, tt := range tests {
		got := Rate(tt.likelihood, tt.impact)
		assert.Equal(t, tt.want, got, "%s/%s", tt.likelihood, tt.impact)
	}
}

func TestOverallLevel_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		highCount int
		total     int
		want      Level
	}{
		{"two of five is high", 2, 5, LevelHigh},
		{"one of five is medium", 1, 5, LevelMedium},
		{"none is low", 0, 5, LevelLow},
		{"empty is low", 0, 0, LevelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overallLevel(tt.highCount, tt.total))
		})
	}
}

func TestAssess_DistressedFintech(t *testing.T) {
	company := model.Company{
		Name:             "PayFast",
		Sector:           "fintech",
		RevenueGrowthPct: ptrFloat64(20),
		RunwayMonths:     ptrFloat64(4),
		CustomerCount:    ptrFloat64(5000),
	}

	report := Assess(company)
	require.Len(t, report.Factors, 5)

	byName := make(map[string]Factor)
	for _, f := range report.Factors {
		byName[f.Name] = f
	}

	assert.Equal(t, LevelHigh, byName[FactorRegulatoryChanges].Rating)
	assert.Equal(t, LevelHigh, byName[FactorFinancialLiquidity].Rating)
	assert.Equal(t, LevelHigh, byName[FactorCybersecurityThreats].Rating)

	assert.Equal(t, LevelHigh, report.Overall)
	assert.Contains(t, report.HighPriority, FactorFinancialLiquidity)
	assert.NotEmpty(t, report.Mitigations)
	assert.LessOrEqual(t, len(report.Mitigations), 5)
	// Highest-rated factors come first.
	assert.Equal(t, mitigationTemplates[report.HighPriority[0]], report.Mitigations[0])
}

func TestAssess_HealthySaaS(t *testing.T) {
	company := model.Company{
		Name:             "CloudCo",
		Sector:           "saas",
		RevenueGrowthPct: ptrFloat64(120),
		GrossMarginPct:   ptrFloat64(80),
		RunwayMonths:     ptrFloat64(30),
		CustomerCount:    ptrFloat64(400),
	}

	report := Assess(company)

	byName := make(map[string]Factor)
	for _, f := range report.Factors {
		byName[f.Name] = f
	}

	assert.Equal(t, LevelLow, byName[FactorFinancialLiquidity].Rating)
	assert.Equal(t, LevelLow, byName[FactorRegulatoryChanges].Rating)
	assert.NotEqual(t, LevelHigh, report.Overall)
}

func TestAssess_FinancialMetrics(t *testing.T) {
	company := model.Company{
		Name:         "Metrics Inc",
		CashUSD:      ptrFloat64(5e6),
		DebtUSD:      ptrFloat64(2e6),
		RevenueUSD:   ptrFloat64(10e6),
		NetIncomeUSD: ptrFloat64(-1e6),
	}

	report := Assess(company)
	require.NotNil(t, report.FinancialMetrics)
	assert.InDelta(t, 2.5, report.FinancialMetrics["liquidity_ratio"], 0.001)
	assert.InDelta(t, -0.1, report.FinancialMetrics["profit_margin"], 0.001)
	assert.InDelta(t, 0.2, report.FinancialMetrics["leverage_ratio"], 0.001)

	bare := Assess(model.Company{Name: "Bare"})
	assert.Nil(t, bare.FinancialMetrics)
}
