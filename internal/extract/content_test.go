package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDeck = `CloudMetrics
Investor Presentation

Problem
Mid-market teams fly blind on infrastructure spend.

Solution
Real-time cost observability for every engineering team.

Traction
$2.5M ARR growing 140% YoY growth
CAC payback of 14 months
Burn rate of $300K monthly

Team
Two ex-Datadog founders.

Financials
Churn has improved quarter over quarter.`

func TestAnalyzeContent_CompanyName(t *testing.T) {
	ca := AnalyzeContent(sampleDeck)
	assert.Equal(t, "CloudMetrics", ca.CompanyName)
}

func TestAnalyzeContent_SkipsCoverBoilerplate(t *testing.T) {
	text := "Confidential\nPitch Deck 2026\nNorthwind Labs\nProblem..."
	ca := AnalyzeContent(text)
	assert.Equal(t, "Northwind Labs", ca.CompanyName)
}

func TestAnalyzeContent_NameOnlyFromFirstFifteenLines(t *testing.T) {
	text := ""
	for i := 0; i < 16; i++ {
		text += "lowercase body text line\n"
	}
	text += "Late Title\n"
	ca := AnalyzeContent(text)
	assert.Empty(t, ca.CompanyName)
}

func TestAnalyzeContent_Sections(t *testing.T) {
	ca := AnalyzeContent(sampleDeck)
	assert.Contains(t, ca.Sections, "problem")
	assert.Contains(t, ca.Sections, "solution")
	assert.Contains(t, ca.Sections, "traction")
	assert.Contains(t, ca.Sections, "team")
	assert.Contains(t, ca.Sections, "financials")
	assert.NotContains(t, ca.Sections, "roadmap")
}

func TestAnalyzeContent_Metrics(t *testing.T) {
	ca := AnalyzeContent(sampleDeck)
	require.NotNil(t, ca.Metrics)
	assert.InDelta(t, 2.5e6, ca.Metrics["arr_usd"], 0.001)
	assert.InDelta(t, 140.0, ca.Metrics["revenue_growth_pct"], 0.001)
	assert.InDelta(t, 14.0, ca.Metrics["cac_payback_months"], 0.001)
	assert.InDelta(t, 300e3, ca.Metrics["monthly_burn_usd"], 0.001)
}

func TestAnalyzeContent_RiskFlags(t *testing.T) {
	ca := AnalyzeContent(sampleDeck)
	assert.Contains(t, ca.RiskFlags, "churn")

	clean := AnalyzeContent("Strong ARR growth and a healthy market.")
	assert.Empty(t, clean.RiskFlags)
}

func TestAnalyzeContent_Empty(t *testing.T) {
	ca := AnalyzeContent("")
	assert.Zero(t, ca.WordCount)
	assert.Empty(t, ca.CompanyName)
	assert.Nil(t, ca.Metrics)
}
