package risk

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// Level is a qualitative risk rating.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// Factor names produced by the engine.
const (
	FactorMarketCompetition    = "Market_Competition"
	FactorTechnologyDisruption = "Technology_Disruption"
	FactorRegulatoryChanges    = "Regulatory_Changes"
	FactorFinancialLiquidity   = "Financial_Liquidity"
	FactorCybersecurityThreats = "Cybersecurity_Threats"
)

// Factor is a single assessed risk dimension.
type Factor struct {
	Name       string `json:"name"`
	Likelihood Level  `json:"likelihood"`
	Impact     Level  `json:"impact"`
	Rating     Level  `json:"rating"`
	Rationale  string `json:"rationale"`
}

// Report is the aggregated risk assessment for a company.
type Report struct {
	Company          string             `json:"company"`
	Factors          []Factor           `json:"factors"`
	Overall          Level              `json:"overall_risk"`
	HighPriority     []string           `json:"high_priority"`
	Mitigations      []string           `json:"mitigations"`
	FinancialMetrics map[string]float64 `json:"financial_metrics,omitempty"`
	WarehouseSaved   bool               `json:"warehouse_saved"`
}

// Rate combines likelihood and impact through the risk matrix.
func Rate(likelihood, impact Level) Level {
	switch {
	case likelihood == LevelHigh && impact == LevelHigh:
		return LevelHigh
	case likelihood == LevelHigh && impact == LevelMedium,
		likelihood == LevelMedium && impact == LevelHigh:
		return LevelHigh
	case likelihood == LevelHigh && impact == LevelLow,
		likelihood == LevelLow && impact == LevelHigh,
		likelihood == LevelMedium && impact == LevelMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Assess builds the full risk report for a company.
func Assess(company model.Company) *Report {
	factors := []Factor{
		marketCompetition(company),
		technologyDisruption(company),
		regulatoryChanges(company),
		financialLiquidity(company),
		cybersecurityThreats(company),
	}

	highCount := 0
	var highPriority []string
	for _, f := range factors {
		if f.Rating == LevelHigh {
			highCount++
			highPriority = append(highPriority, f.Name)
		}
	}

	report := &Report{
		Company:          company.Name,
		Factors:          factors,
		Overall:          overallLevel(highCount, len(factors)),
		HighPriority:     highPriority,
		Mitigations:      mitigations(factors),
		FinancialMetrics: financialMetrics(company),
	}

	zap.L().Debug("risk: assessment complete",
		zap.String("company", company.Name),
		zap.String("overall", string(report.Overall)),
		zap.Int("high_factors", highCount),
	)

	return report
}

// overallLevel rates the portfolio of factors by the share rated High.
func overallLevel(highCount, total int) Level {
	if total == 0 {
		return LevelLow
	}
	share := float64(highCount) / float64(total)
	switch {
	case share >= 0.4:
		return LevelHigh
	case share >= 0.2:
		return LevelMedium
	default:
		return LevelLow
	}
}

func marketCompetition(c model.Company) Factor {
	likelihood := LevelMedium
	switch normalizeSector(c.Sector) {
	case "saas", "ecommerce", "marketplace":
		likelihood = LevelHigh
	}

	impact := LevelLow
	if c.RevenueGrowthPct != nil {
		switch {
		case *c.RevenueGrowthPct < 30:
			impact = LevelHigh
		case *c.RevenueGrowthPct < 80:
			impact = LevelMedium
		}
	} else {
		impact = LevelMedium
	}

	return newFactor(FactorMarketCompetition, likelihood, impact,
		"crowded category pressure on growth and pricing")
}

func technologyDisruption(c model.Company) Factor {
	likelihood := LevelMedium
	switch normalizeSector(c.Sector) {
	case "healthcare", "biotech":
		likelihood = LevelHigh
	}

	impact := LevelMedium
	if c.GrossMarginPct != nil && *c.GrossMarginPct < 50 {
		impact = LevelHigh
	}

	return newFactor(FactorTechnologyDisruption, likelihood, impact,
		"platform shift could erode the current technical advantage")
}

func regulatoryChanges(c model.Company) Factor {
	likelihood := LevelLow
	impact := LevelMedium
	switch normalizeSector(c.Sector) {
	case "fintech":
		likelihood = LevelHigh
		impact = LevelHigh
	case "healthcare", "biotech":
		likelihood = LevelHigh
	}

	return newFactor(FactorRegulatoryChanges, likelihood, impact,
		"exposure to licensing and compliance regime changes")
}

func financialLiquidity(c model.Company) Factor {
	likelihood := LevelLow
	impact := LevelLow
	if c.RunwayMonths != nil {
		switch {
		case *c.RunwayMonths < 6:
			likelihood, impact = LevelHigh, LevelHigh
		case *c.RunwayMonths < 12:
			likelihood, impact = LevelHigh, LevelMedium
		case *c.RunwayMonths < 18:
			likelihood, impact = LevelMedium, LevelMedium
		}
	} else {
		likelihood = LevelMedium
	}
	if c.BurnMultiple != nil && *c.BurnMultiple > 4 && impact != LevelHigh {
		impact = LevelMedium
	}

	return newFactor(FactorFinancialLiquidity, likelihood, impact,
		"cash runway versus current burn")
}

func cybersecurityThreats(c model.Company) Factor {
	likelihood := LevelMedium
	if normalizeSector(c.Sector) == "fintech" {
		likelihood = LevelHigh
	}

	impact := LevelMedium
	if c.CustomerCount != nil && *c.CustomerCount > 1000 {
		impact = LevelHigh
	}

	return newFactor(FactorCybersecurityThreats, likelihood, impact,
		"customer data footprint and attack surface")
}

func newFactor(name string, likelihood, impact Level, rationale string) Factor {
	return Factor{
		Name:       name,
		Likelihood: likelihood,
		Impact:     impact,
		Rating:     Rate(likelihood, impact),
		Rationale:  rationale,
	}
}

var mitigationTemplates = map[string]string{
	FactorMarketCompetition:    "Deepen differentiation and track win/loss against the top three competitors quarterly",
	FactorTechnologyDisruption: "Maintain a rolling technology radar and budget for platform migration spikes",
	FactorRegulatoryChanges:    "Engage regulatory counsel early and map license requirements per target market",
	FactorFinancialLiquidity:   "Extend runway past 18 months via bridge financing or burn reduction before the next raise",
	FactorCybersecurityThreats: "Complete SOC 2 audit and run annual penetration tests with remediation SLAs",
}

// mitigations returns strategies for the riskiest factors, highest rating
// first, capped at five.
func mitigations(factors []Factor) []string {
	ranked := make([]Factor, len(factors))
	copy(ranked, factors)
	sort.SliceStable(ranked, func(i, j int) bool {
		return levelRank(ranked[i].Rating) > levelRank(ranked[j].Rating)
	})

	var out []string
	for _, f := range ranked {
		if tpl, ok := mitigationTemplates[f.Name]; ok {
			out = append(out, tpl)
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}

func levelRank(l Level) int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	default:
		return 1
	}
}

// financialMetrics derives liquidity, profitability, and leverage ratios
// from the company's reported figures where present.
func financialMetrics(c model.Company) map[string]float64 {
	m := make(map[string]float64)
	if c.CashUSD != nil && c.DebtUSD != nil && *c.DebtUSD > 0 {
		m["liquidity_ratio"] = round2(*c.CashUSD / *c.DebtUSD)
	}
	if c.NetIncomeUSD != nil && c.RevenueUSD != nil && *c.RevenueUSD > 0 {
		m["profit_margin"] = round2(*c.NetIncomeUSD / *c.RevenueUSD)
	}
	if c.DebtUSD != nil && c.RevenueUSD != nil && *c.RevenueUSD > 0 {
		m["leverage_ratio"] = round2(*c.DebtUSD / *c.RevenueUSD)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeSector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
