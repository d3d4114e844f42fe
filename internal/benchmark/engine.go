package benchmark

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// Recommendation bands, ordered from strongest to weakest.
const (
	RecStrongBuy = "STRONG BUY"
	RecBuy       = "BUY"
	RecHold      = "HOLD"
	RecWeakBuy   = "WEAK BUY"
	RecAvoid     = "AVOID"
)

// Report is the aggregated benchmark analysis for a company.
type Report struct {
	Company           string             `json:"company"`
	Sector            string             `json:"sector"`
	Stage             string             `json:"stage"`
	MetricScores      []MetricScore      `json:"metric_scores"`
	CategoryScores    map[string]float64 `json:"category_scores"`
	Weights           Weights            `json:"weights"`
	Overall           float64            `json:"overall_score"`
	Recommendation    string             `json:"recommendation"`
	Pros              []string           `json:"pros"`
	Cons              []string           `json:"cons"`
	DataCompleteness  float64            `json:"data_completeness"`
	InvestmentHorizon string             `json:"investment_horizon"`
	ReturnPotential   string             `json:"return_potential"`
	Multiples         map[string]float64 `json:"multiples,omitempty"`
	Thesis            string             `json:"thesis"`
	WarehouseSaved    bool               `json:"warehouse_saved"`
}

// Narrator generates an investment thesis narrative. Implementations may
// call an LLM; a nil Narrator falls back to a deterministic template.
type Narrator interface {
	Thesis(ctx context.Context, report *Report) (string, error)
}

// Engine benchmarks companies against sector medians and aggregates
// category scores into an investment report.
type Engine struct {
	ref      *Reference
	narrator Narrator
}

// NewEngine creates a benchmark engine. narrator may be nil.
func NewEngine(ref *Reference, narrator Narrator) *Engine {
	return &Engine{ref: ref, narrator: narrator}
}

// Analyze derives category scores from company metrics and aggregates them.
func (e *Engine) Analyze(ctx context.Context, company model.Company) (*Report, error) {
	metrics, categories := e.DeriveCategoryScores(company)
	report := Aggregate(company, metrics, categories)

	if e.narrator != nil {
		thesis, err := e.narrator.Thesis(ctx, report)
		if err != nil {
			zap.L().Warn("benchmark: thesis narration failed, using template",
				zap.String("company", company.Name),
				zap.Error(err),
			)
		} else if thesis != "" {
			report.Thesis = thesis
		}
	}

	return report, nil
}

// DeriveCategoryScores benchmarks the company's metrics against its sector
// medians and rolls them up into category scores. Categories without any
// underlying metric are omitted; Aggregate fills them with the neutral 5.0.
func (e *Engine) DeriveCategoryScores(company model.Company) ([]MetricScore, map[string]float64) {
	medians, _ := e.ref.For(company.Sector)

	var metrics []MetricScore
	categories := make(map[string]float64)

	var financial []float64
	if company.RevenueGrowthPct != nil {
		ms := ScoreRatio("revenue_growth", *company.RevenueGrowthPct, medians.RevenueGrowth, true)
		metrics = append(metrics, ms)
		financial = append(financial, ms.Score)
	}
	if company.BurnMultiple != nil {
		ms := ScoreRatio("burn_multiple", *company.BurnMultiple, medians.BurnMultiple, false)
		metrics = append(metrics, ms)
		financial = append(financial, ms.Score)
	}
	if len(financial) > 0 {
		categories[CategoryFinancial] = mean(financial)
	}

	var traction []float64
	if company.CACPaybackMonths != nil {
		ms := ScoreRatio("cac_payback", *company.CACPaybackMonths, medians.CACPayback, false)
		metrics = append(metrics, ms)
		traction = append(traction, ms.Score)
	}
	if company.CustomerCount != nil {
		ms := ScoreRatio("customer_count", *company.CustomerCount, medians.CustomerCount, true)
		metrics = append(metrics, ms)
		traction = append(traction, ms.Score)
	}
	if len(traction) > 0 {
		categories[CategoryTraction] = mean(traction)
	}

	if company.TAMUSD != nil {
		ms := ScoreMarketSize(*company.TAMUSD)
		metrics = append(metrics, ms)
		categories[CategoryMarket] = ms.Score
	}
	if company.RunwayMonths != nil && company.CashUSD != nil {
		ms := scoreRunway(*company.RunwayMonths)
		metrics = append(metrics, ms)
		categories[CategoryFunding] = ms.Score
	}

	return metrics, categories
}

// scoreRunway maps cash runway in months onto a 0-10 score.
func scoreRunway(runwayMonths float64) MetricScore {
	ms := MetricScore{Metric: "cash_runway", Value: runwayMonths}
	switch {
	case runwayMonths >= 24:
		ms.Score = 9.0
	case runwayMonths >= 18:
		ms.Score = 7.5
	case runwayMonths >= 12:
		ms.Score = 6.0
	case runwayMonths >= 6:
		ms.Score = 4.0
	default:
		ms.Score = 2.0
	}
	ms.Assessment = assessRunway(ms.Score)
	return ms
}

func assessRunway(score float64) string {
	switch {
	case score >= 8:
		return "Excellent - runway comfortably covers the path to the next raise"
	case score >= 6:
		return "Good - adequate runway to the next milestone"
	case score >= 4:
		return "Average - runway covers the near-term plan"
	default:
		return "Poor - runway needs immediate attention"
	}
}

// Aggregate combines scored metrics and category scores into an overall
// report. Missing categories default to the neutral 5.0 before weighting;
// pros and cons are drawn from the individual metrics, so categories
// without data never surface as strengths or weaknesses.
func Aggregate(company model.Company, metrics []MetricScore, scores map[string]float64) *Report {
	weights := StageWeights(company.Stage, company.Sector)

	filled := make(map[string]float64, len(Categories()))
	for _, cat := range Categories() {
		if s, ok := scores[cat]; ok {
			filled[cat] = s
		} else {
			filled[cat] = 5.0
		}
	}

	var overall float64
	for cat, score := range filled {
		overall += score * weights[cat]
	}
	overall = math.Round(overall*10) / 10

	report := &Report{
		Company:           company.Name,
		Sector:            company.Sector,
		Stage:             company.Stage,
		MetricScores:      metrics,
		CategoryScores:    filled,
		Weights:           weights,
		Overall:           overall,
		Recommendation:    recommend(overall),
		Pros:              selectPros(metrics),
		Cons:              selectCons(metrics),
		DataCompleteness:  company.Completeness(),
		InvestmentHorizon: investmentHorizon(company.Stage),
		ReturnPotential:   returnPotential(overall),
		Multiples:         financialMultiples(company),
	}
	report.Thesis = templateThesis(report)
	return report
}

func recommend(overall float64) string {
	switch {
	case overall >= 9.0:
		return RecStrongBuy
	case overall >= 7.5:
		return RecBuy
	case overall >= 6.0:
		return RecHold
	case overall >= 4.0:
		return RecWeakBuy
	default:
		return RecAvoid
	}
}

// selectPros returns the names and assessments of the top six metrics
// scoring at least 7, strongest first. Ties keep input order.
func selectPros(metrics []MetricScore) []string {
	ranked := make([]MetricScore, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > 6 {
		ranked = ranked[:6]
	}

	var out []string
	for _, ms := range ranked {
		if ms.Score >= 7.0 {
			out = append(out, formatFinding(ms))
		}
	}
	return out
}

// selectCons returns the bottom six metrics scoring 5 or below, weakest
// first. Ties keep input order.
func selectCons(metrics []MetricScore) []string {
	ranked := make([]MetricScore, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	if len(ranked) > 6 {
		ranked = ranked[:6]
	}

	var out []string
	for _, ms := range ranked {
		if ms.Score <= 5.0 {
			out = append(out, formatFinding(ms))
		}
	}
	return out
}

func formatFinding(ms MetricScore) string {
	name := cases.Title(language.English).String(strings.ReplaceAll(ms.Metric, "_", " "))
	return fmt.Sprintf("%s: %s", name, ms.Assessment)
}

func investmentHorizon(stage string) string {
	switch normalizeKey(stage) {
	case "pre_ipo":
		return "12-18 months"
	case "series_c", "late_stage":
		return "18-24 months"
	default:
		return "24-36 months"
	}
}

func returnPotential(overall float64) string {
	switch {
	case overall >= 8.5:
		return "High"
	case overall >= 6.5:
		return "Medium"
	default:
		return "Low"
	}
}

// financialMultiples computes valuation and efficiency multiples where the
// inputs are present and positive.
func financialMultiples(company model.Company) map[string]float64 {
	m := make(map[string]float64)
	if company.ValuationUSD != nil && company.RevenueUSD != nil && *company.RevenueUSD > 0 {
		m["valuation_to_revenue"] = math.Round(*company.ValuationUSD / *company.RevenueUSD*100) / 100
	}
	if company.RevenueUSD != nil && company.EmployeeCount != nil && *company.EmployeeCount > 0 {
		m["revenue_per_employee"] = math.Round(*company.RevenueUSD / *company.EmployeeCount)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// templateThesis builds the deterministic fallback thesis paragraph.
func templateThesis(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s scores %.1f/10 (%s) for a %s-stage %s company.",
		r.Company, r.Overall, r.Recommendation, displayOrUnknown(r.Stage), displayOrUnknown(r.Sector))
	if len(r.Pros) > 0 {
		fmt.Fprintf(&b, " Key strength: %s.", r.Pros[0])
	}
	if len(r.Cons) > 0 {
		fmt.Fprintf(&b, " Key concern: %s.", r.Cons[0])
	}
	fmt.Fprintf(&b, " Expected horizon %s with %s return potential.",
		r.InvestmentHorizon, strings.ToLower(r.ReturnPotential))
	return b.String()
}

func displayOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
