package benchmark

import "strings"

// Category keys used across scoring and aggregation.
const (
	CategoryFinancial  = "financial"
	CategoryMarket     = "market"
	CategoryTechnology = "technology"
	CategoryTeam       = "team"
	CategoryTraction   = "traction"
	CategoryFunding    = "funding"
)

// Weights maps category keys to their contribution to the overall score.
type Weights map[string]float64

// Categories lists all category keys in stable presentation order.
func Categories() []string {
	return []string{
		CategoryFinancial,
		CategoryMarket,
		CategoryTechnology,
		CategoryTeam,
		CategoryTraction,
		CategoryFunding,
	}
}

// BaseWeights returns the unadjusted category weights.
func BaseWeights() Weights {
	return Weights{
		CategoryFinancial:  0.25,
		CategoryMarket:     0.20,
		CategoryTechnology: 0.20,
		CategoryTeam:       0.15,
		CategoryTraction:   0.15,
		CategoryFunding:    0.05,
	}
}

// StageWeights returns category weights adjusted for funding stage and
// sector. Adjustments are additive and intentionally not re-normalized, so
// the sum may drift from 1.0. Unknown stages and sectors leave the base
// weights untouched.
func StageWeights(stage, sector string) Weights {
	w := BaseWeights()

	switch normalizeKey(stage) {
	case "seed", "pre_series_a":
		w[CategoryTeam] += 0.10
		w[CategoryFinancial] -= 0.05
		w[CategoryTraction] -= 0.05
	case "series_b", "growth":
		w[CategoryFinancial] += 0.10
		w[CategoryTeam] -= 0.05
		w[CategoryMarket] -= 0.05
	case "pre_ipo", "late_stage":
		w[CategoryFinancial] += 0.15
		w[CategoryFunding] += 0.05
		w[CategoryTechnology] -= 0.10
		w[CategoryTeam] -= 0.10
	}

	switch normalizeKey(sector) {
	case "fintech":
		w[CategoryFinancial] += 0.10
		w[CategoryTechnology] += 0.05
		w[CategoryMarket] -= 0.10
		w[CategoryTeam] -= 0.05
	case "healthcare", "biotech":
		w[CategoryTechnology] += 0.10
		w[CategoryTeam] += 0.10
		w[CategoryTraction] -= 0.10
		w[CategoryFinancial] -= 0.10
	}

	return w
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, " ", "_")))
}
