package model

import (
	"math"
	"reflect"
	"time"
)

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusExtracting  RunStatus = "extracting"
	RunStatusAnalyzing   RunStatus = "analyzing"
	RunStatusPersisting  RunStatus = "persisting"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Stage identifiers recognized by the weight calculator. Anything else
// falls back to base weights.
const (
	StageSeed       = "seed"
	StagePreSeriesA = "pre_series_a"
	StageSeriesB    = "series_b"
	StageSeriesC    = "series_c"
	StageGrowth     = "growth"
	StagePreIPO     = "pre_ipo"
	StageLate       = "late_stage"
)

// Company represents a startup under evaluation. Numeric fields are
// pointers so that absent data is distinguishable from zero.
type Company struct {
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Stage       string `json:"stage"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`

	RevenueGrowthPct *float64 `json:"revenue_growth_pct,omitempty"`
	BurnMultiple     *float64 `json:"burn_multiple,omitempty"`
	CACPaybackMonths *float64 `json:"cac_payback_months,omitempty"`
	CustomerCount    *float64 `json:"customer_count,omitempty"`
	ARRUSD           *float64 `json:"arr_usd,omitempty"`
	RevenueUSD       *float64 `json:"revenue_usd,omitempty"`
	ValuationUSD     *float64 `json:"valuation_usd,omitempty"`
	TAMUSD           *float64 `json:"tam_usd,omitempty"`
	GrossMarginPct   *float64 `json:"gross_margin_pct,omitempty"`
	RunwayMonths     *float64 `json:"runway_months,omitempty"`
	EmployeeCount    *float64 `json:"employee_count,omitempty"`
	FounderCount     *float64 `json:"founder_count,omitempty"`
	ChurnPct         *float64 `json:"churn_pct,omitempty"`
	CashUSD          *float64 `json:"cash_usd,omitempty"`
	DebtUSD          *float64 `json:"debt_usd,omitempty"`
	NetIncomeUSD     *float64 `json:"net_income_usd,omitempty"`
}

// Completeness returns the share of populated fields, rounded to two
// decimals. A field counts as populated when it is a non-empty string or
// a non-nil, non-zero numeric pointer.
func (c Company) Completeness() float64 {
	v := reflect.ValueOf(c)
	total := v.NumField()
	filled := 0
	for i := 0; i < total; i++ {
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			if f.String() != "" {
				filled++
			}
		case reflect.Ptr:
			if !f.IsNil() && f.Elem().Float() != 0 {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return round2(float64(filled) / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Run represents a single analysis run for a company.
type Run struct {
	ID        string    `json:"id"`
	Company   Company   `json:"company"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
