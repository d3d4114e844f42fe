package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRatio_HigherBetterLadder(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		median    float64
		wantScore float64
	}{
		{"double median", 130, 65, 10.0},
		{"exactly 2x boundary", 2.0, 1.0, 10.0},
		{"1.5x boundary", 1.5, 1.0, 8.5},
		{"1.2x boundary", 1.2, 1.0, 7.0},
		{"at median", 65, 65, 6.0},
		{"0.8x boundary", 0.8, 1.0, 4.0},
		{"just below 0.8x", 0.79, 1.0, 2.0},
		{"far below median", 10, 65, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := ScoreRatio("revenue_growth", tt.value, tt.median, true)
			assert.InDelta(t, tt.wantScore, ms.Score, 0.001)
			assert.InDelta(t, tt.value/tt.median, ms.Ratio, 0.0001)
		})
	}
}

func TestScoreRatio_LowerBetterLadder(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		median    float64
		wantScore float64
	}{
		{"half median", 1.4, 2.8, 10.0},
		{"0.7x boundary", 0.7, 1.0, 8.5},
		{"0.9x boundary", 0.9, 1.0, 7.0},
		{"at median", 2.8, 2.8, 6.0},
		{"1.1x boundary", 1.1, 1.0, 6.0},
		{"1.3x boundary", 1.3, 1.0, 4.0},
		{"well above median", 6.0, 2.8, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := ScoreRatio("burn_multiple", tt.value, tt.median, false)
			assert.InDelta(t, tt.wantScore, ms.Score, 0.001)
		})
	}
}

func TestScoreRatio_ZeroMedian(t *testing.T) {
	ms := ScoreRatio("customer_count", 500, 0, true)
	assert.InDelta(t, 5.0, ms.Score, 0.001)
	assert.Equal(t, "Insufficient data for comparison", ms.Assessment)
	assert.Zero(t, ms.Ratio)
}

func TestScoreRatio_Assessments(t *testing.T) {
	tests := []struct {
		name         string
		value        float64
		median       float64
		higherBetter bool
		want         string
	}{
		{"higher exceptional", 200, 100, true, "Exceptional - significantly outperforming sector"},
		{"higher strong", 130, 100, true, "Strong - above sector median"},
		{"higher average", 90, 100, true, "Average - near sector median"},
		{"higher below", 50, 100, true, "Below Average - underperforming sector"},
		{"lower exceptional", 60, 100, false, "Exceptional - significantly more efficient than sector"},
		{"lower strong", 100, 100, false, "Strong - better than sector median"},
		{"lower average", 125, 100, false, "Average - near sector median"},
		{"lower below", 200, 100, false, "Below Average - less efficient than sector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := ScoreRatio("m", tt.value, tt.median, tt.higherBetter)
			assert.Equal(t, tt.want, ms.Assessment)
		})
	}
}

func TestScoreTAM_Ladder(t *testing.T) {
	tests := []struct {
		name string
		tam  float64
		want float64
	}{
		{"mega market", 80e9, 10.0},
		{"50B boundary", 50e9, 10.0},
		{"10B boundary", 10e9, 8.5},
		{"5B boundary", 5e9, 7.0},
		{"1B boundary", 1e9, 6.0},
		{"500M boundary", 500e6, 4.0},
		{"niche", 100e6, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreTAM(tt.tam), 0.001)
		})
	}
}

func TestScoreMarketSize_Assessments(t *testing.T) {
	tests := []struct {
		name string
		tam  float64
		want string
	}{
		{"massive", 60e9, "Exceptional - massive addressable market"},
		{"large", 12e9, "Strong - large addressable market"},
		{"significant", 3e9, "Good - significant market opportunity"},
		{"niche", 200e6, "Limited - smaller market opportunity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := ScoreMarketSize(tt.tam)
			assert.Equal(t, "total_addressable_market", ms.Metric)
			assert.Equal(t, tt.want, ms.Assessment)
			assert.InDelta(t, ScoreTAM(tt.tam), ms.Score, 0.001)
		})
	}
}

func TestLoadReference_SectorTable(t *testing.T) {
	ref, err := LoadReference()
	require.NoError(t, err)

	saas, ok := ref.For("SaaS")
	require.True(t, ok)
	assert.InDelta(t, 65.0, saas.RevenueGrowth, 0.001)
	assert.InDelta(t, 2.8, saas.BurnMultiple, 0.001)
	assert.InDelta(t, 18.0, saas.CACPayback, 0.001)
	assert.InDelta(t, 800.0, saas.CustomerCount, 0.001)

	_, ok = ref.For("aerospace")
	assert.False(t, ok)
}
