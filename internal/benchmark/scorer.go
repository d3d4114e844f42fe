package benchmark

// MetricScore holds the benchmarked result for a single metric.
type MetricScore struct {
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Median     float64 `json:"median"`
	Ratio      float64 `json:"ratio"`
	Score      float64 `json:"score"`
	Assessment string  `json:"assessment"`
}

const insufficientData = "Insufficient data for comparison"

// ScoreRatio benchmarks a metric value against its sector median and maps
// the ratio onto a 0-10 score. A zero median yields a neutral 5.0.
func ScoreRatio(metric string, value, median float64, higherBetter bool) MetricScore {
	ms := MetricScore{Metric: metric, Value: value, Median: median}

	if median == 0 {
		ms.Score = 5.0
		ms.Assessment = insufficientData
		return ms
	}

	ratio := value / median
	ms.Ratio = ratio

	if higherBetter {
		switch {
		case ratio >= 2.0:
			ms.Score = 10.0
		case ratio >= 1.5:
			ms.Score = 8.5
		case ratio >= 1.2:
			ms.Score = 7.0
		case ratio >= 1.0:
			ms.Score = 6.0
		case ratio >= 0.8:
			ms.Score = 4.0
		default:
			ms.Score = 2.0
		}
		ms.Assessment = assessHigherBetter(ratio)
		return ms
	}

	switch {
	case ratio <= 0.5:
		ms.Score = 10.0
	case ratio <= 0.7:
		ms.Score = 8.5
	case ratio <= 0.9:
		ms.Score = 7.0
	case ratio <= 1.1:
		ms.Score = 6.0
	case ratio <= 1.3:
		ms.Score = 4.0
	default:
		ms.Score = 2.0
	}
	ms.Assessment = assessLowerBetter(ratio)
	return ms
}

func assessHigherBetter(ratio float64) string {
	switch {
	case ratio >= 2.0:
		return "Exceptional - significantly outperforming sector"
	case ratio >= 1.2:
		return "Strong - above sector median"
	case ratio >= 0.8:
		return "Average - near sector median"
	default:
		return "Below Average - underperforming sector"
	}
}

func assessLowerBetter(ratio float64) string {
	switch {
	case ratio <= 0.7:
		return "Exceptional - significantly more efficient than sector"
	case ratio <= 1.1:
		return "Strong - better than sector median"
	case ratio <= 1.3:
		return "Average - near sector median"
	default:
		return "Below Average - less efficient than sector"
	}
}

// ScoreMarketSize benchmarks total addressable market size as a metric.
func ScoreMarketSize(tamUSD float64) MetricScore {
	return MetricScore{
		Metric:     "total_addressable_market",
		Value:      tamUSD,
		Score:      ScoreTAM(tamUSD),
		Assessment: assessTAM(tamUSD),
	}
}

func assessTAM(tamUSD float64) string {
	switch {
	case tamUSD >= 50e9:
		return "Exceptional - massive addressable market"
	case tamUSD >= 10e9:
		return "Strong - large addressable market"
	case tamUSD >= 1e9:
		return "Good - significant market opportunity"
	default:
		return "Limited - smaller market opportunity"
	}
}

// ScoreTAM maps total addressable market size (USD) onto a 0-10 score.
func ScoreTAM(tamUSD float64) float64 {
	switch {
	case tamUSD >= 50e9:
		return 10.0
	case tamUSD >= 10e9:
		return 8.5
	case tamUSD >= 5e9:
		return 7.0
	case tamUSD >= 1e9:
		return 6.0
	case tamUSD >= 500e6:
		return 4.0
	default:
		return 2.0
	}
}
