package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// ContentAnalysis summarizes what the extracted text appears to contain.
type ContentAnalysis struct {
	CompanyName string             `json:"company_name,omitempty"`
	Sections    []string           `json:"sections,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	RiskFlags   []string           `json:"risk_flags,omitempty"`
	WordCount   int                `json:"word_count"`
}

// Section keywords commonly found in pitch decks, checked in order.
var sectionKeywords = []string{
	"problem", "solution", "product", "market", "traction",
	"business model", "competition", "team", "financials", "funding",
	"go-to-market", "roadmap",
}

// Risk flag indicators; any hit is surfaced verbatim.
var riskIndicators = []string{
	"litigation", "lawsuit", "churn", "layoff", "down round",
	"going concern", "default", "regulatory investigation", "data breach",
}

var (
	arrPattern    = regexp.MustCompile(`(?i)\$?([\d.]+)\s*([mk]|million|thousand)?\s*(?:in\s+)?arr`)
	growthPattern = regexp.MustCompile(`(?i)([\d.]+)\s*%\s*(?:yoy|annual|revenue)?\s*growth`)
	burnPattern   = regexp.MustCompile(`(?i)burn(?:\s+rate)?\s*(?:of|:)?\s*\$?([\d.]+)\s*([mk]|million|thousand)?`)
	cacPattern    = regexp.MustCompile(`(?i)cac(?:\s+payback)?\s*(?:of|:)?\s*([\d.]+)\s*(?:months)?`)
)

// AnalyzeContent inspects extracted deck text for the company name, deck
// sections, headline metrics, and risk language.
func AnalyzeContent(text string) *ContentAnalysis {
	ca := &ContentAnalysis{WordCount: countWords(text)}
	if text == "" {
		return ca
	}

	ca.CompanyName = guessCompanyName(text)

	lower := strings.ToLower(text)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) {
			ca.Sections = append(ca.Sections, kw)
		}
	}
	for _, ind := range riskIndicators {
		if strings.Contains(lower, ind) {
			ca.RiskFlags = append(ca.RiskFlags, ind)
		}
	}

	metrics := make(map[string]float64)
	if m := arrPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok {
			metrics["arr_usd"] = v
		}
	}
	if m := growthPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			metrics["revenue_growth_pct"] = v
		}
	}
	if m := burnPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok {
			metrics["monthly_burn_usd"] = v
		}
	}
	if m := cacPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			metrics["cac_payback_months"] = v
		}
	}
	if len(metrics) > 0 {
		ca.Metrics = metrics
	}

	return ca
}

// guessCompanyName takes the first plausible title line from the top of the
// deck: short, not all lowercase, and not a generic cover phrase.
func guessCompanyName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 15 {
		lines = lines[:15]
	}
	for _, line := range lines {
		candidate := strings.TrimSpace(line)
		if candidate == "" || len(candidate) > 60 {
			continue
		}
		words := strings.Fields(candidate)
		if len(words) > 6 {
			continue
		}
		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, "confidential") ||
			strings.HasPrefix(lower, "pitch deck") ||
			strings.HasPrefix(lower, "investor presentation") ||
			strings.HasPrefix(lower, "page ") {
			continue
		}
		if lower == candidate {
			// All-lowercase lines are usually body text, not a title.
			continue
		}
		return candidate
	}
	return ""
}

func parseScaled(num, unit string) (float64, bool) {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(unit) {
	case "m", "million":
		v *= 1e6
	case "k", "thousand":
		v *= 1e3
	}
	return v, true
}
