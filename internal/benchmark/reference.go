package benchmark

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed medians.yaml
var mediansYAML []byte

// Medians holds sector-median values for the benchmarked metrics.
type Medians struct {
	RevenueGrowth float64 `yaml:"revenue_growth"`
	BurnMultiple  float64 `yaml:"burn_multiple"`
	CACPayback    float64 `yaml:"cac_payback"`
	CustomerCount float64 `yaml:"customer_count"`
}

// Reference is the sector benchmark table shipped with the binary.
type Reference struct {
	Sectors map[string]Medians `yaml:"sectors"`
}

// LoadReference parses the embedded sector median table.
func LoadReference() (*Reference, error) {
	var ref Reference
	if err := yaml.Unmarshal(mediansYAML, &ref); err != nil {
		return nil, eris.Wrap(err, "benchmark: parse median table")
	}
	return &ref, nil
}

// For returns the medians for a sector (case-insensitive). Unknown sectors
// return a zero Medians and false; callers treat zero medians as
// insufficient data rather than an error.
func (r *Reference) For(sector string) (Medians, bool) {
	m, ok := r.Sectors[strings.ToLower(strings.TrimSpace(sector))]
	return m, ok
}
