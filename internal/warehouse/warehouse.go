// Package warehouse persists analysis results and the company registry.
package warehouse

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// Kind identifies the analysis family a record belongs to.
type Kind string

const (
	KindBenchmark  Kind = "benchmark"
	KindRisk       Kind = "risk"
	KindFinancial  Kind = "financial"
	KindFounders   Kind = "founders"
	KindExtraction Kind = "extraction"
)

// Record is one persisted analysis row: scalar summary columns for
// querying plus the full report as JSON detail.
type Record struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"company_id"`
	CompanyName      string          `json:"company_name"`
	Kind             Kind            `json:"kind"`
	Score            float64         `json:"score"`
	Summary          string          `json:"summary"`
	Detail           json.RawMessage `json:"detail"`
	ProcessingStatus string          `json:"processing_status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CompanyFilter specifies criteria for listing companies.
type CompanyFilter struct {
	Sector string `json:"sector,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Warehouse defines the persistence interface for analysis results.
type Warehouse interface {
	// Analyses
	SaveAnalysis(ctx context.Context, rec *Record) error
	LatestAnalysis(ctx context.Context, companyID string, kind Kind) (*Record, error)

	// Company registry
	CreateCompany(ctx context.Context, company model.Company) (string, error)
	GetCompany(ctx context.Context, name string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)
	CompanyID(ctx context.Context, name string) (string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var nameFolder = cases.Fold()

// FallbackCompanyID builds the placeholder id used when a company is not
// registered: "unknown_" plus the case-folded, underscore-joined name.
func FallbackCompanyID(name string) string {
	slug := nameFolder.String(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "_")
	if slug == "" {
		slug = "unnamed"
	}
	return "unknown_" + slug
}
