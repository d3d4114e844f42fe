// Package ingest runs the end-to-end deck analysis pipeline: extract,
// enrich, score, assess, persist, publish.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ascentvc/diligence-cli/internal/benchmark"
	"github.com/ascentvc/diligence-cli/internal/enrich"
	"github.com/ascentvc/diligence-cli/internal/extract"
	"github.com/ascentvc/diligence-cli/internal/model"
	"github.com/ascentvc/diligence-cli/internal/risk"
	"github.com/ascentvc/diligence-cli/internal/warehouse"
	"github.com/ascentvc/diligence-cli/pkg/notion"
)

var errNoExtraction = eris.New("ingest: pipeline built without extraction stages")

// Result bundles the analyses produced for one company.
type Result struct {
	Company   model.Company        `json:"company"`
	Benchmark *benchmark.Report    `json:"benchmark"`
	Risk      *risk.Report         `json:"risk"`
	Deck      *extract.ChainResult `json:"deck,omitempty"`
}

// Pipeline wires the analysis stages together. Optional stages
// (enrichment, warehouse, deal tracker) are skipped when nil.
type Pipeline struct {
	bench  *benchmark.Engine
	pre    *extract.Preprocessor
	chain  *extract.Chain
	sizer  *enrich.MarketSizer
	wh     warehouse.Warehouse
	notion notion.Client
	dealDB string
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithExtraction enables deck extraction.
func WithExtraction(pre *extract.Preprocessor, chain *extract.Chain) Option {
	return func(p *Pipeline) {
		p.pre = pre
		p.chain = chain
	}
}

// WithMarketSizer enables TAM enrichment for companies without a stated TAM.
func WithMarketSizer(sizer *enrich.MarketSizer) Option {
	return func(p *Pipeline) { p.sizer = sizer }
}

// WithWarehouse enables persistence of analysis records.
func WithWarehouse(wh warehouse.Warehouse) Option {
	return func(p *Pipeline) { p.wh = wh }
}

// WithDealTracker enables publishing results to the Notion deal database.
func WithDealTracker(client notion.Client, dealDB string) Option {
	return func(p *Pipeline) {
		p.notion = client
		p.dealDB = dealDB
	}
}

// New creates a pipeline around a benchmark engine.
func New(bench *benchmark.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{bench: bench}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AnalyzeCompany scores and risk-assesses a company profile, persists the
// records, and publishes to the deal tracker. Persistence and publishing
// failures are logged, not fatal: the analysis is still returned.
func (p *Pipeline) AnalyzeCompany(ctx context.Context, company model.Company) (*Result, error) {
	if p.sizer != nil && company.TAMUSD == nil {
		tam, _, err := p.sizer.EstimateTAM(ctx, company)
		if err != nil {
			zap.L().Warn("ingest: market size enrichment failed",
				zap.String("company", company.Name),
				zap.Error(err))
		} else {
			company.TAMUSD = &tam
		}
	}

	bench, err := p.bench.Analyze(ctx, company)
	if err != nil {
		return nil, err
	}
	riskReport := risk.Assess(company)

	res := &Result{Company: company, Benchmark: bench, Risk: riskReport}
	p.persist(ctx, res)
	p.publish(ctx, res)
	return res, nil
}

// AnalyzeDeck extracts a pitch deck, merges extracted metrics into the
// company profile, and runs the company analysis. Fields already set on
// overrides win over extracted values.
func (p *Pipeline) AnalyzeDeck(ctx context.Context, path string, overrides model.Company) (*Result, error) {
	if p.chain == nil || p.pre == nil {
		return nil, errNoExtraction
	}

	doc, err := p.pre.Prepare(path)
	if err != nil {
		return nil, err
	}
	defer p.pre.Cleanup(doc)

	chainRes, err := p.chain.Run(ctx, doc)
	if err != nil {
		return nil, err
	}

	company := mergeExtracted(overrides, chainRes.Analysis)
	res, err := p.AnalyzeCompany(ctx, company)
	if err != nil {
		return nil, err
	}
	res.Deck = chainRes
	p.persistExtraction(ctx, res, chainRes)
	return res, nil
}

// AnalyzeBatch runs AnalyzeDeck over many decks with bounded concurrency.
// Failed decks are logged and skipped; the successful results are returned
// in input order with gaps removed.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, paths []string, maxConcurrent int) ([]*Result, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, path := range paths {
		g.Go(func() error {
			res, err := p.AnalyzeDeck(gctx, path, model.Company{})
			if err != nil {
				zap.L().Error("ingest: deck analysis failed",
					zap.String("path", path),
					zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(paths))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// mergeExtracted folds content analysis into the company profile without
// clobbering caller-provided fields.
func mergeExtracted(company model.Company, analysis *extract.ContentAnalysis) model.Company {
	if analysis == nil {
		return company
	}
	if company.Name == "" {
		company.Name = analysis.CompanyName
	}
	setIfNil := func(dst **float64, key string) {
		if *dst != nil {
			return
		}
		if v, ok := analysis.Metrics[key]; ok {
			*dst = &v
		}
	}
	setIfNil(&company.ARRUSD, "arr_usd")
	setIfNil(&company.RevenueGrowthPct, "revenue_growth_pct")
	setIfNil(&company.CACPaybackMonths, "cac_payback_months")
	return company
}

func (p *Pipeline) persist(ctx context.Context, res *Result) {
	if p.wh == nil {
		return
	}

	companyID, err := p.wh.CompanyID(ctx, res.Company.Name)
	if err != nil {
		zap.L().Warn("ingest: company id lookup failed",
			zap.String("company", res.Company.Name),
			zap.Error(err))
		return
	}

	res.Benchmark.WarehouseSaved = p.saveRecord(ctx, &warehouse.Record{
		CompanyID:   companyID,
		CompanyName: res.Company.Name,
		Kind:        warehouse.KindBenchmark,
		Score:       res.Benchmark.Overall,
		Summary:     res.Benchmark.Recommendation,
	}, res.Benchmark)

	res.Risk.WarehouseSaved = p.saveRecord(ctx, &warehouse.Record{
		CompanyID:   companyID,
		CompanyName: res.Company.Name,
		Kind:        warehouse.KindRisk,
		Summary:     string(res.Risk.Overall),
	}, res.Risk)

	if detail := financialDetail(res); detail != nil {
		p.saveRecord(ctx, &warehouse.Record{
			CompanyID:   companyID,
			CompanyName: res.Company.Name,
			Kind:        warehouse.KindFinancial,
			Score:       res.Benchmark.CategoryScores[benchmark.CategoryFinancial],
			Summary:     fmt.Sprintf("%d financial indicators", len(detail.Multiples)+len(detail.Ratios)),
		}, detail)
	}

	if detail := foundersDetail(res.Company); detail != nil {
		p.saveRecord(ctx, &warehouse.Record{
			CompanyID:   companyID,
			CompanyName: res.Company.Name,
			Kind:        warehouse.KindFounders,
			Score:       res.Benchmark.CategoryScores[benchmark.CategoryTeam],
			Summary:     detail.summary(),
		}, detail)
	}
}

// financialRecord is the detail payload for the financial analysis kind:
// valuation multiples from benchmarking plus the risk engine's ratios.
type financialRecord struct {
	Multiples map[string]float64 `json:"multiples,omitempty"`
	Ratios    map[string]float64 `json:"ratios,omitempty"`
}

func financialDetail(res *Result) *financialRecord {
	if len(res.Benchmark.Multiples) == 0 && len(res.Risk.FinancialMetrics) == 0 {
		return nil
	}
	return &financialRecord{
		Multiples: res.Benchmark.Multiples,
		Ratios:    res.Risk.FinancialMetrics,
	}
}

// foundersRecord is the detail payload for the founders analysis kind.
type foundersRecord struct {
	FounderCount  *float64 `json:"founder_count,omitempty"`
	EmployeeCount *float64 `json:"employee_count,omitempty"`
}

func foundersDetail(c model.Company) *foundersRecord {
	if c.FounderCount == nil && c.EmployeeCount == nil {
		return nil
	}
	return &foundersRecord{FounderCount: c.FounderCount, EmployeeCount: c.EmployeeCount}
}

func (f *foundersRecord) summary() string {
	var parts []string
	if f.FounderCount != nil {
		parts = append(parts, fmt.Sprintf("%.0f founders", *f.FounderCount))
	}
	if f.EmployeeCount != nil {
		parts = append(parts, fmt.Sprintf("%.0f employees", *f.EmployeeCount))
	}
	return strings.Join(parts, ", ")
}

func (p *Pipeline) persistExtraction(ctx context.Context, res *Result, chainRes *extract.ChainResult) {
	if p.wh == nil || chainRes.Result == nil {
		return
	}
	companyID, err := p.wh.CompanyID(ctx, res.Company.Name)
	if err != nil {
		zap.L().Warn("ingest: company id lookup failed",
			zap.String("company", res.Company.Name),
			zap.Error(err))
		return
	}
	p.saveRecord(ctx, &warehouse.Record{
		CompanyID:   companyID,
		CompanyName: res.Company.Name,
		Kind:        warehouse.KindExtraction,
		Score:       float64(chainRes.Result.WordCount),
		Summary:     chainRes.Result.Strategy,
	}, chainRes)
}

// saveRecord marshals detail and writes the record; returns whether the
// write succeeded.
func (p *Pipeline) saveRecord(ctx context.Context, rec *warehouse.Record, detail any) bool {
	payload, err := json.Marshal(detail)
	if err != nil {
		zap.L().Warn("ingest: marshal analysis detail failed",
			zap.String("company", rec.CompanyName),
			zap.Error(err))
		return false
	}
	rec.Detail = payload

	if err := p.wh.SaveAnalysis(ctx, rec); err != nil {
		zap.L().Warn("ingest: warehouse save failed",
			zap.String("company", rec.CompanyName),
			zap.String("kind", string(rec.Kind)),
			zap.Error(err))
		return false
	}
	return true
}

func (p *Pipeline) publish(ctx context.Context, res *Result) {
	if p.notion == nil || p.dealDB == "" {
		return
	}

	_, err := notion.UpsertDeal(ctx, p.notion, p.dealDB, notion.Deal{
		Company:        res.Company.Name,
		Sector:         res.Company.Sector,
		Stage:          res.Company.Stage,
		Score:          res.Benchmark.Overall,
		Recommendation: res.Benchmark.Recommendation,
		RiskLevel:      string(res.Risk.Overall),
		Horizon:        res.Benchmark.InvestmentHorizon,
		Thesis:         res.Benchmark.Thesis,
	})
	if err != nil {
		zap.L().Warn("ingest: deal tracker publish failed",
			zap.String("company", res.Company.Name),
			zap.Error(err))
		return
	}
	zap.L().Info("ingest: published to deal tracker",
		zap.String("company", res.Company.Name))
}
