package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/benchmark"
	"github.com/ascentvc/diligence-cli/internal/enrich"
	"github.com/ascentvc/diligence-cli/internal/extract"
	"github.com/ascentvc/diligence-cli/internal/ingest"
	"github.com/ascentvc/diligence-cli/internal/narrate"
	"github.com/ascentvc/diligence-cli/internal/ocr"
	"github.com/ascentvc/diligence-cli/internal/warehouse"
	"github.com/ascentvc/diligence-cli/pkg/notion"
	"github.com/ascentvc/diligence-cli/pkg/objstore"
)

// pipelineEnv bundles the long-lived resources a command needs and owns
// their cleanup.
type pipelineEnv struct {
	Warehouse warehouse.Warehouse
	Pipeline  *ingest.Pipeline
	Pre       *extract.Preprocessor
	Chain     *extract.Chain
}

func (e *pipelineEnv) Close() {
	if e.Warehouse != nil {
		if err := e.Warehouse.Close(); err != nil {
			zap.L().Warn("cmd: close warehouse", zap.Error(err))
		}
	}
}

// initWarehouse opens the configured warehouse and applies migrations.
func initWarehouse(ctx context.Context) (warehouse.Warehouse, error) {
	wh, err := warehouse.Open(ctx, cfg.Warehouse)
	if err != nil {
		return nil, err
	}
	if err := wh.Migrate(ctx); err != nil {
		wh.Close()
		return nil, err
	}
	return wh, nil
}

// warehouseConfigured reports whether persistence can be attempted at
// all. Analysis commands run fine without a warehouse; commands that
// read stored results require one and call initWarehouse directly.
func warehouseConfigured() bool {
	switch cfg.Warehouse.Driver {
	case "sqlite":
		return true
	default:
		return cfg.Warehouse.DatabaseURL != ""
	}
}

// initExtraction assembles the extraction fallback chain from config.
// The managed OCR rungs join the chain only when a key is configured;
// the local rungs always run, so default configs still extract.
func initExtraction() (*extract.Preprocessor, *extract.Chain, error) {
	switch cfg.OCR.Provider {
	case "", "local", "managed":
	default:
		return nil, nil, eris.Errorf("cmd: unknown ocr provider %q", cfg.OCR.Provider)
	}

	var managed ocr.Extractor
	var images ocr.ImageReader
	if cfg.OCR.Provider == "managed" {
		if cfg.OCR.Key == "" {
			zap.L().Warn("cmd: managed ocr key not set, extraction uses local strategies only")
		} else {
			m := ocr.NewManagedOCR(cfg.OCR)
			managed = m
			images = m
		}
	}

	pdftotext := ocr.NewPdfToText(cfg.OCR.PdfToTextPath)
	raster := ocr.NewRasterizer(cfg.OCR.PdfToPpmPath)

	var blobs objstore.Client
	if cfg.ObjStore.Key != "" {
		opts := []objstore.Option{}
		if cfg.ObjStore.BaseURL != "" {
			opts = append(opts, objstore.WithBaseURL(cfg.ObjStore.BaseURL))
		}
		blobs = objstore.NewClient(cfg.ObjStore.Key, cfg.ObjStore.Bucket, opts...)
	}

	strategies := extract.DefaultStrategies(managed, pdftotext, raster, images, blobs)
	return extract.NewPreprocessor(cfg.Extract), extract.NewChain(cfg.Extract, strategies...), nil
}

// initPipeline wires the full analysis pipeline. Extraction stages are
// only built when the command will process deck files.
func initPipeline(ctx context.Context, needExtraction bool) (*pipelineEnv, error) {
	ref, err := benchmark.LoadReference()
	if err != nil {
		return nil, err
	}

	var narrator benchmark.Narrator
	if n := narrate.New(cfg.Anthropic); n != nil {
		narrator = n
	}
	engine := benchmark.NewEngine(ref, narrator)

	env := &pipelineEnv{}
	opts := []ingest.Option{}

	if needExtraction {
		pre, chain, err := initExtraction()
		if err != nil {
			return nil, err
		}
		env.Pre = pre
		env.Chain = chain
		opts = append(opts, ingest.WithExtraction(pre, chain))
	}

	if sizer := enrich.NewMarketSizer(cfg.Perplexity); sizer != nil {
		opts = append(opts, ingest.WithMarketSizer(sizer))
	}

	if warehouseConfigured() {
		wh, err := initWarehouse(ctx)
		if err != nil {
			return nil, err
		}
		env.Warehouse = wh
		opts = append(opts, ingest.WithWarehouse(wh))
	} else {
		zap.L().Debug("cmd: no warehouse configured, analyses will not be persisted")
	}

	if cfg.Notion.Token != "" && cfg.Notion.DealDB != "" {
		opts = append(opts, ingest.WithDealTracker(notion.NewClient(cfg.Notion.Token), cfg.Notion.DealDB))
	}

	env.Pipeline = ingest.New(engine, opts...)
	return env, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
