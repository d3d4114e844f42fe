package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/ocr"
	"github.com/ascentvc/diligence-cli/pkg/objstore"
)

// DefaultStrategies builds the standard five-rung chain, most capable
// first. Nil dependencies drop their rung.
func DefaultStrategies(managed ocr.Extractor, pdftotext *ocr.PdfToText, raster *ocr.Rasterizer, images ocr.ImageReader, blobs objstore.Client) []Strategy {
	var out []Strategy
	if managed != nil {
		out = append(out, &ManagedOCRStrategy{Extractor: managed})
	}
	if pdftotext != nil {
		out = append(out, &LayoutStrategy{Tool: pdftotext})
	}
	out = append(out, &EmbeddedTextStrategy{})
	if raster != nil && images != nil && blobs != nil {
		out = append(out, &RasterOCRStrategy{Raster: raster, Images: images, Blobs: blobs})
	}
	if pdftotext != nil {
		out = append(out, &DirectStreamStrategy{Tool: pdftotext})
	}
	return out
}

// ManagedOCRStrategy sends the whole document to the asynchronous OCR
// service. Best quality for scanned decks, slowest and costliest.
type ManagedOCRStrategy struct {
	Extractor ocr.Extractor
}

func (s *ManagedOCRStrategy) Name() string { return "managed_ocr" }

func (s *ManagedOCRStrategy) Extract(ctx context.Context, doc Document) (*Result, error) {
	text, err := s.Extractor.ExtractText(ctx, doc.Path)
	if err != nil {
		return nil, eris.Wrap(err, "extract: managed ocr")
	}
	return &Result{Text: text}, nil
}

// LayoutStrategy runs pdftotext in layout mode, which preserves table and
// column structure in decks with embedded text.
type LayoutStrategy struct {
	Tool *ocr.PdfToText
}

func (s *LayoutStrategy) Name() string { return "layout_text" }

func (s *LayoutStrategy) Extract(ctx context.Context, doc Document) (*Result, error) {
	text, err := s.Tool.ExtractText(ctx, doc.Path)
	if err != nil {
		return nil, eris.Wrap(err, "extract: layout text")
	}
	return &Result{Text: text}, nil
}

// EmbeddedTextStrategy pulls text straight from the PDF content streams,
// no external binaries required.
type EmbeddedTextStrategy struct{}

func (s *EmbeddedTextStrategy) Name() string { return "embedded_text" }

func (s *EmbeddedTextStrategy) Extract(ctx context.Context, doc Document) (*Result, error) {
	pdfCtx, err := api.ReadContextFile(doc.Path)
	if err != nil {
		return nil, eris.Wrap(err, "extract: read pdf context")
	}

	outDir := filepath.Join(os.TempDir(), "diligence-extract", "content_"+uuid.NewString())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "extract: create content dir")
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(doc.Path, outDir, nil, nil); err != nil {
		return nil, eris.Wrap(err, "extract: extract content")
	}

	pageTexts := make(map[int]string)
	entries, _ := os.ReadDir(outDir)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(e.Name(), "Content_page_%d", &pageNum); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(text)
		}
	}

	return &Result{Text: sb.String()}, nil
}

// PageRenderer rasterizes a document into per-page image files.
type PageRenderer interface {
	Render(ctx context.Context, pdfPath, outDir string) ([]string, error)
}

// RasterOCRStrategy renders each page to an image, stages the images in
// blob storage, and OCRs them one by one. Staged blobs are always deleted,
// even on failure.
type RasterOCRStrategy struct {
	Raster PageRenderer
	Images ocr.ImageReader
	Blobs  objstore.Client
}

func (s *RasterOCRStrategy) Name() string { return "raster_ocr" }

func (s *RasterOCRStrategy) Extract(ctx context.Context, doc Document) (*Result, error) {
	outDir := filepath.Join(os.TempDir(), "diligence-extract", "raster_"+uuid.NewString())
	defer os.RemoveAll(outDir)

	pages, err := s.Raster.Render(ctx, doc.Path, outDir)
	if err != nil {
		return nil, eris.Wrap(err, "extract: rasterize")
	}

	runID := uuid.NewString()
	var staged []string
	defer func() {
		for _, key := range staged {
			if err := s.Blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
				zap.L().Warn("extract: staged blob cleanup failed",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}
	}()

	var sb strings.Builder
	for i, pagePath := range pages {
		data, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, eris.Wrapf(err, "extract: read raster page %d", i+1)
		}

		key := fmt.Sprintf("raster/%s/page_%03d.png", runID, i+1)
		url, err := s.Blobs.Put(ctx, key, data, "image/png")
		if err != nil {
			return nil, eris.Wrapf(err, "extract: stage raster page %d", i+1)
		}
		staged = append(staged, key)

		text, err := s.Images.ReadImage(ctx, url)
		if err != nil {
			return nil, eris.Wrapf(err, "extract: ocr raster page %d", i+1)
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return &Result{Text: sb.String()}, nil
}

// DirectStreamStrategy reads content streams in document order via
// pdftotext raw mode. Last resort; loses layout but rarely fails outright.
type DirectStreamStrategy struct {
	Tool *ocr.PdfToText
}

func (s *DirectStreamStrategy) Name() string { return "direct_stream" }

func (s *DirectStreamStrategy) Extract(ctx context.Context, doc Document) (*Result, error) {
	text, err := s.Tool.ExtractRaw(ctx, doc.Path)
	if err != nil {
		return nil, eris.Wrap(err, "extract: direct stream")
	}
	return &Result{Text: text}, nil
}
