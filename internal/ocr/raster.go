package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Rasterizer renders PDF pages to PNG images using the pdftoppm CLI tool.
type Rasterizer struct {
	binPath string
}

// NewRasterizer creates a Rasterizer. If binPath is empty, "pdftoppm" is used.
func NewRasterizer(binPath string) *Rasterizer {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	return &Rasterizer{binPath: binPath}
}

// Render rasterizes all pages of the PDF into outDir and returns the image
// paths in page order. The caller owns outDir cleanup.
func (r *Rasterizer) Render(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "ocr: create raster dir")
	}

	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, r.binPath, "-png", "-r", "150", pdfPath, prefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "ocr: pdftoppm failed for %s: %s", pdfPath, stderr.String())
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read raster dir")
	}

	var pages []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			pages = append(pages, filepath.Join(outDir, e.Name()))
		}
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(pages)

	if len(pages) == 0 {
		return nil, eris.Errorf("ocr: pdftoppm produced no pages for %s", pdfPath)
	}
	return pages, nil
}
