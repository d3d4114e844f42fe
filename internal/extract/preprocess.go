package extract

import (
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/config"
)

// Preprocessor probes uploaded documents and recompresses oversized ones
// before they enter the extraction chain.
type Preprocessor struct {
	recompressBytes int64
	tempDir         string
}

// NewPreprocessor creates a Preprocessor from config.
func NewPreprocessor(cfg config.ExtractConfig) *Preprocessor {
	threshold := cfg.RecompressBytes
	if threshold <= 0 {
		threshold = 5 * 1024 * 1024
	}
	tempDir := filepath.Join(os.TempDir(), "diligence-extract")
	_ = os.MkdirAll(tempDir, 0o755)
	return &Preprocessor{recompressBytes: threshold, tempDir: tempDir}
}

// Prepare builds a Document from a local file: stats it, probes page count
// and encryption, and recompresses when the file exceeds the size
// threshold. Recompression failures are non-fatal; the original file is
// used instead.
func (p *Preprocessor) Prepare(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, eris.Wrapf(err, "extract: stat %s", path)
	}

	doc := Document{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
	}

	if pdfCtx, err := api.ReadContextFile(path); err == nil {
		doc.PageCount = pdfCtx.PageCount
		doc.Encrypted = pdfCtx.Encrypt != nil
	}

	if doc.Encrypted || doc.SizeBytes <= p.recompressBytes {
		return doc, nil
	}

	compressed := filepath.Join(p.tempDir, "opt_"+doc.Name)
	if err := api.OptimizeFile(path, compressed, nil); err != nil {
		zap.L().Warn("extract: recompression failed, using original",
			zap.String("document", doc.Name),
			zap.Error(err),
		)
		return doc, nil
	}

	optInfo, err := os.Stat(compressed)
	if err != nil || optInfo.Size() >= doc.SizeBytes {
		_ = os.Remove(compressed)
		return doc, nil
	}

	zap.L().Info("extract: recompressed oversized document",
		zap.String("document", doc.Name),
		zap.Int64("original_bytes", doc.SizeBytes),
		zap.Int64("compressed_bytes", optInfo.Size()),
	)

	doc.Path = compressed
	doc.SizeBytes = optInfo.Size()
	doc.Recompressed = true
	return doc, nil
}

// Cleanup removes the recompressed copy, if any.
func (p *Preprocessor) Cleanup(doc Document) {
	if doc.Recompressed {
		_ = os.Remove(doc.Path)
	}
}
