package ocr

import (
	"context"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// ImageReader performs OCR on a single rasterized page image.
type ImageReader interface {
	ReadImage(ctx context.Context, imageURL string) (string, error)
}
