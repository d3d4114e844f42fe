package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer writes one image file per configured page.
type fakeRenderer struct {
	pages int
}

func (f *fakeRenderer) Render(_ context.Context, _ string, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	var out []string
	for i := 1; i <= f.pages; i++ {
		p := filepath.Join(outDir, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// fakeImageReader returns canned text per page and can fail on a given call.
type fakeImageReader struct {
	calls  int
	failAt int // 1-based call index that fails; 0 never fails
}

func (f *fakeImageReader) ReadImage(context.Context, string) (string, error) {
	f.calls++
	if f.failAt != 0 && f.calls == f.failAt {
		return "", eris.New("ocr backend unavailable")
	}
	return fmt.Sprintf("page %d text", f.calls), nil
}

// fakeBlobStore records staged and deleted keys.
type fakeBlobStore struct {
	puts    []string
	deletes []string
}

func (f *fakeBlobStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.puts = append(f.puts, key)
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.deletes = append(f.deletes, key)
	return nil
}

func TestRasterOCR_ExtractsAllPages(t *testing.T) {
	blobs := &fakeBlobStore{}
	s := &RasterOCRStrategy{
		Raster: &fakeRenderer{pages: 3},
		Images: &fakeImageReader{},
		Blobs:  blobs,
	}

	res, err := s.Extract(context.Background(), Document{Path: "deck.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "page 1 text\n\npage 2 text\n\npage 3 text", res.Text)
	assert.Len(t, blobs.puts, 3)
}

func TestRasterOCR_DeletesStagedBlobsOnSuccess(t *testing.T) {
	blobs := &fakeBlobStore{}
	s := &RasterOCRStrategy{
		Raster: &fakeRenderer{pages: 2},
		Images: &fakeImageReader{},
		Blobs:  blobs,
	}

	_, err := s.Extract(context.Background(), Document{Path: "deck.pdf"})
	require.NoError(t, err)
	require.Len(t, blobs.puts, 2)
	assert.ElementsMatch(t, blobs.puts, blobs.deletes)
}

func TestRasterOCR_DeletesStagedBlobsAfterMidDocumentFailure(t *testing.T) {
	blobs := &fakeBlobStore{}
	s := &RasterOCRStrategy{
		Raster: &fakeRenderer{pages: 3},
		Images: &fakeImageReader{failAt: 2},
		Blobs:  blobs,
	}

	_, err := s.Extract(context.Background(), Document{Path: "deck.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr raster page 2")

	// Both staged pages are cleaned up even though the run failed.
	require.Len(t, blobs.puts, 2)
	assert.ElementsMatch(t, blobs.puts, blobs.deletes)
}

// cancellingReader cancels the run's context before reporting failure,
// the shape of a caller abandoning a slow OCR pass.
type cancellingReader struct {
	cancel context.CancelFunc
}

func (r *cancellingReader) ReadImage(ctx context.Context, _ string) (string, error) {
	r.cancel()
	return "", eris.Wrap(ctx.Err(), "read image")
}

func TestRasterOCR_DeletesStagedBlobsAfterCancellation(t *testing.T) {
	blobs := &fakeBlobStore{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &RasterOCRStrategy{
		Raster: &fakeRenderer{pages: 2},
		Images: &cancellingReader{cancel: cancel},
		Blobs:  blobs,
	}

	_, err := s.Extract(ctx, Document{Path: "deck.pdf"})
	require.Error(t, err)

	// Cleanup runs detached from the cancelled request context.
	require.Len(t, blobs.puts, 1)
	assert.ElementsMatch(t, blobs.puts, blobs.deletes)
}
