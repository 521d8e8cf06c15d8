package persistence

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/speedynote/speedynote-core/internal/background"
	"github.com/speedynote/speedynote-core/internal/buffer"
)

// PageFileName returns the stroke-buffer PNG file name for page N of
// docID (§4.H file layout: "{docId}_{N:05}.png").
func PageFileName(docID string, pageIndex int) string {
	return fmt.Sprintf("%s_%05d.png", docID, pageIndex)
}

// BackgroundFileName returns the custom-background PNG file name for
// page N ("bg_{docId}_{N:05}.png").
func BackgroundFileName(docID string, pageIndex int) string {
	return fmt.Sprintf("bg_%s_%05d.png", docID, pageIndex)
}

// LoadPage reads page N's stroke buffer, returning (nil, nil) if it has
// never been saved (a fresh transparent page, per §3 lazy init).
func LoadPage(bundlePath, docID string, pageIndex int) (*image.NRGBA, error) {
	return loadPNG(filepath.Join(bundlePath, PageFileName(docID, pageIndex)))
}

// SavePage writes page N's stroke buffer. If buf is taller than
// combinedThreshold's single-page height (backdropHeight, 0 if there is
// no backdrop) indicates a combined canvas, the buffer is split and the
// two halves are saved to pages N and N+1, the bottom half merged with
// whatever content page N+1 already has on disk (§4.H: "combined-canvas
// split/merge save semantics", grounded on InkCanvas.cpp's saveToFile).
func SavePage(bundlePath, docID string, pageIndex int, buf *image.NRGBA, backdropHeight int) error {
	if err := os.MkdirAll(bundlePath, 0755); err != nil {
		return fmt.Errorf("persistence: create bundle directory: %w", err)
	}

	h := buf.Bounds().Dy()
	combined := buffer.LooksCombined(h, backdropHeight)
	if !combined {
		return savePNG(filepath.Join(bundlePath, PageFileName(docID, pageIndex)), buf)
	}

	singlePageHeight := h / 2
	if backdropHeight > 0 {
		singlePageHeight = backdropHeight
	}

	top, bottom := background.SplitCombined(buf, singlePageHeight)
	if err := savePNG(filepath.Join(bundlePath, PageFileName(docID, pageIndex)), top); err != nil {
		return err
	}
	if bottom == nil || !hasNonTransparentContent(bottom) {
		return nil
	}

	nextPath := filepath.Join(bundlePath, PageFileName(docID, pageIndex+1))
	existing, err := loadPNG(nextPath)
	if err != nil {
		return err
	}
	merged := mergeOver(existing, bottom)
	return savePNG(nextPath, merged)
}

// mergeOver draws existing (if any) then new on top, exactly as the
// original's "draw existing content first, draw new content on top".
func mergeOver(existing, next *image.NRGBA) *image.NRGBA {
	merged := image.NewNRGBA(next.Bounds())
	if existing != nil {
		draw.Draw(merged, existing.Bounds(), existing, image.Point{}, draw.Over)
	}
	draw.Draw(merged, next.Bounds(), next, image.Point{}, draw.Over)
	return merged
}

func hasNonTransparentContent(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		rowStart := img.PixOffset(b.Min.X, y)
		row := img.Pix[rowStart : rowStart+img.Stride]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 0 {
				return true
			}
		}
	}
	return false
}

func loadPNG(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", path, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", path, err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		b := img.Bounds()
		nrgba = image.NewNRGBA(b)
		draw.Draw(nrgba, b, img, b.Min, draw.Src)
	}
	return nrgba, nil
}

func savePNG(path string, img *image.NRGBA) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("persistence: encode %s: %w", path, err)
	}
	return writeFileAtomic(path, buf.Bytes())
}
