package persistence

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func fillNRGBA(size image.Point, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestSaveLoadPage_SinglePageRoundTrips(t *testing.T) {
	dir := t.TempDir()
	buf := fillNRGBA(image.Point{X: 100, Y: 200}, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	if err := SavePage(dir, "doc1", 0, buf, 0); err != nil {
		t.Fatalf("SavePage() error = %v", err)
	}

	loaded, err := LoadPage(dir, "doc1", 0)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if loaded.Bounds().Size() != buf.Bounds().Size() {
		t.Fatalf("loaded size = %v, want %v", loaded.Bounds().Size(), buf.Bounds().Size())
	}
	if got := loaded.NRGBAAt(5, 5); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %v, want {10,20,30,255}", got)
	}
}

func TestLoadPage_MissingFileReturnsNilNoError(t *testing.T) {
	dir := t.TempDir()
	img, err := LoadPage(dir, "doc1", 3)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if img != nil {
		t.Error("expected nil for a never-saved page")
	}
}

func TestSavePage_CombinedCanvasSplitsTopAndBottom(t *testing.T) {
	dir := t.TempDir()
	// backdropHeight 100: buffer height 200 >= 1.8*100, so it's combined.
	buf := image.NewNRGBA(image.Rect(0, 0, 50, 200))
	for y := 100; y < 200; y++ { // bottom half has content
		for x := 0; x < 50; x++ {
			buf.SetNRGBA(x, y, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
		}
	}

	if err := SavePage(dir, "doc1", 0, buf, 100); err != nil {
		t.Fatalf("SavePage() error = %v", err)
	}

	top, err := LoadPage(dir, "doc1", 0)
	if err != nil || top == nil {
		t.Fatalf("expected page 0 (top half) to be saved, err=%v", err)
	}
	if top.Bounds().Dy() != 100 {
		t.Errorf("expected top half height 100, got %d", top.Bounds().Dy())
	}

	bottom, err := LoadPage(dir, "doc1", 1)
	if err != nil || bottom == nil {
		t.Fatalf("expected page 1 (bottom half) to be saved, err=%v", err)
	}
	if got := bottom.NRGBAAt(0, 0); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("bottom half content = %v, want {1,2,3,255}", got)
	}
}

func TestSavePage_CombinedCanvasSkipsEmptyBottomHalf(t *testing.T) {
	dir := t.TempDir()
	buf := image.NewNRGBA(image.Rect(0, 0, 50, 200)) // fully transparent bottom half

	if err := SavePage(dir, "doc1", 0, buf, 100); err != nil {
		t.Fatalf("SavePage() error = %v", err)
	}

	if _, err := LoadPage(dir, "doc1", 1); err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	path := filepath.Join(dir, PageFileName("doc1", 1))
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("expected no page-1 file to be written for an all-transparent bottom half")
	}
}

func TestSavePage_MergesOntoExistingBottomHalf(t *testing.T) {
	dir := t.TempDir()

	// Page 1 already has content from a previous save.
	existing := fillNRGBA(image.Point{X: 50, Y: 100}, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	if err := savePNG(filepath.Join(dir, PageFileName("doc1", 1)), existing); err != nil {
		t.Fatalf("seed save error = %v", err)
	}

	buf := image.NewNRGBA(image.Rect(0, 0, 50, 200))
	for x := 0; x < 10; x++ { // only a corner of the new bottom half is drawn
		buf.SetNRGBA(x, 100, color.NRGBA{R: 1, G: 1, B: 1, A: 255})
	}

	if err := SavePage(dir, "doc1", 0, buf, 100); err != nil {
		t.Fatalf("SavePage() error = %v", err)
	}

	merged, err := LoadPage(dir, "doc1", 1)
	if err != nil || merged == nil {
		t.Fatalf("expected merged page 1, err=%v", err)
	}
	if got := merged.NRGBAAt(0, 0); got != (color.NRGBA{R: 1, G: 1, B: 1, A: 255}) {
		t.Errorf("expected new content to win at (0,0), got %v", got)
	}
	if got := merged.NRGBAAt(40, 40); got != (color.NRGBA{R: 9, G: 9, B: 9, A: 255}) {
		t.Errorf("expected existing content preserved outside the new draw, got %v", got)
	}
}
