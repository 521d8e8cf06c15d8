// Package background computes the canvas backdrop: the procedural
// lines/grid fill, or a PDF/image backdrop, including the combined-canvas
// two-page stack.
//
// See SPEC_FULL.md §4.B. Grounded on the procedural-fill and two-page-stack
// logic in the original paintEvent/loadPdfPreviewAsync implementation.
package background

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/pdfprovider"
)

// gridLineColor is the subtle gray used for procedural lines and grid.
var gridLineColor = color.NRGBA{R: 100, G: 100, B: 100, A: 100}

// DrawProcedural fills dst with bg's color and, for Lines/Grid styles,
// rules every bg.Spacing pixels. It is the backdrop drawn whenever no
// PDF or image backdrop is loaded.
func DrawProcedural(dst *image.NRGBA, bg document.Background) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg.Color}, image.Point{}, draw.Src)

	if bg.Style == document.BackgroundNone {
		return
	}
	spacing := bg.Spacing
	if spacing <= 0 {
		spacing = 40
	}

	b := dst.Bounds()
	if bg.Style == document.BackgroundLines || bg.Style == document.BackgroundGrid {
		for y := b.Min.Y; y < b.Max.Y; y += spacing {
			drawHLine(dst, y, b.Min.X, b.Max.X)
		}
	}
	if bg.Style == document.BackgroundGrid {
		for x := b.Min.X; x < b.Max.X; x += spacing {
			drawVLine(dst, x, b.Min.Y, b.Max.Y)
		}
	}
}

func drawHLine(dst *image.NRGBA, y, x0, x1 int) {
	for x := x0; x < x1; x++ {
		blendOver(dst, x, y, gridLineColor)
	}
}

func drawVLine(dst *image.NRGBA, x, y0, y1 int) {
	for y := y0; y < y1; y++ {
		blendOver(dst, x, y, gridLineColor)
	}
}

// blendOver alpha-composites c over the existing pixel at (x,y), matching
// the semi-transparent gridline look of the original QPen(100,100,100,100).
func blendOver(dst *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}.In(dst.Bounds())) {
		return
	}
	dst.Set(x, y, addAlpha(dst.NRGBAAt(x, y), c))
}

func addAlpha(bg, fg color.NRGBA) color.NRGBA {
	a := float64(fg.A) / 255.0
	blend := func(b, f uint8) uint8 {
		return uint8(float64(f)*a + float64(b)*(1-a))
	}
	return color.NRGBA{
		R: blend(bg.R, fg.R),
		G: blend(bg.G, fg.G),
		B: blend(bg.B, fg.B),
		A: 255,
	}
}

// DrawImage overlays an image backdrop at the origin, matching the
// original's simple drawPixmap(0, 0, backgroundImage).
func DrawImage(dst *image.NRGBA, backdrop image.Image) {
	draw.Draw(dst, backdrop.Bounds(), backdrop, image.Point{}, draw.Over)
}

// RenderPDFPage renders one PDF page backdrop at the given DPI.
func RenderPDFPage(provider pdfprovider.Provider, pdfPath string, pageIndex int, dpi float64) (*image.NRGBA, error) {
	doc, err := provider.Load(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("background: load %s: %w", pdfPath, err)
	}
	defer doc.Close()
	page, err := doc.Page(pageIndex)
	if err != nil {
		return nil, fmt.Errorf("background: page %d: %w", pageIndex, err)
	}
	img, err := page.RenderToImage(dpi, pdfprovider.DefaultRenderHints())
	if err != nil {
		return nil, fmt.Errorf("background: render page %d: %w", pageIndex, err)
	}
	return img, nil
}

// StackCombined stacks top above bottom into a single backdrop for
// combined-canvas mode (§9: explicit Combined flag, not a height
// heuristic). When bottom is nil (top is the document's last page), the
// lower half is left blank at top's width, matching the original's
// last-page fallback.
func StackCombined(top, bottom *image.NRGBA) *image.NRGBA {
	w := top.Bounds().Dx()
	h := top.Bounds().Dy()
	if bottom != nil && bottom.Bounds().Dx() > w {
		w = bottom.Bounds().Dx()
	}
	totalH := h
	if bottom != nil {
		totalH += bottom.Bounds().Dy()
	} else {
		totalH *= 2
	}

	combined := image.NewNRGBA(image.Rect(0, 0, w, totalH))
	draw.Draw(combined, combined.Bounds(), &image.Uniform{C: color.NRGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	draw.Draw(combined, top.Bounds(), top, image.Point{}, draw.Over)
	if bottom != nil {
		offset := image.Rect(0, h, w, h+bottom.Bounds().Dy())
		draw.Draw(combined, offset, bottom, image.Point{}, draw.Over)
	}
	return combined
}

// SplitCombined is the inverse of StackCombined, used when saving a
// combined canvas back out to its two constituent pages (§4.H). topHeight
// is the height of the first page's buffer before stacking.
func SplitCombined(combined *image.NRGBA, topHeight int) (top, bottom *image.NRGBA) {
	b := combined.Bounds()
	top = image.NewNRGBA(image.Rect(0, 0, b.Dx(), topHeight))
	draw.Draw(top, top.Bounds(), combined, b.Min, draw.Src)

	bottomH := b.Dy() - topHeight
	if bottomH <= 0 {
		return top, nil
	}
	bottom = image.NewNRGBA(image.Rect(0, 0, b.Dx(), bottomH))
	draw.Draw(bottom, bottom.Bounds(), combined, image.Point{X: b.Min.X, Y: b.Min.Y + topHeight}, draw.Src)
	return top, bottom
}
