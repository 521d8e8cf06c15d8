// Package buffer owns the off-screen raster buffer and the invertible
// mapping between widget-logical, buffer, and canvas coordinate spaces.
//
// See spec.md §4.A for the authoritative contract.
package buffer

import (
	"image"
	"image/draw"
)

// MinZoomPercent and MaxZoomPercent bound the integer and internal zoom (§4.A).
const (
	MinZoomPercent = 10
	MaxZoomPercent = 400
)

// Transform owns the off-screen buffer and the pan/zoom state used to map
// between widget-logical coordinates (what input events report) and buffer
// coordinates (where pixels live). Canvas coordinates equal buffer
// coordinates in this design (§4.A).
type Transform struct {
	// Buffer is the off-screen raster. Combined is an explicit
	// combined-canvas flag (per spec.md §9's recommendation); no code in
	// this module sets or reads it, and persistence.SavePage detects a
	// combined buffer with the LooksCombined height test instead.
	Buffer   *image.NRGBA
	Combined bool

	// WidgetSize is the last-known widget viewport size in logical pixels.
	WidgetSize image.Point

	// Zoom is the integer percent snapped at gesture end, in [10, 400].
	Zoom int

	// InternalZoom is the float zoom used during pinch gestures for
	// sub-step smoothness; it tracks Zoom when no gesture is in flight.
	InternalZoom float64

	// Pan is the integer pan offset in buffer units.
	Pan image.Point

	// InertiaPan is the float pan used during inertia decay; it tracks Pan
	// when inertia is not active.
	InertiaPan struct{ X, Y float64 }
}

// New creates a Transform over a buffer of the given size at 100% zoom,
// zero pan.
func New(size image.Point) *Transform {
	return &Transform{
		Buffer:       image.NewNRGBA(image.Rect(0, 0, size.X, size.Y)),
		Zoom:         100,
		InternalZoom: 100,
	}
}

// zoomFactor returns the current zoom as a fraction (z = zoom/100), using
// InternalZoom so mid-pinch math stays smooth.
func (t *Transform) zoomFactor() float64 {
	return t.InternalZoom / 100.0
}

// centerOffset returns the letterboxing offset applied when the scaled
// buffer is smaller than the widget in a given dimension (§4.A).
func (t *Transform) centerOffset() (float64, float64) {
	z := t.zoomFactor()
	scaledW := float64(t.Buffer.Bounds().Dx()) * z
	scaledH := float64(t.Buffer.Bounds().Dy()) * z

	var offX, offY float64
	if scaledW < float64(t.WidgetSize.X) {
		offX = (float64(t.WidgetSize.X) - scaledW) / 2
	}
	if scaledH < float64(t.WidgetSize.Y) {
		offY = (float64(t.WidgetSize.Y) - scaledH) / 2
	}
	return offX, offY
}

// MapWidgetToBuffer converts a widget-logical point to buffer coordinates.
func (t *Transform) MapWidgetToBuffer(p image.Point) image.Point {
	bx, by := t.mapWidgetToBufferFloat(float64(p.X), float64(p.Y))
	return image.Point{X: round(bx), Y: round(by)}
}

// mapWidgetToBufferFloat is the sub-pixel-precision core of
// MapWidgetToBuffer, used internally (e.g. by pinch-zoom anchor math) to
// avoid compounding rounding error across successive gesture steps.
func (t *Transform) mapWidgetToBufferFloat(x, y float64) (float64, float64) {
	z := t.zoomFactor()
	offX, offY := t.centerOffset()

	bx := (x-offX)/z + float64(t.Pan.X)
	by := (y-offY)/z + float64(t.Pan.Y)
	return bx, by
}

// MapBufferToWidgetRect converts a buffer-space rectangle to a
// widget-logical rectangle.
func (t *Transform) MapBufferToWidgetRect(r image.Rectangle) image.Rectangle {
	z := t.zoomFactor()
	offX, offY := t.centerOffset()

	minX := (float64(r.Min.X)-float64(t.Pan.X))*z + offX
	minY := (float64(r.Min.Y)-float64(t.Pan.Y))*z + offY
	maxX := (float64(r.Max.X)-float64(t.Pan.X))*z + offX
	maxY := (float64(r.Max.Y)-float64(t.Pan.Y))*z + offY

	return image.Rect(round(minX), round(minY), round(maxX), round(maxY))
}

// SetPan sets the integer pan, clamped to the valid range for the current
// zoom and widget size (§4.A).
func (t *Transform) SetPan(x, y int) {
	t.Pan = t.clampPan(image.Point{X: x, Y: y})
	t.InertiaPan.X = float64(t.Pan.X)
	t.InertiaPan.Y = float64(t.Pan.Y)
}

// SetPanFloat sets the float inertia pan, clamped the same way, and
// snaps the integer Pan to its rounded value. Used during inertia decay
// where sub-pixel pan drift matters.
func (t *Transform) SetPanFloat(x, y float64) {
	clamped := t.clampPanFloat(x, y)
	t.InertiaPan.X = clamped.X
	t.InertiaPan.Y = clamped.Y
	t.Pan = image.Point{X: round(clamped.X), Y: round(clamped.Y)}
}

type floatPoint struct{ X, Y float64 }

func (t *Transform) clampPan(p image.Point) image.Point {
	clamped := t.clampPanFloat(float64(p.X), float64(p.Y))
	return image.Point{X: round(clamped.X), Y: round(clamped.Y)}
}

func (t *Transform) clampPanFloat(x, y float64) floatPoint {
	z := t.zoomFactor()
	scaledW := float64(t.Buffer.Bounds().Dx()) * z
	scaledH := float64(t.Buffer.Bounds().Dy()) * z

	if scaledW > float64(t.WidgetSize.X) {
		maxX := scaledW - float64(t.WidgetSize.X)
		if x < 0 {
			x = 0
		}
		if x > maxX {
			x = maxX
		}
	} else {
		x = 0
	}

	if scaledH > float64(t.WidgetSize.Y) {
		maxY := scaledH - float64(t.WidgetSize.Y)
		if y < 0 {
			y = 0
		}
		if y > maxY {
			y = maxY
		}
	} else {
		y = 0
	}

	return floatPoint{X: x, Y: y}
}

// SetZoom sets the integer zoom percent, clamped to [10, 400], adjusting
// pan so the anchor point (in buffer coordinates) stays fixed under the
// widget. InternalZoom is snapped to match.
func (t *Transform) SetZoom(percent int, anchor image.Point) {
	t.SetInternalZoom(float64(percent), anchor)
	t.SnapZoom()
}

// SetInternalZoom sets the float internal zoom used mid-pinch, clamped to
// [10, 400], preserving the anchor point under the widget.
func (t *Transform) SetInternalZoom(percent float64, anchor image.Point) {
	if percent < MinZoomPercent {
		percent = MinZoomPercent
	}
	if percent > MaxZoomPercent {
		percent = MaxZoomPercent
	}

	// anchorBufferX/Y is the buffer point currently under the anchor widget
	// point, computed before changing zoom (sub-pixel precision to avoid
	// compounding rounding error across pinch steps).
	anchorBufferX, anchorBufferY := t.mapWidgetToBufferFloat(float64(anchor.X), float64(anchor.Y))

	t.InternalZoom = percent

	// Re-derive pan so the same buffer point maps back under the anchor.
	z := t.zoomFactor()
	offX, offY := t.centerOffset()
	newPanX := anchorBufferX - (float64(anchor.X)-offX)/z
	newPanY := anchorBufferY - (float64(anchor.Y)-offY)/z

	t.SetPanFloat(newPanX, newPanY)
}

// SnapZoom rounds InternalZoom to the nearest integer percent and stores
// it in Zoom, called on pinch-gesture end.
func (t *Transform) SnapZoom() {
	t.Zoom = round(t.InternalZoom)
	t.InternalZoom = float64(t.Zoom)
}

// SetWidgetSize updates the known widget viewport size and re-clamps pan.
func (t *Transform) SetWidgetSize(size image.Point) {
	t.WidgetSize = size
	t.Pan = t.clampPan(t.Pan)
	t.InertiaPan.X = float64(t.Pan.X)
	t.InertiaPan.Y = float64(t.Pan.Y)
}

// ResizeBuffer recreates the buffer at newSize. If preserveContent is true,
// the old buffer is drawn into the top-left of the new one so existing
// strokes survive a backdrop-size change (§4.A resize policy). It returns
// whether the old buffer had any non-transparent content, so the caller can
// decide whether to clear the dirty flag (cleared only if nothing was drawn).
func (t *Transform) ResizeBuffer(newSize image.Point, preserveContent bool) (hadContent bool) {
	old := t.Buffer
	next := image.NewNRGBA(image.Rect(0, 0, newSize.X, newSize.Y))

	if preserveContent && old != nil {
		hadContent = hasContent(old)
		draw.Draw(next, old.Bounds(), old, image.Point{}, draw.Src)
	}

	t.Buffer = next
	t.Pan = t.clampPan(t.Pan)
	return hadContent
}

// LooksCombined is the heuristic persistence.SavePage uses to decide whether
// a buffer is a combined canvas (§9): height >= 1.8x the backdrop's
// height, or height > 1400 when there is no backdrop to compare against.
func LooksCombined(bufferHeight, backdropHeight int) bool {
	if backdropHeight > 0 {
		return float64(bufferHeight) >= 1.8*float64(backdropHeight)
	}
	return bufferHeight > 1400
}

func hasContent(img *image.NRGBA) bool {
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

func round(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
