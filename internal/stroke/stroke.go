// Package stroke rasterizes pen/marker/eraser strokes into a buffer,
// supports a straight-line preview mode, and computes the minimal repaint
// rectangle for each committed segment.
//
// See SPEC_FULL.md §4.C. Grounded on InkCanvas::drawStroke/eraseStroke in
// original_source/source/InkCanvas.cpp, reworked from immediate-mode Qt
// painting into an explicit engine over an image.NRGBA buffer.
package stroke

import (
	"image"
	"image/color"
	"math"
	"time"

	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Tool selects the active drawing instrument.
type Tool int

const (
	ToolPen Tool = iota
	ToolMarker
	ToolEraser
)

// String returns the tool name.
func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolMarker:
		return "marker"
	case ToolEraser:
		return "eraser"
	default:
		return "unknown"
	}
}

// updatePaddingFactor is the tool-specific k in "thickness × k" used to pad
// the repaint rectangle (§4.C update region computation).
func (t Tool) updatePaddingFactor() float64 {
	switch t {
	case ToolMarker:
		return 4
	case ToolEraser:
		return 3
	default:
		return 1
	}
}

// widthFactor is the tool-specific multiplier applied to the persisted
// thickness to get the rendered line width.
func (t Tool) widthFactor(pressure float64) float64 {
	switch t {
	case ToolMarker:
		return 8
	case ToolEraser:
		return 6
	default:
		return pressure
	}
}

// Thicknesses holds each tool's own persisted line width (§4.C: "each tool
// has its own persisted thickness").
type Thicknesses struct {
	Pen    float64
	Marker float64
	Eraser float64
}

// Get returns the persisted thickness for tool.
func (t Thicknesses) Get(tool Tool) float64 {
	switch tool {
	case ToolMarker:
		return t.Marker
	case ToolEraser:
		return t.Eraser
	default:
		return t.Pen
	}
}

// Set writes the persisted thickness for tool, leaving the others untouched.
func (t *Thicknesses) Set(tool Tool, thickness float64) {
	switch tool {
	case ToolMarker:
		t.Marker = thickness
	case ToolEraser:
		t.Eraser = thickness
	default:
		t.Pen = thickness
	}
}

// Scale multiplies every tool's thickness by factor, used when the canvas
// resolution changes (§4.C: "a global zoom-ratio adjustment").
func (t *Thicknesses) Scale(factor float64) {
	t.Pen *= factor
	t.Marker *= factor
	t.Eraser *= factor
}

// markerAlphaNormal and markerAlphaStraightLine are the two marker alpha
// levels: faint for free-draw highlighting, more visible while previewing a
// straight line (§4.C tool table).
const (
	markerAlphaNormal       = 4
	markerAlphaStraightLine = 80
)

// Engine rasterizes strokes for one document page/tile buffer.
type Engine struct {
	Tool        Tool
	Color       color.NRGBA
	Thicknesses Thicknesses

	// hardwareEraserSaved is the tool switched away from when a hardware
	// eraser tip engaged mid-stroke; nil when no swap is active.
	hardwareEraserSaved *Tool

	StraightLineMode bool

	bench *benchmark
}

// New creates an Engine with the given starting tool color and thicknesses.
func New(initialColor color.NRGBA, thicknesses Thicknesses) *Engine {
	return &Engine{
		Tool:        ToolPen,
		Color:       initialColor,
		Thicknesses: thicknesses,
		bench:       newBenchmark(),
	}
}

// SetTool switches the active tool, per spec loading that tool's persisted
// thickness as a side effect (callers read Thicknesses.Get(e.Tool)).
func (e *Engine) SetTool(tool Tool) {
	e.Tool = tool
}

// BeginHardwareErase swaps to the eraser tool for the duration of a stroke
// reported by a stylus eraser tip, remembering the prior tool so EndHardwareErase
// can restore it (§4.C "Hardware eraser").
func (e *Engine) BeginHardwareErase() {
	if e.hardwareEraserSaved != nil {
		return
	}
	prior := e.Tool
	e.hardwareEraserSaved = &prior
	e.Tool = ToolEraser
}

// EndHardwareErase restores the tool active before BeginHardwareErase, a
// no-op if no hardware erase is in progress.
func (e *Engine) EndHardwareErase() {
	if e.hardwareEraserSaved == nil {
		return
	}
	e.Tool = *e.hardwareEraserSaved
	e.hardwareEraserSaved = nil
}

// Segment is one committed or previewed stroke segment in buffer
// coordinates.
type Segment struct {
	Start, End image.Point
	Pressure   float64
}

// DrawSegment rasterizes one segment into dst and returns the buffer-space
// rectangle that changed, padded per §4.C's update-region rule. Eraser
// segments clear to transparent; pen/marker segments composite source-over.
func (e *Engine) DrawSegment(dst *image.NRGBA, seg Segment) image.Rectangle {
	thickness := e.Thicknesses.Get(e.Tool)
	width := thickness * e.Tool.widthFactor(clampPressure(seg.Pressure))

	if e.Tool == ToolEraser {
		drawRoundLine(dst, seg.Start, seg.End, width, color.NRGBA{}, true)
	} else {
		c := e.strokeColor()
		drawRoundLine(dst, seg.Start, seg.End, width, c, false)
	}

	e.bench.recordStroke()
	return updateRect(seg.Start, seg.End, width*e.Tool.updatePaddingFactor())
}

// strokeColor returns the color to paint with, applying the marker's
// straight-line-aware alpha (§4.C tool table).
func (e *Engine) strokeColor() color.NRGBA {
	c := e.Color
	if e.Tool == ToolMarker {
		if e.StraightLineMode {
			c.A = markerAlphaStraightLine
		} else {
			c.A = markerAlphaNormal
		}
	}
	return c
}

// clampPressure bounds stylus pressure to [0,1]; zero pressure (e.g. a
// mouse-driven stroke with no pressure axis) is treated as full pressure.
func clampPressure(p float64) float64 {
	if p <= 0 {
		return 1
	}
	if p > 1 {
		return 1
	}
	return p
}

// updateRect computes the padded buffer-space rectangle covering a segment.
func updateRect(start, end image.Point, padding float64) image.Rectangle {
	r := image.Rectangle{Min: start, Max: end}.Canon()
	pad := int(math.Ceil(padding))
	return image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad)
}

// drawRoundLine rasterizes a round-capped, round-joined line of the given
// width from p0 to p1 using a vector.Rasterizer, then composites it into
// dst either source-over (erase=false) or as a transparency punch
// (erase=true), matching QPainter's CompositionMode_Clear.
func drawRoundLine(dst *image.NRGBA, p0, p1 image.Point, width float64, c color.NRGBA, erase bool) {
	if width <= 0 {
		return
	}
	bounds := updateRect(p0, p1, width/2+1)
	bounds = bounds.Intersect(dst.Bounds())
	if bounds.Empty() {
		return
	}

	mask := rasterizeStrokeMask(bounds, p0, p1, width)
	if erase {
		punchAlpha(dst, bounds, mask)
		return
	}
	compositeOver(dst, bounds, mask, c)
}

// rasterizeStrokeMask rasterizes a capsule (a line thickened to width with
// round caps, approximated by stroking a rectangle plus circular end caps)
// into an 8-bit coverage mask local to bounds.
func rasterizeStrokeMask(bounds image.Rectangle, p0, p1 image.Point, width float64) []uint8 {
	w, h := bounds.Dx(), bounds.Dy()
	r := vector.NewRasterizer(w, h)

	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	x0, y0 := float64(p0.X)-ox, float64(p0.Y)-oy
	x1, y1 := float64(p1.X)-ox, float64(p1.Y)-oy
	radius := width / 2

	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		addCircle(r, x0, y0, radius)
	} else {
		nx, ny := -dy/length*radius, dx/length*radius
		r.MoveTo(f32(x0+nx), f32(y0+ny))
		r.LineTo(f32(x1+nx), f32(y1+ny))
		r.LineTo(f32(x1-nx), f32(y1-ny))
		r.LineTo(f32(x0-nx), f32(y0-ny))
		r.ClosePath()
		addCircle(r, x0, y0, radius)
		addCircle(r, x1, y1, radius)
	}

	mask := make([]uint8, w*h)
	r.Draw(mask, image.Rect(0, 0, w, h), image.Opaque, image.Point{})
	return mask
}

// addCircle approximates a round cap with a 16-sided polygon, sufficient coverage
// accuracy for stroke widths at typical canvas zoom levels.
func addCircle(r *vector.Rasterizer, cx, cy, radius float64) {
	const segments = 16
	r.MoveTo(f32(cx+radius), f32(cy))
	for i := 1; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / segments
		r.LineTo(f32(cx+radius*math.Cos(theta)), f32(cy+radius*math.Sin(theta)))
	}
	r.ClosePath()
}

func f32(v float64) float32 { return float32(v) }

// compositeOver alpha-blends color c, modulated by mask coverage, over dst
// within bounds (source-over).
func compositeOver(dst *image.NRGBA, bounds image.Rectangle, mask []uint8, c color.NRGBA) {
	w := bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			coverage := mask[(y-bounds.Min.Y)*w+(x-bounds.Min.X)]
			if coverage == 0 {
				continue
			}
			srcA := float64(c.A) / 255.0 * float64(coverage) / 255.0
			if srcA <= 0 {
				continue
			}
			bg := dst.NRGBAAt(x, y)
			blend := func(s, d uint8) uint8 {
				return uint8(float64(s)*srcA + float64(d)*(1-srcA))
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: blend(c.R, bg.R),
				G: blend(c.G, bg.G),
				B: blend(c.B, bg.B),
				A: uint8(math.Min(255, float64(bg.A)+srcA*255)),
			})
		}
	}
}

// punchAlpha zeroes alpha (and color, matching premultiplied-clear
// semantics) wherever mask has coverage, emulating QPainter's
// CompositionMode_Clear for the eraser tool.
func punchAlpha(dst *image.NRGBA, bounds image.Rectangle, mask []uint8) {
	w := bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			coverage := mask[(y-bounds.Min.Y)*w+(x-bounds.Min.X)]
			if coverage == 0 {
				continue
			}
			if coverage == 255 {
				dst.SetNRGBA(x, y, color.NRGBA{})
				continue
			}
			bg := dst.NRGBAAt(x, y)
			keep := 1 - float64(coverage)/255.0
			dst.SetNRGBA(x, y, color.NRGBA{
				R: uint8(float64(bg.R) * keep),
				G: uint8(float64(bg.G) * keep),
				B: uint8(float64(bg.B) * keep),
				A: uint8(float64(bg.A) * keep),
			})
		}
	}
}

// fixedPoint is retained for callers that need sub-pixel anchor math
// elsewhere in the package (e.g. a future smoothing pass).
func fixedPoint(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// RepaintThrottle is the minimum interval between marker/eraser repaints
// (§4.C: "time-throttled repaints (16 ms = 60 Hz)").
const RepaintThrottle = 16 * time.Millisecond

// ShouldThrottleRepaint reports whether a repaint triggered at now should be
// skipped because the tool is marker/eraser and less than RepaintThrottle
// has elapsed since last.
func ShouldThrottleRepaint(tool Tool, now, last time.Time) bool {
	if tool != ToolMarker && tool != ToolEraser {
		return false
	}
	return now.Sub(last) < RepaintThrottle
}

// benchmark records a rolling one-second window of committed-segment
// timestamps for a "strokes/sec" diagnostic (§4.C "Benchmarking"),
// modeled on the teacher's TokenMonitor stats struct but without its mutex.
type benchmark struct {
	enabled    bool
	timestamps []time.Time
	now        func() time.Time
}

func newBenchmark() *benchmark {
	return &benchmark{now: time.Now}
}

func (b *benchmark) recordStroke() {
	if !b.enabled {
		return
	}
	b.timestamps = append(b.timestamps, b.now())
}

// StartBenchmark begins recording committed-segment timestamps.
func (e *Engine) StartBenchmark() {
	e.bench.enabled = true
	e.bench.timestamps = nil
}

// StopBenchmark stops recording.
func (e *Engine) StopBenchmark() {
	e.bench.enabled = false
}

// StrokesPerSecond returns the count of segments committed in the trailing
// one-second window, evicting older entries.
func (e *Engine) StrokesPerSecond() int {
	cutoff := e.bench.now().Add(-time.Second)
	kept := e.bench.timestamps[:0]
	for _, ts := range e.bench.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.bench.timestamps = kept
	return len(e.bench.timestamps)
}
