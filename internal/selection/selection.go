// Package selection implements the "rope lasso" tool: capturing an
// arbitrary polygonal region of the buffer, letting the user move/copy/
// delete it, and stamping it back on release or cancel.
//
// See SPEC_FULL.md §4.D for the authoritative state machine. Grounded on
// InkCanvas's selectingWithRope/movingSelection handlers and
// copyRopeSelection/cancelRopeSelection/deleteRopeSelection in
// original_source/source/InkCanvas.cpp, resolved per spec.md §9's
// first-principles state-machine redesign rather than the source's
// historical bug-fix branches.
package selection

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"
)

// State is the rope-lasso state machine's current phase (§4.D).
type State int

const (
	Idle State = iota
	CapturingPath
	HeldSelection
	Moving
)

func (s State) String() string {
	switch s {
	case CapturingPath:
		return "capturing_path"
	case HeldSelection:
		return "held_selection"
	case Moving:
		return "moving"
	default:
		return "idle"
	}
}

// copyGapPixels is the gap left between an original selection and its
// duplicate after a Copy action (§4.D: "offset 5 px away").
const copyGapPixels = 5

// Selection holds the rope-lasso tool's state across a capture/hold/move
// sequence. All coordinates are in buffer space.
type Selection struct {
	state State

	path     []image.Point // accumulated polygon vertices while CapturingPath
	pixmap   *image.NRGBA  // the masked, lifted pixels
	bounds   image.Rectangle
	maskPath []image.Point // mask polygon, buffer-absolute, valid while source is uncleared

	sourceCleared bool
	justCopied    bool
}

// New returns a Selection in the Idle state.
func New() *Selection {
	return &Selection{state: Idle}
}

// State returns the current phase.
func (s *Selection) State() State { return s.state }

// Bounds returns the selection's current rectangle in buffer space.
func (s *Selection) Bounds() image.Rectangle { return s.bounds }

// BeginCapture transitions Idle -> CapturingPath, starting the lasso path
// at p (§4.D).
func (s *Selection) BeginCapture(p image.Point) {
	s.state = CapturingPath
	s.path = []image.Point{p}
}

// Extend appends a vertex to the in-progress lasso path.
func (s *Selection) Extend(p image.Point) {
	if s.state != CapturingPath {
		return
	}
	s.path = append(s.path, p)
}

// EndCapture closes the polygon and, if it has at least 3 points, lifts the
// enclosed pixels into a masked pixmap without yet clearing the source
// (§4.D: CapturingPath -(release, >=3 pts)-> HeldSelection). Returns false
// (and returns to Idle) if too few points were captured.
func (s *Selection) EndCapture(buf *image.NRGBA) bool {
	if s.state != CapturingPath {
		return false
	}
	if len(s.path) < 3 {
		s.state = Idle
		s.path = nil
		return false
	}

	closed := append(append([]image.Point{}, s.path...), s.path[0])
	bounds := polygonBounds(closed).Intersect(buf.Bounds())
	if bounds.Empty() {
		s.state = Idle
		s.path = nil
		return false
	}

	mask := rasterizePolygon(bounds, closed)
	pixmap := image.NewNRGBA(bounds.Sub(bounds.Min))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cov := mask[(y-bounds.Min.Y)*bounds.Dx()+(x-bounds.Min.X)]
			if cov == 0 {
				continue
			}
			pixmap.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, buf.NRGBAAt(x, y))
		}
	}

	s.pixmap = pixmap
	s.bounds = bounds
	s.maskPath = closed
	s.sourceCleared = false
	s.justCopied = false
	s.path = nil
	s.state = HeldSelection
	return true
}

// PressInside handles a press while HeldSelection: transitions to Moving if
// p is inside the current bounds, or destroys the selection (returning to
// Idle, source left intact) otherwise. Returns true if the press landed
// inside and a move began.
func (s *Selection) PressInside(buf *image.NRGBA, p image.Point) bool {
	if s.state != HeldSelection {
		return false
	}
	if !p.In(s.bounds) {
		s.reset()
		return false
	}

	if !s.sourceCleared {
		clearMask(buf, s.maskPath)
		s.sourceCleared = true
	}
	s.state = Moving
	return true
}

// MoveTo translates the selection's bounds so its top-left lands at
// topLeft, while Moving.
func (s *Selection) MoveTo(topLeft image.Point) {
	if s.state != Moving {
		return
	}
	size := s.bounds.Size()
	s.bounds = image.Rectangle{Min: topLeft, Max: topLeft.Add(size)}
}

// Release stamps the selection pixmap onto buf at its current position with
// source-over compositing and returns to Idle (§4.D: Moving -(release)->
// Idle). Returns the buffer-space rectangle that changed.
func (s *Selection) Release(buf *image.NRGBA) image.Rectangle {
	if s.state != Moving {
		return image.Rectangle{}
	}
	draw.Draw(buf, s.bounds, s.pixmap, image.Point{}, draw.Over)
	rect := s.bounds
	s.reset()
	return rect
}

// Copy commits the selection's current position permanently to buf, then
// creates an independent duplicate offset copyGapPixels away, flagged
// "just-copied" so its first move does not re-clear a source region
// (§4.D: HeldSelection -(Copy)-> HeldSelection'). Returns the bounds that
// changed (original + new copy).
func (s *Selection) Copy(buf *image.NRGBA) image.Rectangle {
	if s.state != HeldSelection && s.state != Moving {
		return image.Rectangle{}
	}
	draw.Draw(buf, s.bounds, s.pixmap, image.Point{}, draw.Over)
	original := s.bounds

	newTopLeft := nextCopyPosition(buf.Bounds(), s.bounds)
	s.bounds = image.Rectangle{Min: newTopLeft, Max: newTopLeft.Add(s.bounds.Size())}
	s.maskPath = nil
	s.sourceCleared = true // the duplicate's first move must not clear anything
	s.justCopied = true
	s.state = HeldSelection

	return original.Union(s.bounds)
}

// Delete clears the source region (if not already cleared) and discards the
// selection, returning to Idle (§4.D).
func (s *Selection) Delete(buf *image.NRGBA) image.Rectangle {
	if s.pixmap == nil {
		return image.Rectangle{}
	}
	if !s.sourceCleared && s.maskPath != nil {
		clearMask(buf, s.maskPath)
	}
	rect := s.bounds
	s.reset()
	return rect
}

// Cancel stamps the selection back at its current position (without
// committing a move as permanent beyond that) and returns to Idle, leaving
// the source region's earlier clear (if any) as-is — matching the source's
// cancelRopeSelection, which always re-draws at the current location.
func (s *Selection) Cancel(buf *image.NRGBA) image.Rectangle {
	if s.pixmap == nil {
		return image.Rectangle{}
	}
	draw.Draw(buf, s.bounds, s.pixmap, image.Point{}, draw.Over)
	rect := s.bounds
	s.reset()
	return rect
}

// ClipboardWriter is the minimal external collaborator ToClipboard needs;
// defined here (consumer side) rather than imported from a shared
// collaborators package, per Go's "accept interfaces" convention.
type ClipboardWriter interface {
	WriteImage(img image.Image) error
}

// ToClipboard copies the held pixmap to the system clipboard without
// disturbing the selection state (§4.D: "selection remains active").
func (s *Selection) ToClipboard(w ClipboardWriter) error {
	if s.pixmap == nil {
		return nil
	}
	return w.WriteImage(s.pixmap)
}

// JustCopied reports whether the current selection is a duplicate produced
// by Copy whose first move should not clear a source region.
func (s *Selection) JustCopied() bool { return s.justCopied }

// Pixmap returns the lifted pixels, or nil if no selection is held.
func (s *Selection) Pixmap() *image.NRGBA { return s.pixmap }

func (s *Selection) reset() {
	s.state = Idle
	s.path = nil
	s.pixmap = nil
	s.bounds = image.Rectangle{}
	s.maskPath = nil
	s.sourceCleared = false
	s.justCopied = false
}

// nextCopyPosition finds a placement for a duplicate selection next to
// current, preferring right, then left, then below, then above, then a
// small diagonal nudge if nothing fits cleanly (§4.D, grounded on
// copyRopeSelection's cascading bounds checks).
func nextCopyPosition(bufBounds, current image.Rectangle) image.Point {
	gap := current.Dx() + copyGapPixels
	gapV := current.Dy() + copyGapPixels

	right := current.Min.Add(image.Point{X: gap})
	if right.X+current.Dx() <= bufBounds.Max.X {
		return right
	}
	left := current.Min.Sub(image.Point{X: gap})
	if left.X >= bufBounds.Min.X {
		return left
	}
	below := current.Min.Add(image.Point{Y: gapV})
	if below.Y+current.Dy() <= bufBounds.Max.Y {
		return below
	}
	above := current.Min.Sub(image.Point{Y: gapV})
	if above.Y >= bufBounds.Min.Y {
		return above
	}
	return current.Min.Add(image.Point{X: 10, Y: 10})
}

func polygonBounds(pts []image.Point) image.Rectangle {
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}
	r.Max.X++
	r.Max.Y++
	return r
}

// rasterizePolygon rasterizes pts (buffer-absolute) into an 8-bit coverage
// mask local to bounds.
func rasterizePolygon(bounds image.Rectangle, pts []image.Point) []uint8 {
	w, h := bounds.Dx(), bounds.Dy()
	r := vector.NewRasterizer(w, h)

	r.MoveTo(float32(pts[0].X-bounds.Min.X), float32(pts[0].Y-bounds.Min.Y))
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X-bounds.Min.X), float32(p.Y-bounds.Min.Y))
	}
	r.ClosePath()

	mask := make([]uint8, w*h)
	r.Draw(mask, image.Rect(0, 0, w, h), image.Opaque, image.Point{})
	return mask
}

// clearMask clears (to transparent) the polygon enclosed by path within
// buf, matching QPainter::CompositionMode_Clear + fillPath(maskPath).
func clearMask(buf *image.NRGBA, path []image.Point) {
	bounds := polygonBounds(path).Intersect(buf.Bounds())
	if bounds.Empty() {
		return
	}
	mask := rasterizePolygon(bounds, path)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cov := mask[(y-bounds.Min.Y)*bounds.Dx()+(x-bounds.Min.X)]
			if cov == 0 {
				continue
			}
			if cov == 255 {
				buf.SetNRGBA(x, y, color.NRGBA{})
				continue
			}
			bg := buf.NRGBAAt(x, y)
			keep := 1 - float64(cov)/255.0
			buf.SetNRGBA(x, y, color.NRGBA{
				R: uint8(float64(bg.R) * keep),
				G: uint8(float64(bg.G) * keep),
				B: uint8(float64(bg.B) * keep),
				A: uint8(float64(bg.A) * keep),
			})
		}
	}
}
