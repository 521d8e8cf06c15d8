package stroke

import "image"

// StraightLinePreview tracks the in-progress straight-line gesture (§4.C
// "Straight line mode"). Pen/marker strokes preview-only until lift; the
// eraser instead commits continuously as the cursor moves.
type StraightLinePreview struct {
	active   bool
	start    image.Point
	previous image.Point
}

// Begin starts a straight-line gesture at p.
func (s *StraightLinePreview) Begin(p image.Point) {
	s.active = true
	s.start = p
	s.previous = p
}

// Active reports whether a straight-line gesture is in progress.
func (s *StraightLinePreview) Active() bool {
	return s.active
}

// Start returns the gesture's fixed anchor point.
func (s *StraightLinePreview) Start() image.Point {
	return s.start
}

// Move updates the gesture's current endpoint without committing (pen and
// marker); it returns the union of the previous and new preview rectangles,
// padded for line width, so the caller can invalidate exactly that region.
func (s *StraightLinePreview) Move(e *Engine, current image.Point) image.Rectangle {
	thickness := e.Thicknesses.Get(e.Tool)
	width := thickness * e.Tool.widthFactor(1)
	pad := width * e.Tool.updatePaddingFactor()

	prevRect := updateRect(s.start, s.previous, pad)
	nextRect := updateRect(s.start, current, pad)
	s.previous = current
	return prevRect.Union(nextRect)
}

// MoveErasing commits a continuous erase segment from the gesture's
// previous point to current, per §4.C's eraser-specific straight-line rule,
// and returns the changed rectangle.
func (s *StraightLinePreview) MoveErasing(e *Engine, dst *image.NRGBA, current image.Point) image.Rectangle {
	seg := Segment{Start: s.previous, End: current, Pressure: 1}
	rect := e.DrawSegment(dst, seg)
	s.previous = current
	return rect
}

// Commit finalizes the gesture: for pen/marker, draws the single segment
// from start to end; for eraser, performs one final completeness pass from
// start to end (§4.C). It always clears the gesture state.
func (s *StraightLinePreview) Commit(e *Engine, dst *image.NRGBA, end image.Point) image.Rectangle {
	seg := Segment{Start: s.start, End: end, Pressure: 1}
	rect := e.DrawSegment(dst, seg)
	s.active = false
	return rect
}

// Cancel discards the gesture without drawing anything.
func (s *StraightLinePreview) Cancel() {
	s.active = false
}
