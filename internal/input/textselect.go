package input

import (
	"image"
	"time"

	"github.com/speedynote/speedynote-core/internal/pdfprovider"
)

// TextSelectThrottle is the drag-sampling rate during PDF text selection
// (§4.G "PDF text selection": "Throttle to 60 Hz during drag").
const TextSelectThrottle = 16 * time.Millisecond

// TextSelection tracks a drag-rectangle text selection over a page's
// extracted text boxes (§4.G.3).
type TextSelection struct {
	active   bool
	start    image.Point
	current  image.Point
	lastSample time.Time
}

// Begin starts a new drag-rectangle selection at p.
func (s *TextSelection) Begin(p image.Point, now time.Time) {
	s.active = true
	s.start = p
	s.current = p
	s.lastSample = now
}

// Active reports whether a drag is in progress.
func (s *TextSelection) Active() bool { return s.active }

// Move advances the drag rectangle to p if the 60 Hz throttle interval
// has elapsed since the last sample; it reports whether the update was
// accepted.
func (s *TextSelection) Move(p image.Point, now time.Time) bool {
	if !s.active {
		return false
	}
	if now.Sub(s.lastSample) < TextSelectThrottle {
		return false
	}
	s.current = p
	s.lastSample = now
	return true
}

// Rect returns the current drag rectangle in the same coordinate space
// as the points passed to Begin/Move.
func (s *TextSelection) Rect() image.Rectangle {
	return image.Rectangle{Min: s.start, Max: s.current}.Canon()
}

// End finalizes the drag, returning the selected text boxes — those
// whose bounds intersect the drag rectangle in PDF coordinates — and
// resets the selection for the next drag.
func (s *TextSelection) End(boxes []pdfprovider.TextBox, toPDFSpace func(image.Rectangle) pdfprovider.Rect) []pdfprovider.TextBox {
	s.active = false
	dragRect := toPDFSpace(s.Rect())

	var selected []pdfprovider.TextBox
	for _, b := range boxes {
		if rectsIntersect(dragRect, b.Box) {
			selected = append(selected, b)
		}
	}
	return selected
}

// Cancel aborts the current drag without producing a selection.
func (s *TextSelection) Cancel() { s.active = false }

func rectsIntersect(a, b pdfprovider.Rect) bool {
	aMaxX, aMaxY := a.X+a.W, a.Y+a.H
	bMaxX, bMaxY := b.X+b.W, b.Y+b.H
	if aMaxX <= b.X || bMaxX <= a.X {
		return false
	}
	if aMaxY <= b.Y || bMaxY <= a.Y {
		return false
	}
	return true
}
