package input

import (
	"image"
	"testing"
	"time"

	"github.com/speedynote/speedynote-core/internal/pdfprovider"
)

func identityToPDFSpace(r image.Rectangle) pdfprovider.Rect {
	return pdfprovider.Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

func TestTextSelection_MoveThrottledTo60Hz(t *testing.T) {
	var s TextSelection
	t0 := time.Unix(0, 0)
	s.Begin(image.Point{X: 0, Y: 0}, t0)

	if accepted := s.Move(image.Point{X: 10, Y: 10}, t0.Add(5*time.Millisecond)); accepted {
		t.Error("expected move within the throttle window to be rejected")
	}
	if accepted := s.Move(image.Point{X: 20, Y: 20}, t0.Add(20*time.Millisecond)); !accepted {
		t.Error("expected move past the throttle window to be accepted")
	}
	if s.current != (image.Point{X: 20, Y: 20}) {
		t.Errorf("expected current point to update only on accepted moves, got %v", s.current)
	}
}

func TestTextSelection_RectCanonicalizesDragDirection(t *testing.T) {
	var s TextSelection
	t0 := time.Unix(0, 0)
	s.Begin(image.Point{X: 100, Y: 100}, t0)
	s.current = image.Point{X: 10, Y: 10} // dragged up-and-left

	got := s.Rect()
	want := image.Rect(10, 10, 100, 100)
	if got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

func TestTextSelection_EndSelectsIntersectingBoxes(t *testing.T) {
	var s TextSelection
	t0 := time.Unix(0, 0)
	s.Begin(image.Point{X: 0, Y: 0}, t0)
	s.current = image.Point{X: 50, Y: 50}

	boxes := []pdfprovider.TextBox{
		{Text: "inside", Box: pdfprovider.Rect{X: 10, Y: 10, W: 10, H: 10}},
		{Text: "outside", Box: pdfprovider.Rect{X: 200, Y: 200, W: 10, H: 10}},
	}

	got := s.End(boxes, identityToPDFSpace)
	if len(got) != 1 || got[0].Text != "inside" {
		t.Errorf("expected only the intersecting box, got %+v", got)
	}
	if s.Active() {
		t.Error("expected End to deactivate the selection")
	}
}

func TestTextSelection_Cancel(t *testing.T) {
	var s TextSelection
	s.Begin(image.Point{}, time.Unix(0, 0))
	s.Cancel()
	if s.Active() {
		t.Error("expected Cancel to deactivate the selection")
	}
}

func TestRectsIntersect_TouchingEdgesDoNotCount(t *testing.T) {
	a := pdfprovider.Rect{X: 0, Y: 0, W: 10, H: 10}
	b := pdfprovider.Rect{X: 10, Y: 0, W: 10, H: 10} // shares only the edge x=10
	if rectsIntersect(a, b) {
		t.Error("expected edge-touching rects to not count as intersecting")
	}
}
