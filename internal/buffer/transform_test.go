package buffer

import (
	"image"
	"image/color"
	"testing"
)

func TestRoundTrip_WidgetBufferWidget(t *testing.T) {
	tr := New(image.Point{X: 1920, Y: 2160})
	tr.SetWidgetSize(image.Point{X: 1920, Y: 1080})

	zooms := []int{10, 50, 100, 150, 200, 400}
	pans := []image.Point{{0, 0}, {100, 200}, {500, 900}}

	for _, z := range zooms {
		tr.SetZoom(z, image.Point{X: 960, Y: 540})
		for _, pan := range pans {
			tr.SetPan(pan.X, pan.Y)
			for _, p := range []image.Point{{0, 0}, {960, 540}, {1919, 1079}} {
				buf := tr.MapWidgetToBuffer(p)
				back := tr.MapBufferToWidgetRect(image.Rect(buf.X, buf.Y, buf.X+1, buf.Y+1))
				dx := abs(back.Min.X - p.X)
				dy := abs(back.Min.Y - p.Y)
				if dx > 1 || dy > 1 {
					t.Errorf("zoom=%d pan=%v: round trip of %v = %v (diff %d,%d), want within 1px", z, pan, p, back.Min, dx, dy)
				}
			}
		}
	}
}

func TestSetZoom_AnchorPreservation(t *testing.T) {
	tr := New(image.Point{X: 1920, Y: 2160})
	tr.SetWidgetSize(image.Point{X: 1920, Y: 1080})
	tr.SetZoom(100, image.Point{X: 960, Y: 540})
	tr.SetPan(0, 0)

	anchor := image.Point{X: 500, Y: 400}
	bufBefore := tr.MapWidgetToBuffer(anchor)

	tr.SetZoom(150, anchor)

	bufAfter := tr.MapWidgetToBuffer(anchor)
	if abs(bufBefore.X-bufAfter.X) > 2 || abs(bufBefore.Y-bufAfter.Y) > 2 {
		t.Errorf("anchor drifted: before=%v after=%v", bufBefore, bufAfter)
	}
}

func TestSetZoom_ClampsToRange(t *testing.T) {
	tr := New(image.Point{X: 100, Y: 100})
	tr.SetWidgetSize(image.Point{X: 50, Y: 50})

	tr.SetZoom(5, image.Point{})
	if tr.Zoom != MinZoomPercent {
		t.Errorf("expected zoom clamped to %d, got %d", MinZoomPercent, tr.Zoom)
	}

	tr.SetZoom(1000, image.Point{})
	if tr.Zoom != MaxZoomPercent {
		t.Errorf("expected zoom clamped to %d, got %d", MaxZoomPercent, tr.Zoom)
	}
}

func TestSetPan_ClampsWhenBufferLargerThanWidget(t *testing.T) {
	tr := New(image.Point{X: 1000, Y: 1000})
	tr.SetWidgetSize(image.Point{X: 500, Y: 500})
	tr.SetZoom(100, image.Point{})

	tr.SetPan(-50, -50)
	if tr.Pan.X != 0 || tr.Pan.Y != 0 {
		t.Errorf("expected pan clamped to (0,0), got %v", tr.Pan)
	}

	tr.SetPan(10000, 10000)
	maxPan := 1000 - 500
	if tr.Pan.X != maxPan || tr.Pan.Y != maxPan {
		t.Errorf("expected pan clamped to (%d,%d), got %v", maxPan, maxPan, tr.Pan)
	}
}

func TestSetPan_ForcedZeroWhenBufferSmallerThanWidget(t *testing.T) {
	tr := New(image.Point{X: 100, Y: 100})
	tr.SetWidgetSize(image.Point{X: 1000, Y: 1000})
	tr.SetZoom(100, image.Point{})

	tr.SetPan(50, 50)
	if tr.Pan.X != 0 || tr.Pan.Y != 0 {
		t.Errorf("expected pan forced to (0,0) when buffer smaller than widget, got %v", tr.Pan)
	}
}

func TestResizeBuffer_PreservesContentAndClearsFlagOnlyIfBlank(t *testing.T) {
	tr := New(image.Point{X: 100, Y: 100})

	// Blank buffer: no content drawn.
	hadContent := tr.ResizeBuffer(image.Point{X: 200, Y: 200}, true)
	if hadContent {
		t.Error("expected hadContent=false for a blank buffer")
	}
	if tr.Buffer.Bounds().Dx() != 200 || tr.Buffer.Bounds().Dy() != 200 {
		t.Errorf("expected resized buffer 200x200, got %v", tr.Buffer.Bounds())
	}

	// Draw a stroke pixel, then resize again.
	want := color.NRGBA{R: 255, A: 255}
	tr.Buffer.SetNRGBA(10, 10, want)
	hadContent = tr.ResizeBuffer(image.Point{X: 300, Y: 300}, true)
	if !hadContent {
		t.Error("expected hadContent=true when the old buffer had a drawn pixel")
	}
	got := tr.Buffer.NRGBAAt(10, 10)
	if got != want {
		t.Errorf("expected preserved pixel at (10,10) = %v, got %v", want, got)
	}
}

func TestLooksCombined(t *testing.T) {
	if !LooksCombined(1900, 1000) {
		t.Error("expected 1900 >= 1.8*1000 to be combined")
	}
	if LooksCombined(1500, 1000) {
		t.Error("expected 1500 < 1.8*1000 to not be combined")
	}
	if !LooksCombined(1500, 0) {
		t.Error("expected fallback height>1400 heuristic to apply with no backdrop")
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
