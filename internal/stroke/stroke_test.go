package stroke

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func defaultThicknesses() Thicknesses {
	return Thicknesses{Pen: 4, Marker: 12, Eraser: 20}
}

func TestThicknesses_GetSetPerTool(t *testing.T) {
	th := defaultThicknesses()
	th.Set(ToolMarker, 30)

	if th.Get(ToolMarker) != 30 {
		t.Errorf("expected marker thickness 30, got %v", th.Get(ToolMarker))
	}
	if th.Get(ToolPen) != 4 {
		t.Errorf("expected pen thickness unaffected at 4, got %v", th.Get(ToolPen))
	}
}

func TestThicknesses_Scale(t *testing.T) {
	th := defaultThicknesses()
	th.Scale(2)

	if th.Pen != 8 || th.Marker != 24 || th.Eraser != 40 {
		t.Errorf("expected all thicknesses doubled, got %+v", th)
	}
}

func TestEngine_SetToolAndHardwareErase(t *testing.T) {
	e := New(color.NRGBA{R: 0, G: 0, B: 0, A: 255}, defaultThicknesses())
	e.SetTool(ToolMarker)

	e.BeginHardwareErase()
	if e.Tool != ToolEraser {
		t.Fatalf("expected tool switched to eraser, got %s", e.Tool)
	}

	e.EndHardwareErase()
	if e.Tool != ToolMarker {
		t.Errorf("expected tool restored to marker, got %s", e.Tool)
	}
}

func TestEngine_HardwareErase_NestedCallsAreNoop(t *testing.T) {
	e := New(color.NRGBA{A: 255}, defaultThicknesses())
	e.SetTool(ToolPen)
	e.BeginHardwareErase()
	e.BeginHardwareErase() // should not overwrite the saved "pen"
	e.EndHardwareErase()

	if e.Tool != ToolPen {
		t.Errorf("expected tool restored to pen after nested begin calls, got %s", e.Tool)
	}
}

func TestDrawSegment_PenDrawsOpaquePixels(t *testing.T) {
	e := New(color.NRGBA{R: 255, A: 255}, defaultThicknesses())
	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	rect := e.DrawSegment(dst, Segment{Start: image.Point{X: 10, Y: 50}, End: image.Point{X: 90, Y: 50}, Pressure: 1})

	if rect.Empty() {
		t.Fatal("expected non-empty update rect")
	}
	if got := dst.NRGBAAt(50, 50); got.A == 0 {
		t.Error("expected a drawn pixel on the stroke centerline")
	}
}

func TestDrawSegment_EraserClearsExistingContent(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 40; y < 60; y++ {
		for x := 0; x < 100; x++ {
			dst.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	e := New(color.NRGBA{A: 255}, defaultThicknesses())
	e.SetTool(ToolEraser)
	e.DrawSegment(dst, Segment{Start: image.Point{X: 10, Y: 50}, End: image.Point{X: 90, Y: 50}, Pressure: 1})

	if got := dst.NRGBAAt(50, 50); got.A != 0 {
		t.Errorf("expected erased pixel to be fully transparent, got %v", got)
	}
}

func TestMarkerAlpha_DiffersByStraightLineMode(t *testing.T) {
	e := New(color.NRGBA{R: 0, G: 0, B: 255, A: 255}, defaultThicknesses())
	e.SetTool(ToolMarker)

	e.StraightLineMode = false
	normal := e.strokeColor()
	if normal.A != markerAlphaNormal {
		t.Errorf("expected normal marker alpha %d, got %d", markerAlphaNormal, normal.A)
	}

	e.StraightLineMode = true
	straight := e.strokeColor()
	if straight.A != markerAlphaStraightLine {
		t.Errorf("expected straight-line marker alpha %d, got %d", markerAlphaStraightLine, straight.A)
	}
}

func TestShouldThrottleRepaint(t *testing.T) {
	now := time.Now()
	last := now.Add(-5 * time.Millisecond)

	if !ShouldThrottleRepaint(ToolMarker, now, last) {
		t.Error("expected marker repaint within 16ms to be throttled")
	}
	if ShouldThrottleRepaint(ToolPen, now, last) {
		t.Error("expected pen repaints to never be throttled")
	}

	later := now.Add(20 * time.Millisecond)
	if ShouldThrottleRepaint(ToolEraser, later, now) {
		t.Error("expected eraser repaint past 16ms to not be throttled")
	}
}

func TestBenchmark_StrokesPerSecond(t *testing.T) {
	e := New(color.NRGBA{A: 255}, defaultThicknesses())
	dst := image.NewNRGBA(image.Rect(0, 0, 50, 50))

	fake := time.Now()
	e.bench.now = func() time.Time { return fake }
	e.StartBenchmark()

	for i := 0; i < 5; i++ {
		e.DrawSegment(dst, Segment{Start: image.Point{X: 1, Y: 1}, End: image.Point{X: 2, Y: 2}, Pressure: 1})
	}
	if got := e.StrokesPerSecond(); got != 5 {
		t.Errorf("expected 5 strokes/sec, got %d", got)
	}

	fake = fake.Add(2 * time.Second)
	if got := e.StrokesPerSecond(); got != 0 {
		t.Errorf("expected strokes to expire after 1s window, got %d", got)
	}
}

func TestStraightLinePreview_PenCommitsOnlyOnce(t *testing.T) {
	e := New(color.NRGBA{R: 255, A: 255}, defaultThicknesses())
	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	var preview StraightLinePreview
	preview.Begin(image.Point{X: 10, Y: 10})

	preview.Move(e, image.Point{X: 50, Y: 10})
	if dst.NRGBAAt(30, 10).A != 0 {
		t.Error("expected no pixels drawn during straight-line preview move")
	}

	preview.Commit(e, dst, image.Point{X: 90, Y: 10})
	if dst.NRGBAAt(50, 10).A == 0 {
		t.Error("expected committed straight line to be drawn")
	}
	if preview.Active() {
		t.Error("expected preview to be inactive after commit")
	}
}

func TestStraightLinePreview_EraserCommitsContinuously(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			dst.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	e := New(color.NRGBA{A: 255}, defaultThicknesses())
	e.SetTool(ToolEraser)

	var preview StraightLinePreview
	preview.Begin(image.Point{X: 10, Y: 50})
	preview.MoveErasing(e, dst, image.Point{X: 50, Y: 50})

	if got := dst.NRGBAAt(30, 50); got.A != 0 {
		t.Error("expected eraser straight-line mode to clear pixels as it moves, not just on commit")
	}
}
