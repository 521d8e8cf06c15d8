package canvas

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/events"
	"github.com/speedynote/speedynote-core/internal/input"
	"github.com/speedynote/speedynote-core/internal/pdfprovider"
	"github.com/speedynote/speedynote-core/internal/persistence"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	doc := document.New(dir, document.ModePaged)
	bus := events.NewBus(0)
	e := New(doc, dir, pdfprovider.NewFakeProvider(), image.Point{X: 400, Y: 300}, bus, nil)
	if err := e.LoadPage(context.Background(), 0); err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	return e
}

func TestLoadPage_CreatesTransparentBufferForAnUnsavedPage(t *testing.T) {
	e := newTestEngine(t)
	if e.buf == nil {
		t.Fatal("expected a non-nil page buffer")
	}
	if got := e.buf.NRGBAAt(0, 0).A; got != 0 {
		t.Errorf("expected a transparent fresh page, got alpha %d", got)
	}
}

func TestDispatch_FreeDrawPaintsOnBuffer(t *testing.T) {
	e := newTestEngine(t)
	now := time.Unix(0, 0)

	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 10, Y: 10}, Pressure: 1}, input.PhaseBegin, now)
	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 50, Y: 10}, Pressure: 1}, input.PhaseMove, now)
	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 50, Y: 10}, Pressure: 1}, input.PhaseEnd, now)

	if e.buf.NRGBAAt(30, 10).A == 0 {
		t.Error("expected a stroke segment to have painted the buffer along the drag path")
	}
}

func TestDispatch_FreeDrawInvalidatesPageCache(t *testing.T) {
	e := newTestEngine(t)
	e.NoteCache.Reinsert(0, e.buf)
	now := time.Unix(0, 0)

	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 10, Y: 10}}, input.PhaseBegin, now)
	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 20, Y: 20}}, input.PhaseMove, now)

	if e.NoteCache.Contains(0) {
		t.Error("expected the current page's cache entry to be invalidated by an edit")
	}
}

func TestDispatch_TouchSinglePointPansAndPublishes(t *testing.T) {
	e := newTestEngine(t)
	now := time.Unix(0, 0)

	e.Dispatch(context.Background(), input.TouchEvent{Points: []input.TouchPoint{{ID: 1, Pos: image.Point{X: 200, Y: 150}}}}, input.PhaseBegin, now)
	out := e.Dispatch(context.Background(), input.TouchEvent{Points: []input.TouchPoint{{ID: 1, Pos: image.Point{X: 190, Y: 150}}}}, input.PhaseMove, now.Add(16*time.Millisecond))

	found := false
	for _, ev := range out {
		if _, ok := ev.(events.PanChanged); ok {
			found = true
		}
	}
	if !found {
		t.Error("expected a PanChanged event from a single-finger drag")
	}
}

func TestSavePage_RoundTripsThroughPersistence(t *testing.T) {
	e := newTestEngine(t)
	e.buf.SetNRGBA(5, 5, color.NRGBA{R: 255, A: 255})

	if err := e.SavePage(context.Background()); err != nil {
		t.Fatalf("SavePage() error = %v", err)
	}
	if !e.NoteCache.Contains(0) {
		t.Error("expected SavePage to reinsert the rendered page into the cache")
	}

	reloaded, err := newEngineReloadedPage(e)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if got := reloaded.NRGBAAt(5, 5); got.A == 0 {
		t.Error("expected the saved stroke to survive a reload")
	}
}

func newEngineReloadedPage(e *Engine) (*image.NRGBA, error) {
	return persistence.LoadPage(e.BundlePath, e.Doc.ID.String(), 0)
}

func TestRenderCurrentPage_ReflectsUnsavedEdits(t *testing.T) {
	e := newTestEngine(t)

	// Prime the cache with a render of the blank page, then draw (an
	// edit that invalidates NoteCache but never calls SavePage). A
	// RenderCurrentPage call in between must not return the primed,
	// now-stale cache entry.
	if _, err := e.RenderCurrentPage(context.Background()); err != nil {
		t.Fatalf("priming RenderCurrentPage() error = %v", err)
	}
	e.Stroke.Color = color.NRGBA{R: 255, A: 255}

	now := time.Unix(0, 0)
	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 5, Y: 5}, Pressure: 1}, input.PhaseBegin, now)
	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 6, Y: 5}, Pressure: 1}, input.PhaseMove, now)
	e.Dispatch(context.Background(), input.StylusEvent{Pos: image.Point{X: 6, Y: 5}, Pressure: 1}, input.PhaseEnd, now)

	after, err := e.RenderCurrentPage(context.Background())
	if err != nil {
		t.Fatalf("RenderCurrentPage() error = %v", err)
	}
	if got := after.NRGBAAt(5, 5); got.R != 255 || got.G == 255 {
		t.Errorf("expected RenderCurrentPage to reflect an unsaved edit on the live buffer, got %+v", got)
	}
}
