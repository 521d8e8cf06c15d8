// Package canvas wires buffer/stroke/selection/object/pagecache/input/
// persistence/events into the one foreground loop a host drives.
//
// See SPEC_FULL.md §5's expansion: the loop is exposed as a single
// Engine.Dispatch(ctx, event, phase, now) []events.Event call, pure enough that a
// CLI, a test, or a GUI event loop can all drive it the same way.
// Background work (prefetch) runs on pagecache's own worker pool using
// context.Context cancellation, exactly as rmclient and daemon do.
package canvas

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/speedynote/speedynote-core/internal/background"
	"github.com/speedynote/speedynote-core/internal/buffer"
	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/events"
	"github.com/speedynote/speedynote-core/internal/input"
	"github.com/speedynote/speedynote-core/internal/object"
	"github.com/speedynote/speedynote-core/internal/pagecache"
	"github.com/speedynote/speedynote-core/internal/pdfprovider"
	"github.com/speedynote/speedynote-core/internal/persistence"
	"github.com/speedynote/speedynote-core/internal/selection"
	"github.com/speedynote/speedynote-core/internal/stroke"
)

// Options carries the tunable knobs an Engine reads at construction time
// instead of hardcoding, mirroring canvasconfig.Config's shape so a host
// can hand one straight through. A nil Options passed to New is replaced
// by DefaultOptions.
type Options struct {
	RenderDPI        float64
	CacheCapacity    int
	PrefetchDebounce time.Duration
	Thicknesses      stroke.Thicknesses
}

// DefaultOptions returns the options New falls back to when opts is nil.
func DefaultOptions() *Options {
	return &Options{
		RenderDPI:        192,
		CacheCapacity:    pagecache.Capacity,
		PrefetchDebounce: pagecache.PrefetchDebounce,
		Thicknesses:      stroke.Thicknesses{Pen: 3, Marker: 10, Eraser: 20},
	}
}

// objectEditState tracks an in-progress drag or resize of one object.
// Resize/translate math is computed against startRect on every move and
// only committed to obj.Rect on PhaseEnd, matching Object.Resize's own
// outline-preview contract.
type objectEditState struct {
	obj       *object.Object
	zone      object.Zone
	origin    image.Point
	startRect image.Rectangle

	previewRect  image.Rectangle
	lastSample   image.Point
	lastSampleAt time.Time
}

// Engine is the top-level canvas state: one document, one loaded page's
// writable buffer, and the input/stroke/selection/object subsystems that
// act on it.
type Engine struct {
	Doc         *document.Document
	BundlePath  string
	PDFProvider pdfprovider.Provider

	Transform *buffer.Transform
	Stroke    *stroke.Engine
	Selection *selection.Selection
	Objects   *object.Manager
	Input     *input.Engine

	// NoteCache holds combined (page-N-over-page-N+1) stroke images;
	// PDFCache holds combined backdrop images. Keeping them independent
	// means an edit only ever invalidates NoteCache, and a PDF reload
	// only ever invalidates PDFCache (§4.F: two independent LRUs).
	NoteCache *pagecache.Cache
	PDFCache  *pagecache.Cache
	Bus       *events.Bus

	renderDPI float64

	page    int
	buf     *image.NRGBA
	drawing bool
	lastPt  image.Point

	objectEdit     *objectEditState
	cancelPrefetch func()
}

// New creates an Engine over doc, ready to load pages from bundlePath.
// widgetSize is the initial viewport size in widget-space pixels. A nil
// opts uses DefaultOptions.
func New(doc *document.Document, bundlePath string, provider pdfprovider.Provider, widgetSize image.Point, bus *events.Bus, opts *Options) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	transform := buffer.New(widgetSize)
	transform.SetWidgetSize(widgetSize)
	e := &Engine{
		Doc:         doc,
		BundlePath:  bundlePath,
		PDFProvider: provider,
		Transform:   transform,
		Stroke:      stroke.New(document.DefaultBackground().Color, opts.Thicknesses),
		Selection:   selection.New(),
		Objects:     object.NewManager(),
		Bus:         bus,
		renderDPI:   opts.RenderDPI,
	}
	e.Input = input.NewEngine(transform, widgetSize.Y)
	e.NoteCache = pagecache.New(opts.CacheCapacity, opts.PrefetchDebounce, e.renderNoteCombined)
	e.PDFCache = pagecache.New(opts.CacheCapacity, opts.PrefetchDebounce, e.renderPDFCombined)
	return e
}

// loadOrBlankStrokes returns page n's saved stroke buffer, or a fresh
// transparent one if it has never been saved. The currently loaded page
// returns the live in-memory buffer rather than its last-saved disk
// contents, so a render requested between an edit and the next SavePage
// reflects the edit.
func (e *Engine) loadOrBlankStrokes(n int) (*image.NRGBA, error) {
	if n == e.page && e.buf != nil {
		return e.buf, nil
	}
	strokes, err := persistence.LoadPage(e.BundlePath, e.Doc.ID.String(), n)
	if err != nil {
		return nil, err
	}
	if strokes == nil {
		size := e.Transform.Buffer.Bounds().Size()
		strokes = image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	}
	return strokes, nil
}

// renderBackdrop renders page n's backdrop alone: the linked PDF page if
// one is set, else the procedural fill.
func (e *Engine) renderBackdrop(n int) (*image.NRGBA, error) {
	size := e.Transform.Buffer.Bounds().Size()
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	if e.Doc.LinkedPDFPath != "" && e.PDFProvider != nil {
		if backdrop, err := background.RenderPDFPage(e.PDFProvider, e.Doc.LinkedPDFPath, n, e.renderDPI); err == nil {
			background.DrawImage(out, backdrop)
			return out, nil
		}
	}
	background.DrawProcedural(out, e.Doc.Background)
	return out, nil
}

// renderNoteCombined is the pagecache.Renderer backing NoteCache: page
// n's strokes stacked over page n+1's strokes, the combined-canvas shape
// §4.F's cache entries require.
func (e *Engine) renderNoteCombined(ctx context.Context, n int) (*image.NRGBA, error) {
	top, err := e.loadOrBlankStrokes(n)
	if err != nil {
		return nil, err
	}
	var bottom *image.NRGBA
	if n+1 < e.Doc.PageCount() {
		bottom, err = e.loadOrBlankStrokes(n + 1)
		if err != nil {
			return nil, err
		}
	}
	// Stacked onto a transparent canvas rather than through StackCombined,
	// whose white fill would hide the backdrop these strokes are drawn over.
	w, h := top.Bounds().Dx(), top.Bounds().Dy()
	totalH := 2 * h
	if bottom != nil {
		totalH = h + bottom.Bounds().Dy()
		if bottom.Bounds().Dx() > w {
			w = bottom.Bounds().Dx()
		}
	}
	combined := image.NewNRGBA(image.Rect(0, 0, w, totalH))
	draw.Draw(combined, top.Bounds(), top, image.Point{}, draw.Src)
	if bottom != nil {
		draw.Draw(combined, image.Rect(0, h, w, totalH), bottom, image.Point{}, draw.Src)
	}
	return combined, nil
}

// renderPDFCombined is the pagecache.Renderer backing PDFCache: page n's
// backdrop stacked over page n+1's backdrop.
func (e *Engine) renderPDFCombined(ctx context.Context, n int) (*image.NRGBA, error) {
	top, err := e.renderBackdrop(n)
	if err != nil {
		return nil, err
	}
	var bottom *image.NRGBA
	if n+1 < e.Doc.PageCount() {
		bottom, err = e.renderBackdrop(n + 1)
		if err != nil {
			return nil, err
		}
	}
	return background.StackCombined(top, bottom), nil
}

// invalidateNoteNeighbors drops the combined cache entries that include
// page n: n's own entry (n over n+1) and n-1's entry (n-1 over n), since
// an edit to n changes both.
func (e *Engine) invalidateNoteNeighbors(n int) {
	e.NoteCache.Invalidate(n)
	if n > 0 {
		e.NoteCache.Invalidate(n - 1)
	}
}

// schedulePrefetch restarts both caches' debounced prefetch around the
// current page, cancelling whatever the previous page's schedule left
// in flight.
func (e *Engine) schedulePrefetch(ctx context.Context) {
	if e.cancelPrefetch != nil {
		e.cancelPrefetch()
	}
	maxPage := e.Doc.PageCount() - 1
	if maxPage < 0 {
		maxPage = 0
	}
	cancelNote := e.NoteCache.SchedulePrefetch(ctx, maxPage)
	cancelPDF := e.PDFCache.SchedulePrefetch(ctx, maxPage)
	e.cancelPrefetch = func() {
		cancelNote()
		cancelPDF()
	}
}

// Close cancels any in-flight or scheduled prefetch work. Hosts should
// call this when the Engine is discarded.
func (e *Engine) Close() {
	if e.cancelPrefetch != nil {
		e.cancelPrefetch()
	}
	e.NoteCache.CancelInFlight()
	e.PDFCache.CancelInFlight()
}

// LoadPage makes page n the current page: it loads (or creates) that
// page's writable stroke buffer, resizes Transform to match, and
// restarts prefetch around the new page.
func (e *Engine) LoadPage(ctx context.Context, n int) error {
	strokes, err := persistence.LoadPage(e.BundlePath, e.Doc.ID.String(), n)
	if err != nil {
		return fmt.Errorf("canvas: load page %d: %w", n, err)
	}
	if strokes == nil {
		p := e.Doc.Page(n, e.Transform.Buffer.Bounds().Size())
		strokes = p.Buffer
	}
	e.page = n
	e.buf = strokes
	e.Transform.ResizeBuffer(strokes.Bounds().Size(), true)
	e.Input.Autoscroll.SetEdited(false)
	e.schedulePrefetch(ctx)
	return nil
}

// SavePage persists the current page's buffer and refreshes the
// combined cache entries it affects in place (§4.F "Invalidation":
// "reinserted as the cache entry"). A refresh failure is surfaced as an
// ErrorNotice rather than failing the save outright: the page is safely
// on disk, only the cached render is stale until the next read.
func (e *Engine) SavePage(ctx context.Context) error {
	if e.buf == nil {
		return nil
	}
	if err := persistence.SavePage(e.BundlePath, e.Doc.ID.String(), e.page, e.buf, 0); err != nil {
		return err
	}
	e.invalidateNoteNeighbors(e.page)

	if rendered, err := e.renderNoteCombined(ctx, e.page); err == nil {
		e.NoteCache.Reinsert(e.page, rendered)
	} else if e.Bus != nil {
		e.Bus.Publish(events.ErrorNotice{Message: "failed to refresh page cache after save", Err: err})
	}
	if e.page > 0 {
		if rendered, err := e.renderNoteCombined(ctx, e.page-1); err == nil {
			e.NoteCache.Reinsert(e.page-1, rendered)
		}
	}

	e.Input.Autoscroll.SetEdited(false)
	return nil
}

// CurrentPage returns the index of the page LoadPage last loaded.
func (e *Engine) CurrentPage() int { return e.page }

// CurrentBuffer returns the current page's writable stroke buffer, or
// nil if no page has been loaded yet. Callers must not retain it across
// a LoadPage call for a different page.
func (e *Engine) CurrentBuffer() *image.NRGBA { return e.buf }

// renderCombinedCurrent composites the current page's combined backdrop
// and combined strokes into one flat, double-height image, going
// through both caches exactly as paging through the UI would.
func (e *Engine) renderCombinedCurrent(ctx context.Context) (*image.NRGBA, error) {
	backdrop, err := e.PDFCache.Get(ctx, e.page)
	if err != nil {
		return nil, err
	}
	notes, err := e.NoteCache.Get(ctx, e.page)
	if err != nil {
		return nil, err
	}
	out := image.NewNRGBA(backdrop.Bounds())
	background.DrawImage(out, backdrop)
	background.DrawImage(out, notes)
	return out, nil
}

// RenderCombinedPage returns the full double-height composite (current
// page stacked over the next one), the shape the scrolling viewport
// actually paints (§1, §4.F).
func (e *Engine) RenderCombinedPage(ctx context.Context) (*image.NRGBA, error) {
	return e.renderCombinedCurrent(ctx)
}

// RenderCurrentPage composites the current page's backdrop and strokes
// into a single flat page image, splitting it out of the combined
// render.
func (e *Engine) RenderCurrentPage(ctx context.Context) (*image.NRGBA, error) {
	combined, err := e.renderCombinedCurrent(ctx)
	if err != nil {
		return nil, err
	}
	top, _ := background.SplitCombined(combined, e.Transform.Buffer.Bounds().Dy())
	return top, nil
}

// eventPos extracts the pointer position carried by a stylus or mouse
// event; touch events have none (they carry N points instead).
func eventPos(e input.Event) (image.Point, bool) {
	switch ev := e.(type) {
	case input.StylusEvent:
		return ev.Pos, true
	case input.MouseEvent:
		return ev.Pos, true
	default:
		return image.Point{}, false
	}
}

// Dispatch routes one input event through the router and applies it to
// whichever subsystem owns its Route, returning the events the host
// should react to. It is the pure(-ish) (state, event) -> (state,
// []events.Event) function §5's expansion calls for.
func (e *Engine) Dispatch(ctx context.Context, ev input.Event, phase input.Phase, now time.Time) []events.Event {
	var out []events.Event
	publish := func(ee events.Event) {
		out = append(out, ee)
		if e.Bus != nil {
			e.Bus.Publish(ee)
		}
	}

	if phase == input.PhaseBegin && !e.Input.Router.ObjectEditActive {
		e.beginObjectEditIfHit(ev, now)
	}

	route := e.Input.Router.Route(ev)
	switch route {
	case input.RouteFreeDraw, input.RouteStraightLine:
		e.dispatchDraw(ev, phase, route)
	case input.RouteLasso:
		e.dispatchLasso(ev, phase)
	case input.RouteObjectEdit:
		e.dispatchObjectEdit(ev, phase, now)
	case input.RouteTouchGesture:
		e.dispatchGesture(ev.(input.TouchEvent), phase, now, publish)
	case input.RouteTextSelection:
		e.dispatchTextSelection(ev, phase, now, publish)
	}
	return out
}

func (e *Engine) dispatchDraw(ev input.Event, phase input.Phase, route input.Route) {
	if e.buf == nil {
		return
	}
	pos, ok := eventPos(ev)
	if !ok {
		return
	}
	buffPos := e.Transform.MapWidgetToBuffer(pos)

	if stylus, ok := ev.(input.StylusEvent); ok {
		if stylus.Eraser {
			e.Stroke.BeginHardwareErase()
		} else {
			e.Stroke.EndHardwareErase()
		}
	}
	e.Stroke.StraightLineMode = route == input.RouteStraightLine

	switch phase {
	case input.PhaseBegin:
		e.drawing = true
		e.lastPt = buffPos
	case input.PhaseMove:
		if !e.drawing {
			return
		}
		e.Stroke.DrawSegment(e.buf, stroke.Segment{Start: e.lastPt, End: buffPos, Pressure: pressureOf(ev)})
		e.lastPt = buffPos
		e.Input.Autoscroll.SetEdited(true)
		e.Doc.Page(e.page, e.Transform.Buffer.Bounds().Size()).MarkDirty()
		e.invalidateNoteNeighbors(e.page)
	case input.PhaseEnd, input.PhaseCancel:
		if e.drawing && phase == input.PhaseEnd {
			e.Stroke.DrawSegment(e.buf, stroke.Segment{Start: e.lastPt, End: buffPos, Pressure: pressureOf(ev)})
			e.invalidateNoteNeighbors(e.page)
		}
		e.drawing = false
	}
}

func pressureOf(ev input.Event) float64 {
	if s, ok := ev.(input.StylusEvent); ok {
		return s.Pressure
	}
	return 1
}

func (e *Engine) dispatchLasso(ev input.Event, phase input.Phase) {
	pos, ok := eventPos(ev)
	if !ok || e.buf == nil {
		return
	}
	buffPos := e.Transform.MapWidgetToBuffer(pos)
	switch phase {
	case input.PhaseBegin:
		e.Selection.BeginCapture(buffPos)
	case input.PhaseMove:
		e.Selection.Extend(buffPos)
	case input.PhaseEnd:
		e.Selection.EndCapture(e.buf)
	case input.PhaseCancel:
		e.Selection.Cancel(e.buf)
	}
}

// beginObjectEditIfHit hit-tests the press point against every object
// and, for a header/body/resize-handle hit, seeds objectEdit and flips
// the router into object-edit mode for the rest of the gesture. A
// delete-button hit removes the object immediately and never enters
// edit mode; a miss leaves routing untouched so the event falls through
// to whichever tool is actually active.
func (e *Engine) beginObjectEditIfHit(ev input.Event, now time.Time) {
	pos, ok := eventPos(ev)
	if !ok || e.buf == nil {
		return
	}
	buffPos := e.Transform.MapWidgetToBuffer(pos)
	obj, zone := e.Objects.HitTestAll(buffPos)
	if obj == nil {
		return
	}
	if zone == object.ZoneDelete {
		e.Objects.Remove(obj.ID)
		return
	}
	if zone != object.ZoneHeader && zone != object.ZoneBody && !zone.IsResize() {
		return
	}

	e.Input.Router.ObjectEditActive = true
	e.objectEdit = &objectEditState{
		obj:          obj,
		zone:         zone,
		origin:       buffPos,
		startRect:    obj.Rect,
		previewRect:  obj.Rect,
		lastSample:   buffPos,
		lastSampleAt: now,
	}
}

// dispatchObjectEdit drives the drag/resize state objectEdit seeded at
// press time: PhaseMove recomputes a throttled preview rect against the
// object's original bounds, PhaseEnd commits it, PhaseCancel discards
// it.
func (e *Engine) dispatchObjectEdit(ev input.Event, phase input.Phase, now time.Time) {
	st := e.objectEdit
	if st == nil {
		return
	}
	pos, ok := eventPos(ev)
	if !ok {
		return
	}
	buffPos := e.Transform.MapWidgetToBuffer(pos)
	canvasSize := e.Transform.Buffer.Bounds().Size()

	switch phase {
	case input.PhaseBegin:
		// Seeded by beginObjectEditIfHit already; nothing further to do.
	case input.PhaseMove:
		throttle := time.Duration(object.DragThrottle(distance(buffPos, st.lastSample))) * time.Millisecond
		if now.Sub(st.lastSampleAt) < throttle {
			return
		}
		st.lastSample = buffPos
		st.lastSampleAt = now

		if st.zone.IsResize() {
			st.previewRect = object.ClampToCanvas(st.obj.Resize(st.zone, buffPos), canvasSize)
		} else {
			delta := buffPos.Sub(st.origin)
			st.previewRect = object.ClampToCanvas(st.startRect.Add(delta), canvasSize)
		}
	case input.PhaseEnd:
		st.obj.Rect = st.previewRect
		e.endObjectEdit()
	case input.PhaseCancel:
		e.endObjectEdit()
	}
}

func (e *Engine) endObjectEdit() {
	e.objectEdit = nil
	e.Input.Router.ObjectEditActive = false
}

func distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

func (e *Engine) dispatchGesture(ev input.TouchEvent, phase input.Phase, now time.Time, publish func(events.Event)) {
	switch len(ev.Points) {
	case 1:
		pos := ev.Points[0].Pos
		switch phase {
		case input.PhaseBegin:
			e.Input.Gesture.BeginPan(pos, now)
			publish(events.TouchPanningChanged{Active: true})
		case input.PhaseMove:
			e.Input.Gesture.MovePan(pos, now)
			newY := e.Transform.Pan.Y
			publish(events.PanChanged{Pan: e.Transform.Pan})
			if save, dir := e.Input.CheckAutoscroll(newY, now); dir != input.AutoscrollNone {
				if save {
					publish(events.EarlySaveRequested{})
				}
				publish(events.AutoScrollRequested{Direction: int(dir)})
			}
		case input.PhaseEnd, input.PhaseCancel:
			e.Input.Gesture.EndPan()
			publish(events.TouchPanningChanged{Active: false})
			if !e.Input.Gesture.InertiaActive() {
				publish(events.TouchGestureEnded{})
			}
		}
	case 2:
		p1, p2 := ev.Points[0].Pos, ev.Points[1].Pos
		switch phase {
		case input.PhaseBegin:
			e.Input.BeginPinch(p1, p2)
		case input.PhaseMove:
			e.Input.Gesture.MovePinch(p1, p2)
			publish(events.PanChanged{Pan: e.Transform.Pan})
			publish(events.ZoomChanged{Percent: int(math.Round(e.Transform.InternalZoom)), IsInternal: true})
		case input.PhaseEnd, input.PhaseCancel:
			e.Input.Gesture.EndPinch()
			publish(events.ZoomChanged{Percent: e.Transform.Zoom, IsInternal: false})
			publish(events.TouchGestureEnded{})
		}
	}
}

func (e *Engine) dispatchTextSelection(ev input.Event, phase input.Phase, now time.Time, publish func(events.Event)) {
	pos, ok := eventPos(ev)
	if !ok {
		return
	}
	switch phase {
	case input.PhaseBegin:
		e.Input.TextSelection.Begin(pos, now)
	case input.PhaseMove:
		e.Input.TextSelection.Move(pos, now)
	case input.PhaseEnd:
		boxes, toPDF, err := e.textSelectionSource()
		if err != nil {
			publish(events.ErrorNotice{Message: "failed to load PDF text for selection", Err: err})
		}
		selected := e.Input.TextSelection.End(boxes, toPDF)
		if len(selected) > 0 {
			text := selected[0].Text
			for _, b := range selected[1:] {
				text += " " + b.Text
			}
			publish(events.PDFTextSelected{Text: text})
		}
	case input.PhaseCancel:
		e.Input.TextSelection.Cancel()
	}
}

// textSelectionSource loads the current PDF page's text boxes and a
// widget-to-PDF-space coordinate mapper. Returns an empty slice and a
// nil error when no PDF backdrop is active; a non-nil error only for a
// genuine load/extract failure, which callers surface as an
// ErrorNotice rather than silently dropping the selection.
func (e *Engine) textSelectionSource() ([]pdfprovider.TextBox, func(image.Rectangle) pdfprovider.Rect, error) {
	identity := func(r image.Rectangle) pdfprovider.Rect {
		return pdfprovider.Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
	}
	if e.Doc.LinkedPDFPath == "" || e.PDFProvider == nil {
		return nil, identity, nil
	}
	pdfDoc, err := e.PDFProvider.Load(e.Doc.LinkedPDFPath)
	if err != nil {
		return nil, identity, fmt.Errorf("canvas: load linked pdf: %w", err)
	}
	defer pdfDoc.Close()

	page, err := pdfDoc.Page(e.page)
	if err != nil {
		return nil, identity, fmt.Errorf("canvas: open pdf page %d: %w", e.page, err)
	}
	boxes, err := page.TextBoxes()
	if err != nil {
		return nil, identity, fmt.Errorf("canvas: extract text boxes for page %d: %w", e.page, err)
	}
	toPDF := func(r image.Rectangle) pdfprovider.Rect {
		buf := image.Rectangle{Min: e.Transform.MapWidgetToBuffer(r.Min), Max: e.Transform.MapWidgetToBuffer(r.Max)}
		return identity(buf)
	}
	return boxes, toPDF, nil
}

// Tick advances the polled gesture/inertia state machine one frame
// (§9's redesign note: no callback timers, the host drives this).
func (e *Engine) Tick(now time.Time) []events.Event {
	var out []events.Event
	if e.Input.Gesture.InertiaActive() {
		e.Input.Tick()
		out = append(out, events.PanChanged{Pan: e.Transform.Pan})
		newY := e.Transform.Pan.Y
		if save, dir := e.Input.CheckAutoscroll(newY, now); dir != input.AutoscrollNone {
			if save {
				out = append(out, events.EarlySaveRequested{})
			}
			out = append(out, events.AutoScrollRequested{Direction: int(dir)})
		}
		if !e.Input.Gesture.InertiaActive() {
			out = append(out, events.TouchGestureEnded{})
		}
	}
	for _, ee := range out {
		if e.Bus != nil {
			e.Bus.Publish(ee)
		}
	}
	return out
}
