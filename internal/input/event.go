// Package input routes stylus, mouse, and touch events to the correct
// engine and implements single-finger pan with inertia, two-finger
// pinch-zoom, and cross-page autoscroll.
//
// See SPEC_FULL.md §4.G. Grounded on spec.md §4.G's routing table and
// gesture thresholds, and on original_source/source/InkCanvas.cpp's
// mouse/tablet/touch event handlers and checkAutoscrollThreshold. Per
// §9's redesign note the whole engine is a single struct polled via
// Tick, not a web of Qt signal/timer callbacks.
package input

import "image"

// Event is the closed sum type for pointer input, replacing Qt's virtual
// event dispatch (QTabletEvent/QMouseEvent/QTouchEvent) with an explicit
// type switch (§9 redesign note).
type Event interface {
	isEvent()
}

// StylusEvent is a pressure-sensitive pen input sample.
type StylusEvent struct {
	Pos      image.Point
	Pressure float64 // 0..1
	Eraser   bool    // true when the hardware eraser tip is in contact
}

func (StylusEvent) isEvent() {}

// MouseButton identifies which mouse button produced a MouseEvent.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MousePrimary
	MouseSecondary
)

// MouseEvent is a mouse input sample.
type MouseEvent struct {
	Pos    image.Point
	Button MouseButton
}

func (MouseEvent) isEvent() {}

// TouchPoint is one active contact in a TouchEvent.
type TouchPoint struct {
	ID  int
	Pos image.Point
}

// TouchEvent carries every currently active touch contact.
type TouchEvent struct {
	Points []TouchPoint
}

func (TouchEvent) isEvent() {}

// Phase describes where in its lifecycle an input event sits.
type Phase int

const (
	PhaseBegin Phase = iota
	PhaseMove
	PhaseEnd
	PhaseCancel
)

// Route is the destination an event should be dispatched to, decided by
// the routing priority in §4.G.
type Route int

const (
	RouteIgnored Route = iota
	RouteObjectEdit
	RouteTextSelection
	RouteLasso
	RouteStraightLine
	RouteFreeDraw
	RouteTouchGesture
)

// Router holds the mode flags that the routing priority list consults.
// It owns no engine state itself — it only decides where an event goes.
type Router struct {
	ObjectEditActive  bool
	TextSelectionMode bool
	LassoTool         bool
	StraightLineMode  bool
	DrawModeForMouse  bool // explicit opt-in for mouse-driven drawing
}

// Route implements the routing priority table (§4.G "Routing priority"):
//  1. object edit mode
//  2. PDF text-selection mode, stylus or primary mouse only
//  3. stylus: lasso / straight-line / free-draw
//  4. touch: gesture handler
//  5. mouse: only if a mode is explicitly enabled
func (r *Router) Route(e Event) Route {
	if r.ObjectEditActive {
		return RouteObjectEdit
	}
	switch ev := e.(type) {
	case StylusEvent:
		if r.TextSelectionMode {
			return RouteTextSelection
		}
		if r.LassoTool {
			return RouteLasso
		}
		if r.StraightLineMode {
			return RouteStraightLine
		}
		return RouteFreeDraw
	case MouseEvent:
		if r.TextSelectionMode && ev.Button == MousePrimary {
			return RouteTextSelection
		}
		if r.DrawModeForMouse {
			if r.LassoTool {
				return RouteLasso
			}
			if r.StraightLineMode {
				return RouteStraightLine
			}
			return RouteFreeDraw
		}
		return RouteIgnored
	case TouchEvent:
		return RouteTouchGesture
	default:
		return RouteIgnored
	}
}
