package input

import (
	"image"
	"time"

	"github.com/speedynote/speedynote-core/internal/buffer"
)

// Engine bundles the router, gesture state machine, autoscroll tracker,
// and text-selection drag into the single polled struct §4.G describes.
// It owns no goroutines; callers drive it from their own event loop and
// poll Tick once per frame.
type Engine struct {
	Router        Router
	Gesture       *Gesture
	Autoscroll    *Autoscroll
	TextSelection TextSelection

	lastPanY int
}

// NewEngine creates an Engine bound to transform, tracking a combined
// canvas whose single logical page height is singlePageHeight (0 if the
// document isn't in combined-canvas mode; autoscroll is then inert).
func NewEngine(transform *buffer.Transform, singlePageHeight int) *Engine {
	return &Engine{
		Gesture:    NewGesture(transform),
		Autoscroll: NewAutoscroll(singlePageHeight),
	}
}

// Tick advances inertia decay; call roughly every InertiaTick.
func (e *Engine) Tick() {
	e.Gesture.Tick()
}

// CheckAutoscroll evaluates a pan-Y change against the autoscroll
// thresholds, suppressing checks while a touch pan/inertia is actively
// overshooting past a switch point (§4.G "Autoscroll").
func (e *Engine) CheckAutoscroll(newPanY int, now time.Time) (save bool, direction AutoscrollDirection) {
	save, direction = e.Autoscroll.Check(e.lastPanY, newPanY, now)
	e.lastPanY = newPanY
	if direction != AutoscrollNone {
		e.Gesture.StopInertia()
	}
	return save, direction
}

// CancelAll implements §4.G "Cancellation": switching tool, switching
// page, or entering pinch-zoom cancels any active inertia and any
// pending text-selection drag. Cancelling the pending stroke/selection
// themselves is the caller's responsibility (those engines own that
// state), but this call always precedes it.
func (e *Engine) CancelAll() {
	e.Gesture.StopInertia()
	e.TextSelection.Cancel()
}

// BeginPinch cancels pan/inertia and starts a pinch gesture, per
// "entering pinch-zoom cancels any active inertia".
func (e *Engine) BeginPinch(p1, p2 image.Point) {
	e.CancelAll()
	e.Gesture.BeginPinch(p1, p2)
}
