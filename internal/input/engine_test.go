package input

import (
	"image"
	"testing"
	"time"
)

func TestEngine_CheckAutoscrollStopsInertiaOnSwitch(t *testing.T) {
	tr := newTestTransform()
	e := NewEngine(tr, 1000)
	e.Gesture.inertiaActive = true
	e.Gesture.vx = 5

	_, dir := e.CheckAutoscroll(1010, time.Unix(0, 0))
	if dir != AutoscrollNext {
		t.Fatalf("expected AutoscrollNext, got %v", dir)
	}
	if e.Gesture.InertiaActive() {
		t.Error("expected inertia to stop once a page switch is requested")
	}
}

func TestEngine_CancelAllClearsInertiaAndTextSelection(t *testing.T) {
	tr := newTestTransform()
	e := NewEngine(tr, 1000)
	e.Gesture.inertiaActive = true
	e.TextSelection.Begin(image.Point{}, time.Unix(0, 0))

	e.CancelAll()

	if e.Gesture.InertiaActive() {
		t.Error("expected CancelAll to stop inertia")
	}
	if e.TextSelection.Active() {
		t.Error("expected CancelAll to cancel the pending text selection")
	}
}

func TestEngine_BeginPinchCancelsFirst(t *testing.T) {
	tr := newTestTransform()
	e := NewEngine(tr, 1000)
	e.Gesture.inertiaActive = true

	e.BeginPinch(image.Point{X: 400, Y: 500}, image.Point{X: 600, Y: 500})

	if e.Gesture.InertiaActive() {
		t.Error("expected BeginPinch to cancel inertia before starting the pinch")
	}
	if !e.Gesture.IsPinching() {
		t.Error("expected pinch to be active")
	}
}
