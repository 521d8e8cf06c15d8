// Package events defines the closed set of notifications the canvas
// engine emits to its host and the small collaborator interfaces the
// host must supply.
//
// See SPEC_FULL.md §6. Grounded on the teacher's daemon/menubar split:
// daemon.StatusTracker accumulates state a host polls or is pushed over
// HTTP/systray rather than the daemon calling back into UI code
// directly; Bus plays the same role for the canvas engine over a Go
// channel instead of HTTP.
package events

import "image"

// Event is the closed sum type for everything the engine can emit.
type Event interface {
	isEvent()
}

// PanChanged reports a new pan offset, emitted on every pan/inertia
// frame and pinch-zoom anchor adjustment (§4.G).
type PanChanged struct {
	Pan image.Point
}

// ZoomChanged reports a new zoom percent, emitted on every pinch-zoom
// frame and at SnapZoom.
type ZoomChanged struct {
	Percent    int
	IsInternal bool // true mid-pinch, false once snapped to an integer
}

// PDFLoaded reports that a PDF backdrop finished loading.
type PDFLoaded struct {
	Path      string
	PageCount int
}

// PDFLinkClicked reports a tap/click on a PDF-native link annotation.
type PDFLinkClicked struct {
	TargetPage int
	URI        string
}

// PDFTextSelected reports the text runs captured by a completed
// text-selection drag (§4.G.3).
type PDFTextSelected struct {
	Text string
}

// AutoScrollRequested asks the host to switch pages (§4.G "Autoscroll").
type AutoScrollRequested struct {
	Direction int // +1 forward, -1 backward
}

// EarlySaveRequested asks the host to flush the current page to disk
// before a combined-canvas page switch completes.
type EarlySaveRequested struct{}

// AnnotatedImageSaved reports that an annotated page image was written
// (e.g. after PDF export or clipboard paste-to-disk).
type AnnotatedImageSaved struct {
	Path string
}

// TouchPanningChanged reports single-finger pan/inertia start or stop.
type TouchPanningChanged struct {
	Active bool
}

// TouchGestureEnded reports that all touch contacts have lifted.
type TouchGestureEnded struct{}

// RopeSelectionCompleted reports that a lasso selection was captured
// (§4.D), carrying its bounds for host-side UI (e.g. a floating toolbar).
type RopeSelectionCompleted struct {
	Bounds image.Rectangle
}

// MarkdownSelectionModeChanged reports entry/exit of the markdown-link
// slot picker mode for object links.
type MarkdownSelectionModeChanged struct {
	Active bool
}

// ErrorNotice surfaces a recoverable error for the host to display
// (§7: errors are logged and also surfaced here, never panicked).
type ErrorNotice struct {
	Message string
	Err     error
}

func (PanChanged) isEvent()                   {}
func (ZoomChanged) isEvent()                  {}
func (PDFLoaded) isEvent()                    {}
func (PDFLinkClicked) isEvent()               {}
func (PDFTextSelected) isEvent()              {}
func (AutoScrollRequested) isEvent()          {}
func (EarlySaveRequested) isEvent()           {}
func (AnnotatedImageSaved) isEvent()          {}
func (TouchPanningChanged) isEvent()          {}
func (TouchGestureEnded) isEvent()            {}
func (RopeSelectionCompleted) isEvent()       {}
func (MarkdownSelectionModeChanged) isEvent() {}
func (ErrorNotice) isEvent()                  {}
