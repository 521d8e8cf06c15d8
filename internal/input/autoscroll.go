package input

import "time"

// AutoscrollDirection is the page-switch direction requested by the
// autoscroll state machine.
type AutoscrollDirection int

const (
	AutoscrollNone AutoscrollDirection = 0
	AutoscrollNext AutoscrollDirection = 1
	AutoscrollPrev AutoscrollDirection = -1
)

// autoscrollCooldown is the minimum time between page-switch requests,
// suppressing repeated autoscroll during inertia overshoot
// (§4.G "Autoscroll": "500 ms page-switch cooldown").
const autoscrollCooldown = 500 * time.Millisecond

// proportionalFloor is the single-page height below which the save/switch
// zone offsets switch from a fixed 300px/5px to a fraction of the
// threshold, so short pages still get usable margins (ported from
// InkCanvas.cpp's checkAutoscrollThreshold fallback branch).
const proportionalFloor = 600.0

// Autoscroll tracks the combined-canvas pan-Y position against the
// forward/backward save and switch zones and decides when to request an
// early save or a page switch. It is polled via Check rather than driven
// by Qt-style timer callbacks (§9 redesign note).
type Autoscroll struct {
	singlePageHeight int
	edited           bool
	lastCooldownEnd  time.Time
	inCooldown       bool
}

// NewAutoscroll creates an Autoscroll tracker for a combined canvas whose
// single logical page height is singlePageHeight.
func NewAutoscroll(singlePageHeight int) *Autoscroll {
	return &Autoscroll{singlePageHeight: singlePageHeight}
}

// SetEdited records whether the current page has unsaved edits, gating
// early-save requests (§4.G "while edited").
func (a *Autoscroll) SetEdited(edited bool) { a.edited = edited }

// zones returns (forwardSaveZone, backwardSaveZone, forwardSwitch, backwardSwitch)
// per the thresholds in checkAutoscrollThreshold, falling back to a
// proportional quarter-threshold split for short pages.
func (a *Autoscroll) zones() (forwardSave, backwardSave, forwardSwitch, backwardSwitch int) {
	h := a.singlePageHeight
	if h <= 0 {
		return 0, 0, 0, 0
	}
	if float64(h) < proportionalFloor {
		q := h / 4
		return h - q, -q, h, -q
	}
	return h - 300, -5, h, -300
}

// Check evaluates a pan-Y transition from oldY to newY at time now and
// reports what the caller should do: an early-save request (if a save
// zone was crossed while edited) and/or an autoscroll direction (if a
// switch threshold was crossed), each independently zero-valued when not
// triggered. Checks are suppressed entirely during an active cooldown.
func (a *Autoscroll) Check(oldY, newY int, now time.Time) (save bool, direction AutoscrollDirection) {
	if a.inCooldown {
		if now.Sub(a.lastCooldownEnd) < autoscrollCooldown {
			return false, AutoscrollNone
		}
		a.inCooldown = false
	}

	forwardSave, backwardSave, forwardSwitch, backwardSwitch := a.zones()
	if a.singlePageHeight <= 0 {
		return false, AutoscrollNone
	}

	if a.edited {
		if crossed(oldY, newY, forwardSave) || crossed(oldY, newY, backwardSave) {
			save = true
		}
	}

	switch {
	case crossed(oldY, newY, forwardSwitch):
		direction = AutoscrollNext
	case crossed(oldY, newY, backwardSwitch):
		direction = AutoscrollPrev
	}

	if direction != AutoscrollNone {
		a.inCooldown = true
		a.lastCooldownEnd = now
	}
	return save, direction
}

// crossed reports whether the [old,new] interval crosses threshold,
// independent of scroll direction.
func crossed(old, new, threshold int) bool {
	if old == new {
		return false
	}
	if old < threshold && new >= threshold {
		return true
	}
	if old > threshold && new <= threshold {
		return true
	}
	return false
}
