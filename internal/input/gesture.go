package input

import (
	"image"
	"math"
	"time"

	"github.com/speedynote/speedynote-core/internal/buffer"
)

// Gesture tuning constants (§4.G "Single-finger pan" / "Inertia" / "Pinch-zoom").
const (
	VelocityMin      = 0.1                  // canvas-units/ms; below this, inertia never starts
	InertiaFriction  = 0.92
	InertiaStop      = 0.05 // canvas-units/ms; inertia halts below this
	InertiaTick      = 16 * time.Millisecond // 60 Hz
	velocitySamples  = 5
)

// velocitySample is one ring-buffer entry used to compute a weighted
// average velocity at touch-end.
type velocitySample struct {
	t      time.Time
	dx, dy float64 // buffer-space delta since the previous sample
}

// Gesture is the single-finger-pan / inertia / two-finger-pinch state
// machine. It is a plain struct polled by the caller; it owns no
// goroutines or timers of its own (§9 redesign note).
type Gesture struct {
	transform *buffer.Transform

	panning     bool
	lastPos     image.Point
	ring        []velocitySample
	ringIdx     int

	inertiaActive bool
	vx, vy        float64 // canvas-units/ms
	lastTick      time.Time

	pinching       bool
	initialDist    float64
	lastAnchor     image.Point
	initialZoom    float64
}

// NewGesture creates a gesture state machine bound to transform.
func NewGesture(transform *buffer.Transform) *Gesture {
	return &Gesture{transform: transform, ring: make([]velocitySample, 0, velocitySamples)}
}

// BeginPan starts single-finger panning, stopping any active inertia
// (§4.G "On touch-begin with one contact, stop any active inertia").
func (g *Gesture) BeginPan(pos image.Point, now time.Time) {
	g.inertiaActive = false
	g.panning = true
	g.lastPos = pos
	g.ring = g.ring[:0]
	g.lastTick = now
}

// MovePan advances panning to pos, applying the widget-to-buffer delta
// scaled by 1/zoom and sampling velocity into the ring buffer.
func (g *Gesture) MovePan(pos image.Point, now time.Time) {
	if !g.panning {
		return
	}
	z := g.transform.InternalZoom / 100.0
	if z <= 0 {
		z = 1
	}
	dx := float64(g.lastPos.X-pos.X) / z
	dy := float64(g.lastPos.Y-pos.Y) / z
	g.transform.SetPanFloat(g.transform.InertiaPan.X+dx, g.transform.InertiaPan.Y+dy)
	g.lastPos = pos

	g.sampleVelocity(dx, dy, now)
}

func (g *Gesture) sampleVelocity(dx, dy float64, now time.Time) {
	dt := now.Sub(g.lastTick).Milliseconds()
	if dt <= 0 {
		dt = 1
	}
	sample := velocitySample{t: now, dx: dx / float64(dt), dy: dy / float64(dt)}
	if len(g.ring) < velocitySamples {
		g.ring = append(g.ring, sample)
	} else {
		g.ring[g.ringIdx] = sample
		g.ringIdx = (g.ringIdx + 1) % velocitySamples
	}
	g.lastTick = now
}

// EndPan stops active panning and, if the averaged ring-buffer velocity
// exceeds VelocityMin, starts inertia (§4.G "Inertia").
func (g *Gesture) EndPan() {
	g.panning = false
	if len(g.ring) == 0 {
		return
	}
	var sx, sy float64
	for _, s := range g.ring {
		sx += s.dx
		sy += s.dy
	}
	n := float64(len(g.ring))
	vx, vy := sx/n, sy/n
	if speed(vx, vy) > VelocityMin {
		g.inertiaActive = true
		g.vx, g.vy = vx, vy
	}
}

// IsPanning reports whether a single-finger pan is in progress.
func (g *Gesture) IsPanning() bool { return g.panning }

// InertiaActive reports whether inertial decay is currently running.
func (g *Gesture) InertiaActive() bool { return g.inertiaActive }

// Tick advances inertia decay by one frame if active. Callers should
// invoke this roughly every InertiaTick; it is idempotent with respect
// to timing (frame-based, not wall-clock-locked) so a coarser polling
// loop simply advances one decay step per call.
func (g *Gesture) Tick() {
	if !g.inertiaActive {
		return
	}
	dtMs := float64(InertiaTick / time.Millisecond)
	g.transform.SetPanFloat(
		g.transform.InertiaPan.X+g.vx*dtMs,
		g.transform.InertiaPan.Y+g.vy*dtMs,
	)
	g.vx *= InertiaFriction
	g.vy *= InertiaFriction
	if speed(g.vx, g.vy) < InertiaStop {
		g.inertiaActive = false
		g.vx, g.vy = 0, 0
	}
}

// StopInertia halts any active inertial decay immediately, used on tool
// switch, page switch, or entering a pinch gesture (§4.G "Cancellation").
func (g *Gesture) StopInertia() {
	g.inertiaActive = false
	g.vx, g.vy = 0, 0
}

func speed(vx, vy float64) float64 {
	return math.Sqrt(vx*vx + vy*vy)
}

// BeginPinch starts a two-finger pinch-zoom gesture, stopping any active
// pan/inertia (§4.G "On two-finger touch, stop panning").
func (g *Gesture) BeginPinch(p1, p2 image.Point) {
	g.panning = false
	g.inertiaActive = false
	g.pinching = true
	g.initialDist = distance(p1, p2)
	g.initialZoom = g.transform.InternalZoom
	g.lastAnchor = midpoint(p1, p2)
}

// MovePinch updates the internal zoom from the current finger distance,
// anchored at the current finger midpoint (§4.G "Pinch-zoom").
func (g *Gesture) MovePinch(p1, p2 image.Point) {
	if !g.pinching || g.initialDist == 0 {
		return
	}
	scale := distance(p1, p2) / g.initialDist
	anchor := midpoint(p1, p2)
	g.lastAnchor = anchor
	g.transform.SetInternalZoom(g.initialZoom*scale, anchor)
}

// EndPinch stops the pinch gesture and snaps internal zoom to an integer
// percent (§4.G "on touch-end, snap internal zoom to integer").
func (g *Gesture) EndPinch() {
	g.pinching = false
	g.transform.SnapZoom()
}

// IsPinching reports whether a pinch gesture is in progress.
func (g *Gesture) IsPinching() bool { return g.pinching }

func distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func midpoint(a, b image.Point) image.Point {
	return image.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
