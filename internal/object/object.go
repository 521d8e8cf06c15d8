// Package object manages inserted picture and link objects on a page:
// hit-testing, drag/resize with optional aspect lock, and persistence.
//
// See SPEC_FULL.md §4.E. Grounded on the object geometry/zones spelled out
// in spec.md §4.E and on the teacher's flat-JSON-struct persistence idiom
// (internal/converter's DocumentMetadata), generalized here to a
// discriminated union for LinkSlot.
package object

import (
	"fmt"
	"image"
)

// headerHeight is the fixed header-bar height subtracted before deriving
// aspect-locked width from content height (§4.E "Resize with aspect
// ratio").
const headerHeight = 32

// resizeHandleSize is the approximate square size of each of the 8
// corner/edge resize handles (§4.E "Hit testing").
const resizeHandleSize = 12

// DefaultPictureSize is the size assigned to a newly pasted picture object
// (§4.E "clipboard paste").
var DefaultPictureSize = image.Point{X: 200, Y: 150}

// Zone is a hit-test result (§4.E).
type Zone int

const (
	ZoneNone Zone = iota
	ZoneBody
	ZoneHeader
	ZoneDelete
	ZoneResizeTL
	ZoneResizeT
	ZoneResizeTR
	ZoneResizeR
	ZoneResizeBR
	ZoneResizeB
	ZoneResizeBL
	ZoneResizeL
)

// IsResize reports whether z is one of the 8 resize handle zones.
func (z Zone) IsResize() bool {
	return z >= ZoneResizeTL && z <= ZoneResizeL
}

// Kind distinguishes the two object variants (§4.E).
type Kind int

const (
	KindPicture Kind = iota
	KindLink
)

// Object is one inserted picture or link, positioned in canvas coordinates
// (§4.E bounds clamp: "[0, canvas_width] x [0, canvas_height]").
type Object struct {
	ID             string
	Kind           Kind
	Rect           image.Rectangle
	MaintainAspect bool
	aspectRatio    float64 // width/height, computed at creation for pictures

	// Picture fields.
	ImagePath string

	// Link fields.
	Description string
	IconColor   string
	Slots       [3]LinkSlot
}

// NewPicture creates a picture object at origin with DefaultPictureSize,
// aspect-locked to naturalSize's ratio, or to DefaultPictureSize's ratio
// when naturalSize is zero (§4.E "clipboard paste").
func NewPicture(id string, origin image.Point, imagePath string, naturalSize image.Point) *Object {
	size := DefaultPictureSize
	aspect := float64(DefaultPictureSize.X) / float64(DefaultPictureSize.Y)
	if naturalSize.X > 0 && naturalSize.Y > 0 {
		aspect = float64(naturalSize.X) / float64(naturalSize.Y)
	}
	return &Object{
		ID:             id,
		Kind:           KindPicture,
		Rect:           image.Rectangle{Min: origin, Max: origin.Add(size)},
		MaintainAspect: true,
		aspectRatio:    aspect,
		ImagePath:      imagePath,
	}
}

// NewLink creates an empty-slots link object at the given rect.
func NewLink(id string, rect image.Rectangle, description, iconColor string) *Object {
	return &Object{
		ID:          id,
		Kind:        KindLink,
		Rect:        rect,
		Description: description,
		IconColor:   iconColor,
	}
}

// HitTest classifies p (canvas coordinates) against o's zones.
func (o *Object) HitTest(p image.Point) Zone {
	if !p.In(o.Rect.Inset(-resizeHandleSize / 2)) {
		return ZoneNone
	}

	handles := o.resizeHandles()
	for zone, hr := range handles {
		if p.In(hr) {
			return zone
		}
	}

	header := image.Rect(o.Rect.Min.X, o.Rect.Min.Y, o.Rect.Max.X, o.Rect.Min.Y+headerHeight)
	if p.In(header) {
		deleteBtn := image.Rect(header.Max.X-headerHeight, header.Min.Y, header.Max.X, header.Max.Y)
		if p.In(deleteBtn) {
			return ZoneDelete
		}
		return ZoneHeader
	}

	if p.In(o.Rect) {
		return ZoneBody
	}
	return ZoneNone
}

// resizeHandles returns the 8 corner/edge handle rectangles, centered on
// the object's border.
func (o *Object) resizeHandles() map[Zone]image.Rectangle {
	h := resizeHandleSize
	r := o.Rect
	at := func(cx, cy int) image.Rectangle {
		return image.Rect(cx-h/2, cy-h/2, cx+h/2, cy+h/2)
	}
	midX, midY := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
	return map[Zone]image.Rectangle{
		ZoneResizeTL: at(r.Min.X, r.Min.Y),
		ZoneResizeT:  at(midX, r.Min.Y),
		ZoneResizeTR: at(r.Max.X, r.Min.Y),
		ZoneResizeR:  at(r.Max.X, midY),
		ZoneResizeBR: at(r.Max.X, r.Max.Y),
		ZoneResizeB:  at(midX, r.Max.Y),
		ZoneResizeBL: at(r.Min.X, r.Max.Y),
		ZoneResizeL:  at(r.Min.X, midY),
	}
}

// Resize computes the object's new rectangle for a drag of the given zone
// to newPoint (canvas coordinates), applying the aspect-ratio rule for
// corner/edge handles when MaintainAspect is set (§4.E). It does not mutate
// o.Rect — callers apply the result only on mouse-up, per the outline
// preview semantics.
func (o *Object) Resize(zone Zone, newPoint image.Point) image.Rectangle {
	r := o.Rect
	switch zone {
	case ZoneResizeTL:
		r.Min = newPoint
	case ZoneResizeT:
		r.Min.Y = newPoint.Y
	case ZoneResizeTR:
		r.Min.Y = newPoint.Y
		r.Max.X = newPoint.X
	case ZoneResizeR:
		r.Max.X = newPoint.X
	case ZoneResizeBR:
		r.Max = newPoint
	case ZoneResizeB:
		r.Max.Y = newPoint.Y
	case ZoneResizeBL:
		r.Max.Y = newPoint.Y
		r.Min.X = newPoint.X
	case ZoneResizeL:
		r.Min.X = newPoint.X
	}
	r = r.Canon()

	if o.MaintainAspect && o.aspectRatio > 0 {
		contentHeight := r.Dy() - headerHeight
		if contentHeight < 1 {
			contentHeight = 1
		}
		width := int(float64(contentHeight) * o.aspectRatio)
		r.Max.X = r.Min.X + width
	}
	return r
}

// ClampToCanvas clamps r so it lies within [0, size] (§4.E "Bounds").
func ClampToCanvas(r image.Rectangle, size image.Point) image.Rectangle {
	return image.Rect(
		clampInt(r.Min.X, 0, size.X), clampInt(r.Min.Y, 0, size.Y),
		clampInt(r.Max.X, 0, size.X), clampInt(r.Max.Y, 0, size.Y),
	)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DragThrottle returns the repaint throttle interval for a drag/resize
// gesture based on the distance moved since the last sampled point (§4.E
// "adaptive throttling (8/12/16 ms based on movement distance)").
func DragThrottle(distance float64) int {
	switch {
	case distance > 40:
		return 8
	case distance > 15:
		return 12
	default:
		return 16
	}
}

// Manager owns the object list for a single page.
type Manager struct {
	Objects []*Object
}

// NewManager returns an empty object manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends an object.
func (m *Manager) Add(o *Object) {
	m.Objects = append(m.Objects, o)
}

// Remove deletes the object with the given ID, if present.
func (m *Manager) Remove(id string) {
	out := m.Objects[:0]
	for _, o := range m.Objects {
		if o.ID != id {
			out = append(out, o)
		}
	}
	m.Objects = out
}

// HitTestAll returns the topmost (last-inserted) object and zone hit by p,
// or (nil, ZoneNone) if nothing was hit.
func (m *Manager) HitTestAll(p image.Point) (*Object, Zone) {
	for i := len(m.Objects) - 1; i >= 0; i-- {
		o := m.Objects[i]
		if zone := o.HitTest(p); zone != ZoneNone {
			return o, zone
		}
	}
	return nil, ZoneNone
}

// ClipboardImageName generates the unique filename for a clipboard-pasted
// picture (§4.E: "{docId}_clipboard_p{page:05}_{timestamp}_{rand8}.png").
func ClipboardImageName(docID string, page int, timestamp int64, rand8 string) string {
	return fmt.Sprintf("%s_clipboard_p%05d_%d_%s.png", docID, page, timestamp, rand8)
}
