package object

import (
	"encoding/json"
	"fmt"
)

// SlotType discriminates LinkSlot's JSON variants (§4.E: "Slots serialize
// as a JSON array of objects with a type discriminator").
type SlotType string

const (
	SlotEmpty    SlotType = "empty"
	SlotPosition SlotType = "position"
	SlotURL      SlotType = "url"
	SlotMarkdown SlotType = "markdown"
)

// LinkSlot is one of a link object's 3 target slots.
type LinkSlot struct {
	Type SlotType

	// Position fields (SlotPosition).
	TargetPageID string
	Point        PointF

	// URL field (SlotURL).
	URL string

	// Markdown field (SlotMarkdown).
	NoteID string
}

// PointF is a floating-point canvas point, used by position slots so a
// link target survives zoom-independent re-anchoring.
type PointF struct {
	X, Y float64
}

// EmptySlot returns a slot with no target.
func EmptySlot() LinkSlot {
	return LinkSlot{Type: SlotEmpty}
}

// slotJSON is the wire shape: a flat object with a "type" discriminator and
// only the fields relevant to that type populated.
type slotJSON struct {
	Type         SlotType `json:"type"`
	TargetPageID string   `json:"target_page_id,omitempty"`
	X            float64  `json:"x,omitempty"`
	Y            float64  `json:"y,omitempty"`
	URL          string   `json:"url,omitempty"`
	NoteID       string   `json:"note_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s LinkSlot) MarshalJSON() ([]byte, error) {
	w := slotJSON{Type: s.Type}
	switch s.Type {
	case SlotPosition:
		w.TargetPageID = s.TargetPageID
		w.X, w.Y = s.Point.X, s.Point.Y
	case SlotURL:
		w.URL = s.URL
	case SlotMarkdown:
		w.NoteID = s.NoteID
	case SlotEmpty, "":
		w.Type = SlotEmpty
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler, decoding once into a flat
// struct and then dispatching on its "type" discriminator (§4.E, §7:
// malformed entries are the caller's concern — Manager.LoadLinks skips
// them and counts them in LoadResult.Skipped).
func (s *LinkSlot) UnmarshalJSON(data []byte) error {
	var w slotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("object: decode link slot: %w", err)
	}

	switch w.Type {
	case SlotPosition:
		*s = LinkSlot{Type: SlotPosition, TargetPageID: w.TargetPageID, Point: PointF{X: w.X, Y: w.Y}}
	case SlotURL:
		*s = LinkSlot{Type: SlotURL, URL: w.URL}
	case SlotMarkdown:
		*s = LinkSlot{Type: SlotMarkdown, NoteID: w.NoteID}
	case SlotEmpty, "":
		*s = LinkSlot{Type: SlotEmpty}
	default:
		return fmt.Errorf("object: unknown link slot type %q", w.Type)
	}
	return nil
}
