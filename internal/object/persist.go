package object

import (
	"encoding/json"
	"fmt"
	"image"
)

// pictureRecord and linkRecord are the JSON sidecar shapes (§4.E, §4.H file
// layout: "{docId}_pictures_{N:05}.json" / "{docId}_markdown_{N:05}.json").
// The spec calls the link sidecar "_markdown_" historically but it carries
// all link objects, slots included.

type pictureRecord struct {
	ID             string `json:"id"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
	W              int    `json:"w"`
	H              int    `json:"h"`
	MaintainAspect bool   `json:"maintain_aspect"`
	ImagePath      string `json:"image_path"`
}

type linkRecord struct {
	ID          string     `json:"id"`
	X           int        `json:"x"`
	Y           int        `json:"y"`
	W           int        `json:"w"`
	H           int        `json:"h"`
	Description string     `json:"description"`
	IconColor   string     `json:"icon_color"`
	Slots       []LinkSlot `json:"slots"`
}

// MarshalPictures serializes the manager's picture objects for the page
// sidecar.
func (m *Manager) MarshalPictures() ([]byte, error) {
	var records []pictureRecord
	for _, o := range m.Objects {
		if o.Kind != KindPicture {
			continue
		}
		records = append(records, pictureRecord{
			ID: o.ID, X: o.Rect.Min.X, Y: o.Rect.Min.Y,
			W: o.Rect.Dx(), H: o.Rect.Dy(),
			MaintainAspect: o.MaintainAspect, ImagePath: o.ImagePath,
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// MarshalLinks serializes the manager's link objects for the page sidecar.
func (m *Manager) MarshalLinks() ([]byte, error) {
	var records []linkRecord
	for _, o := range m.Objects {
		if o.Kind != KindLink {
			continue
		}
		records = append(records, linkRecord{
			ID: o.ID, X: o.Rect.Min.X, Y: o.Rect.Min.Y,
			W: o.Rect.Dx(), H: o.Rect.Dy(),
			Description: o.Description, IconColor: o.IconColor,
			Slots: o.Slots[:],
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// LoadResult reports how many objects loaded and how many malformed entries
// were skipped (§7: "Malformed object JSON... Skip the malformed object;
// log; continue loading others").
type LoadResult struct {
	Loaded  int
	Skipped int
}

// LoadPictures parses a picture sidecar and appends valid entries to m.
func (m *Manager) LoadPictures(data []byte) (LoadResult, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return LoadResult{}, fmt.Errorf("object: decode picture sidecar: %w", err)
	}

	var result LoadResult
	for _, entry := range raw {
		var rec pictureRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			result.Skipped++
			continue
		}
		m.Objects = append(m.Objects, &Object{
			ID:             rec.ID,
			Kind:           KindPicture,
			Rect:           image.Rect(rec.X, rec.Y, rec.X+rec.W, rec.Y+rec.H),
			MaintainAspect: rec.MaintainAspect,
			aspectRatio:    aspectOf(rec.W, rec.H),
			ImagePath:      rec.ImagePath,
		})
		result.Loaded++
	}
	return result, nil
}

// LoadLinks parses a link sidecar and appends valid entries to m.
func (m *Manager) LoadLinks(data []byte) (LoadResult, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return LoadResult{}, fmt.Errorf("object: decode link sidecar: %w", err)
	}

	var result LoadResult
	for _, entry := range raw {
		var rec linkRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			result.Skipped++
			continue
		}
		o := &Object{
			ID:          rec.ID,
			Kind:        KindLink,
			Rect:        image.Rect(rec.X, rec.Y, rec.X+rec.W, rec.Y+rec.H),
			Description: rec.Description,
			IconColor:   rec.IconColor,
		}
		for i := 0; i < 3 && i < len(rec.Slots); i++ {
			o.Slots[i] = rec.Slots[i]
		}
		m.Objects = append(m.Objects, o)
		result.Loaded++
	}
	return result, nil
}

func aspectOf(w, h int) float64 {
	if h == 0 {
		return 0
	}
	return float64(w) / float64(h)
}
