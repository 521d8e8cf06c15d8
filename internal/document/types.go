// Package document defines the canvas engine's document model: the two-mode
// (paged/edgeless) document, its pages and tiles, and their lifecycle.
//
// See spec.md §3 for the authoritative data model this package implements.
package document

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/google/uuid"
)

// Mode selects between the two document variants (§3).
type Mode int

const (
	// ModePaged is a finite ordered sequence of fixed-size pages.
	ModePaged Mode = iota

	// ModeEdgeless is an infinite 2-D plane of uniformly-sized tiles.
	ModeEdgeless
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePaged:
		return "paged"
	case ModeEdgeless:
		return "edgeless"
	default:
		return "unknown"
	}
}

// BackgroundStyle is the procedural backdrop style (§4.B).
type BackgroundStyle int

const (
	// BackgroundNone is just the fill color.
	BackgroundNone BackgroundStyle = iota

	// BackgroundLines draws horizontal rules every Spacing pixels.
	BackgroundLines

	// BackgroundGrid draws horizontal and vertical rules every Spacing pixels.
	BackgroundGrid
)

// Background describes the procedural backdrop (§3).
type Background struct {
	Style   BackgroundStyle
	Color   color.NRGBA
	Spacing int
}

// DefaultBackground returns the default procedural backdrop: a white, blank page.
func DefaultBackground() Background {
	return Background{
		Style:   BackgroundNone,
		Color:   color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Spacing: 40,
	}
}

// Bookmark is a named reference to a page or location within the document.
type Bookmark struct {
	ID    string
	Label string
}

// TileCoord identifies a tile in edgeless mode by integer grid coordinates.
type TileCoord struct {
	X, Y int
}

// EdgelessTileSize is the fixed raster size of every tile (§3).
const EdgelessTileSize = 1024

// Document is the unit of save/load (§3).
type Document struct {
	// ID is a random, stable 128-bit identifier.
	ID uuid.UUID

	// BundlePath is the directory this document is persisted to.
	BundlePath string

	// LinkedPDFPath is the optional absolute or bundle-relative path to a linked PDF.
	LinkedPDFPath string

	// Background is the procedural backdrop descriptor.
	Background Background

	// Bookmarks is the ordered list of named references.
	Bookmarks []Bookmark

	// LastAccessedPage is the page index (paged mode) most recently viewed.
	LastAccessedPage int

	// Mode selects paged vs edgeless.
	Mode Mode

	// Pages holds per-page state, paged mode only, indexed by page index.
	Pages []*Page

	// Tiles holds per-tile state, edgeless mode only, keyed by grid coordinate.
	Tiles map[TileCoord]*Tile

	// ModifiedAt is the last-modified timestamp. New sets it and Touch
	// refreshes it; marking a page or tile dirty does not update it.
	ModifiedAt time.Time
}

// New creates a new, empty document with a random ID.
func New(bundlePath string, mode Mode) *Document {
	return &Document{
		ID:               uuid.New(),
		BundlePath:       bundlePath,
		Background:       DefaultBackground(),
		Bookmarks:        []Bookmark{},
		LastAccessedPage: 0,
		Mode:             mode,
		Pages:            nil,
		Tiles:            make(map[TileCoord]*Tile),
		ModifiedAt:       time.Now(),
	}
}

// FingerprintID returns the stable page fingerprint: "{docID}_{index:05}".
func (d *Document) FingerprintID(pageIndex int) string {
	return fingerprint(d.ID, pageIndex)
}

// Touch refreshes the document's modified timestamp.
func (d *Document) Touch() {
	d.ModifiedAt = time.Now()
}

// AddBookmark appends a bookmark if no bookmark with the same ID exists.
func (d *Document) AddBookmark(id, label string) {
	for i, b := range d.Bookmarks {
		if b.ID == id {
			d.Bookmarks[i].Label = label
			return
		}
	}
	d.Bookmarks = append(d.Bookmarks, Bookmark{ID: id, Label: label})
}

// RemoveBookmark removes the bookmark with the given ID, if present.
func (d *Document) RemoveBookmark(id string) {
	out := d.Bookmarks[:0]
	for _, b := range d.Bookmarks {
		if b.ID != id {
			out = append(out, b)
		}
	}
	d.Bookmarks = out
}

// Page returns the page at index, growing Pages as needed, lazily
// initializing any newly-created page as transparent (§3 lifecycle).
func (d *Document) Page(index int, size image.Point) *Page {
	for len(d.Pages) <= index {
		idx := len(d.Pages)
		d.Pages = append(d.Pages, NewPage(idx, size))
	}
	return d.Pages[index]
}

// PageCount returns the number of pages currently known (paged mode).
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Tile returns the tile at coord, allocating it lazily on first access (§3).
func (d *Document) Tile(coord TileCoord) *Tile {
	if t, ok := d.Tiles[coord]; ok {
		return t
	}
	t := NewTile(coord)
	d.Tiles[coord] = t
	return t
}

// Page represents one fixed-size page in paged mode (§3).
type Page struct {
	// Index is this page's zero-based position.
	Index int

	// Buffer holds user strokes and rasterized objects only — never the backdrop.
	Buffer *image.NRGBA

	// Dirty is true when Buffer has unsaved content.
	Dirty bool
}

// NewPage creates a page with a transparent buffer of the given size.
func NewPage(index int, size image.Point) *Page {
	return &Page{
		Index:  index,
		Buffer: image.NewNRGBA(image.Rect(0, 0, size.X, size.Y)),
		Dirty:  false,
	}
}

// MarkDirty flips the dirty flag (§3 invariant 2: any write flips the flag).
func (p *Page) MarkDirty() {
	p.Dirty = true
}

// ClearDirty clears the dirty flag, e.g. after a successful save.
func (p *Page) ClearDirty() {
	p.Dirty = false
}

// Tile represents one fixed-size raster in edgeless mode (§3).
type Tile struct {
	Coord  TileCoord
	Buffer *image.NRGBA
	Dirty  bool
}

// NewTile creates a tile with a transparent EdgelessTileSize×EdgelessTileSize buffer.
func NewTile(coord TileCoord) *Tile {
	return &Tile{
		Coord:  coord,
		Buffer: image.NewNRGBA(image.Rect(0, 0, EdgelessTileSize, EdgelessTileSize)),
		Dirty:  false,
	}
}

// MarkDirty flips the dirty flag.
func (t *Tile) MarkDirty() {
	t.Dirty = true
}

// ClearDirty clears the dirty flag.
func (t *Tile) ClearDirty() {
	t.Dirty = false
}

func fingerprint(id uuid.UUID, pageIndex int) string {
	return fmt.Sprintf("%s_%05d", id.String(), pageIndex)
}
