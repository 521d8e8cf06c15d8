// Package pdfprovider abstracts the linked-PDF backend behind a small
// interface so the background provider and page cache never depend on a
// concrete PDF library directly.
//
// See SPEC_FULL.md §6 for the authoritative contract; §4.B is the primary
// consumer (procedural/image/PDF backdrop selection).
package pdfprovider

import "image"

// RenderHints controls how a page is rasterized.
type RenderHints struct {
	// Antialias enables vector antialiasing for page content.
	Antialias bool

	// TextAntialias enables antialiasing specifically for glyph outlines.
	TextAntialias bool
}

// DefaultRenderHints returns the hints used for normal on-screen rendering.
func DefaultRenderHints() RenderHints {
	return RenderHints{Antialias: true, TextAntialias: true}
}

// Size is a page size in PDF points (1/72 inch).
type Size struct {
	W, H float64
}

// Rect is an axis-aligned rectangle in PDF points, origin bottom-left
// (native PDF coordinate space), matching the convention used by the
// library this package wraps.
type Rect struct {
	X, Y, W, H float64
}

// TextBox is one run of extracted text with its page-space bounding box.
type TextBox struct {
	Text string
	Box  Rect
}

// LinkKind distinguishes the two link-annotation targets SPEC_FULL.md
// names (§4.E LinkSlot).
type LinkKind int

const (
	// LinkGoto targets another page within the same document.
	LinkGoto LinkKind = iota

	// LinkURI targets an external URL.
	LinkURI
)

// Link is one link annotation found on a page.
type Link struct {
	Kind   LinkKind
	Area   Rect
	Target int    // destination page index, LinkGoto only
	URI    string // LinkURI only
}

// Page is a single page of a loaded document.
type Page interface {
	// SizeInPoints returns the page's MediaBox size.
	SizeInPoints() (Size, error)

	// RenderToImage rasterizes the page at the given DPI.
	RenderToImage(dpi float64, hints RenderHints) (*image.NRGBA, error)

	// TextBoxes returns the page's extractable text runs, used for the
	// click-and-drag text selection over a linked PDF (§4.G).
	TextBoxes() ([]TextBox, error)

	// Links returns the page's link annotations.
	Links() ([]Link, error)
}

// Document is a loaded PDF, open for the lifetime of the linked document.
type Document interface {
	PageCount() int
	Page(index int) (Page, error)
	Close() error
}

// Provider loads PDF documents. CpuProvider is the production
// implementation; FakeProvider is an in-memory test fixture.
type Provider interface {
	Load(path string) (Document, error)
}
