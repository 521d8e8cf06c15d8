package pdfprovider

import (
	"fmt"
	"image"
	"image/color"
)

// FakeProvider is an in-memory Provider fixture for tests that exercise the
// background provider and page cache without parsing a real PDF. Pages are
// registered by path before Load is called.
type FakeProvider struct {
	docs map[string]*FakeDocument
}

// NewFakeProvider returns an empty fixture. Use Register to seed documents.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{docs: make(map[string]*FakeDocument)}
}

// Register associates path with doc so a later Load(path) returns it.
func (f *FakeProvider) Register(path string, doc *FakeDocument) {
	f.docs[path] = doc
}

// Load implements Provider.
func (f *FakeProvider) Load(path string) (Document, error) {
	doc, ok := f.docs[path]
	if !ok {
		return nil, fmt.Errorf("pdfprovider: fake document not registered: %s", path)
	}
	return doc, nil
}

// FakeDocument is a fixed list of fake pages.
type FakeDocument struct {
	Pages  []*FakePage
	closed bool
}

// NewFakeDocument builds a document of n blank pages, each sized per size.
func NewFakeDocument(n int, size Size) *FakeDocument {
	pages := make([]*FakePage, n)
	for i := range pages {
		pages[i] = &FakePage{Size: size}
	}
	return &FakeDocument{Pages: pages}
}

func (d *FakeDocument) PageCount() int { return len(d.Pages) }

func (d *FakeDocument) Page(index int) (Page, error) {
	if index < 0 || index >= len(d.Pages) {
		return nil, fmt.Errorf("pdfprovider: page index %d out of range [0,%d)", index, len(d.Pages))
	}
	return d.Pages[index], nil
}

func (d *FakeDocument) Close() error {
	d.closed = true
	return nil
}

// FakePage is a page fixture with canned text/link/fill data.
type FakePage struct {
	Size      Size
	Fill      color.NRGBA
	Boxes     []TextBox
	PageLinks []Link
}

func (p *FakePage) SizeInPoints() (Size, error) {
	return p.Size, nil
}

func (p *FakePage) RenderToImage(dpi float64, hints RenderHints) (*image.NRGBA, error) {
	w := int(p.Size.W * dpi / 72.0)
	h := int(p.Size.H * dpi / 72.0)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("pdfprovider: invalid rendered size %dx%d", w, h)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill := p.Fill
	if fill == (color.NRGBA{}) {
		fill = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	return img, nil
}

func (p *FakePage) TextBoxes() ([]TextBox, error) { return p.Boxes, nil }

func (p *FakePage) Links() ([]Link, error) { return p.PageLinks, nil }
