package pdfprovider

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	xdraw "golang.org/x/image/draw"
)

// CpuProvider loads PDFs with pdfcpu for structure (page count, MediaBox,
// link annotations) and fitz (MuPDF bindings) for content: page rasterization
// and text extraction. pdfcpu alone never sees inside a content stream, so
// rendering and text boxes are delegated to fitz, which wraps a real PDF
// interpreter; pdfcpu keeps doing what it's good at, the page-tree and
// annotation walk below.
type CpuProvider struct{}

// NewCpuProvider returns the pdfcpu+fitz-backed Provider.
func NewCpuProvider() *CpuProvider {
	return &CpuProvider{}
}

func (p *CpuProvider) Load(path string) (Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfprovider: read %s: %w", path, err)
	}
	return &cpuDocument{ctx: ctx, path: path}, nil
}

type cpuDocument struct {
	ctx  *model.Context
	path string

	mu   sync.Mutex
	fitz *fitz.Document
}

func (d *cpuDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *cpuDocument) Page(index int) (Page, error) {
	if index < 0 || index >= d.ctx.PageCount {
		return nil, fmt.Errorf("pdfprovider: page index %d out of range [0,%d)", index, d.ctx.PageCount)
	}
	// pdfcpu's PageDict is 1-based.
	pageDict, _, inherited, err := d.ctx.PageDict(index+1, false)
	if err != nil {
		return nil, fmt.Errorf("pdfprovider: page dict %d: %w", index, err)
	}
	if pageDict == nil {
		return nil, fmt.Errorf("pdfprovider: page dict %d is nil", index)
	}
	return &cpuPage{doc: d, ctx: d.ctx, dict: pageDict, inherited: inherited, index: index}, nil
}

// fitzDoc lazily opens the fitz-backed rasterizer for this document. It is
// shared by every page so the native document is opened at most once.
func (d *cpuDocument) fitzDoc() (*fitz.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fitz != nil {
		return d.fitz, nil
	}
	f, err := fitz.New(d.path)
	if err != nil {
		return nil, fmt.Errorf("pdfprovider: open %s for rendering: %w", d.path, err)
	}
	d.fitz = f
	return f, nil
}

func (d *cpuDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fitz == nil {
		return nil
	}
	err := d.fitz.Close()
	d.fitz = nil
	return err
}

type cpuPage struct {
	doc       *cpuDocument
	ctx       *model.Context
	dict      types.Dict
	inherited *model.InheritedPageAttrs
	index     int
}

func (p *cpuPage) SizeInPoints() (Size, error) {
	if p.inherited == nil || p.inherited.MediaBox == nil {
		return Size{}, fmt.Errorf("pdfprovider: page has no media box")
	}
	return Size{W: p.inherited.MediaBox.Width(), H: p.inherited.MediaBox.Height()}, nil
}

// pixelSize returns the target raster size for dpi, derived from pdfcpu's
// MediaBox rather than fitz's own bounds so a fitz open failure and the
// blank fallback agree on dimensions.
func (p *cpuPage) pixelSize(dpi float64) (image.Rectangle, error) {
	size, err := p.SizeInPoints()
	if err != nil {
		return image.Rectangle{}, err
	}
	w := int(size.W * dpi / 72.0)
	h := int(size.H * dpi / 72.0)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("pdfprovider: invalid rendered size %dx%d", w, h)
	}
	return image.Rect(0, 0, w, h), nil
}

// RenderToImage rasterizes the page with fitz. When hints.Antialias is set,
// fitz renders at twice the requested DPI and the result is downsampled with
// draw.CatmullRom, matching how on-screen backdrops ask for smoother edges
// than the default nearest-neighbor fit. A document that fails to open under
// fitz (native library missing, corrupt file) falls back to a blank page at
// the correct size rather than failing the whole render.
func (p *cpuPage) RenderToImage(dpi float64, hints RenderHints) (*image.NRGBA, error) {
	target, err := p.pixelSize(dpi)
	if err != nil {
		return nil, err
	}

	f, err := p.doc.fitzDoc()
	if err != nil {
		return p.blankFallback(target)
	}

	renderDPI := dpi
	if hints.Antialias {
		renderDPI = dpi * 2
	}
	src, err := f.ImageDPI(p.index, renderDPI)
	if err != nil {
		return p.blankFallback(target)
	}

	out := image.NewNRGBA(target)
	scaler := xdraw.NearestNeighbor
	if hints.Antialias {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(out, target, src, src.Bounds(), draw.Over, nil)
	return out, nil
}

func (p *cpuPage) blankFallback(target image.Rectangle) (*image.NRGBA, error) {
	img := image.NewNRGBA(target)
	white := &image.Uniform{C: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}
	draw.Draw(img, target, white, image.Point{}, draw.Src)
	return img, nil
}

// TextBoxes extracts the page's plain text through fitz and lays it out as
// one approximate bounding box per line, evenly spaced across the page
// height. fitz exposes full glyph-level layout only as HTML; this provider
// doesn't parse that, so selection boxes are line-granular rather than
// word-granular. Good enough to drive the click-and-drag text selection this
// interface exists for; callers that need exact glyph boxes in tests should
// use FakeProvider.
func (p *cpuPage) TextBoxes() ([]TextBox, error) {
	f, err := p.doc.fitzDoc()
	if err != nil {
		return nil, nil
	}
	content, err := f.Text(p.index)
	if err != nil {
		return nil, fmt.Errorf("pdfprovider: extract text for page %d: %w", p.index, err)
	}
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil, nil
	}

	size, err := p.SizeInPoints()
	if err != nil {
		return nil, err
	}

	lines := strings.Split(content, "\n")
	lineHeight := size.H / float64(len(lines))
	var boxes []TextBox
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		top := size.H - float64(i)*lineHeight
		boxes = append(boxes, TextBox{
			Text: line,
			Box:  Rect{X: 0, Y: top - lineHeight, W: size.W, H: lineHeight},
		})
	}
	return boxes, nil
}

func (p *cpuPage) Links() ([]Link, error) {
	annotsObj, found := p.dict.Find("Annots")
	if !found {
		return nil, nil
	}
	annotsArr, err := derefArray(p.ctx, annotsObj)
	if err != nil {
		return nil, nil
	}

	var links []Link
	for _, obj := range annotsArr {
		annotDict, err := p.ctx.XRefTable.DereferenceDict(obj)
		if err != nil || annotDict == nil {
			continue
		}
		if subtype := annotDict.NameEntry("Subtype"); subtype == nil || *subtype != "Link" {
			continue
		}

		rect, err := annotDict.ArrayEntry("Rect")
		if err != nil || len(rect) != 4 {
			continue
		}
		area := rectFromArray(rect)

		if dest, ok := annotDict.Find("Dest"); ok {
			if page, ok := destPageIndex(p.ctx, dest); ok {
				links = append(links, Link{Kind: LinkGoto, Area: area, Target: page})
				continue
			}
		}

		actionDict, err := p.ctx.XRefTable.DereferenceDict(annotDict["A"])
		if err == nil && actionDict != nil {
			if s := actionDict.NameEntry("S"); s != nil && *s == "URI" {
				if uri := actionDict.StringEntry("URI"); uri != nil {
					links = append(links, Link{Kind: LinkURI, Area: area, URI: *uri})
					continue
				}
			}
			if dest, ok := actionDict.Find("D"); ok {
				if page, ok := destPageIndex(p.ctx, dest); ok {
					links = append(links, Link{Kind: LinkGoto, Area: area, Target: page})
				}
			}
		}
	}
	return links, nil
}

func derefArray(ctx *model.Context, obj types.Object) (types.Array, error) {
	deref, err := ctx.XRefTable.Dereference(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := deref.(types.Array)
	if !ok {
		return nil, fmt.Errorf("pdfprovider: Annots is not an array")
	}
	return arr, nil
}

func rectFromArray(arr types.Array) Rect {
	vals := make([]float64, 4)
	for i, o := range arr {
		switch v := o.(type) {
		case types.Float:
			vals[i] = v.Value()
		case types.Integer:
			vals[i] = float64(v.Value())
		}
	}
	x0, y0, x1, y1 := vals[0], vals[1], vals[2], vals[3]
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// destPageIndex resolves a /Dest entry (array or named destination) to a
// zero-based page index.
func destPageIndex(ctx *model.Context, dest types.Object) (int, bool) {
	deref, err := ctx.XRefTable.Dereference(dest)
	if err != nil {
		return 0, false
	}
	arr, ok := deref.(types.Array)
	if !ok || len(arr) == 0 {
		return 0, false
	}
	ir, ok := arr[0].(types.IndirectRef)
	if !ok {
		return 0, false
	}
	pageNr, err := ctx.XRefTable.PageNumber(ir.ObjectNumber.Value())
	if err != nil {
		return 0, false
	}
	return pageNr - 1, true
}
