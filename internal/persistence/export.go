package persistence

import (
	"fmt"
	"image"
	"image/draw"
	"path/filepath"

	"github.com/speedynote/speedynote-core/internal/background"
	"github.com/speedynote/speedynote-core/internal/document"
)

// AnnotatedFileName returns the 1-based, zero-padded export file name for
// page N of a notebook (§4.H: "annotated PDF export naming and 1-based
// page numbers"), grounded on InkCanvas.cpp's saveAnnotated:
// "annotated_%1_page_%2.png".arg(notebookId).arg(pageNumber+1, 3, ...).
func AnnotatedFileName(notebookID string, pageIndex int) string {
	return fmt.Sprintf("annotated_%s_page_%03d.png", notebookID, pageIndex+1)
}

// ExportAnnotatedPage composites backdrop (PDF render, custom image, or
// procedural fill — whichever is non-nil, checked in that priority
// order, matching saveAnnotated's "PDF background if available, else
// notebook background") with the stroke buffer on top, and saves the
// result to targetDir/AnnotatedFileName(notebookID, pageIndex).
func ExportAnnotatedPage(targetDir, notebookID string, pageIndex int, strokes *image.NRGBA, pdfBackdrop, customBackdrop image.Image, proceduralBG document.Background) (string, error) {
	size := strokes.Bounds().Size()
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	switch {
	case pdfBackdrop != nil:
		background.DrawImage(out, pdfBackdrop)
	case customBackdrop != nil:
		background.DrawImage(out, customBackdrop)
	default:
		background.DrawProcedural(out, proceduralBG)
	}

	draw.Draw(out, out.Bounds(), strokes, image.Point{}, draw.Over)

	path := filepath.Join(targetDir, AnnotatedFileName(notebookID, pageIndex))
	if err := savePNG(path, out); err != nil {
		return "", err
	}
	return path, nil
}
