package main

import (
	"context"
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/speedynote/speedynote-core/internal/background"
	"github.com/speedynote/speedynote-core/internal/canvas"
	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/pdfprovider"
	"github.com/speedynote/speedynote-core/internal/persistence"
)

var (
	exportDir string
	exportPDF string
)

var exportCmd = &cobra.Command{
	Use:   "export <bundle-dir>",
	Short: "Export every page as an annotated PNG (backdrop plus strokes)",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "out", "", "output directory (default: <bundle-dir>)")
	exportCmd.Flags().StringVar(&exportPDF, "pdf", "", "also assemble the exported pages into a single PDF at this path")
}

func runExport(_ *cobra.Command, args []string) error {
	bundlePath := args[0]
	outDir := exportDir
	if outDir == "" {
		outDir = bundlePath
	}

	doc := document.New(bundlePath, document.ModePaged)
	if err := persistence.LoadMetadata(bundlePath, doc); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	provider := pdfprovider.NewCpuProvider()
	eng := canvas.New(doc, bundlePath, provider, defaultViewport(), nil, engineOptions())

	pageCount := doc.PageCount()
	if pageCount == 0 {
		pageCount = 1
	}

	var pagePaths []string
	for n := 0; n < pageCount; n++ {
		if err := eng.LoadPage(context.Background(), n); err != nil {
			return fmt.Errorf("load page %d: %w", n, err)
		}

		path, err := persistence.ExportAnnotatedPage(outDir, doc.ID.String(), n, eng.CurrentBuffer(), pdfBackdropFor(eng, doc, n), nil, doc.Background)
		if err != nil {
			return fmt.Errorf("export page %d: %w", n, err)
		}
		fmt.Println(path)
		pagePaths = append(pagePaths, path)
	}

	if exportPDF != "" {
		if err := persistence.AssemblePDF(pagePaths, exportRenderDPI(), exportPDF); err != nil {
			return fmt.Errorf("assemble pdf: %w", err)
		}
		fmt.Println(exportPDF)
	}
	return nil
}

// pdfBackdropFor returns page n's rendered PDF backdrop, or nil if the
// bundle has no linked PDF or rendering it fails (export then falls
// back to the procedural background, matching ExportAnnotatedPage's
// backdrop priority).
func pdfBackdropFor(eng *canvas.Engine, doc *document.Document, page int) image.Image {
	if doc.LinkedPDFPath == "" {
		return nil
	}
	img, err := background.RenderPDFPage(eng.PDFProvider, doc.LinkedPDFPath, page, exportRenderDPI())
	if err != nil {
		return nil
	}
	return img
}
