package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/speedynote/speedynote-core/internal/canvas"
	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/pdfprovider"
	"github.com/speedynote/speedynote-core/internal/persistence"
	"github.com/speedynote/speedynote-core/internal/stroke"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <bundle-dir> <page>",
	Short: "Render one page (backdrop + strokes) to a flat PNG",
	Args:  cobra.ExactArgs(2),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output PNG path (default: <bundle>/render_<page>.png)")
}

func runRender(_ *cobra.Command, args []string) error {
	bundlePath := args[0]
	page, err := parsePageArg(args[1])
	if err != nil {
		return err
	}

	doc := document.New(bundlePath, document.ModePaged)
	if err := persistence.LoadMetadata(bundlePath, doc); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	provider := pdfprovider.NewCpuProvider()
	eng := canvas.New(doc, bundlePath, provider, defaultViewport(), nil, engineOptions())
	if err := eng.LoadPage(context.Background(), page); err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}

	rendered, err := eng.RenderCurrentPage(context.Background())
	if err != nil {
		return fmt.Errorf("render page %d: %w", page, err)
	}

	out := renderOut
	if out == "" {
		out = fmt.Sprintf("%s/render_%03d.png", bundlePath, page)
	}
	if err := writePNG(out, rendered); err != nil {
		return err
	}

	fmt.Printf("Rendered page %d of %s to %s\n", page, bundlePath, out)
	return nil
}

func defaultViewport() image.Point {
	dpi := int(exportRenderDPI())
	// A US-Letter page at the configured DPI, matching background.RenderPDFPage's
	// convention of DPI-scaled pixel dimensions.
	return image.Point{X: dpi * 850 / 100, Y: dpi * 1100 / 100}
}

// exportRenderDPI returns the configured PDF render resolution, the unit
// persistence.AssemblePDF and background.RenderPDFPage expect.
func exportRenderDPI() float64 {
	if appConfig == nil {
		return 192
	}
	return float64(appConfig.RenderDPI)
}

// engineOptions translates appConfig into canvas.Options, the shape
// Engine actually reads at construction time.
func engineOptions() *canvas.Options {
	if appConfig == nil {
		return canvas.DefaultOptions()
	}
	return &canvas.Options{
		RenderDPI:        float64(appConfig.RenderDPI),
		CacheCapacity:    appConfig.CacheCapacity,
		PrefetchDebounce: appConfig.PrefetchDebounce,
		Thicknesses: stroke.Thicknesses{
			Pen:    appConfig.DefaultThickness.Pen,
			Marker: appConfig.DefaultThickness.Marker,
			Eraser: appConfig.DefaultThickness.Eraser,
		},
	}
}

func parsePageArg(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid page index %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("page index must be >= 0, got %d", n)
	}
	return n, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
