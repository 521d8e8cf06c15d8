package persistence

import (
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/signintech/gopdf"
)

// AssemblePDF embeds a sequence of already-rendered annotated page PNGs into
// a single multi-page PDF file, one page per image, sized in points from
// each image's pixel dimensions at dpi. This is the last step of "export to
// PDF": ExportAnnotatedPage produces the flat PNGs, AssemblePDF bundles them
// into the single file a notebook's PDF export menu item hands back.
func AssemblePDF(pagePaths []string, dpi float64, outputPath string) error {
	if len(pagePaths) == 0 {
		return fmt.Errorf("persistence: no pages to assemble")
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: 1, H: 1}})

	for _, path := range pagePaths {
		w, h, err := pngPixelSize(path)
		if err != nil {
			return fmt.Errorf("persistence: read %s: %w", path, err)
		}

		pageSize := gopdf.Rect{
			W: float64(w) * 72.0 / dpi,
			H: float64(h) * 72.0 / dpi,
		}
		pdf.AddPageWithOption(gopdf.PageOption{PageSize: &pageSize})
		if err := pdf.Image(path, 0, 0, &pageSize); err != nil {
			return fmt.Errorf("persistence: embed %s: %w", path, err)
		}
	}

	if err := pdf.WritePdf(outputPath); err != nil {
		return fmt.Errorf("persistence: write %s: %w", outputPath, err)
	}
	return nil
}

func pngPixelSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
