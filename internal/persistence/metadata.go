// Package persistence reads and writes document bundles: the
// notebook-wide metadata JSON, per-page stroke/background PNGs, and
// annotated-page PDF-style export.
//
// See SPEC_FULL.md §4.H. Grounded on
// original_source/source/InkCanvas.cpp's saveNotebookMetadata /
// loadNotebookMetadata / migrateOldMetadataFiles and the teacher's
// atomic-directory-creation idiom in config.Config.Validate.
package persistence

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/speedynote/speedynote-core/internal/document"
)

// MetadataFileName is the bundle's single JSON metadata file (§4.H file
// layout table).
const MetadataFileName = ".speedynote_metadata.json"

// MetadataVersion is written into every metadata file this package produces.
const MetadataVersion = "1.0"

// metadataJSON is the on-disk shape, matching the original's QJsonObject
// keys field-for-field so bundles stay interchangeable.
type metadataJSON struct {
	NotebookID         string   `json:"notebook_id"`
	PDFPath            string   `json:"pdf_path"`
	LastAccessedPage   int      `json:"last_accessed_page"`
	Version            string   `json:"version"`
	LastModified       string   `json:"last_modified"`
	BackgroundStyle    string   `json:"background_style"`
	BackgroundColor    string   `json:"background_color"`
	BackgroundDensity  int      `json:"background_density"`
	Bookmarks          []string `json:"bookmarks"`
}

// SaveMetadata atomically writes doc's metadata to bundlePath's
// MetadataFileName via temp-file-plus-rename (§4.H, grounded on
// config.Config.Validate's defensive directory creation, generalized
// here to the write itself being atomic).
func SaveMetadata(bundlePath string, doc *document.Document) error {
	if err := os.MkdirAll(bundlePath, 0755); err != nil {
		return fmt.Errorf("persistence: create bundle directory %s: %w", bundlePath, err)
	}

	m := metadataJSON{
		NotebookID:        doc.ID.String(),
		PDFPath:           doc.LinkedPDFPath,
		LastAccessedPage:  doc.LastAccessedPage,
		Version:           MetadataVersion,
		LastModified:      time.Now().Format(time.RFC3339),
		BackgroundStyle:   backgroundStyleName(doc.Background.Style),
		BackgroundColor:   colorToHex(doc.Background.Color),
		BackgroundDensity: doc.Background.Spacing,
		Bookmarks:         bookmarkLabels(doc.Bookmarks),
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal metadata: %w", err)
	}

	return writeFileAtomic(filepath.Join(bundlePath, MetadataFileName), data)
}

// LoadMetadata reads bundlePath's metadata JSON into doc, migrating
// legacy flat files first if the JSON doesn't exist yet (§4.H: idempotent
// legacy-to-JSON migration). A brand-new bundle with no metadata of
// either kind is left untouched — the caller already has a fresh
// document.Document with a freshly generated ID.
func LoadMetadata(bundlePath string, doc *document.Document) error {
	metaPath := filepath.Join(bundlePath, MetadataFileName)
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		if hasLegacyFiles(bundlePath) {
			if err := migrateLegacyMetadata(bundlePath, doc); err != nil {
				return err
			}
			return SaveMetadata(bundlePath, doc)
		}
		return nil
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("persistence: read metadata: %w", err)
	}

	var m metadataJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("persistence: parse metadata: %w", err)
	}

	applyMetadata(doc, m)
	return nil
}

func applyMetadata(doc *document.Document, m metadataJSON) {
	doc.LinkedPDFPath = m.PDFPath
	doc.LastAccessedPage = m.LastAccessedPage
	doc.Background.Style = backgroundStyleFromName(m.BackgroundStyle)
	doc.Background.Color = colorFromHex(m.BackgroundColor)
	if m.BackgroundDensity > 0 {
		doc.Background.Spacing = m.BackgroundDensity
	}
	doc.Bookmarks = doc.Bookmarks[:0]
	for i, label := range m.Bookmarks {
		doc.AddBookmark(fmt.Sprintf("bookmark-%d", i), label)
	}
}

func backgroundStyleName(s document.BackgroundStyle) string {
	switch s {
	case document.BackgroundGrid:
		return "Grid"
	case document.BackgroundLines:
		return "Lines"
	default:
		return "None"
	}
}

func backgroundStyleFromName(s string) document.BackgroundStyle {
	switch s {
	case "Grid":
		return document.BackgroundGrid
	case "Lines":
		return document.BackgroundLines
	default:
		return document.BackgroundNone
	}
}

func colorToHex(c color.NRGBA) string {
	if c.R == 0 && c.G == 0 && c.B == 0 && c.A == 0 {
		return "#ffffff"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func colorFromHex(s string) color.NRGBA {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

func bookmarkLabels(bookmarks []document.Bookmark) []string {
	labels := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		labels[i] = b.Label
	}
	return labels
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by os.Rename, so a crash mid-write never leaves a
// truncated metadata file behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("persistence: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persistence: rename temp file into place: %w", err)
	}
	return nil
}
