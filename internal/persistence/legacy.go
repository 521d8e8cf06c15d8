package persistence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/speedynote/speedynote-core/internal/document"
)

// Legacy flat-file names migrated into the unified JSON metadata file,
// grounded on InkCanvas.cpp's migrateOldMetadataFiles.
const (
	legacyIDFile         = ".notebook_id.txt"
	legacyPDFPathFile    = ".pdf_path.txt"
	legacyBackgroundFile = ".background_config.txt"
	legacyBookmarksFile  = ".bookmarks.txt"
)

func hasLegacyFiles(bundlePath string) bool {
	for _, name := range []string{legacyIDFile, legacyPDFPathFile, legacyBackgroundFile, legacyBookmarksFile} {
		if _, err := os.Stat(filepath.Join(bundlePath, name)); err == nil {
			return true
		}
	}
	return false
}

// migrateLegacyMetadata reads whichever legacy flat files are present
// into doc, preserving an existing notebook ID (InkCanvas.cpp: "CRITICAL:
// Always load existing notebook ID first to preserve file naming
// consistency"). It does not write the JSON file itself or delete the
// legacy files — the caller writes JSON first and only then may remove
// them, keeping migration idempotent and safe to retry after a crash.
func migrateLegacyMetadata(bundlePath string, doc *document.Document) error {
	if id, ok := readTrimmedFile(filepath.Join(bundlePath, legacyIDFile)); ok && id != "" {
		if parsed, err := parseUUIDLoose(id); err == nil {
			doc.ID = parsed
		}
	}

	if pdfPath, ok := readTrimmedFile(filepath.Join(bundlePath, legacyPDFPathFile)); ok {
		doc.LinkedPDFPath = pdfPath
	}

	if lines, ok := readLines(filepath.Join(bundlePath, legacyBackgroundFile)); ok {
		for _, line := range lines {
			switch {
			case strings.HasPrefix(line, "style="):
				doc.Background.Style = backgroundStyleFromName(strings.TrimPrefix(line, "style="))
			case strings.HasPrefix(line, "color="):
				doc.Background.Color = colorFromHex(strings.TrimPrefix(line, "color="))
			case strings.HasPrefix(line, "density="):
				if n, err := strconv.Atoi(strings.TrimPrefix(line, "density=")); err == nil {
					doc.Background.Spacing = n
				}
			}
		}
	}

	doc.Bookmarks = doc.Bookmarks[:0]
	if lines, ok := readLines(filepath.Join(bundlePath, legacyBookmarksFile)); ok {
		for i, line := range lines {
			if line != "" {
				doc.AddBookmark(strconv.Itoa(i), line)
			}
		}
	}

	doc.LastAccessedPage = 0
	return nil
}

// RemoveLegacyFiles deletes the flat legacy files after a successful
// JSON migration (§4.H: "JSON-write-before-legacy-delete"). Errors
// removing an individual file are ignored — a leftover legacy file is
// harmless once the JSON metadata exists, since LoadMetadata only
// consults legacy files when the JSON is absent.
func RemoveLegacyFiles(bundlePath string) {
	for _, name := range []string{legacyIDFile, legacyPDFPathFile, legacyBackgroundFile, legacyBookmarksFile} {
		_ = os.Remove(filepath.Join(bundlePath, name))
	}
}

// parseUUIDLoose parses a notebook ID that may be either a standard
// dashed UUID or the legacy dashless 32-hex-character form written by
// QUuid::createUuid().toString(QUuid::WithoutBraces).replace("-", "").
func parseUUIDLoose(s string) (uuid.UUID, error) {
	if parsed, err := uuid.Parse(s); err == nil {
		return parsed, nil
	}
	if len(s) == 32 {
		dashed := fmt.Sprintf("%s-%s-%s-%s-%s", s[0:8], s[8:12], s[12:16], s[16:20], s[20:32])
		return uuid.Parse(dashed)
	}
	return uuid.UUID{}, fmt.Errorf("persistence: unrecognized notebook id format %q", s)
}

func readTrimmedFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	lines := strings.SplitN(string(data), "\n", 2)
	return strings.TrimSpace(lines[0]), true
}

func readLines(path string) ([]string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	return lines, true
}
