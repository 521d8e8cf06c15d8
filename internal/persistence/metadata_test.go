package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/speedynote/speedynote-core/internal/document"
)

func TestSaveLoadMetadata_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	doc := document.New(dir, document.ModePaged)
	doc.LinkedPDFPath = "/notes/book.pdf"
	doc.LastAccessedPage = 7
	doc.Background.Style = document.BackgroundGrid
	doc.Background.Spacing = 25
	doc.AddBookmark("b1", "Chapter 1")

	if err := SaveMetadata(dir, doc); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}

	loaded := document.New(dir, document.ModePaged)
	loaded.ID = doc.ID
	if err := LoadMetadata(dir, loaded); err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}

	if loaded.LinkedPDFPath != doc.LinkedPDFPath {
		t.Errorf("LinkedPDFPath = %q, want %q", loaded.LinkedPDFPath, doc.LinkedPDFPath)
	}
	if loaded.LastAccessedPage != 7 {
		t.Errorf("LastAccessedPage = %d, want 7", loaded.LastAccessedPage)
	}
	if loaded.Background.Style != document.BackgroundGrid {
		t.Errorf("Background.Style = %v, want Grid", loaded.Background.Style)
	}
	if loaded.Background.Spacing != 25 {
		t.Errorf("Background.Spacing = %d, want 25", loaded.Background.Spacing)
	}
	if len(loaded.Bookmarks) != 1 || loaded.Bookmarks[0].Label != "Chapter 1" {
		t.Errorf("Bookmarks = %+v, want one bookmark labeled Chapter 1", loaded.Bookmarks)
	}
}

func TestLoadMetadata_NoFilesAtAllIsANoOp(t *testing.T) {
	dir := t.TempDir()
	doc := document.New(dir, document.ModePaged)
	originalID := doc.ID

	if err := LoadMetadata(dir, doc); err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if doc.ID != originalID {
		t.Error("expected a brand-new bundle with no metadata to leave the generated ID untouched")
	}
}

func TestLoadMetadata_MigratesLegacyFilesAndWritesJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, legacyIDFile), "abcd1234abcd1234abcd1234abcd1234\n")
	writeFile(t, filepath.Join(dir, legacyPDFPathFile), "/notes/legacy.pdf\n")
	writeFile(t, filepath.Join(dir, legacyBackgroundFile), "style=Lines\ncolor=#eeeeee\ndensity=30\n")
	writeFile(t, filepath.Join(dir, legacyBookmarksFile), "Intro\nConclusion\n")

	doc := document.New(dir, document.ModePaged)
	if err := LoadMetadata(dir, doc); err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}

	if doc.LinkedPDFPath != "/notes/legacy.pdf" {
		t.Errorf("LinkedPDFPath = %q, want /notes/legacy.pdf", doc.LinkedPDFPath)
	}
	if doc.Background.Style != document.BackgroundLines {
		t.Errorf("Background.Style = %v, want Lines", doc.Background.Style)
	}
	if doc.Background.Spacing != 30 {
		t.Errorf("Background.Spacing = %d, want 30", doc.Background.Spacing)
	}
	if len(doc.Bookmarks) != 2 {
		t.Fatalf("expected 2 migrated bookmarks, got %d", len(doc.Bookmarks))
	}

	if _, err := os.Stat(filepath.Join(dir, MetadataFileName)); err != nil {
		t.Errorf("expected migration to write the JSON metadata file: %v", err)
	}
}

func TestLoadMetadata_PrefersJSONOverLegacyWhenBothExist(t *testing.T) {
	dir := t.TempDir()
	doc := document.New(dir, document.ModePaged)
	doc.LastAccessedPage = 3
	if err := SaveMetadata(dir, doc); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	writeFile(t, filepath.Join(dir, legacyPDFPathFile), "/should/not/be/read.pdf")

	loaded := document.New(dir, document.ModePaged)
	if err := LoadMetadata(dir, loaded); err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if loaded.LinkedPDFPath == "/should/not/be/read.pdf" {
		t.Error("expected existing JSON metadata to take priority over legacy files")
	}
}

func TestRemoveLegacyFiles_DeletesAllFour(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{legacyIDFile, legacyPDFPathFile, legacyBackgroundFile, legacyBookmarksFile} {
		writeFile(t, filepath.Join(dir, name), "x")
	}
	RemoveLegacyFiles(dir)
	if hasLegacyFiles(dir) {
		t.Error("expected all legacy files to be removed")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writeFile(%s): %v", path, err)
	}
}
