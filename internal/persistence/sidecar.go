package persistence

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/speedynote/speedynote-core/internal/object"
)

// PicturesFileName and LinksFileName name a page's object sidecars
// (§4.H file layout: "{docId}_pictures_{N:05}.json" /
// "{docId}_markdown_{N:05}.json" — historically named for markdown
// objects but carrying all link objects).
func PicturesFileName(docID string, pageIndex int) string {
	return fmt.Sprintf("%s_pictures_%05d.json", docID, pageIndex)
}

func LinksFileName(docID string, pageIndex int) string {
	return fmt.Sprintf("%s_markdown_%05d.json", docID, pageIndex)
}

// BackgroundSizeFileName names the hidden sidecar recording a custom
// background image's pixel dimensions.
func BackgroundSizeFileName(docID string, pageIndex int) string {
	return fmt.Sprintf(".%s_bgsize_%05d.txt", docID, pageIndex)
}

// SaveObjects writes m's picture and link sidecars for page N. Either
// file is omitted (not written, any existing file left untouched) if m
// holds no objects of that kind, matching a never-annotated page having
// no sidecar at all.
func SaveObjects(bundlePath, docID string, pageIndex int, m *object.Manager) error {
	if err := os.MkdirAll(bundlePath, 0755); err != nil {
		return fmt.Errorf("persistence: create bundle directory: %w", err)
	}

	if hasKind(m, object.KindPicture) {
		data, err := m.MarshalPictures()
		if err != nil {
			return fmt.Errorf("persistence: marshal pictures for page %d: %w", pageIndex, err)
		}
		if err := writeFileAtomic(filepath.Join(bundlePath, PicturesFileName(docID, pageIndex)), data); err != nil {
			return err
		}
	}

	if hasKind(m, object.KindLink) {
		data, err := m.MarshalLinks()
		if err != nil {
			return fmt.Errorf("persistence: marshal links for page %d: %w", pageIndex, err)
		}
		if err := writeFileAtomic(filepath.Join(bundlePath, LinksFileName(docID, pageIndex)), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadObjects reads page N's picture and link sidecars into a fresh
// Manager, tolerating either file being absent (a page with no objects
// of that kind yet).
func LoadObjects(bundlePath, docID string, pageIndex int) (*object.Manager, object.LoadResult, object.LoadResult, error) {
	m := object.NewManager()

	var pictureResult, linkResult object.LoadResult

	if data, ok := readOptional(filepath.Join(bundlePath, PicturesFileName(docID, pageIndex))); ok {
		r, err := m.LoadPictures(data)
		if err != nil {
			return nil, object.LoadResult{}, object.LoadResult{}, err
		}
		pictureResult = r
	}

	if data, ok := readOptional(filepath.Join(bundlePath, LinksFileName(docID, pageIndex))); ok {
		r, err := m.LoadLinks(data)
		if err != nil {
			return nil, object.LoadResult{}, object.LoadResult{}, err
		}
		linkResult = r
	}

	return m, pictureResult, linkResult, nil
}

// SaveBackgroundImage writes a page's custom background image PNG and
// its accompanying hidden size sidecar.
func SaveBackgroundImage(bundlePath, docID string, pageIndex int, img *image.NRGBA) error {
	if err := os.MkdirAll(bundlePath, 0755); err != nil {
		return fmt.Errorf("persistence: create bundle directory: %w", err)
	}
	if err := savePNG(filepath.Join(bundlePath, BackgroundFileName(docID, pageIndex)), img); err != nil {
		return err
	}
	size := img.Bounds().Size()
	sizeText := fmt.Sprintf("%d %d\n", size.X, size.Y)
	return writeFileAtomic(filepath.Join(bundlePath, BackgroundSizeFileName(docID, pageIndex)), []byte(sizeText))
}

func hasKind(m *object.Manager, kind object.Kind) bool {
	for _, o := range m.Objects {
		if o.Kind == kind {
			return true
		}
	}
	return false
}

func readOptional(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
