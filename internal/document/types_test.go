package document

import (
	"image"
	"testing"
)

func TestNew_AssignsRandomID(t *testing.T) {
	d1 := New("/tmp/a", ModePaged)
	d2 := New("/tmp/a", ModePaged)

	if d1.ID == d2.ID {
		t.Error("expected distinct random IDs for new documents")
	}
	if d1.Mode != ModePaged {
		t.Errorf("expected ModePaged, got %s", d1.Mode)
	}
}

func TestFingerprintID_ZeroPadded(t *testing.T) {
	d := New("/tmp/a", ModePaged)
	fp := d.FingerprintID(3)
	want := d.ID.String() + "_00003"
	if fp != want {
		t.Errorf("FingerprintID(3) = %s, want %s", fp, want)
	}
}

func TestPage_LazyInit(t *testing.T) {
	d := New("/tmp/a", ModePaged)
	size := image.Point{X: 100, Y: 200}

	p := d.Page(2, size)
	if d.PageCount() != 3 {
		t.Errorf("expected 3 pages after accessing index 2, got %d", d.PageCount())
	}
	if p.Index != 2 {
		t.Errorf("expected page index 2, got %d", p.Index)
	}
	if p.Dirty {
		t.Error("expected newly-created page to be clean")
	}
	bounds := p.Buffer.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 200 {
		t.Errorf("expected buffer 100x200, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestPage_MarkDirtyClearDirty(t *testing.T) {
	p := NewPage(0, image.Point{X: 10, Y: 10})
	p.MarkDirty()
	if !p.Dirty {
		t.Error("expected page to be dirty after MarkDirty")
	}
	p.ClearDirty()
	if p.Dirty {
		t.Error("expected page to be clean after ClearDirty")
	}
}

func TestTile_LazyAllocation(t *testing.T) {
	d := New("/tmp/a", ModeEdgeless)
	coord := TileCoord{X: -2, Y: 5}

	tile := d.Tile(coord)
	if tile.Coord != coord {
		t.Errorf("expected coord %v, got %v", coord, tile.Coord)
	}
	bounds := tile.Buffer.Bounds()
	if bounds.Dx() != EdgelessTileSize || bounds.Dy() != EdgelessTileSize {
		t.Errorf("expected %dx%d tile, got %dx%d", EdgelessTileSize, EdgelessTileSize, bounds.Dx(), bounds.Dy())
	}

	// Accessing the same coord again returns the same tile, not a new one.
	tile.MarkDirty()
	again := d.Tile(coord)
	if !again.Dirty {
		t.Error("expected Tile() to return the same instance on repeated access")
	}
}

func TestDocument_Bookmarks(t *testing.T) {
	d := New("/tmp/a", ModePaged)
	d.AddBookmark("b1", "Chapter 1")
	d.AddBookmark("b2", "Chapter 2")
	d.AddBookmark("b1", "Chapter 1 (renamed)")

	if len(d.Bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks after re-adding b1, got %d", len(d.Bookmarks))
	}

	d.RemoveBookmark("b1")
	if len(d.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark after removal, got %d", len(d.Bookmarks))
	}
	if d.Bookmarks[0].ID != "b2" {
		t.Errorf("expected remaining bookmark b2, got %s", d.Bookmarks[0].ID)
	}
}
