package dungeon

import (
	"errors"
	"slices"
	"testing"
)

func TestLoadCatalogYAMLAndTOML(t *testing.T) {
	c, err := LoadCatalog("testdata/dungeons", false)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := c.IDs(), []string{"cave", "cellar", "crypt"}; !slices.Equal(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}

	crypt, ok := c.Lookup("crypt")
	if !ok {
		t.Fatal("crypt not found")
	}
	if crypt.Width() != 5 || crypt.Height() != 3 {
		t.Fatalf("crypt is %dx%d", crypt.Width(), crypt.Height())
	}
	if c.Name("crypt") != "The Sunken Crypt" {
		t.Fatalf("name = %q", c.Name("crypt"))
	}
	if c.Name("cellar") != "cellar" {
		t.Fatalf("unnamed dungeon should fall back to its id, got %q", c.Name("cellar"))
	}

	cave, ok := c.Lookup("cave")
	if !ok {
		t.Fatal("cave not found")
	}
	if !slices.Equal(cave.Rows(), []string{"####", "#  #", "####"}) {
		t.Fatalf("cave rows = %q", cave.Rows())
	}

	if _, ok := c.Lookup("missing"); ok {
		t.Fatal("lookup of unknown dungeon should fail without default")
	}
}

func TestLookupReturnsPrivateCopy(t *testing.T) {
	c, err := NewCatalog(false, Default("dungeon-1"))
	if err != nil {
		t.Fatal(err)
	}

	a, _ := c.Lookup("dungeon-1")
	a.Tiles[1][1] = Wall

	b, _ := c.Lookup("dungeon-1")
	if b.Tiles[1][1] != Floor {
		t.Fatal("mutating a looked-up map leaked into the catalog")
	}
}

func TestLookupDefaultFallback(t *testing.T) {
	c, _ := NewCatalog(true)

	m, ok := c.Lookup("anything")
	if !ok {
		t.Fatal("expected default layout")
	}
	if m.DungeonID != "anything" || m.Width() != 17 || m.Height() != 11 {
		t.Fatalf("unexpected default map %q %dx%d", m.DungeonID, m.Width(), m.Height())
	}

	if _, ok := c.Lookup(""); ok {
		t.Fatal("empty dungeon id must not resolve")
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	if _, err := LoadCatalog("testdata/bad", false); err == nil {
		t.Fatal("expected error for ragged rows")
	}

	if _, err := LoadCatalog("testdata/dupes", false); !errors.Is(err, ErrDuplicateDungeon) {
		t.Fatalf("expected ErrDuplicateDungeon, got %v", err)
	}

	if _, err := LoadCatalog("testdata/does-not-exist", false); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFromRows(t *testing.T) {
	m, err := FromRows("tiny", []string{"#·#", "###"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Tiles[0][1] != "·" {
		t.Fatalf("multi-byte tile split incorrectly: %q", m.Tiles[0])
	}

	if _, err := FromRows("", []string{"#"}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := FromRows("x", nil); err == nil {
		t.Fatal("expected error for no rows")
	}
}
