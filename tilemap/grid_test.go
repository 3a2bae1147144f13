package tilemap

import (
	"errors"
	"testing"
)

func TestBridgeNegatesWallAndWater(t *testing.T) {
	g, err := ParseLayout("#~.|==.", 32)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	for c := 0; c < 2; c++ {
		if g.Blocks(c, 0) {
			t.Errorf("cell %d blocks under a bridge", c)
		}
		if g.Effective(c, 0) != Bridge {
			t.Errorf("cell %d effective = %v, want Bridge", c, g.Effective(c, 0))
		}
	}
	if g.BaseType(1, 0) != Water {
		t.Errorf("base type changed by overlay: %v", g.BaseType(1, 0))
	}
}

func TestBridgeLeavesOtherTilesAlone(t *testing.T) {
	g, err := ParseLayout("OF.|===", 32)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	for c, want := range []TileType{Hole, FinishLine, Grass} {
		if got := g.Effective(c, 0); got != want {
			t.Errorf("cell %d effective = %v, want %v", c, got, want)
		}
	}
}

func TestBlocksAndWalkable(t *testing.T) {
	g, err := ParseLayout("#~O.F", 32)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	cases := []struct {
		col            int
		blocks, walkOK bool
	}{
		{0, true, false},  // wall
		{1, true, true},   // water is walkable for pathing, blocked for movement
		{2, false, false}, // hole
		{3, false, true},
		{4, false, true},
	}
	for _, tc := range cases {
		if got := g.Blocks(tc.col, 0); got != tc.blocks {
			t.Errorf("Blocks(%d) = %v, want %v", tc.col, got, tc.blocks)
		}
		if got := g.Walkable(tc.col, 0); got != tc.walkOK {
			t.Errorf("Walkable(%d) = %v, want %v", tc.col, got, tc.walkOK)
		}
	}
	if !g.Blocks(-1, 0) || g.Walkable(5, 0) {
		t.Error("out of bounds must block and be unwalkable")
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	in := "S.#;~~~;..F|...;.=.;..."
	g, err := ParseLayout(in, 32)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if got := FormatLayout(g); got != in {
		t.Errorf("FormatLayout = %q, want %q", got, in)
	}
	if e, ok := g.Entrance(); !ok || e != (Cell{0, 0}) {
		t.Errorf("Entrance = %v %v", e, ok)
	}
}

func TestParseLayoutErrors(t *testing.T) {
	for _, in := range []string{"", "..;.", "..X", "..|...", ".|.;."} {
		if _, err := ParseLayout(in, 32); !errors.Is(err, ErrInvalidLayout) {
			t.Errorf("ParseLayout(%q) err = %v, want ErrInvalidLayout", in, err)
		}
	}
}

func TestCellAtNegative(t *testing.T) {
	g, _ := NewGrid(2, 2, 32, nil)
	if c := g.CellAt(-1, 33); c != (Cell{-1, 1}) {
		t.Errorf("CellAt(-1,33) = %v", c)
	}
	if x, y := g.Center(Cell{1, 0}); x != 48 || y != 16 {
		t.Errorf("Center = %d,%d", x, y)
	}
}

type fakeLookup struct{}

func (fakeLookup) TileAt(layer Layer, col, row int) int {
	if layer == Overlay {
		return NoTile
	}
	if col == 1 {
		return 7
	}
	return 0
}

func TestFromLookupCustomTileset(t *testing.T) {
	g, err := FromLookup(fakeLookup{}, 3, 1, 16, Tileset{7: Wall})
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if !g.Blocks(1, 0) || g.Blocks(0, 0) {
		t.Error("tileset classification not applied")
	}
}
