package tilemap

import "fmt"

// Grid is a fixed-size two-layer tile map. It is immutable once built;
// a new layout replaces the whole Grid.
type Grid struct {
	cols, rows int
	tileSize   int
	base       []int
	overlay    []int
	tileset    Tileset
	entrance   *Cell
}

// NewGrid returns a cols×rows grid of index 0 tiles with an empty overlay.
func NewGrid(cols, rows, tileSize int, ts Tileset) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidLayout, cols, rows)
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: tile size %d", ErrInvalidLayout, tileSize)
	}
	if ts == nil {
		ts = DefaultTileset
	}
	g := &Grid{
		cols:     cols,
		rows:     rows,
		tileSize: tileSize,
		base:     make([]int, cols*rows),
		overlay:  make([]int, cols*rows),
		tileset:  ts,
	}
	for i := range g.overlay {
		g.overlay[i] = NoTile
	}
	return g, nil
}

// FromLookup copies a cols×rows region out of a collaborator tile source.
func FromLookup(src Lookup, cols, rows, tileSize int, ts Tileset) (*Grid, error) {
	g, err := NewGrid(cols, rows, tileSize, ts)
	if err != nil {
		return nil, err
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.base[r*cols+c] = src.TileAt(Base, c, r)
			g.overlay[r*cols+c] = src.TileAt(Overlay, c, r)
		}
	}
	return g, nil
}

// Set writes a tile index. Used while building a grid.
func (g *Grid) Set(layer Layer, col, row, idx int) {
	if !g.InBounds(col, row) {
		return
	}
	if layer == Overlay {
		g.overlay[row*g.cols+col] = idx
		return
	}
	g.base[row*g.cols+col] = idx
}

func (g *Grid) Cols() int     { return g.cols }
func (g *Grid) Rows() int     { return g.rows }
func (g *Grid) TileSize() int { return g.tileSize }

// Entrance returns the marked entrance cell, if the layout had one.
func (g *Grid) Entrance() (Cell, bool) {
	if g.entrance == nil {
		return Cell{}, false
	}
	return *g.entrance, true
}

// SetEntrance marks the entrance cell.
func (g *Grid) SetEntrance(c Cell) {
	g.entrance = &c
}

func (g *Grid) InBounds(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// TileAt implements Lookup. Out-of-bounds reads return NoTile.
func (g *Grid) TileAt(layer Layer, col, row int) int {
	if !g.InBounds(col, row) {
		return NoTile
	}
	if layer == Overlay {
		return g.overlay[row*g.cols+col]
	}
	return g.base[row*g.cols+col]
}

// BaseType is the type of the base layer tile, Wall when out of bounds.
func (g *Grid) BaseType(col, row int) TileType {
	if !g.InBounds(col, row) {
		return Wall
	}
	return g.tileset.Classify(g.base[row*g.cols+col])
}

// overlayType reports the overlay tile type and whether one is present.
func (g *Grid) overlayType(col, row int) (TileType, bool) {
	idx := g.overlay[row*g.cols+col]
	if idx == NoTile {
		return Grass, false
	}
	return g.tileset.Classify(idx), true
}

// Effective applies the per-cell composition rule: a Bridge on the overlay
// covers a Wall or Water base. Other base types show through. Out of bounds
// is Wall.
func (g *Grid) Effective(col, row int) TileType {
	if !g.InBounds(col, row) {
		return Wall
	}
	base := g.BaseType(col, row)
	if base != Wall && base != Water {
		return base
	}
	if t, ok := g.overlayType(col, row); ok && t == Bridge {
		return Bridge
	}
	return base
}

// Blocks reports whether movement into the cell is denied (Wall or Water).
func (g *Grid) Blocks(col, row int) bool {
	switch g.Effective(col, row) {
	case Wall, Water:
		return true
	}
	return false
}

// Walkable is the pathfinding predicate: in bounds and neither Wall nor Hole.
func (g *Grid) Walkable(col, row int) bool {
	if !g.InBounds(col, row) {
		return false
	}
	switch g.Effective(col, row) {
	case Wall, Hole:
		return false
	}
	return true
}

// CellAt converts a pixel coordinate to the cell containing it.
func (g *Grid) CellAt(x, y int) Cell {
	return Cell{Col: floorDiv(x, g.tileSize), Row: floorDiv(y, g.tileSize)}
}

// Center returns the pixel center of a cell.
func (g *Grid) Center(c Cell) (int, int) {
	return c.Col*g.tileSize + g.tileSize/2, c.Row*g.tileSize + g.tileSize/2
}

// Cells returns every cell whose effective type is t, in row-major order.
func (g *Grid) Cells(t TileType) []Cell {
	var out []Cell
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.Effective(c, r) == t {
				out = append(out, Cell{Col: c, Row: r})
			}
		}
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
