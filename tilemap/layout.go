package tilemap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLayout is returned for layout text that cannot describe a grid.
var ErrInvalidLayout = errors.New("invalid layout")

const (
	rowSep     = ";"
	overlaySep = "|"
	entrance   = 'S'
)

var layoutChars = map[rune]TileType{
	'.': Grass,
	'#': Wall,
	'~': Water,
	'=': Bridge,
	'O': Hole,
	'F': FinishLine,
	'S': Grass,
}

var typeChars = map[TileType]byte{
	Grass:      '.',
	Wall:       '#',
	Water:      '~',
	Bridge:     '=',
	Hole:       'O',
	FinishLine: 'F',
}

// ParseLayout builds a Grid from layout text: rows separated by ';', one
// character per cell, optionally followed by '|' and an overlay section of the
// same shape where '.' is empty and '=' is a bridge. 'S' marks the entrance.
// The resulting grid uses DefaultTileset.
func ParseLayout(text string, tileSize int) (*Grid, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLayout)
	}
	baseText, overlayText, hasOverlay := strings.Cut(text, overlaySep)

	baseRows := strings.Split(strings.TrimSuffix(baseText, rowSep), rowSep)
	cols := len(baseRows[0])
	g, err := NewGrid(cols, len(baseRows), tileSize, DefaultTileset)
	if err != nil {
		return nil, err
	}
	for r, line := range baseRows {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidLayout, r, len(line), cols)
		}
		for c, ch := range line {
			t, ok := layoutChars[ch]
			if !ok {
				return nil, fmt.Errorf("%w: unknown tile %q at %d,%d", ErrInvalidLayout, ch, c, r)
			}
			if ch == entrance {
				g.SetEntrance(Cell{Col: c, Row: r})
			}
			g.Set(Base, c, r, int(t))
		}
	}

	if !hasOverlay {
		return g, nil
	}
	overRows := strings.Split(strings.TrimSuffix(overlayText, rowSep), rowSep)
	if len(overRows) != len(baseRows) {
		return nil, fmt.Errorf("%w: overlay has %d rows, want %d", ErrInvalidLayout, len(overRows), len(baseRows))
	}
	for r, line := range overRows {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: overlay row %d has %d cells, want %d", ErrInvalidLayout, r, len(line), cols)
		}
		for c, ch := range line {
			switch ch {
			case '.':
			case '=':
				g.Set(Overlay, c, r, int(Bridge))
			default:
				return nil, fmt.Errorf("%w: unknown overlay tile %q at %d,%d", ErrInvalidLayout, ch, c, r)
			}
		}
	}
	return g, nil
}

// FormatLayout renders g as layout text. The overlay section is emitted only
// when at least one bridge is present.
func FormatLayout(g *Grid) string {
	var b strings.Builder
	entranceCell, hasEntrance := g.Entrance()
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteString(rowSep)
		}
		for c := 0; c < g.cols; c++ {
			if hasEntrance && entranceCell == (Cell{Col: c, Row: r}) {
				b.WriteByte(entrance)
				continue
			}
			b.WriteByte(typeChars[g.BaseType(c, r)])
		}
	}

	bridges := false
	var ov strings.Builder
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			ov.WriteString(rowSep)
		}
		for c := 0; c < g.cols; c++ {
			if t, ok := g.overlayType(c, r); ok && t == Bridge {
				bridges = true
				ov.WriteByte('=')
				continue
			}
			ov.WriteByte('.')
		}
	}
	if bridges {
		b.WriteString(overlaySep)
		b.WriteString(ov.String())
	}
	return b.String()
}
