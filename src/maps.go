package game

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Maps holds the grids the engine can switch between. The maze grid is not
// here; it arrives from the server as a layout.
type Maps map[string]*tilemap.Grid

// createMaps builds the lobby and arena grids. A non-nil lookup supplies the
// lobby tiles instead of the built-in island.
func createMaps(lookup tilemap.Lookup, seed int64, log *zap.Logger) (Maps, error) {
	log.Info("creating game maps", zap.Int64("seed", seed))
	const (
		cols   = config.DefaultMapCols
		rows   = config.DefaultMapRows
		numObs = 40
	)

	var (
		lobby *tilemap.Grid
		err   error
	)
	if lookup != nil {
		lobby, err = tilemap.FromLookup(lookup, cols, rows, config.TILE_SIZE, nil)
	} else {
		lobby, err = islandGrid(cols, rows)
	}
	if err != nil {
		return nil, err
	}

	arena, err := arenaGrid(cols, rows, numObs, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	return Maps{config.LobbyMapID: lobby, config.ArenaMapID: arena}, nil
}

// islandGrid is a walled lobby with a pond crossed by a bridge.
func islandGrid(cols, rows int) (*tilemap.Grid, error) {
	g, err := tilemap.NewGrid(cols, rows, config.TILE_SIZE, nil)
	if err != nil {
		return nil, err
	}
	walls(g)
	midRow := rows / 2
	for r := midRow - 2; r <= midRow+2; r++ {
		for c := cols/2 - 3; c <= cols/2+3; c++ {
			g.Set(tilemap.Base, c, r, int(tilemap.Water))
		}
	}
	for c := cols/2 - 3; c <= cols/2+3; c++ {
		g.Set(tilemap.Overlay, c, midRow, int(tilemap.Bridge))
	}
	return g, nil
}

// arenaGrid scatters single-tile obstacles, keeping the spawn area and the
// cell next to each obstacle free so the open space stays connected.
func arenaGrid(cols, rows, numObs int, rng *rand.Rand) (*tilemap.Grid, error) {
	g, err := tilemap.NewGrid(cols, rows, config.TILE_SIZE, nil)
	if err != nil {
		return nil, err
	}
	walls(g)
	spawn := g.CellAt(config.DefaultPlayerSpawn[0], config.DefaultPlayerSpawn[1])

	for placed, attempts := 0, 0; placed < numObs && attempts < numObs*20; attempts++ {
		c := tilemap.Cell{Col: 2 + rng.Intn(cols-4), Row: 2 + rng.Intn(rows-4)}
		if chebyshev(c, spawn) <= 2 || crowded(g, c) {
			continue
		}
		g.Set(tilemap.Base, c.Col, c.Row, int(tilemap.Wall))
		placed++
	}
	return g, nil
}

func walls(g *tilemap.Grid) {
	for c := 0; c < g.Cols(); c++ {
		g.Set(tilemap.Base, c, 0, int(tilemap.Wall))
		g.Set(tilemap.Base, c, g.Rows()-1, int(tilemap.Wall))
	}
	for r := 0; r < g.Rows(); r++ {
		g.Set(tilemap.Base, 0, r, int(tilemap.Wall))
		g.Set(tilemap.Base, g.Cols()-1, r, int(tilemap.Wall))
	}
}

// crowded reports whether any of c's eight neighbours is already a wall.
func crowded(g *tilemap.Grid, c tilemap.Cell) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if g.Effective(c.Col+dc, c.Row+dr) == tilemap.Wall {
				return true
			}
		}
	}
	return false
}

func chebyshev(a, b tilemap.Cell) int {
	return max(abs(a.Col-b.Col), abs(a.Row-b.Row))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
