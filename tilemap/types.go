package tilemap

// TileType classifies a tile for movement and pathfinding.
type TileType int

const (
	Grass TileType = iota
	Wall
	Water
	Bridge
	Hole
	FinishLine
)

func (t TileType) String() string {
	switch t {
	case Grass:
		return "Grass"
	case Wall:
		return "Wall"
	case Water:
		return "Water"
	case Bridge:
		return "Bridge"
	case Hole:
		return "Hole"
	case FinishLine:
		return "FinishLine"
	}
	return "Unknown"
}

// Layer selects one of the two parallel tile layers.
type Layer int

const (
	Base Layer = iota
	Overlay
)

// NoTile marks an empty overlay cell.
const NoTile = -1

// Cell is a tile coordinate.
type Cell struct {
	Col, Row int
}

// Tileset maps tile indices to tile types. Indices it does not know are Grass.
type Tileset map[int]TileType

// Classify returns the type of tile index idx.
func (ts Tileset) Classify(idx int) TileType {
	if t, ok := ts[idx]; ok {
		return t
	}
	return Grass
}

// DefaultTileset uses the tile type value as its index.
var DefaultTileset = Tileset{
	int(Grass):      Grass,
	int(Wall):       Wall,
	int(Water):      Water,
	int(Bridge):     Bridge,
	int(Hole):       Hole,
	int(FinishLine): FinishLine,
}

// Lookup is the tile source collaborators provide.
type Lookup interface {
	TileAt(layer Layer, col, row int) int
}
