package spawn

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/duongdatdev/miniisland-2.0-sub000/collision"
	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/pathfinding"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// MonsterType is one archetype from the tuning tables.
type MonsterType struct {
	Name     string
	Health   int
	Speed    int
	Damage   int
	Score    int
	Size     int
	PathMode pathfinding.Mode
	Boss     bool
}

// Catalog resolves monster type names.
type Catalog struct {
	types map[string]MonsterType
	def   string
}

// NewCatalog builds a catalog from tuning rows. Rows with an unknown path
// mode fall back to A*.
func NewCatalog(specs []config.MonsterSpec, defaultName string) *Catalog {
	c := &Catalog{types: make(map[string]MonsterType, len(specs)), def: defaultName}
	for _, s := range specs {
		mode, err := pathfinding.ParseMode(s.PathMode)
		if err != nil {
			mode = pathfinding.AStarMode
		}
		size := s.Size
		if size <= 0 {
			size = config.ENTITY_SIZE
		}
		c.types[s.Name] = MonsterType{
			Name: s.Name, Health: s.Health, Speed: s.Speed, Damage: s.Damage,
			Score: s.Score, Size: size, PathMode: mode, Boss: s.Boss,
		}
	}
	return c
}

// Lookup returns the named type. Unknown names resolve to the default type.
func (c *Catalog) Lookup(name string) MonsterType {
	if t, ok := c.types[name]; ok {
		return t
	}
	return c.types[c.def]
}

// Default is the fallback type.
func (c *Catalog) Default() MonsterType {
	return c.types[c.def]
}

type weight struct {
	name string
	w    int
}

type tier struct {
	minKills int
	weights  []weight
	total    int
}

// WeightedTable picks monster types with weights that depend on the
// player's career kills: the tier with the highest satisfied threshold wins.
type WeightedTable struct {
	tiers []tier
}

func NewWeightedTable(tiers []config.WeightTier) *WeightedTable {
	t := &WeightedTable{}
	for _, wt := range tiers {
		tr := tier{minKills: wt.MinCareerKills}
		names := make([]string, 0, len(wt.Weights))
		for name := range wt.Weights {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if w := wt.Weights[name]; w > 0 {
				tr.weights = append(tr.weights, weight{name, w})
				tr.total += w
			}
		}
		if tr.total > 0 {
			t.tiers = append(t.tiers, tr)
		}
	}
	sort.Slice(t.tiers, func(i, j int) bool { return t.tiers[i].minKills < t.tiers[j].minKills })
	return t
}

// Pick returns a type name, or "" when the table is empty.
func (t *WeightedTable) Pick(rng *rand.Rand, careerKills int) string {
	var active *tier
	for i := range t.tiers {
		if t.tiers[i].minKills <= careerKills {
			active = &t.tiers[i]
		}
	}
	if active == nil {
		if len(t.tiers) == 0 {
			return ""
		}
		active = &t.tiers[0]
	}
	n := rng.Intn(active.total)
	for _, w := range active.weights {
		if n < w.w {
			return w.name
		}
		n -= w.w
	}
	return active.weights[len(active.weights)-1].name
}

// NewMonster creates a live entity of type mt centered on cell c.
func NewMonster(kind entity.Kind, mt MonsterType, g *tilemap.Grid, c tilemap.Cell) *entity.Entity {
	m := entity.New(kind, uuid.New().String(), 0, 0, entity.SquareBox(mt.Size), mt.Speed, mt.Health)
	m.Name = mt.Name
	m.Damage = mt.Damage
	m.Value = mt.Score
	m.Boss = mt.Boss
	m.CenterOn(g.Center(c))
	m.SpawnX, m.SpawnY = m.X, m.Y
	return m
}

// Chaser drives path-following pursuit of the player.
type Chaser struct {
	ReplanEvery     uint64
	AggroTiles      int // 0 chases from any distance
	ContactCooldown uint64
}

// Update moves m one tick toward the player and applies contact damage.
// It returns the damage dealt, zero when there was no contact.
func (c Chaser) Update(g *tilemap.Grid, m *entity.Entity, mode pathfinding.Mode, player *entity.Entity, tick uint64) int {
	if !m.Alive() || player == nil || !player.Alive() {
		return 0
	}
	pc := cellOf(g, player)
	if c.AggroTiles > 0 && manhattan(cellOf(g, m), pc) > c.AggroTiles {
		m.Facing = entity.NONE
		return 0
	}

	f := pathfinding.Follower{Mode: mode, ReplanEvery: c.ReplanEvery}
	if f.NeedsReplan(m, tick) {
		f.Replan(g, m, pc, tick)
	}
	pathfinding.Advance(g, m, tick)

	if len(collision.EntityOverlaps(m, []*entity.Entity{player})) == 0 {
		return 0
	}
	if !m.ContactReady(tick, c.ContactCooldown) {
		return 0
	}
	player.TakeDamage(m.Damage)
	return m.Damage
}

func cellOf(g *tilemap.Grid, e *entity.Entity) tilemap.Cell {
	return g.CellAt(e.Center())
}

func manhattan(a, b tilemap.Cell) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
