package spawn

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
	"github.com/duongdatdev/miniisland-2.0-sub000/pathfinding"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Corridor is the set of cells kept free of hazards so the maze stays
// solvable: the entrance-to-exit path plus a one-tile buffer around it.
type Corridor map[tilemap.Cell]bool

// SafeCorridor finds the shortest walkable route from entrance to the
// nearest FinishLine and widens it by one tile in every direction. ok is
// false when no route exists, in which case the corridor is empty.
func SafeCorridor(g *tilemap.Grid, entrance tilemap.Cell) (Corridor, []tilemap.Cell, bool) {
	path := pathfinding.NearestPath(g, entrance, func(c tilemap.Cell) bool {
		return g.Effective(c.Col, c.Row) == tilemap.FinishLine
	})
	if len(path) == 0 {
		return Corridor{}, nil, false
	}
	corridor := make(Corridor, len(path)*9)
	for _, c := range path {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				n := tilemap.Cell{Col: c.Col + dc, Row: c.Row + dr}
				if g.InBounds(n.Col, n.Row) {
					corridor[n] = true
				}
			}
		}
	}
	return corridor, path, true
}

// FindEntrance returns the layout's marked entrance, or else the first
// walkable cell on the grid border in row-major order.
func FindEntrance(g *tilemap.Grid) (tilemap.Cell, bool) {
	if c, ok := g.Entrance(); ok {
		return c, true
	}
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			border := r == 0 || c == 0 || r == g.Rows()-1 || c == g.Cols()-1
			if border && g.Walkable(c, r) && g.Effective(c, r) != tilemap.FinishLine {
				return tilemap.Cell{Col: c, Row: r}, true
			}
		}
	}
	return tilemap.Cell{}, false
}

// MazeSpawner places hidden hazards and chasing enemies in a maze while
// keeping the entrance-to-exit route clear.
type MazeSpawner struct {
	cfg     config.MazeTuning
	types   []HazardType
	catalog *Catalog
	roster  *entity.Roster
	rng     *rand.Rand
	log     *zap.Logger
	chaser  Chaser

	corridor Corridor
	path     []tilemap.Cell
	hazards  []*Hazard
	degraded bool
	active   bool
}

func NewMazeSpawner(t config.Tuning, roster *entity.Roster, rng *rand.Rand, log *zap.Logger) *MazeSpawner {
	byName := make(map[string]config.HazardSpec, len(t.Hazards))
	for _, h := range t.Hazards {
		byName[h.Name] = h
	}
	var types []HazardType
	for _, name := range t.Maze.HazardTypes {
		if spec, ok := byName[name]; ok {
			types = append(types, HazardTypeFromSpec(spec))
		}
	}
	return &MazeSpawner{
		cfg:     t.Maze,
		types:   types,
		catalog: NewCatalog(t.Monsters, t.DefaultMonster),
		roster:  roster,
		rng:     rng,
		log:     logging.OrNop(log).Named("maze"),
		chaser: Chaser{
			ReplanEvery:     uint64(max(t.Wave.ReplanEvery, 1)),
			AggroTiles:      8,
			ContactCooldown: config.ContactCooldownTicks,
		},
	}
}

// Start computes the safe corridor and places hazards and enemies.
// entrance may be nil, in which case the layout is searched for one.
func (m *MazeSpawner) Start(g *tilemap.Grid, entrance *tilemap.Cell, player *entity.Entity) []Event {
	m.Stop()
	m.active = true
	m.corridor, m.path, m.degraded = Corridor{}, nil, true

	var start tilemap.Cell
	ok := entrance != nil
	if ok {
		start = *entrance
	} else {
		start, ok = FindEntrance(g)
	}
	if ok {
		if corridor, path, found := SafeCorridor(g, start); found {
			m.corridor, m.path, m.degraded = corridor, path, false
		}
	}
	if m.degraded {
		m.log.Warn("no entrance-to-exit route; placing hazards unconstrained")
	}

	var pc tilemap.Cell
	if player != nil {
		pc = cellOf(g, player)
	}
	var events []Event
	occupied := make(map[tilemap.Cell]bool)
	if len(m.types) > 0 {
		for i := 0; i < m.cfg.Hazards; i++ {
			c, ok := m.placement(g, pc, occupied)
			if !ok {
				m.log.Debug("hazard skipped after max attempts", zap.Int("index", i))
				continue
			}
			occupied[c] = true
			h := newHazard(m.types[m.rng.Intn(len(m.types))], g, c)
			m.hazards = append(m.hazards, h)
			m.roster.Add(h.Entity)
		}
	}

	mt := m.catalog.Lookup(m.cfg.EnemyType)
	for i := 0; i < m.cfg.Enemies; i++ {
		c, ok := m.placement(g, pc, occupied)
		if !ok {
			continue
		}
		occupied[c] = true
		e := NewMonster(entity.MazeEnemy, mt, g, c)
		m.roster.Add(e)
		events = append(events, Event{Kind: Spawned, Entity: e})
	}
	m.log.Info("maze populated",
		zap.Int("hazards", len(m.hazards)),
		zap.Int("enemies", len(events)),
		zap.Int("corridor", len(m.corridor)),
		zap.Bool("degraded", m.degraded))
	return events
}

// placement draws random cells until one is open floor outside the corridor,
// far enough from the player and not yet occupied.
func (m *MazeSpawner) placement(g *tilemap.Grid, playerCell tilemap.Cell, occupied map[tilemap.Cell]bool) (tilemap.Cell, bool) {
	for attempt := 0; attempt < m.cfg.MaxAttempts; attempt++ {
		c := tilemap.Cell{Col: m.rng.Intn(g.Cols()), Row: m.rng.Intn(g.Rows())}
		switch {
		case g.Effective(c.Col, c.Row) != tilemap.Grass:
		case m.corridor[c]:
		case manhattan(c, playerCell) < m.cfg.MinPlayerDistance:
		case occupied[c]:
		default:
			return c, true
		}
	}
	return tilemap.Cell{}, false
}

// Stop removes every hazard and enemy the spawner placed.
func (m *MazeSpawner) Stop() {
	m.active = false
	m.hazards = nil
	m.roster.RemoveWhere(func(e *entity.Entity) bool {
		return e.Kind == entity.MazeEnemy || e.Kind == entity.Trap
	})
}

// Update runs one tick of enemy pursuit and hazard checks.
func (m *MazeSpawner) Update(g *tilemap.Grid, player *entity.Entity, tick uint64) []Event {
	if !m.active {
		return nil
	}
	var events []Event
	for _, e := range m.roster.OfKind(entity.MazeEnemy) {
		mt := m.catalog.Lookup(e.Name)
		if dmg := m.chaser.Update(g, e, mt.PathMode, player, tick); dmg > 0 {
			events = append(events, Event{Kind: PlayerHit, Entity: e, Amount: dmg})
		}
	}
	dead := m.roster.RemoveWhere(func(e *entity.Entity) bool {
		return e.Kind == entity.MazeEnemy && !e.Alive()
	})
	for _, e := range dead {
		events = append(events, Event{Kind: Killed, Entity: e, Amount: e.Value})
	}
	for _, h := range m.hazards {
		if dmg := h.Update(player, tick); dmg > 0 {
			events = append(events, Event{Kind: HazardTriggered, Entity: h.Entity, Amount: dmg})
		}
	}
	return events
}

func (m *MazeSpawner) Corridor() Corridor       { return m.corridor }
func (m *MazeSpawner) SafePath() []tilemap.Cell { return m.path }
func (m *MazeSpawner) Hazards() []*Hazard       { return m.hazards }
func (m *MazeSpawner) Degraded() bool           { return m.degraded }
