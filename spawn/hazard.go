package spawn

import (
	"github.com/google/uuid"

	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// HazardType is the static description of a trap.
type HazardType struct {
	Name           string
	Damage         int
	CooldownTicks  uint64
	RevealTicks    uint64
	SlowMultiplier float64
	SlowTicks      uint64
}

func HazardTypeFromSpec(s config.HazardSpec) HazardType {
	return HazardType{
		Name:           s.Name,
		Damage:         s.Damage,
		CooldownTicks:  uint64(max(s.CooldownTicks, 0)),
		RevealTicks:    uint64(max(s.RevealTicks, 0)),
		SlowMultiplier: s.SlowMultiplier,
		SlowTicks:      uint64(max(s.SlowTicks, 0)),
	}
}

// Slows reports whether the hazard impairs movement.
func (h HazardType) Slows() bool {
	return h.SlowMultiplier > 0 && h.SlowMultiplier < 1 && h.SlowTicks > 0
}

// Hazard is a placed trap. It is hidden until triggered, stays visible for
// the reveal window, and cannot trigger again until its cooldown passes.
type Hazard struct {
	Type   HazardType
	Cell   tilemap.Cell
	Entity *entity.Entity // Trap entity registered in the roster

	armed    bool
	readyAt  uint64
	hiddenAt uint64
	triggers int
}

func newHazard(t HazardType, g *tilemap.Grid, c tilemap.Cell) *Hazard {
	size := g.TileSize()
	e := entity.New(entity.Trap, uuid.New().String(), c.Col*size, c.Row*size, entity.SquareBox(size), 0, 1)
	e.Name = t.Name
	e.Damage = t.Damage
	e.Hidden = true
	return &Hazard{Type: t, Cell: c, Entity: e, armed: true}
}

// Visible reports whether the hazard is currently revealed.
func (h *Hazard) Visible() bool { return !h.Entity.Hidden }

// Triggers counts how many times the hazard fired.
func (h *Hazard) Triggers() int { return h.triggers }

// Update re-hides the hazard once its reveal window ends, then fires on the
// player if the player stands on it and the cooldown allows. It returns
// the damage dealt.
func (h *Hazard) Update(player *entity.Entity, tick uint64) int {
	if h.Visible() && tick >= h.hiddenAt {
		h.Entity.Hidden = true
	}
	if player == nil || !player.Alive() {
		return 0
	}
	if !player.Rect().Overlaps(h.Entity.Rect()) {
		return 0
	}
	if !h.armed && tick < h.readyAt {
		return 0
	}
	h.armed = false
	h.readyAt = tick + h.Type.CooldownTicks
	h.hiddenAt = tick + h.Type.RevealTicks
	h.Entity.Hidden = h.Type.RevealTicks == 0
	h.triggers++

	player.TakeDamage(h.Type.Damage)
	if h.Type.Slows() {
		player.Slow(h.Type.SlowMultiplier, tick+h.Type.SlowTicks)
	}
	return h.Type.Damage
}
