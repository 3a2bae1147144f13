package entity

import (
	"sync/atomic"

	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Kind is the entity variant.
type Kind int

const (
	Player Kind = iota
	RemotePlayer
	Monster
	MazeEnemy
	Projectile
	PowerUp
	Trap
	NPC
)

var kindNames = [...]string{"player", "remote", "monster", "maze_enemy", "projectile", "power_up", "trap", "npc"}

func (k Kind) String() string {
	if k < Player || k > NPC {
		return "unknown"
	}
	return kindNames[k]
}

// Hostile reports whether the kind is a PvE target.
func (k Kind) Hostile() bool {
	return k == Monster || k == MazeEnemy
}

// Outcome is the per-tick movement verdict recorded on an entity.
type Outcome int

const (
	Allowed Outcome = iota
	Blocked
	WaterReset
	Goal
	HoleHook
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Blocked:
		return "blocked"
	case WaterReset:
		return "water_reset"
	case Goal:
		return "goal"
	case HoleHook:
		return "hole"
	}
	return "unknown"
}

// HitBox is an axis-aligned box relative to the entity position.
type HitBox struct {
	OffX, OffY int
	W, H       int
}

// Rect is an axis-aligned rectangle in world pixels.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Overlaps reports strict intersection; touching edges do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && r.MaxX > o.MinX && r.MinY < o.MaxY && r.MaxY > o.MinY
}

// Entity is any simulated object. Position, path and flags are owned by the
// tick goroutine; health and the alive flag may be changed concurrently by
// projectile tasks and are atomic.
type Entity struct {
	ID       string
	Kind     Kind
	Name     string // username for players, type name for monsters
	X, Y     int
	Box      HitBox
	Speed    int
	Facing   Direction
	SpawnX   int
	SpawnY   int
	Damage   int // contact damage
	Score    int
	Value    int // score awarded on kill, heal amount for power-ups
	Boss     bool
	Hidden   bool
	MapID    string
	Blocked  bool
	Outcome  Outcome
	Path     []tilemap.Cell
	Waypoint int
	PlanTick uint64

	MaxHealth int
	health    atomic.Int64
	alive     atomic.Bool

	speedMul    float64
	slowUntil   uint64
	lastContact uint64
	contacted   bool
}

// New returns a live entity at (x, y) with full health.
func New(kind Kind, id string, x, y int, box HitBox, speed, maxHealth int) *Entity {
	e := &Entity{
		ID:        id,
		Kind:      kind,
		X:         x,
		Y:         y,
		SpawnX:    x,
		SpawnY:    y,
		Box:       box,
		Speed:     speed,
		Facing:    NONE,
		MaxHealth: maxHealth,
	}
	e.health.Store(int64(maxHealth))
	e.alive.Store(true)
	return e
}

// SquareBox returns a size×size hit box anchored at the position.
func SquareBox(size int) HitBox {
	return HitBox{W: size, H: size}
}

func (e *Entity) Health() int { return int(e.health.Load()) }
func (e *Entity) Alive() bool { return e.alive.Load() }

// SetHealth overwrites health, clamped to [0, MaxHealth]. Zero kills.
func (e *Entity) SetHealth(h int) {
	if h > e.MaxHealth {
		h = e.MaxHealth
	}
	if h <= 0 {
		h = 0
		e.alive.Store(false)
	}
	e.health.Store(int64(h))
}

// Heal adds health up to MaxHealth. Dead entities stay dead.
func (e *Entity) Heal(n int) {
	for {
		cur := e.health.Load()
		if cur <= 0 {
			return
		}
		next := min(cur+int64(n), int64(e.MaxHealth))
		if e.health.CompareAndSwap(cur, next) {
			return
		}
	}
}

// TakeDamage subtracts n from health. killed is true for exactly one caller:
// the one whose damage brought health to zero.
func (e *Entity) TakeDamage(n int) (remaining int, killed bool) {
	for {
		cur := e.health.Load()
		if cur <= 0 {
			return 0, false
		}
		next := max(cur-int64(n), 0)
		if e.health.CompareAndSwap(cur, next) {
			if next == 0 {
				e.alive.Store(false)
				return 0, true
			}
			return int(next), false
		}
	}
}

// Kill marks the entity dead without touching health.
func (e *Entity) Kill() { e.alive.Store(false) }

// Revive restores full health and the alive flag.
func (e *Entity) Revive() {
	e.health.Store(int64(e.MaxHealth))
	e.alive.Store(true)
}

// Rect is the hit box in world pixels.
func (e *Entity) Rect() Rect {
	x := float64(e.X + e.Box.OffX)
	y := float64(e.Y + e.Box.OffY)
	return Rect{MinX: x, MinY: y, MaxX: x + float64(e.Box.W), MaxY: y + float64(e.Box.H)}
}

// Center is the hit box center in world pixels.
func (e *Entity) Center() (int, int) {
	return e.X + e.Box.OffX + e.Box.W/2, e.Y + e.Box.OffY + e.Box.H/2
}

// CenterOn moves the entity so its hit box center is at (x, y).
func (e *Entity) CenterOn(x, y int) {
	e.X = x - e.Box.OffX - e.Box.W/2
	e.Y = y - e.Box.OffY - e.Box.H/2
}

// ResetToSpawn moves the entity back to its spawn point.
func (e *Entity) ResetToSpawn() {
	e.X, e.Y = e.SpawnX, e.SpawnY
	e.Path = nil
	e.Waypoint = 0
}

// Slow applies a speed multiplier until the given tick.
func (e *Entity) Slow(mul float64, until uint64) {
	e.speedMul = mul
	e.slowUntil = until
}

// StepAt is the movement per tick in pixels at tick, with any active slow
// applied. A slowed entity still moves at least one pixel.
func (e *Entity) StepAt(tick uint64) int {
	if e.speedMul <= 0 || e.speedMul >= 1 || tick >= e.slowUntil {
		return e.Speed
	}
	return max(int(float64(e.Speed)*e.speedMul), 1)
}

// Slowed reports whether a slow is active at tick.
func (e *Entity) Slowed(tick uint64) bool {
	return e.speedMul > 0 && e.speedMul < 1 && tick < e.slowUntil
}

// ContactReady reports whether contact damage may be dealt at tick, and if
// so records tick as the last contact.
func (e *Entity) ContactReady(tick, cooldown uint64) bool {
	if e.contacted && tick < e.lastContact+cooldown {
		return false
	}
	e.lastContact = tick
	e.contacted = true
	return true
}
