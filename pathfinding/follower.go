package pathfinding

import (
	"math"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Geometry is what path following needs from the grid.
type Geometry interface {
	Grid
	CellAt(x, y int) tilemap.Cell
	Center(c tilemap.Cell) (int, int)
}

// Follower steers an entity along its path toward a moving or fixed target.
type Follower struct {
	Mode        Mode
	ReplanEvery uint64
}

// NeedsReplan is true on the replan cadence or when the path is used up.
func (f Follower) NeedsReplan(e *entity.Entity, tick uint64) bool {
	if e.Waypoint >= len(e.Path) {
		return true
	}
	return f.ReplanEvery > 0 && tick-e.PlanTick >= f.ReplanEvery
}

// Replan computes a fresh path from e's current cell to target and replaces
// the old one wholesale.
func (f Follower) Replan(g Geometry, e *entity.Entity, target tilemap.Cell, tick uint64) {
	cx, cy := e.Center()
	SetPath(e, FindPath(g, f.Mode, g.CellAt(cx, cy), target), tick)
}

// SetPath installs path on e. The first cell is the one e stands on, so
// following starts at the second.
func SetPath(e *entity.Entity, path []tilemap.Cell, tick uint64) {
	e.Path = path
	e.PlanTick = tick
	e.Waypoint = 1
	if len(path) <= 1 {
		e.Waypoint = len(path)
	}
}

// Advance moves e one step toward the center of its next waypoint. Within
// one step of it, e snaps onto the center and the waypoint index advances.
// It returns false when e holds position.
func Advance(g Geometry, e *entity.Entity, tick uint64) bool {
	if e.Waypoint >= len(e.Path) {
		e.Facing = entity.NONE
		return false
	}
	target := e.Path[e.Waypoint]
	if !g.Walkable(target.Col, target.Row) {
		// The grid changed under the path; hold until the next replan.
		e.Path = nil
		e.Waypoint = 0
		e.Facing = entity.NONE
		return false
	}

	tx, ty := g.Center(target)
	cx, cy := e.Center()
	dx, dy := tx-cx, ty-cy
	step := e.StepAt(tick)

	if math.Hypot(float64(dx), float64(dy)) <= float64(step) {
		e.CenterOn(tx, ty)
		e.Waypoint++
		if e.Waypoint < len(e.Path) {
			nx, ny := g.Center(e.Path[e.Waypoint])
			e.Facing = entity.Dominant(nx-tx, ny-ty)
		}
		return true
	}

	e.Facing = entity.Dominant(dx, dy)
	e.X += clamp(dx, step)
	e.Y += clamp(dy, step)
	return true
}

func clamp(d, step int) int {
	if d > step {
		return step
	}
	if d < -step {
		return -step
	}
	return d
}
