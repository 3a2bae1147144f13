package collision

import (
	"errors"
	"fmt"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// ErrInvalidDirection is returned when a tile check is asked for anything but
// one of the four cardinal directions.
var ErrInvalidDirection = errors.New("invalid direction")

// Terrain is the tile classification the resolver consults.
type Terrain interface {
	Effective(col, row int) tilemap.TileType
	CellAt(x, y int) tilemap.Cell
}

// Verdict is the result of testing one axis of movement.
type Verdict struct {
	Outcome entity.Outcome
	Cells   [2]tilemap.Cell // leading-edge cells that were tested
}

// Denied reports whether the move must not be committed.
func (v Verdict) Denied() bool {
	return v.Outcome == entity.Blocked || v.Outcome == entity.WaterReset
}

// Resolver resolves entity movement against a tile grid.
type Resolver struct {
	terrain Terrain
}

func NewResolver(t Terrain) *Resolver {
	return &Resolver{terrain: t}
}

// CheckMove tests the two cells in front of the leading edge of e's hit box
// when moved step pixels toward dir. It records the verdict on e but does
// not move it.
func (r *Resolver) CheckMove(e *entity.Entity, dir entity.Direction, step int) (Verdict, error) {
	if !dir.Cardinal() {
		return Verdict{}, fmt.Errorf("%w: %v", ErrInvalidDirection, dir)
	}
	cells := r.leadingCells(e, dir, step)

	var wall, water, goal, hole bool
	for _, c := range cells {
		switch r.terrain.Effective(c.Col, c.Row) {
		case tilemap.Wall:
			wall = true
		case tilemap.Water:
			water = true
		case tilemap.FinishLine:
			goal = true
		case tilemap.Hole:
			hole = true
		}
	}

	v := Verdict{Cells: cells}
	switch {
	case wall:
		v.Outcome = entity.Blocked
	case water:
		v.Outcome = entity.WaterReset
	case goal:
		v.Outcome = entity.Goal
	case hole:
		v.Outcome = entity.HoleHook
	default:
		v.Outcome = entity.Allowed
	}
	e.Blocked = v.Denied()
	e.Outcome = v.Outcome
	return v, nil
}

func (r *Resolver) leadingCells(e *entity.Entity, dir entity.Direction, step int) [2]tilemap.Cell {
	left := e.X + e.Box.OffX
	top := e.Y + e.Box.OffY
	right := left + e.Box.W - 1
	bottom := top + e.Box.H - 1

	switch dir {
	case entity.RIGHT:
		x := right + step
		return [2]tilemap.Cell{r.terrain.CellAt(x, top), r.terrain.CellAt(x, bottom)}
	case entity.LEFT:
		x := left - step
		return [2]tilemap.Cell{r.terrain.CellAt(x, top), r.terrain.CellAt(x, bottom)}
	case entity.UP:
		y := top - step
		return [2]tilemap.Cell{r.terrain.CellAt(left, y), r.terrain.CellAt(right, y)}
	default: // DOWN
		y := bottom + step
		return [2]tilemap.Cell{r.terrain.CellAt(left, y), r.terrain.CellAt(right, y)}
	}
}

// MoveResult summarises a two-axis move.
type MoveResult struct {
	Moved    bool
	BlockedH bool
	BlockedV bool
	Outcome  entity.Outcome // most significant outcome of the tick
}

// Move translates e by its per-tick step along h (LEFT, RIGHT or NONE) and
// then v (UP, DOWN or NONE). Each axis is checked and committed separately so
// a blocked axis does not stop the other one. A water hazard stops evaluation
// and leaves the entity where it was; resetting it is up to the caller.
func (r *Resolver) Move(e *entity.Entity, h, v entity.Direction, tick uint64) (MoveResult, error) {
	var res MoveResult
	e.Blocked = false
	e.Outcome = entity.Allowed
	step := e.StepAt(tick)

	for i, dir := range [2]entity.Direction{h, v} {
		if dir == entity.NONE {
			continue
		}
		verdict, err := r.CheckMove(e, dir, step)
		if err != nil {
			return res, err
		}
		res.Outcome = worse(res.Outcome, verdict.Outcome)
		switch verdict.Outcome {
		case entity.WaterReset:
			e.Outcome = res.Outcome
			return res, nil
		case entity.Blocked:
			if i == 0 {
				res.BlockedH = true
			} else {
				res.BlockedV = true
			}
			continue
		}
		dx, dy := dir.Vector()
		e.X += int(dx) * step
		e.Y += int(dy) * step
		res.Moved = true
	}
	e.Blocked = res.BlockedH || res.BlockedV
	e.Outcome = res.Outcome
	return res, nil
}

var outcomeRank = map[entity.Outcome]int{
	entity.Allowed:    0,
	entity.Blocked:    1,
	entity.HoleHook:   2,
	entity.Goal:       3,
	entity.WaterReset: 4,
}

func worse(a, b entity.Outcome) entity.Outcome {
	if outcomeRank[b] > outcomeRank[a] {
		return b
	}
	return a
}
