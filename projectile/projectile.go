package projectile

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/duongdatdev/miniisland-2.0-sub000/collision"
	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
)

// ErrZeroAim is returned for a free-aim vector of length zero.
var ErrZeroAim = errors.New("zero aim vector")

// Type is the static description of a projectile kind.
type Type struct {
	Name   string
	Speed  float64 // pixels per step
	Range  float64 // pixels
	Damage int
	Pierce int // entities hit before stopping; values below 1 mean 1
}

// TypeFromSpec converts a tuning row.
func TypeFromSpec(s config.ProjectileSpec) Type {
	return Type{Name: s.Name, Speed: s.Speed, Range: s.Range, Damage: s.Damage, Pierce: s.Pierce}
}

// Point is a fractional world position.
type Point struct {
	X, Y float64
}

// HitFunc is invoked once per newly hit body. It returns whether the hit
// counts against the pierce budget.
type HitFunc func(p *Projectile, target entity.Body) bool

// State is an immutable view of a projectile for rendering.
type State struct {
	ID       string
	OwnerID  string
	Type     string
	X, Y     float64
	Rotation float64
	Trail    []Point
	Done     bool
}

// Projectile is stepped by exactly one goroutine; others read it through
// Snapshot and stop it through Stop.
type Projectile struct {
	ID      string
	OwnerID string
	Type    Type
	Targets []entity.Kind
	Size    float64

	x, y       float64
	vx, vy     float64
	rotation   float64
	traveled   float64
	steps      int
	pierceLeft int
	hit        map[string]bool
	trail      *Trail

	stopped atomic.Bool
	state   atomic.Pointer[State]
}

func newProjectile(ownerID string, t Type, x, y, ux, uy float64, targets []entity.Kind) *Projectile {
	p := &Projectile{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Type:       t,
		Targets:    targets,
		Size:       config.ProjectileSize,
		x:          x,
		y:          y,
		vx:         ux * t.Speed,
		vy:         uy * t.Speed,
		rotation:   math.Atan2(uy, ux),
		pierceLeft: max(t.Pierce, 1),
		hit:        make(map[string]bool),
		trail:      NewTrail(config.TrailCapacity),
	}
	p.publish()
	return p
}

// Fire launches along one of the eight compass directions. Diagonals are
// normalized so every direction covers the same distance per step.
func Fire(ownerID string, t Type, x, y float64, dir entity.Direction, targets ...entity.Kind) (*Projectile, error) {
	ux, uy := dir.Vector()
	if ux == 0 && uy == 0 {
		return nil, ErrZeroAim
	}
	return newProjectile(ownerID, t, x, y, ux, uy, targets), nil
}

// Aim launches along an arbitrary vector, normalized here.
func Aim(ownerID string, t Type, x, y, ax, ay float64, targets ...entity.Kind) (*Projectile, error) {
	n := math.Hypot(ax, ay)
	if n == 0 {
		return nil, ErrZeroAim
	}
	return newProjectile(ownerID, t, x, y, ax/n, ay/n, targets), nil
}

// Rect is the projectile hit box centered on its position.
func (p *Projectile) Rect() entity.Rect {
	h := p.Size / 2
	return entity.Rect{MinX: p.x - h, MinY: p.y - h, MaxX: p.x + h, MaxY: p.y + h}
}

// Step advances one integration step and resolves hits against bodies.
// onHit may be nil, in which case damage is applied to the target directly.
// It returns true while the projectile is still live.
func (p *Projectile) Step(bodies []entity.Body, onHit HitFunc) bool {
	if p.Done() {
		return false
	}
	p.trail.Push(Point{p.x, p.y})
	p.x += p.vx
	p.y += p.vy
	p.traveled += math.Hypot(p.vx, p.vy)
	p.steps++

	filter := collision.Filter{SkipID: p.OwnerID, Kinds: p.Targets}
	for _, b := range collision.AllOverlaps(p.Rect(), bodies, filter) {
		// Bodies are published once per tick; a target may have died since.
		if p.hit[b.ID] || (b.Ref != nil && !b.Ref.Alive()) {
			continue
		}
		p.hit[b.ID] = true
		counted := true
		if onHit != nil {
			counted = onHit(p, b)
		} else if b.Ref != nil {
			b.Ref.TakeDamage(p.Type.Damage)
		}
		if !counted {
			continue
		}
		p.pierceLeft--
		if p.pierceLeft <= 0 {
			p.Stop()
			break
		}
	}

	if p.traveled >= p.Type.Range {
		p.Stop()
	}
	p.publish()
	return !p.Done()
}

// Stop flags the projectile; its stepper exits on the next iteration.
func (p *Projectile) Stop() { p.stopped.Store(true) }

func (p *Projectile) Done() bool { return p.stopped.Load() }

// Steps is the number of integration steps taken so far.
func (p *Projectile) Steps() int { return p.steps }

// Hits is the number of hits counted against the pierce budget.
func (p *Projectile) Hits() int { return max(p.Type.Pierce, 1) - p.pierceLeft }

func (p *Projectile) publish() {
	p.state.Store(&State{
		ID:       p.ID,
		OwnerID:  p.OwnerID,
		Type:     p.Type.Name,
		X:        p.x,
		Y:        p.y,
		Rotation: p.rotation,
		Trail:    p.trail.Points(),
		Done:     p.Done(),
	})
}

// Snapshot returns the state published after the last step.
func (p *Projectile) Snapshot() State {
	return *p.state.Load()
}
