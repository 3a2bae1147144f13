package game

import (
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/projectile"
	"github.com/duongdatdev/miniisland-2.0-sub000/spawn"
)

// EntityView is the rendering view of one entity.
type EntityView struct {
	ID        string `json:"id" msgpack:"id"`
	Kind      string `json:"kind" msgpack:"kind"`
	Name      string `json:"name" msgpack:"name"`
	X         int    `json:"x" msgpack:"x"`
	Y         int    `json:"y" msgpack:"y"`
	Facing    string `json:"facing" msgpack:"facing"`
	Health    int    `json:"health" msgpack:"health"`
	MaxHealth int    `json:"maxHealth" msgpack:"maxHealth"`
	Score     int    `json:"score" msgpack:"score"`
	Boss      bool   `json:"boss,omitempty" msgpack:"boss,omitempty"`
}

// ProjectileView is the rendering view of one live projectile.
type ProjectileView struct {
	ID       string       `json:"id" msgpack:"id"`
	Owner    string       `json:"owner" msgpack:"owner"`
	Type     string       `json:"type" msgpack:"type"`
	X        float64      `json:"x" msgpack:"x"`
	Y        float64      `json:"y" msgpack:"y"`
	Rotation float64      `json:"rotation" msgpack:"rotation"`
	Trail    [][2]float64 `json:"trail" msgpack:"trail"`
}

// MazeView summarises the maze run.
type MazeView struct {
	Corridor int  `json:"corridor" msgpack:"corridor"`
	Hazards  int  `json:"hazards" msgpack:"hazards"`
	Degraded bool `json:"degraded" msgpack:"degraded"`
}

// Snapshot is the state published at the end of every tick. It is never
// modified after publication.
type Snapshot struct {
	Tick        uint64           `json:"tick" msgpack:"tick"`
	MapID       string           `json:"map" msgpack:"map"`
	Mode        string           `json:"mode" msgpack:"mode"`
	LocalID     string           `json:"localId" msgpack:"localId"`
	Username    string           `json:"username" msgpack:"username"`
	Player      EntityView       `json:"player" msgpack:"player"`
	Entities    []EntityView     `json:"entities" msgpack:"entities"`
	Projectiles []ProjectileView `json:"projectiles" msgpack:"projectiles"`
	Wave        spawn.WaveState  `json:"wave" msgpack:"wave"`
	Maze        *MazeView        `json:"maze,omitempty" msgpack:"maze,omitempty"`
}

// Snapshot returns the state published by the last tick.
func (e *Engine) Snapshot() *Snapshot { return e.snapshot.Load() }

func (e *Engine) publish() {
	c := e.ctx
	s := &Snapshot{
		Tick:     e.CurrentTick(),
		MapID:    c.MapID,
		Mode:     c.Mode.String(),
		LocalID:  c.LocalID,
		Username: c.Username,
		Player:   viewOf(c.Player),
		Wave:     e.wave.State(),
	}
	for _, m := range c.Roster.All() {
		if m == c.Player || m.Hidden || !m.Alive() {
			continue
		}
		s.Entities = append(s.Entities, viewOf(m))
	}
	for _, p := range e.runner.Live() {
		s.Projectiles = append(s.Projectiles, projectileView(p.Snapshot()))
	}
	if c.Mode == ModeMaze {
		s.Maze = &MazeView{
			Corridor: len(e.maze.Corridor()),
			Hazards:  len(e.maze.Hazards()),
			Degraded: e.maze.Degraded(),
		}
	}
	e.snapshot.Store(s)
}

func viewOf(m *entity.Entity) EntityView {
	return EntityView{
		ID:        m.ID,
		Kind:      m.Kind.String(),
		Name:      m.Name,
		X:         m.X,
		Y:         m.Y,
		Facing:    m.Facing.String(),
		Health:    m.Health(),
		MaxHealth: m.MaxHealth,
		Score:     m.Score,
		Boss:      m.Boss,
	}
}

func projectileView(st projectile.State) ProjectileView {
	v := ProjectileView{ID: st.ID, Owner: st.OwnerID, Type: st.Type, X: st.X, Y: st.Y, Rotation: st.Rotation}
	for _, pt := range st.Trail {
		v.Trail = append(v.Trail, [2]float64{pt.X, pt.Y})
	}
	return v
}

// EntityCounts returns the number of live entities per kind in the last
// published snapshot.
func (s *Snapshot) EntityCounts() map[string]int {
	counts := map[string]int{}
	for _, v := range s.Entities {
		counts[v.Kind]++
	}
	return counts
}
