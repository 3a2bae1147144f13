package game

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/protocol"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Clock supplies the current simulation tick.
type Clock interface {
	CurrentTick() uint64
}

// Sender is the outbound message sink. Sends are fire-and-forget.
type Sender interface {
	SendMessage(line string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(line string) error

func (f SenderFunc) SendMessage(line string) error { return f(line) }

// SceneKind is a scene transition the presentation layer reacts to.
type SceneKind int

const (
	SceneWin SceneKind = iota
	SceneDeath
	SceneMapChange
	SceneMazeLoaded
)

func (k SceneKind) String() string {
	switch k {
	case SceneWin:
		return "win"
	case SceneDeath:
		return "death"
	case SceneMapChange:
		return "map_change"
	case SceneMazeLoaded:
		return "maze_loaded"
	}
	return "unknown"
}

// SceneEvent is passed to the scene callback.
type SceneEvent struct {
	Kind SceneKind
	Map  string
}

// Mode is the active game mode.
type Mode int

const (
	ModeLobby Mode = iota
	ModeArena
	ModeMaze
)

func (m Mode) String() string {
	switch m {
	case ModeArena:
		return "arena"
	case ModeMaze:
		return "maze"
	}
	return "lobby"
}

// Context is the simulation state shared by every component of the engine.
// Fields other than the grid and the leaderboard are owned by the tick
// goroutine.
type Context struct {
	Roster   *entity.Roster
	Player   *entity.Entity
	LocalID  string
	Username string
	MapID    string
	Mode     Mode

	Sender  Sender
	OnScene func(SceneEvent)
	OnChat  func(username, text string)
	Policy  TrustPolicy
	Log     *zap.Logger

	grid        atomic.Pointer[tilemap.Grid]
	leaderboard atomic.Pointer[[]protocol.LeaderboardEntry]
}

// Grid returns the active tile grid.
func (c *Context) Grid() *tilemap.Grid { return c.grid.Load() }

// SetGrid replaces the active grid wholesale.
func (c *Context) SetGrid(g *tilemap.Grid) { c.grid.Store(g) }

// Leaderboard returns the last leaderboard snapshot received.
func (c *Context) Leaderboard() []protocol.LeaderboardEntry {
	if lb := c.leaderboard.Load(); lb != nil {
		return *lb
	}
	return nil
}

// SetLeaderboard replaces the leaderboard snapshot.
func (c *Context) SetLeaderboard(entries []protocol.LeaderboardEntry) {
	c.leaderboard.Store(&entries)
}

// Send encodes m and hands it to the sender. Failures are logged and
// dropped; nothing in the simulation waits on delivery.
func (c *Context) Send(m protocol.Message) {
	if c.Sender == nil {
		return
	}
	line, err := protocol.Encode(m)
	if err != nil {
		c.Log.Warn("outbound message dropped", zap.Error(err))
		return
	}
	if err := c.Sender.SendMessage(line); err != nil {
		c.Log.Debug("send failed", zap.String("keyword", protocol.Keyword(m.Kind())), zap.Error(err))
	}
}

func (c *Context) scene(kind SceneKind) {
	c.Log.Info("scene transition", zap.Stringer("kind", kind), zap.String("map", c.MapID))
	if c.OnScene != nil {
		c.OnScene(SceneEvent{Kind: kind, Map: c.MapID})
	}
}
