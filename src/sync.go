package game

import (
	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/protocol"
	"github.com/duongdatdev/miniisland-2.0-sub000/spawn"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Deliver queues one inbound line. It is safe to call from the transport's
// read goroutine; the message is applied on the next tick.
func (e *Engine) Deliver(line string) {
	e.inbound.push(line)
}

func (e *Engine) applyInbound() {
	for _, line := range e.inbound.drain() {
		msg, err := protocol.Decode(line)
		if err != nil {
			e.ctx.Log.Warn("inbound message skipped", zap.Error(err))
			continue
		}
		e.apply(msg)
	}
}

// apply reconciles local state with one message from the authority.
func (e *Engine) apply(msg protocol.Message) {
	c := e.ctx
	switch m := msg.(type) {
	case protocol.ID:
		c.Roster.Remove(c.Player.ID)
		c.LocalID = m.ID
		if m.Username != "" {
			c.Username = m.Username
		}
		c.Player.ID = m.ID
		c.Player.Name = c.Username
		c.Roster.Add(c.Player)
		c.Log.Info("identity assigned", zap.String("id", m.ID), zap.String("username", c.Username))

	case protocol.NewClient:
		if m.ID == c.LocalID || m.Username == c.Username {
			return
		}
		e.remoteIDs[m.Username] = m.ID
		if m.Map != c.MapID {
			return
		}
		e.upsertRemote(m.ID, m.Username, m.X, m.Y, m.Dir)

	case protocol.Update:
		if m.Username == c.Username {
			return
		}
		if r, ok := c.Roster.ByName(entity.RemotePlayer, m.Username); ok {
			r.X, r.Y, r.Facing = m.X, m.Y, m.Dir
		}

	case protocol.Remove:
		if m.ID == c.LocalID {
			c.Player.Kill()
			return
		}
		c.Roster.Remove(m.ID)
		for name, id := range e.remoteIDs {
			if id == m.ID {
				delete(e.remoteIDs, name)
			}
		}

	case protocol.Teleport:
		if m.Username == c.Username {
			e.switchMap(m.Map, m.X, m.Y)
			return
		}
		if m.Map != c.MapID {
			if r, ok := c.Roster.ByName(entity.RemotePlayer, m.Username); ok {
				c.Roster.Remove(r.ID)
			}
			return
		}
		e.upsertRemote(e.remoteIDs[m.Username], m.Username, m.X, m.Y, entity.NONE)

	case protocol.Maze:
		e.loadMaze(m.Layout)

	case protocol.Chat:
		if c.OnChat != nil {
			c.OnChat(m.Username, m.Text)
		}

	case protocol.Leaderboard:
		c.SetLeaderboard(m.Entries)

	case protocol.BulletCollision:
		if m.Victim != c.Username || !c.Policy.AcceptHit(m.Shooter) {
			return
		}
		if _, killed := c.Player.TakeDamage(e.pvpDamage); killed {
			c.Log.Info("killed by player", zap.String("shooter", m.Shooter))
		}

	default:
		c.Log.Debug("inbound message ignored", zap.String("keyword", protocol.Keyword(msg.Kind())))
	}
}

// upsertRemote adds a remote player or moves the one already known by name.
// An empty id means the server ID is not known yet; the username stands in
// until a NewClient re-keys the entity.
func (e *Engine) upsertRemote(id, name string, x, y int, dir entity.Direction) {
	c := e.ctx
	if r, ok := c.Roster.ByName(entity.RemotePlayer, name); ok {
		r.X, r.Y, r.Facing = x, y, dir
		if id != "" && r.ID != id {
			c.Roster.Remove(r.ID)
			r.ID = id
			c.Roster.Add(r)
		}
		return
	}
	if id == "" {
		id = name
	}
	r := entity.New(entity.RemotePlayer, id, x, y, entity.SquareBox(config.ENTITY_SIZE), config.DefaultPlayerSpeed, config.PlayerMaxHealth)
	r.Name = name
	r.Facing = dir
	r.MapID = c.MapID
	c.Roster.Add(r)
}

// switchMap moves the local player to mapID. Remote players belong to the
// old map and are dropped; the server re-announces the new map's occupants.
func (e *Engine) switchMap(mapID string, x, y int) {
	c := e.ctx
	if mapID == c.MapID && c.Mode != ModeMaze {
		c.Player.X, c.Player.Y = x, y
		return
	}
	e.stopSpawners()
	c.Roster.RemoveWhere(func(r *entity.Entity) bool { return r.Kind != entity.Player })

	if g, ok := e.maps[mapID]; ok {
		c.SetGrid(g)
	}
	c.MapID = mapID
	c.Player.MapID = mapID
	c.Player.X, c.Player.Y = x, y
	c.Player.SpawnX, c.Player.SpawnY = x, y
	c.Player.Path = nil

	switch mapID {
	case config.ArenaMapID:
		c.Mode = ModeArena
		e.wave.Start(c.Grid(), c.Player)
	default:
		c.Mode = ModeLobby
	}
	c.scene(SceneMapChange)
}

// loadMaze replaces the grid with a server-provided layout and starts the
// maze spawner on it.
func (e *Engine) loadMaze(layout string) {
	c := e.ctx
	g, err := tilemap.ParseLayout(layout, config.TILE_SIZE)
	if err != nil {
		c.Log.Warn("maze layout rejected", zap.Error(err))
		return
	}
	e.stopSpawners()
	c.Roster.RemoveWhere(func(r *entity.Entity) bool { return r.Kind != entity.Player })
	c.SetGrid(g)
	c.MapID = config.MazeMapID
	c.Player.MapID = config.MazeMapID
	c.Mode = ModeMaze

	var entrance *tilemap.Cell
	if cell, ok := g.Entrance(); ok {
		entrance = &cell
	} else if cell, ok := spawn.FindEntrance(g); ok {
		entrance = &cell
	}
	if entrance != nil {
		x, y := g.Center(*entrance)
		c.Player.CenterOn(x, y)
		c.Player.SpawnX, c.Player.SpawnY = c.Player.X, c.Player.Y
	}
	e.maze.Start(g, entrance, c.Player)
	c.scene(SceneMazeLoaded)
}
