package game

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/collision"
	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
	"github.com/duongdatdev/miniisland-2.0-sub000/projectile"
	"github.com/duongdatdev/miniisland-2.0-sub000/protocol"
	"github.com/duongdatdev/miniisland-2.0-sub000/spawn"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Input is the local player's intent for one tick.
type Input struct {
	Move      entity.Direction
	Fire      bool
	FireDir   entity.Direction // NONE fires along the current facing
	AimX      float64          // non-zero aim overrides FireDir
	AimY      float64
	EnterMaze bool
	Teleport  string // map ID to request, empty for none
	Chat      string
}

// EngineConfig wires the engine to its collaborators. Zero values pick the
// defaults from the config package.
type EngineConfig struct {
	Username     string
	Tuning       config.Tuning
	Lookup       tilemap.Lookup // lobby tiles; nil uses the built-in island
	Seed         int64
	TickInterval time.Duration
	FireCooldown uint64 // ticks between shots
	Projectile   string // projectile type name from the tuning tables
	Clock        Clock
	Sender       Sender
	Policy       TrustPolicy
	OnScene      func(SceneEvent)
	OnChat       func(username, text string)
	Logger       *zap.Logger
}

// hit is a projectile hit recorded on a projectile task and reported on the
// tick goroutine.
type hit struct {
	target string
	name   string
	kind   entity.Kind
	damage int
	value  int
	killed bool
}

// Engine runs the client-side simulation: it applies authority messages,
// predicts local movement, fires projectiles and drives the spawners.
type Engine struct {
	ctx      *Context
	maps     Maps
	wave     *spawn.WaveSpawner
	maze     *spawn.MazeSpawner
	runner   *projectile.Runner
	cancel   context.CancelFunc
	clock    Clock
	interval time.Duration

	shot         projectile.Type
	pvpDamage    int
	fireCooldown uint64
	lastFire     uint64
	hasFired     bool

	inbound queue[string]
	hits    queue[hit]

	// server IDs of remote players by username, across maps
	remoteIDs map[string]string

	tick     atomic.Uint64
	snapshot atomic.Pointer[Snapshot]
}

// NewEngine builds the maps, spawners and projectile runner and places the
// local player in the lobby.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	log := logging.OrNop(cfg.Logger).Named("engine")
	if cfg.Tuning.Monsters == nil {
		cfg.Tuning = config.DefaultTuning()
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		cfg.Policy = ClientTrustPolicy{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = config.TICK_INTERVAL
	}
	if cfg.FireCooldown == 0 {
		cfg.FireCooldown = 5
	}

	maps, err := createMaps(cfg.Lookup, cfg.Seed, log)
	if err != nil {
		return nil, err
	}

	sx, sy := config.DefaultPlayerSpawn[0], config.DefaultPlayerSpawn[1]
	player := entity.New(entity.Player, cfg.Username, sx, sy, entity.SquareBox(config.ENTITY_SIZE), config.DefaultPlayerSpeed, config.PlayerMaxHealth)
	player.Name = cfg.Username
	player.MapID = config.DefaultMapID
	player.Facing = entity.DOWN

	roster := entity.NewRoster()
	roster.Add(player)

	c := &Context{
		Roster:   roster,
		Player:   player,
		LocalID:  player.ID,
		Username: cfg.Username,
		MapID:    config.DefaultMapID,
		Mode:     ModeLobby,
		Sender:   cfg.Sender,
		OnScene:  cfg.OnScene,
		OnChat:   cfg.OnChat,
		Policy:   cfg.Policy,
		Log:      log,
	}
	c.SetGrid(maps[config.DefaultMapID])

	rng := rand.New(rand.NewSource(cfg.Seed))
	e := &Engine{
		ctx:          c,
		maps:         maps,
		wave:         spawn.NewWaveSpawner(cfg.Tuning, roster, rng, log),
		maze:         spawn.NewMazeSpawner(cfg.Tuning, roster, rng, log),
		clock:        cfg.Clock,
		interval:     cfg.TickInterval,
		shot:         projectileType(cfg.Tuning, cfg.Projectile),
		fireCooldown: cfg.FireCooldown,
		remoteIDs:    make(map[string]string),
	}
	e.pvpDamage = e.shot.Damage

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.runner = projectile.NewRunner(runCtx, projectile.RunnerConfig{
		Limit:  config.MaxLiveProjectiles,
		Delay:  config.PROJECTILE_STEP,
		Bodies: roster.Bodies,
		OnHit:  e.onHit,
		Logger: log,
	})

	roster.Publish()
	e.publish()
	return e, nil
}

func projectileType(t config.Tuning, name string) projectile.Type {
	for _, s := range t.Projectiles {
		if s.Name == name {
			return projectile.TypeFromSpec(s)
		}
	}
	if len(t.Projectiles) > 0 {
		return projectile.TypeFromSpec(t.Projectiles[0])
	}
	return projectile.Type{Name: "bullet", Speed: config.DefaultProjectileSpeed, Range: 10 * config.TILE_SIZE, Damage: 10, Pierce: 1}
}

// Context exposes the simulation state. Only the tick goroutine may mutate it.
func (e *Engine) Context() *Context { return e.ctx }

// Grid returns the active tile grid. Safe from any goroutine.
func (e *Engine) Grid() *tilemap.Grid { return e.ctx.Grid() }

// Leaderboard returns the last leaderboard received. Safe from any goroutine.
func (e *Engine) Leaderboard() []protocol.LeaderboardEntry { return e.ctx.Leaderboard() }

// CurrentTick returns the tick the engine is on.
func (e *Engine) CurrentTick() uint64 {
	if e.clock != nil {
		return e.clock.CurrentTick()
	}
	return e.tick.Load()
}

// Run drives Tick from a ticker until ctx is done. input is polled once per
// tick and may be nil.
func (e *Engine) Run(ctx context.Context, input func() Input) error {
	e.ctx.Log.Info("simulation loop started", zap.Duration("interval", e.interval))
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.ctx.Log.Info("simulation loop stopped")
			return nil
		case <-ticker.C:
			var in Input
			if input != nil {
				in = input()
			}
			e.Tick(in)
		}
	}
}

// Tick advances the simulation by one step.
func (e *Engine) Tick(in Input) {
	e.tick.Add(1)
	tick := e.CurrentTick()
	c := e.ctx

	// Phase 1: reconcile with the authority
	e.applyInbound()

	// Phase 2: local intent
	e.requests(in)
	if c.Player.Alive() {
		e.move(in.Move, tick)
		if in.Fire {
			e.fire(in, tick)
		}
	}

	// Phase 3: world
	e.runSpawner(tick)
	e.reportHits()
	e.checkDeath()

	// Phase 4: publish
	c.Roster.Publish()
	e.publish()
}

func (e *Engine) requests(in Input) {
	c := e.ctx
	if in.Chat != "" {
		c.Send(protocol.Chat{Username: c.Username, Text: in.Chat})
	}
	if in.EnterMaze {
		c.Send(protocol.EnterMaze{Username: c.Username})
	}
	if in.Teleport != "" && in.Teleport != c.MapID {
		x, y := config.DefaultPlayerSpawn[0], config.DefaultPlayerSpawn[1]
		c.Send(protocol.Teleport{Username: c.Username, Map: in.Teleport, X: x, Y: y})
		e.switchMap(in.Teleport, x, y)
	}
}

func (e *Engine) move(dir entity.Direction, tick uint64) {
	if dir == entity.NONE {
		return
	}
	c := e.ctx
	p := c.Player
	p.Facing = dir
	h, v := dir.Split()

	res, err := collision.NewResolver(c.Grid()).Move(p, h, v, tick)
	if err != nil {
		c.Log.Warn("move rejected", zap.Stringer("dir", dir), zap.Error(err))
		return
	}
	switch res.Outcome {
	case entity.WaterReset:
		p.ResetToSpawn()
		c.Log.Debug("water reset", zap.Int("x", p.X), zap.Int("y", p.Y))
		c.Send(protocol.Update{Username: c.Username, X: p.X, Y: p.Y, Dir: p.Facing})
		return
	case entity.Goal:
		c.scene(SceneWin)
		e.returnToLobby()
		return
	case entity.HoleHook:
		c.Log.Debug("hole stepped on", zap.Int("x", p.X), zap.Int("y", p.Y))
	}
	if res.Moved {
		c.Send(protocol.Update{Username: c.Username, X: p.X, Y: p.Y, Dir: p.Facing})
	}
}

// targets lists the kinds a local projectile may hit in the current mode.
func (e *Engine) targets() []entity.Kind {
	switch e.ctx.Mode {
	case ModeArena:
		return []entity.Kind{entity.Monster, entity.RemotePlayer}
	case ModeMaze:
		return []entity.Kind{entity.MazeEnemy}
	}
	return []entity.Kind{entity.RemotePlayer}
}

func (e *Engine) fire(in Input, tick uint64) {
	if e.hasFired && tick-e.lastFire < e.fireCooldown {
		return
	}
	c := e.ctx
	cx, cy := c.Player.Center()
	x, y := float64(cx), float64(cy)

	var (
		p   *projectile.Projectile
		err error
	)
	if in.AimX != 0 || in.AimY != 0 {
		p, err = projectile.Aim(c.Player.ID, e.shot, x, y, in.AimX, in.AimY, e.targets()...)
	} else {
		dir := in.FireDir
		if dir == entity.NONE {
			dir = c.Player.Facing
		}
		p, err = projectile.Fire(c.Player.ID, e.shot, x, y, dir, e.targets()...)
	}
	if err != nil {
		c.Log.Debug("shot not fired", zap.Error(err))
		return
	}
	if !e.runner.Launch(p) {
		return
	}
	e.lastFire, e.hasFired = tick, true
	c.Send(protocol.Shot{Username: c.Username})
}

// onHit runs on projectile tasks. It touches entity state only through the
// atomic health API and hands the rest to the tick goroutine.
func (e *Engine) onHit(p *projectile.Projectile, b entity.Body) bool {
	if b.Ref == nil || !b.Ref.Alive() {
		return false
	}
	h := hit{target: b.ID, name: b.Ref.Name, kind: b.Kind, damage: p.Type.Damage, value: b.Ref.Value}
	policy := e.ctx.Policy
	switch {
	case b.Kind.Hostile():
		if policy.ApplyMonsterDamage() {
			_, h.killed = b.Ref.TakeDamage(h.damage)
		}
	case b.Kind == entity.RemotePlayer:
		if policy.ApplyShooterDamage() {
			_, h.killed = b.Ref.TakeDamage(h.damage)
		}
	default:
		return false
	}
	e.hits.push(h)
	return true
}

// reportHits sends the messages for every hit recorded since the last tick.
func (e *Engine) reportHits() {
	c := e.ctx
	for _, h := range e.hits.drain() {
		if h.kind == entity.RemotePlayer {
			c.Send(protocol.BulletCollision{Shooter: c.Username, Victim: h.name})
			continue
		}
		c.Send(protocol.MonsterHit{MonsterID: h.target, Damage: h.damage})
		if !h.killed {
			continue
		}
		c.Player.Score += h.value
		c.Send(protocol.MonsterDead{MonsterID: h.target, Username: c.Username})
		c.Send(protocol.ScoreUpdate{Username: c.Username, Score: c.Player.Score})
	}
}

func (e *Engine) runSpawner(tick uint64) {
	c := e.ctx
	var events []spawn.Event
	switch c.Mode {
	case ModeArena:
		events = e.wave.Update(c.Grid(), c.Player, tick)
	case ModeMaze:
		events = e.maze.Update(c.Grid(), c.Player, tick)
	}
	for _, ev := range events {
		switch ev.Kind {
		case spawn.HazardTriggered:
			c.Log.Debug("hazard triggered", zap.String("hazard", ev.Entity.Name), zap.Int("damage", ev.Amount))
		case spawn.PlayerHit, spawn.PowerUpCollected:
			c.Log.Debug(ev.Kind.String(), zap.Int("amount", ev.Amount), zap.Int("health", c.Player.Health()))
		}
	}
}

func (e *Engine) checkDeath() {
	c := e.ctx
	if c.Player.Alive() {
		return
	}
	c.scene(SceneDeath)
	c.Player.Revive()
	e.returnToLobby()
}

// returnToLobby ends the current run and tells the authority where the
// player went.
func (e *Engine) returnToLobby() {
	c := e.ctx
	x, y := config.DefaultPlayerSpawn[0], config.DefaultPlayerSpawn[1]
	if c.MapID == config.LobbyMapID {
		c.Player.X, c.Player.Y = c.Player.SpawnX, c.Player.SpawnY
		c.Send(protocol.Update{Username: c.Username, X: c.Player.X, Y: c.Player.Y, Dir: c.Player.Facing})
		return
	}
	c.Send(protocol.Teleport{Username: c.Username, Map: config.LobbyMapID, X: x, Y: y})
	e.switchMap(config.LobbyMapID, x, y)
}

func (e *Engine) stopSpawners() {
	e.wave.Stop()
	e.maze.Stop()
	e.runner.StopAll()
}

// Close stops every projectile task and waits for them to exit.
func (e *Engine) Close() {
	e.cancel()
	e.runner.Wait()
}
