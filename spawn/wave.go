package spawn

import (
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/collision"
	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// WaveState is the progression of an arena run.
type WaveState struct {
	Wave        int  `json:"wave" msgpack:"wave"`
	Quota       int  `json:"quota" msgpack:"quota"`
	Kills       int  `json:"kills" msgpack:"kills"`
	Spawned     int  `json:"spawned" msgpack:"spawned"`
	Interval    int  `json:"interval" msgpack:"interval"`
	Timer       int  `json:"timer" msgpack:"timer"`
	Cap         int  `json:"cap" msgpack:"cap"`
	CareerKills int  `json:"careerKills" msgpack:"careerKills"`
	Active      bool `json:"active" msgpack:"active"`
}

// WaveSpawner runs the open-arena mode: monsters arrive on a timer up to a
// per-wave quota, and clearing a wave makes the next one larger and faster.
type WaveSpawner struct {
	cfg     config.WaveTuning
	catalog *Catalog
	table   *WeightedTable
	roster  *entity.Roster
	rng     *rand.Rand
	log     *zap.Logger
	chaser  Chaser
	state   WaveState
}

func NewWaveSpawner(t config.Tuning, roster *entity.Roster, rng *rand.Rand, log *zap.Logger) *WaveSpawner {
	return &WaveSpawner{
		cfg:     t.Wave,
		catalog: NewCatalog(t.Monsters, t.DefaultMonster),
		table:   NewWeightedTable(t.Tiers),
		roster:  roster,
		rng:     rng,
		log:     logging.OrNop(log).Named("wave"),
		chaser: Chaser{
			ReplanEvery:     uint64(max(t.Wave.ReplanEvery, 1)),
			ContactCooldown: config.ContactCooldownTicks,
		},
	}
}

// State returns a copy of the progression counters.
func (w *WaveSpawner) State() WaveState { return w.state }

// SetCareerKills seeds the career counter that shifts the type tables.
func (w *WaveSpawner) SetCareerKills(n int) { w.state.CareerKills = n }

// Start resets progression to wave 1 and spawns the initial batch.
func (w *WaveSpawner) Start(g *tilemap.Grid, player *entity.Entity) []Event {
	w.Stop()
	career := w.state.CareerKills
	w.state = WaveState{
		Wave:        1,
		Quota:       w.cfg.InitialQuota,
		Interval:    w.cfg.InitialInterval,
		Cap:         w.cfg.Cap,
		CareerKills: career,
		Active:      true,
	}
	w.log.Info("arena started", zap.Int("quota", w.state.Quota), zap.Int("interval", w.state.Interval))
	return w.spawnBatch(g, player)
}

// Stop ends the run and removes every monster and power-up it owns.
func (w *WaveSpawner) Stop() {
	w.state.Active = false
	w.roster.RemoveWhere(func(e *entity.Entity) bool {
		return e.Kind == entity.Monster || e.Kind == entity.PowerUp
	})
}

// Update runs one tick: monster AI, retirement of the dead, the spawn
// timer, power-up pickup and wave advancement.
func (w *WaveSpawner) Update(g *tilemap.Grid, player *entity.Entity, tick uint64) []Event {
	if !w.state.Active {
		return nil
	}
	var events []Event

	for _, m := range w.roster.OfKind(entity.Monster) {
		mt := w.catalog.Lookup(m.Name)
		if dmg := w.chaser.Update(g, m, mt.PathMode, player, tick); dmg > 0 {
			events = append(events, Event{Kind: PlayerHit, Entity: m, Amount: dmg})
		}
	}

	events = append(events, w.retireDead(g)...)
	events = append(events, w.collectPowerUps(player)...)

	w.state.Timer++
	if w.state.Timer >= w.state.Interval {
		if w.roster.CountAlive(entity.Monster) < w.state.Cap && w.state.Spawned < w.state.Quota {
			w.state.Timer = 0
			if m := w.spawnOne(g, player); m != nil {
				events = append(events, Event{Kind: Spawned, Entity: m})
			}
		}
	}

	if w.state.Kills >= w.state.Quota && w.roster.CountAlive(entity.Monster) == 0 {
		events = append(events, w.advance(g, player)...)
	}
	return events
}

func (w *WaveSpawner) retireDead(g *tilemap.Grid) []Event {
	var events []Event
	dead := w.roster.RemoveWhere(func(e *entity.Entity) bool {
		return e.Kind == entity.Monster && !e.Alive()
	})
	for _, m := range dead {
		w.state.Kills++
		w.state.CareerKills++
		events = append(events, Event{Kind: Killed, Entity: m, Amount: m.Value})
		if w.cfg.PowerUpChance > 0 && w.rng.Float64() < w.cfg.PowerUpChance {
			p := entity.New(entity.PowerUp, uuid.New().String(), 0, 0, entity.SquareBox(config.ENTITY_SIZE/2), 0, 1)
			p.Name = "heal"
			p.Value = w.cfg.PowerUpHeal
			p.CenterOn(m.Center())
			w.roster.Add(p)
			events = append(events, Event{Kind: PowerUpDropped, Entity: p})
		}
	}
	return events
}

func (w *WaveSpawner) collectPowerUps(player *entity.Entity) []Event {
	if player == nil || !player.Alive() {
		return nil
	}
	var events []Event
	for _, p := range collision.EntityOverlaps(player, w.roster.OfKind(entity.PowerUp)) {
		player.Heal(p.Value)
		w.roster.Remove(p.ID)
		events = append(events, Event{Kind: PowerUpCollected, Entity: p, Amount: p.Value})
	}
	return events
}

func (w *WaveSpawner) advance(g *tilemap.Grid, player *entity.Entity) []Event {
	w.state.Wave++
	w.state.Quota = min(w.state.Quota+w.cfg.QuotaStep, w.cfg.MaxQuota)
	w.state.Interval = max(w.state.Interval-w.cfg.IntervalStep, w.cfg.MinInterval)
	w.state.Kills = 0
	w.state.Spawned = 0
	w.state.Timer = 0
	w.log.Info("wave advanced",
		zap.Int("wave", w.state.Wave),
		zap.Int("quota", w.state.Quota),
		zap.Int("interval", w.state.Interval))

	events := []Event{{Kind: WaveAdvanced, Amount: w.state.Wave}}
	events = append(events, w.spawnBatch(g, player)...)
	if w.cfg.BossEvery > 0 && w.state.Wave%w.cfg.BossEvery == 0 {
		mt := w.catalog.Lookup(w.cfg.BossType)
		if c, ok := w.spawnCell(g, player); ok {
			boss := NewMonster(entity.Monster, mt, g, c)
			w.roster.Add(boss)
			events = append(events, Event{Kind: BossSpawned, Entity: boss})
		}
	}
	return events
}

func (w *WaveSpawner) spawnBatch(g *tilemap.Grid, player *entity.Entity) []Event {
	var events []Event
	n := min(w.cfg.BatchSize, w.state.Quota-w.state.Spawned)
	for i := 0; i < n; i++ {
		if w.roster.CountAlive(entity.Monster) >= w.state.Cap {
			break
		}
		if m := w.spawnOne(g, player); m != nil {
			events = append(events, Event{Kind: Spawned, Entity: m})
		}
	}
	return events
}

func (w *WaveSpawner) spawnOne(g *tilemap.Grid, player *entity.Entity) *entity.Entity {
	c, ok := w.spawnCell(g, player)
	if !ok {
		w.log.Warn("no spawn cell available")
		return nil
	}
	mt := w.catalog.Lookup(w.table.Pick(w.rng, w.state.CareerKills))
	m := NewMonster(entity.Monster, mt, g, c)
	w.roster.Add(m)
	w.state.Spawned++
	return m
}

// spawnCell picks a random open Grass cell at least MinSpawnTiles from the
// player, relaxing the distance when the arena is too small.
func (w *WaveSpawner) spawnCell(g *tilemap.Grid, player *entity.Entity) (tilemap.Cell, bool) {
	var pc tilemap.Cell
	if player != nil {
		pc = cellOf(g, player)
	}
	const attempts = 64
	for minDist := w.cfg.MinSpawnTiles; minDist >= 0; minDist -= max(minDist/2, 1) {
		for i := 0; i < attempts; i++ {
			c := tilemap.Cell{Col: w.rng.Intn(g.Cols()), Row: w.rng.Intn(g.Rows())}
			if g.Effective(c.Col, c.Row) != tilemap.Grass {
				continue
			}
			if player != nil && manhattan(c, pc) < minDist {
				continue
			}
			return c, true
		}
		if minDist == 0 {
			break
		}
	}
	return tilemap.Cell{}, false
}
