package game

import (
	"sync"
	"testing"

	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/projectile"
	"github.com/duongdatdev/miniisland-2.0-sub000/protocol"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) SendMessage(line string) error {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
	return nil
}

func (r *recorder) messages(t *testing.T) []protocol.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.Message
	for _, l := range r.lines {
		m, err := protocol.Decode(l)
		if err != nil {
			t.Fatalf("engine sent undecodable line %q: %v", l, err)
		}
		out = append(out, m)
	}
	return out
}

func (r *recorder) count(t *testing.T, k protocol.Kind) int {
	n := 0
	for _, m := range r.messages(t) {
		if m.Kind() == k {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.lines = nil
	r.mu.Unlock()
}

type rejectAll struct{ ClientTrustPolicy }

func (rejectAll) AcceptHit(string) bool { return false }

func newTestEngine(t *testing.T, policy TrustPolicy) (*Engine, *recorder, *[]SceneEvent) {
	t.Helper()
	rec := &recorder{}
	var scenes []SceneEvent
	e, err := NewEngine(EngineConfig{
		Username: "alice",
		Seed:     1,
		Sender:   rec,
		Policy:   policy,
		OnScene:  func(ev SceneEvent) { scenes = append(scenes, ev) },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, rec, &scenes
}

func mustLayout(t *testing.T, layout string) *tilemap.Grid {
	t.Helper()
	g, err := tilemap.ParseLayout(layout, config.TILE_SIZE)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	return g
}

func TestInboundReconciliation(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	c := e.Context()

	e.Deliver("ID,id-1,alice")
	e.Deliver("NewClient,bob,100,120,LEFT,id-2,lobby")
	e.Deliver("NewClient,carol,10,10,UP,id-3,arena")
	e.Deliver("NewClient,alice,0,0,UP,id-1,lobby")
	e.Deliver("garbage line")
	e.Tick(Input{})

	if c.LocalID != "id-1" {
		t.Fatalf("LocalID = %q", c.LocalID)
	}
	if _, ok := c.Roster.Get("id-1"); !ok {
		t.Errorf("local player not re-keyed under its assigned ID")
	}
	bob, ok := c.Roster.ByName(entity.RemotePlayer, "bob")
	if !ok {
		t.Fatalf("bob not added")
	}
	if bob.X != 100 || bob.Y != 120 || bob.Facing != entity.LEFT {
		t.Errorf("bob at %d,%d facing %v", bob.X, bob.Y, bob.Facing)
	}
	if _, ok := c.Roster.ByName(entity.RemotePlayer, "carol"); ok {
		t.Errorf("player on another map was added")
	}
	if n := len(c.Roster.OfKind(entity.RemotePlayer)); n != 1 {
		t.Errorf("remote players = %d, want 1", n)
	}

	px, py := c.Player.X, c.Player.Y
	e.Deliver("Update,bob,140,120,RIGHT")
	e.Deliver("Update,alice,500,500,UP")
	e.Deliver("Update,nobody,1,1,UP")
	e.Tick(Input{})
	if bob.X != 140 || bob.Facing != entity.RIGHT {
		t.Errorf("bob update not applied: %d %v", bob.X, bob.Facing)
	}
	if c.Player.X != px || c.Player.Y != py {
		t.Errorf("inbound Update moved the local player")
	}

	e.Deliver("Remove,id-2")
	e.Tick(Input{})
	if _, ok := c.Roster.ByName(entity.RemotePlayer, "bob"); ok {
		t.Errorf("bob not removed")
	}
}

func TestRemoveLocalPlayerIsDeath(t *testing.T) {
	e, _, scenes := newTestEngine(t, nil)
	e.Deliver("ID,id-1,alice")
	e.Tick(Input{})
	e.Deliver("Remove,id-1")
	e.Tick(Input{})

	if len(*scenes) == 0 || (*scenes)[0].Kind != SceneDeath {
		t.Fatalf("scenes = %v, want a death", *scenes)
	}
	if !e.Context().Player.Alive() {
		t.Errorf("player not respawned")
	}
}

func TestMoveSendsUpdateAndWaterResets(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil)
	c := e.Context()
	c.SetGrid(mustLayout(t, "#####;#.~.#;#####"))
	sx := c.Player.SpawnX

	e.Tick(Input{Move: entity.RIGHT})
	if c.Player.X != sx+config.DefaultPlayerSpeed {
		t.Fatalf("X = %d, want %d", c.Player.X, sx+config.DefaultPlayerSpeed)
	}
	if rec.count(t, protocol.KindUpdate) != 1 {
		t.Errorf("expected one Update after moving")
	}

	e.Tick(Input{Move: entity.RIGHT})
	if c.Player.X != sx {
		t.Errorf("water did not reset to spawn: X = %d", c.Player.X)
	}

	rec.reset()
	e.Tick(Input{Move: entity.LEFT})
	e.Tick(Input{Move: entity.LEFT})
	if c.Player.X != sx-config.DefaultPlayerSpeed {
		t.Errorf("X = %d after moving left twice", c.Player.X)
	}
	if n := rec.count(t, protocol.KindUpdate); n != 1 {
		t.Errorf("blocked move sent an Update: %d updates", n)
	}
}

func TestMazeLoadAndWin(t *testing.T) {
	e, rec, scenes := newTestEngine(t, nil)
	c := e.Context()

	e.Deliver("Maze,#####;#S.F#;#####")
	e.Tick(Input{})
	if c.Mode != ModeMaze || c.MapID != config.MazeMapID {
		t.Fatalf("mode %v map %q after Maze", c.Mode, c.MapID)
	}
	if len(*scenes) != 1 || (*scenes)[0].Kind != SceneMazeLoaded {
		t.Fatalf("scenes = %v", *scenes)
	}
	if cx, cy := c.Player.Center(); cx != 48 || cy != 48 {
		t.Errorf("player centre %d,%d, want the entrance centre", cx, cy)
	}
	if e.Snapshot().Maze == nil {
		t.Errorf("snapshot has no maze view")
	}

	for i := 0; i < 30 && c.Mode == ModeMaze; i++ {
		e.Tick(Input{Move: entity.RIGHT})
	}
	var kinds []SceneKind
	for _, s := range *scenes {
		kinds = append(kinds, s.Kind)
	}
	if len(kinds) != 3 || kinds[1] != SceneWin || kinds[2] != SceneMapChange {
		t.Fatalf("scene sequence = %v", kinds)
	}
	if c.MapID != config.LobbyMapID || c.Mode != ModeLobby {
		t.Errorf("not back in the lobby: %q %v", c.MapID, c.Mode)
	}
	if rec.count(t, protocol.KindTeleport) != 1 {
		t.Errorf("return to lobby not announced")
	}
}

func TestTeleportStartsArena(t *testing.T) {
	e, rec, scenes := newTestEngine(t, nil)
	c := e.Context()
	e.Tick(Input{Teleport: config.ArenaMapID})

	if c.Mode != ModeArena {
		t.Fatalf("mode = %v", c.Mode)
	}
	if !e.Snapshot().Wave.Active || e.Snapshot().Wave.Wave != 1 {
		t.Errorf("wave not started: %+v", e.Snapshot().Wave)
	}
	if c.Roster.CountAlive(entity.Monster) == 0 {
		t.Errorf("no initial batch spawned")
	}
	if rec.count(t, protocol.KindTeleport) != 1 {
		t.Errorf("teleport request not sent")
	}
	if len(*scenes) != 1 || (*scenes)[0].Kind != SceneMapChange {
		t.Errorf("scenes = %v", *scenes)
	}

	// The authority echoing the same map must not restart the run.
	e.Deliver("TeleportToMap,alice,arena,36,36")
	e.Tick(Input{})
	if len(*scenes) != 1 {
		t.Errorf("echoed teleport fired another scene")
	}
}

func TestRemoteTeleportFollowsMap(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	c := e.Context()
	e.Deliver("TeleportMap,bob,lobby,64,64")
	e.Tick(Input{})
	if _, ok := c.Roster.ByName(entity.RemotePlayer, "bob"); !ok {
		t.Fatalf("remote teleporting into our map not added")
	}
	e.Deliver("TeleportToMap,bob,arena,64,64")
	e.Tick(Input{})
	if _, ok := c.Roster.ByName(entity.RemotePlayer, "bob"); ok {
		t.Errorf("remote teleporting away not removed")
	}
}

func TestTeleportedRemoteKeepsServerID(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	c := e.Context()

	e.Deliver("NewClient,bob,10,10,UP,id-bob,arena")
	e.Deliver("TeleportToMap,bob,lobby,64,64")
	e.Tick(Input{})
	bob, ok := c.Roster.ByName(entity.RemotePlayer, "bob")
	if !ok || bob.ID != "id-bob" {
		t.Fatalf("bob = %+v, %v; want ID id-bob", bob, ok)
	}
	e.Deliver("Remove,id-bob")
	e.Tick(Input{})
	if _, ok := c.Roster.ByName(entity.RemotePlayer, "bob"); ok {
		t.Errorf("bob still present after Remove")
	}

	// Unknown ID at teleport time: a later NewClient re-keys the entity.
	e.Deliver("TeleportToMap,dave,lobby,64,64")
	e.Deliver("NewClient,dave,64,64,DOWN,id-dave,lobby")
	e.Tick(Input{})
	if _, ok := c.Roster.Get("id-dave"); !ok {
		t.Fatalf("dave not re-keyed under id-dave")
	}
	e.Deliver("Remove,id-dave")
	e.Tick(Input{})
	if n := len(c.Roster.OfKind(entity.RemotePlayer)); n != 0 {
		t.Errorf("remote players = %d after removals, want 0", n)
	}
}

func TestIdleTickStandsStill(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil)
	c := e.Context()
	x, y, facing := c.Player.X, c.Player.Y, c.Player.Facing
	for i := 0; i < 3; i++ {
		e.Tick(Input{})
	}
	if c.Player.X != x || c.Player.Y != y || c.Player.Facing != facing {
		t.Errorf("idle ticks moved the player to %d,%d facing %v", c.Player.X, c.Player.Y, c.Player.Facing)
	}
	if len(rec.messages(t)) != 0 {
		t.Errorf("idle ticks sent %v", rec.messages(t))
	}
}

func TestFireHonoursCooldown(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil)
	e.Tick(Input{Fire: true})
	e.Tick(Input{Fire: true})
	if n := rec.count(t, protocol.KindShot); n != 1 {
		t.Errorf("shots = %d, want 1 within the cooldown", n)
	}
	for i := 0; i < int(e.fireCooldown); i++ {
		e.Tick(Input{})
	}
	e.Tick(Input{Fire: true, AimX: 1, AimY: 1})
	if n := rec.count(t, protocol.KindShot); n != 2 {
		t.Errorf("shots = %d after the cooldown, want 2", n)
	}
}

func hitWith(t *testing.T, e *Engine, target *entity.Entity) {
	t.Helper()
	c := e.Context()
	c.Roster.Add(target)
	c.Roster.Publish()
	p, err := projectile.Fire(c.Player.ID, e.shot, 0, 0, entity.RIGHT, target.Kind)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	for _, b := range c.Roster.Bodies() {
		if b.ID == target.ID {
			if !e.onHit(p, b) {
				t.Fatalf("hit on %v not counted", target.Kind)
			}
			return
		}
	}
	t.Fatalf("target %s not published", target.ID)
}

func TestMonsterHitAppliedAndReported(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil)
	c := e.Context()
	m := entity.New(entity.Monster, "m-1", 200, 200, entity.SquareBox(20), 0, e.shot.Damage)
	m.Value = 15

	hitWith(t, e, m)
	e.Tick(Input{})

	if m.Alive() {
		t.Errorf("monster survived a lethal hit")
	}
	msgs := rec.messages(t)
	want := []protocol.Message{
		protocol.MonsterHit{MonsterID: "m-1", Damage: e.shot.Damage},
		protocol.MonsterDead{MonsterID: "m-1", Username: "alice"},
		protocol.ScoreUpdate{Username: "alice", Score: 15},
	}
	if len(msgs) != len(want) {
		t.Fatalf("messages = %v", msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("message %d = %#v, want %#v", i, msgs[i], want[i])
		}
	}
	if c.Player.Score != 15 {
		t.Errorf("score = %d", c.Player.Score)
	}
}

func TestHitOnDeadMonsterIgnored(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil)
	c := e.Context()
	m := entity.New(entity.Monster, "m-1", 200, 200, entity.SquareBox(20), 0, 50)
	c.Roster.Add(m)
	c.Roster.Publish()
	m.Kill()

	p, err := projectile.Fire(c.Player.ID, e.shot, 0, 0, entity.RIGHT, entity.Monster)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	for _, b := range c.Roster.Bodies() {
		if b.ID == "m-1" && e.onHit(p, b) {
			t.Fatalf("hit on a monster killed after publish was counted")
		}
	}
	e.Tick(Input{})
	if n := rec.count(t, protocol.KindMonsterHit); n != 0 {
		t.Errorf("MonsterHit sent %d times for a dead monster", n)
	}
}

func TestPvPHitOnlyNotifies(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil)
	bob := entity.New(entity.RemotePlayer, "id-2", 200, 200, entity.SquareBox(24), 0, 100)
	bob.Name = "bob"

	hitWith(t, e, bob)
	e.Tick(Input{})

	if bob.Health() != 100 {
		t.Errorf("shooter side applied PvP damage: health %d", bob.Health())
	}
	msgs := rec.messages(t)
	if len(msgs) != 1 || msgs[0] != (protocol.BulletCollision{Shooter: "alice", Victim: "bob"}) {
		t.Errorf("messages = %v", msgs)
	}
}

func TestVictimAppliesInboundHit(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	e.Deliver("BulletCollision,bob,alice")
	e.Deliver("BulletCollision,bob,carol")
	e.Tick(Input{})
	if got, want := e.Context().Player.Health(), config.PlayerMaxHealth-e.shot.Damage; got != want {
		t.Errorf("health = %d, want %d", got, want)
	}

	strict, _, _ := newTestEngine(t, rejectAll{})
	strict.Deliver("BulletCollision,bob,alice")
	strict.Tick(Input{})
	if got := strict.Context().Player.Health(); got != config.PlayerMaxHealth {
		t.Errorf("rejected hit applied: health = %d", got)
	}
}

func TestChatAndLeaderboard(t *testing.T) {
	var got [2]string
	e, rec, _ := newTestEngine(t, nil)
	e.Context().OnChat = func(u, text string) { got = [2]string{u, text} }

	e.Deliver("Chat,bob,hi, there")
	e.Deliver("Leaderboard,bob:30|alice:10")
	e.Tick(Input{Chat: "yo"})

	if got != [2]string{"bob", "hi, there"} {
		t.Errorf("chat = %v", got)
	}
	lb := e.Context().Leaderboard()
	if len(lb) != 2 || lb[0].Username != "bob" || lb[0].Score != 30 {
		t.Errorf("leaderboard = %v", lb)
	}
	if rec.count(t, protocol.KindChat) != 1 {
		t.Errorf("outbound chat not sent")
	}
}

func TestSnapshotPublishedEachTick(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	e.Deliver("NewClient,bob,100,120,LEFT,id-2,lobby")
	e.Tick(Input{})
	s := e.Snapshot()
	if s.Tick != 1 || s.Username != "alice" || s.Mode != "lobby" {
		t.Errorf("snapshot header = %+v", s)
	}
	if got := s.EntityCounts()["remote"]; got != 1 {
		t.Errorf("remote count = %d", got)
	}
}
