package projectile

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
)

func stepsUntilDone(t *testing.T, p *Projectile, bodies []entity.Body) int {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if !p.Step(bodies, nil) {
			return p.Steps()
		}
	}
	t.Fatal("projectile never terminated")
	return 0
}

func TestRangeTerminatesAfterCeilSteps(t *testing.T) {
	cases := []struct{ rng, speed float64 }{{100, 10}, {95, 10}, {320, 8}, {10, 3}}
	for _, tc := range cases {
		p, err := Fire("me", Type{Speed: tc.speed, Range: tc.rng, Damage: 1}, 0, 0, entity.RIGHT)
		if err != nil {
			t.Fatal(err)
		}
		want := int(math.Ceil(tc.rng / tc.speed))
		if got := stepsUntilDone(t, p, nil); got != want {
			t.Errorf("R=%v S=%v: %d steps, want %d", tc.rng, tc.speed, got, want)
		}
	}
}

func TestDiagonalAndFreeAimMatchRange(t *testing.T) {
	typ := Type{Speed: 10, Range: 100, Damage: 1}
	d, _ := Fire("me", typ, 0, 0, entity.DOWN_LEFT)
	a, err := Aim("me", typ, 0, 0, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []*Projectile{d, a} {
		got := stepsUntilDone(t, p, nil)
		if got < 10 || got > 11 {
			t.Errorf("%d steps, want 10 (+1)", got)
		}
	}
	s := a.Snapshot()
	if math.Abs(s.X-60) > 1e-6 || math.Abs(s.Y-80) > 1e-6 {
		t.Errorf("free aim ended at %v,%v, want 60,80", s.X, s.Y)
	}
}

func TestZeroAimRejected(t *testing.T) {
	if _, err := Aim("me", Type{Speed: 1, Range: 1}, 0, 0, 0, 0); err != ErrZeroAim {
		t.Errorf("Aim(0,0) err = %v", err)
	}
	if _, err := Fire("me", Type{Speed: 1, Range: 1}, 0, 0, entity.NONE); err != ErrZeroAim {
		t.Errorf("Fire(NONE) err = %v", err)
	}
}

func lineOfMonsters(r *entity.Roster, n int) {
	for i := 0; i < n; i++ {
		m := entity.New(entity.Monster, string(rune('a'+i)), 40+i*40, -10, entity.SquareBox(20), 1, 1000)
		r.Add(m)
	}
	r.Publish()
}

func TestPierceStopsAfterExactlyP(t *testing.T) {
	for _, pierce := range []int{1, 2, 3} {
		r := entity.NewRoster()
		lineOfMonsters(r, 5)
		p, _ := Fire("me", Type{Speed: 5, Range: 1000, Damage: 10, Pierce: pierce}, 0, 0, entity.RIGHT, entity.Monster)
		stepsUntilDone(t, p, r.Bodies())
		damaged := 0
		for _, e := range r.All() {
			if e.Health() < 1000 {
				damaged++
			}
		}
		if damaged != pierce || p.Hits() != pierce {
			t.Errorf("pierce %d: damaged %d, hits %d", pierce, damaged, p.Hits())
		}
	}
}

func TestPierceCountsSimultaneousOverlaps(t *testing.T) {
	r := entity.NewRoster()
	r.Add(entity.New(entity.Monster, "a", 8, -10, entity.SquareBox(20), 1, 100))
	r.Add(entity.New(entity.Monster, "b", 8, -10, entity.SquareBox(20), 1, 100))
	r.Publish()
	p, _ := Fire("me", Type{Speed: 10, Range: 100, Damage: 5, Pierce: 1}, 0, 0, entity.RIGHT, entity.Monster)
	p.Step(r.Bodies(), nil)
	if !p.Done() {
		t.Fatal("non-piercing projectile survived a hit")
	}
	a, _ := r.Get("a")
	b, _ := r.Get("b")
	if a.Health()+b.Health() != 195 {
		t.Errorf("health a=%d b=%d, want exactly one hit", a.Health(), b.Health())
	}
}

func TestDeadSinceSnapshotIsPassedThrough(t *testing.T) {
	r := entity.NewRoster()
	lineOfMonsters(r, 2)
	first, _ := r.Get("a")
	second, _ := r.Get("b")
	first.Kill()

	p, _ := Fire("me", Type{Speed: 5, Range: 1000, Damage: 10, Pierce: 1}, 0, 0, entity.RIGHT, entity.Monster)
	stepsUntilDone(t, p, r.Bodies())
	if first.Health() != 1000 {
		t.Errorf("dead monster took damage: health %d", first.Health())
	}
	if second.Health() != 990 || p.Hits() != 1 {
		t.Errorf("live monster health %d, hits %d, want 990 and 1", second.Health(), p.Hits())
	}
}

func TestOwnerAndOtherKindsIgnored(t *testing.T) {
	r := entity.NewRoster()
	r.Add(entity.New(entity.Player, "me", -5, -5, entity.SquareBox(40), 1, 100))
	r.Add(entity.New(entity.NPC, "npc", 5, -5, entity.SquareBox(20), 1, 100))
	r.Publish()
	p, _ := Fire("me", Type{Speed: 4, Range: 8, Damage: 5}, 0, 0, entity.RIGHT, entity.Monster, entity.RemotePlayer)
	stepsUntilDone(t, p, r.Bodies())
	if p.Hits() != 0 {
		t.Errorf("hits = %d, want 0", p.Hits())
	}
}

func TestTrailIsBounded(t *testing.T) {
	tr := NewTrail(3)
	for i := 0; i < 5; i++ {
		tr.Push(Point{X: float64(i)})
	}
	pts := tr.Points()
	if len(pts) != 3 || pts[0].X != 2 || pts[2].X != 4 {
		t.Errorf("trail = %v, want 2,3,4", pts)
	}
}

func TestSnapshotRotation(t *testing.T) {
	p, _ := Fire("me", Type{Speed: 1, Range: 10}, 0, 0, entity.DOWN)
	if got := p.Snapshot().Rotation; math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("rotation = %v, want pi/2", got)
	}
}

func TestRunnerStepsConcurrently(t *testing.T) {
	r := entity.NewRoster()
	lineOfMonsters(r, 3)
	var hits, done atomic.Int32
	runner := NewRunner(context.Background(), RunnerConfig{
		Limit:  4,
		Delay:  time.Millisecond,
		Bodies: r.Bodies,
		OnHit: func(p *Projectile, b entity.Body) bool {
			hits.Add(1)
			b.Ref.TakeDamage(p.Type.Damage)
			return true
		},
		OnDone: func(*Projectile) { done.Add(1) },
	})
	typ := Type{Speed: 10, Range: 200, Damage: 1, Pierce: 3}
	for i := 0; i < 3; i++ {
		p, _ := Fire("me", typ, 0, 0, entity.RIGHT, entity.Monster)
		if !runner.Launch(p) {
			t.Fatalf("launch %d refused", i)
		}
	}
	runner.Wait()
	if done.Load() != 3 {
		t.Errorf("done = %d, want 3", done.Load())
	}
	if hits.Load() != 9 {
		t.Errorf("hits = %d, want 9", hits.Load())
	}
	if len(runner.Live()) != 0 {
		t.Errorf("live = %d after Wait", len(runner.Live()))
	}
}

func TestRunnerRefusesPastLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(ctx, RunnerConfig{Limit: 1, Delay: time.Hour})
	typ := Type{Speed: 1, Range: 1000}
	first, _ := Fire("me", typ, 0, 0, entity.UP)
	second, _ := Fire("me", typ, 0, 0, entity.UP)
	if !runner.Launch(first) {
		t.Fatal("first launch refused")
	}
	if runner.Launch(second) {
		t.Error("second launch accepted past the limit")
	}
	if !second.Done() {
		t.Error("refused projectile not stopped")
	}
	cancel()
	runner.Wait()
	if !first.Done() {
		t.Error("cancel did not stop the stepper")
	}
}
