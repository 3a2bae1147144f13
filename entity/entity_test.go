package entity

import (
	"sync"
	"testing"
)

func TestDirectionWireNames(t *testing.T) {
	for d := NONE; d <= UP_LEFT; d++ {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), got, err)
		}
	}
	if _, err := ParseDirection("NORTH"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestSplitDiagonal(t *testing.T) {
	h, v := UP_LEFT.Split()
	if h != LEFT || v != UP {
		t.Errorf("UP_LEFT.Split() = %v, %v", h, v)
	}
	h, v = DOWN.Split()
	if h != NONE || v != DOWN {
		t.Errorf("DOWN.Split() = %v, %v", h, v)
	}
}

func TestFromVectorAndDominant(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   Direction
	}{
		{1, 0, RIGHT}, {0, 1, DOWN}, {-1, 0, LEFT}, {0, -1, UP}, {1, 1, DOWN_RIGHT}, {0, 0, NONE},
	}
	for _, tc := range cases {
		if got := FromVector(tc.dx, tc.dy); got != tc.want {
			t.Errorf("FromVector(%v,%v) = %v, want %v", tc.dx, tc.dy, got, tc.want)
		}
	}
	if Dominant(3, -5) != UP || Dominant(-4, 4) != LEFT || Dominant(0, 0) != NONE {
		t.Error("Dominant picked the wrong axis")
	}
}

func TestTakeDamageKillsOnce(t *testing.T) {
	e := New(Monster, "m1", 0, 0, SquareBox(10), 1, 100)
	var wg sync.WaitGroup
	var mu sync.Mutex
	kills := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, killed := e.TakeDamage(7); killed {
				mu.Lock()
				kills++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if kills != 1 {
		t.Errorf("kills = %d, want 1", kills)
	}
	if e.Alive() || e.Health() != 0 {
		t.Errorf("alive=%v health=%d after lethal damage", e.Alive(), e.Health())
	}
}

func TestSlowExpires(t *testing.T) {
	e := New(Player, "p", 0, 0, SquareBox(10), 4, 100)
	e.Slow(0.5, 10)
	if e.StepAt(5) != 2 {
		t.Errorf("StepAt(5) = %d, want 2", e.StepAt(5))
	}
	if e.StepAt(10) != 4 {
		t.Errorf("StepAt(10) = %d, want 4", e.StepAt(10))
	}
}

func TestContactCooldown(t *testing.T) {
	e := New(Monster, "m", 0, 0, SquareBox(10), 1, 10)
	if !e.ContactReady(0, 5) {
		t.Fatal("first contact refused")
	}
	if e.ContactReady(4, 5) {
		t.Error("contact allowed during cooldown")
	}
	if !e.ContactReady(5, 5) {
		t.Error("contact refused after cooldown")
	}
}

func TestRosterSnapshotIsolation(t *testing.T) {
	r := NewRoster()
	a := New(Monster, "a", 0, 0, SquareBox(10), 1, 10)
	r.Add(a)
	r.Publish()
	snap := r.All()
	bodies := r.Bodies()

	r.Add(New(Monster, "b", 20, 0, SquareBox(10), 1, 10))
	a.X = 100
	if len(snap) != 1 {
		t.Errorf("old snapshot grew to %d", len(snap))
	}
	if bodies[0].Box.MinX != 0 {
		t.Errorf("published body moved: %v", bodies[0].Box)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if _, ok := r.Remove("a"); !ok {
		t.Error("Remove(a) failed")
	}
	if _, ok := r.Get("a"); ok {
		t.Error("a still present")
	}
}

func TestRosterAddReplacesSameID(t *testing.T) {
	r := NewRoster()
	r.Add(New(RemotePlayer, "x", 0, 0, SquareBox(10), 1, 10))
	r.Add(New(RemotePlayer, "x", 5, 5, SquareBox(10), 1, 10))
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if e, _ := r.Get("x"); e.X != 5 {
		t.Errorf("kept stale entity")
	}
}

func TestRectOverlapTouchingEdges(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	if a.Overlaps(Rect{10, 0, 20, 10}) {
		t.Error("touching edges reported as overlap")
	}
	if !a.Overlaps(Rect{9, 9, 20, 20}) {
		t.Error("overlap missed")
	}
}
