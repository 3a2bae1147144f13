package entity

import (
	"sync"
	"sync/atomic"
)

// Body is an immutable copy of the collision-relevant part of an entity,
// taken when the roster is published.
type Body struct {
	ID    string
	Kind  Kind
	Box   Rect
	Alive bool
	Ref   *Entity
}

// Roster is the shared entity registry. Membership is copy-on-write: readers
// get an immutable slice and never block writers. Body snapshots are
// published once per tick for readers running outside the tick goroutine.
type Roster struct {
	mu      sync.Mutex
	members atomic.Pointer[[]*Entity]
	bodies  atomic.Pointer[[]Body]
}

func NewRoster() *Roster {
	r := &Roster{}
	empty := []*Entity{}
	r.members.Store(&empty)
	noBodies := []Body{}
	r.bodies.Store(&noBodies)
	return r
}

// All returns the current members. The slice must not be modified.
func (r *Roster) All() []*Entity {
	return *r.members.Load()
}

func (r *Roster) Len() int { return len(r.All()) }

// Add registers e, replacing any member with the same ID.
func (r *Roster) Add(e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.members.Load()
	next := make([]*Entity, 0, len(cur)+1)
	for _, m := range cur {
		if m.ID != e.ID {
			next = append(next, m)
		}
	}
	next = append(next, e)
	r.members.Store(&next)
}

// Remove unregisters the member with id.
func (r *Roster) Remove(id string) (*Entity, bool) {
	var removed *Entity
	r.RemoveWhere(func(e *Entity) bool {
		if e.ID == id {
			removed = e
			return true
		}
		return false
	})
	return removed, removed != nil
}

// RemoveWhere unregisters every member matching pred and returns them.
func (r *Roster) RemoveWhere(pred func(*Entity) bool) []*Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.members.Load()
	next := make([]*Entity, 0, len(cur))
	var removed []*Entity
	for _, m := range cur {
		if pred(m) {
			removed = append(removed, m)
			continue
		}
		next = append(next, m)
	}
	if len(removed) > 0 {
		r.members.Store(&next)
	}
	return removed
}

// Get finds a member by ID.
func (r *Roster) Get(id string) (*Entity, bool) {
	for _, e := range r.All() {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// ByName finds the first member of kind with the given name.
func (r *Roster) ByName(kind Kind, name string) (*Entity, bool) {
	for _, e := range r.All() {
		if e.Kind == kind && e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// OfKind returns the members whose kind is one of kinds.
func (r *Roster) OfKind(kinds ...Kind) []*Entity {
	var out []*Entity
	for _, e := range r.All() {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// CountAlive counts live members of kind.
func (r *Roster) CountAlive(kind Kind) int {
	n := 0
	for _, e := range r.All() {
		if e.Kind == kind && e.Alive() {
			n++
		}
	}
	return n
}

// Publish snapshots every member's hit box for concurrent readers.
// Only the tick goroutine calls it.
func (r *Roster) Publish() {
	cur := r.All()
	bodies := make([]Body, 0, len(cur))
	for _, e := range cur {
		bodies = append(bodies, Body{ID: e.ID, Kind: e.Kind, Box: e.Rect(), Alive: e.Alive(), Ref: e})
	}
	r.bodies.Store(&bodies)
}

// Bodies returns the last published snapshot. The slice must not be modified.
func (r *Roster) Bodies() []Body {
	return *r.bodies.Load()
}
