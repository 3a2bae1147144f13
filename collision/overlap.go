package collision

import "github.com/duongdatdev/miniisland-2.0-sub000/entity"

// Filter selects which bodies an overlap query considers. A nil Kinds
// accepts every kind.
type Filter struct {
	SkipID string
	Kinds  []entity.Kind
}

func (f Filter) accepts(b entity.Body) bool {
	if !b.Alive || b.ID == f.SkipID {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if b.Kind == k {
			return true
		}
	}
	return false
}

// FirstOverlap returns the first body intersecting box.
func FirstOverlap(box entity.Rect, bodies []entity.Body, f Filter) (entity.Body, bool) {
	for _, b := range bodies {
		if f.accepts(b) && box.Overlaps(b.Box) {
			return b, true
		}
	}
	return entity.Body{}, false
}

// AllOverlaps returns every body intersecting box, in snapshot order.
func AllOverlaps(box entity.Rect, bodies []entity.Body, f Filter) []entity.Body {
	var hits []entity.Body
	for _, b := range bodies {
		if f.accepts(b) && box.Overlaps(b.Box) {
			hits = append(hits, b)
		}
	}
	return hits
}

// EntityOverlaps tests one entity against others using their live hit boxes.
// Only the tick goroutine may call it.
func EntityOverlaps(a *entity.Entity, others []*entity.Entity, kinds ...entity.Kind) []*entity.Entity {
	box := a.Rect()
	var hits []*entity.Entity
	for _, o := range others {
		if o == a || !o.Alive() {
			continue
		}
		if len(kinds) > 0 && !hasKind(kinds, o.Kind) {
			continue
		}
		if box.Overlaps(o.Rect()) {
			hits = append(hits, o)
		}
	}
	return hits
}

func hasKind(kinds []entity.Kind, k entity.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
