package checkout

import (
	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/kevinxiao27/venue-crdt/util"
	"github.com/kevinxiao27/venue-crdt/vec"
)

// Epsilon is the tolerance used when comparing transforms that were summed
// in different orders.
const Epsilon = 1e-9

// Snapshot is the derived state of one object.
type Snapshot struct {
	ID            string      `json:"id"`
	FurnitureType string      `json:"furnitureType"`
	Position      vec.Vector3 `json:"position"`
	Rotation      vec.Vector3 `json:"rotation"`
	Scale         vec.Vector3 `json:"scale"`
	Alive         bool        `json:"alive"`
}

// ApproxEqual compares transforms within eps and everything else exactly.
func (s Snapshot) ApproxEqual(o Snapshot, eps float64) bool {
	return s.ID == o.ID &&
		s.FurnitureType == o.FurnitureType &&
		s.Alive == o.Alive &&
		s.Position.ApproxEqual(o.Position, eps) &&
		s.Rotation.ApproxEqual(o.Rotation, eps) &&
		s.Scale.ApproxEqual(o.Scale, eps)
}

// Checkout folds the ops of one object into its snapshot. The result does
// not depend on the order of ops. Ops for other objects are ignored. It
// returns false when no add has been seen yet.
func Checkout[T any](objectID string, ops []ol.Op[T], tsCmp ol.CompareFunc[T]) (Snapshot, bool) {
	var (
		add                      *ol.Add[T]
		remove                   *ol.Remove[T]
		moves, rotations, scales []vec.Vector3
	)

	for _, op := range ops {
		if op.Meta().ObjectID != objectID {
			continue
		}
		switch o := op.(type) {
		case ol.Add[T]:
			if add == nil || ol.Compare[T](tsCmp, o, *add) > 0 {
				add = &o
			}
		case ol.Remove[T]:
			if remove == nil || ol.Compare[T](tsCmp, o, *remove) > 0 {
				remove = &o
			}
		case ol.Move[T]:
			moves = append(moves, o.Delta)
		case ol.Rotate[T]:
			rotations = append(rotations, o.Delta)
		case ol.Scale[T]:
			scales = append(scales, o.Delta)
		}
	}

	if add == nil {
		return Snapshot{}, false
	}

	// add-wins: only timestamps decide survival, a tie keeps the object
	alive := remove == nil || tsCmp(add.Timestamp, remove.Timestamp) >= 0

	return Snapshot{
		ID:            objectID,
		FurnitureType: add.FurnitureType,
		Position:      vec.Sum(add.Position, moves...),
		Rotation:      vec.Sum(add.Rotation, rotations...),
		Scale:         vec.Sum(add.Scale, scales...),
		Alive:         alive,
	}, true
}

// CheckoutAll reconstructs every object in the log. This walks the whole
// log and is meant for verification, not for the write path.
func CheckoutAll[T any](ops []ol.Op[T], tsCmp ol.CompareFunc[T], includeDead bool) map[string]Snapshot {
	groups := util.GroupBy(ops, func(op ol.Op[T]) string {
		return op.Meta().ObjectID
	})

	out := make(map[string]Snapshot, len(groups))
	for id, group := range groups {
		snap, ok := Checkout(id, group, tsCmp)
		if !ok || (!snap.Alive && !includeDead) {
			continue
		}
		out[id] = snap
	}
	return out
}
