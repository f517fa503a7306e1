package ol

import (
	"fmt"
	"math"

	"github.com/kevinxiao27/venue-crdt/vec"
)

func stamp[T any](seq *Sequencer, ts T, objectID string) Base[T] {
	return Base[T]{
		OpID:      seq.Next(),
		Timestamp: ts,
		ReplicaID: seq.ReplicaID(),
		ObjectID:  objectID,
	}
}

// NewAdd builds an Add. A nil rotation defaults to zero and a nil scale to
// (1,1,1).
func NewAdd[T any](seq *Sequencer, ts T, objectID, furnitureType string, position vec.Vector3, rotation, scale *vec.Vector3) Add[T] {
	op := Add[T]{
		Base:          stamp(seq, ts, objectID),
		FurnitureType: furnitureType,
		Position:      position,
		Rotation:      vec.Zero(),
		Scale:         vec.One(),
	}
	if rotation != nil {
		op.Rotation = *rotation
	}
	if scale != nil {
		op.Scale = *scale
	}
	return op
}

func NewRemove[T any](seq *Sequencer, ts T, objectID string) Remove[T] {
	return Remove[T]{Base: stamp(seq, ts, objectID)}
}

func NewMove[T any](seq *Sequencer, ts T, objectID string, delta vec.Vector3) Move[T] {
	return Move[T]{Base: stamp(seq, ts, objectID), Delta: delta}
}

func NewRotate[T any](seq *Sequencer, ts T, objectID string, delta vec.Vector3) Rotate[T] {
	return Rotate[T]{Base: stamp(seq, ts, objectID), Delta: delta}
}

func NewScale[T any](seq *Sequencer, ts T, objectID string, delta vec.Vector3) Scale[T] {
	return Scale[T]{Base: stamp(seq, ts, objectID), Delta: delta}
}

// Validate rejects operations that cannot be ingested: an unparsable op
// id, an id whose replica prefix disagrees with ReplicaID, a missing object
// id, or non-finite vector components.
func Validate[T any](op Op[T]) error {
	if op == nil {
		return fmt.Errorf("%w: nil op", ErrInvalidOperation)
	}
	meta := op.Meta()
	replica, _, err := ParseOpID(meta.OpID)
	if err != nil {
		return err
	}
	if replica != meta.ReplicaID {
		return fmt.Errorf("%w: op id %q does not belong to replica %q", ErrInvalidOperation, meta.OpID, meta.ReplicaID)
	}
	if meta.ObjectID == "" {
		return fmt.Errorf("%w: op %s has no object id", ErrInvalidOperation, meta.OpID)
	}

	switch o := op.(type) {
	case Add[T]:
		if o.FurnitureType == "" {
			return fmt.Errorf("%w: add %s has no furniture type", ErrInvalidOperation, meta.OpID)
		}
		return finite(meta.OpID, o.Position, o.Rotation, o.Scale)
	case Remove[T]:
		return nil
	case Move[T]:
		return finite(meta.OpID, o.Delta)
	case Rotate[T]:
		return finite(meta.OpID, o.Delta)
	case Scale[T]:
		return finite(meta.OpID, o.Delta)
	default:
		return fmt.Errorf("%w: unknown op kind %q", ErrInvalidOperation, op.Kind())
	}
}

func finite(opID string, vs ...vec.Vector3) error {
	for _, v := range vs {
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: op %s has a non-finite component", ErrInvalidOperation, opID)
			}
		}
	}
	return nil
}
