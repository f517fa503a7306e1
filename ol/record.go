package ol

import (
	"fmt"

	"github.com/kevinxiao27/venue-crdt/util"
	"github.com/kevinxiao27/venue-crdt/vec"
)

// Record is the flat wire form of an operation. Variant fields are set
// only for the variants that carry them.
type Record[T any] struct {
	Type          Kind         `json:"type" cbor:"type"`
	OpID          string       `json:"opId" cbor:"opId"`
	Timestamp     T            `json:"timestamp" cbor:"timestamp"`
	ReplicaID     string       `json:"replicaId" cbor:"replicaId"`
	ObjectID      string       `json:"objectId" cbor:"objectId"`
	FurnitureType string       `json:"furnitureType,omitempty" cbor:"furnitureType,omitempty"`
	Position      *vec.Vector3 `json:"position,omitempty" cbor:"position,omitempty"`
	Rotation      *vec.Vector3 `json:"rotation,omitempty" cbor:"rotation,omitempty"`
	Scale         *vec.Vector3 `json:"scale,omitempty" cbor:"scale,omitempty"`
	Delta         *vec.Vector3 `json:"delta,omitempty" cbor:"delta,omitempty"`
}

func ToRecord[T any](op Op[T]) Record[T] {
	meta := op.Meta()
	r := Record[T]{
		Type:      op.Kind(),
		OpID:      meta.OpID,
		Timestamp: meta.Timestamp,
		ReplicaID: meta.ReplicaID,
		ObjectID:  meta.ObjectID,
	}
	switch o := op.(type) {
	case Add[T]:
		r.FurnitureType = o.FurnitureType
		r.Position, r.Rotation, r.Scale = &o.Position, &o.Rotation, &o.Scale
	case Move[T]:
		r.Delta = &o.Delta
	case Rotate[T]:
		r.Delta = &o.Delta
	case Scale[T]:
		r.Delta = &o.Delta
	}
	return r
}

// FromRecord decodes and validates a wire record. Records that cannot
// become a well-formed operation fail with ErrInvalidOperation.
func FromRecord[T any](r Record[T]) (Op[T], error) {
	base := Base[T]{
		OpID:      r.OpID,
		Timestamp: r.Timestamp,
		ReplicaID: r.ReplicaID,
		ObjectID:  r.ObjectID,
	}

	var op Op[T]
	switch r.Type {
	case KindAdd:
		if r.Position == nil {
			return nil, fmt.Errorf("%w: add %s has no position", ErrInvalidOperation, r.OpID)
		}
		add := Add[T]{Base: base, FurnitureType: r.FurnitureType, Position: *r.Position, Rotation: vec.Zero(), Scale: vec.One()}
		if r.Rotation != nil {
			add.Rotation = *r.Rotation
		}
		if r.Scale != nil {
			add.Scale = *r.Scale
		}
		op = add
	case KindRemove:
		op = Remove[T]{Base: base}
	case KindMove, KindRotate, KindScale:
		if r.Delta == nil {
			return nil, fmt.Errorf("%w: %s %s has no delta", ErrInvalidOperation, r.Type, r.OpID)
		}
		switch r.Type {
		case KindMove:
			op = Move[T]{Base: base, Delta: *r.Delta}
		case KindRotate:
			op = Rotate[T]{Base: base, Delta: *r.Delta}
		default:
			op = Scale[T]{Base: base, Delta: *r.Delta}
		}
	default:
		return nil, fmt.Errorf("%w: unknown op type %q", ErrInvalidOperation, r.Type)
	}

	if err := Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}

func ToRecords[T any](ops []Op[T]) []Record[T] {
	return util.Map(ops, ToRecord[T])
}

func FromRecords[T any](rs []Record[T]) ([]Op[T], error) {
	return util.MapErr(rs, FromRecord[T])
}
