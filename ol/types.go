package ol

import (
	"github.com/kevinxiao27/venue-crdt/vec"
)

type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
	KindMove   Kind = "move"
	KindRotate Kind = "rotate"
	KindScale  Kind = "scale"
)

// Base is the record every operation carries. T is the causal timestamp
// type; the package only ever compares timestamps through a CompareFunc.
type Base[T any] struct {
	OpID      string // replica:counter
	Timestamp T
	ReplicaID string
	ObjectID  string
}

func (b Base[T]) Meta() Base[T] { return b }

func (Base[T]) sealed() {}

// Op is one of Add, Remove, Move, Rotate or Scale. Variants are passed by
// value, never by pointer: Validate rejects a *Add as an unknown kind. Ops
// are never mutated after construction.
type Op[T any] interface {
	Kind() Kind
	Meta() Base[T]
	sealed()
}

// Add creates an object, or re-asserts it with a new identity and base
// transform. The compare-maximal Add of an object wins.
type Add[T any] struct {
	Base[T]
	FurnitureType string
	Position      vec.Vector3
	Rotation      vec.Vector3
	Scale         vec.Vector3
}

type Remove[T any] struct {
	Base[T]
}

// Move, Rotate and Scale carry relative deltas that always accumulate.
type Move[T any] struct {
	Base[T]
	Delta vec.Vector3
}

type Rotate[T any] struct {
	Base[T]
	Delta vec.Vector3
}

type Scale[T any] struct {
	Base[T]
	Delta vec.Vector3
}

func (Add[T]) Kind() Kind    { return KindAdd }
func (Remove[T]) Kind() Kind { return KindRemove }
func (Move[T]) Kind() Kind   { return KindMove }
func (Rotate[T]) Kind() Kind { return KindRotate }
func (Scale[T]) Kind() Kind  { return KindScale }
