package ol

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Set is a set of operations keyed by op id. Since ops are immutable and
// ids are unique, union needs no conflict handling.
type Set[T any] map[string]Op[T]

func NewSet[T any](ops ...Op[T]) Set[T] {
	s := make(Set[T], len(ops))
	for _, op := range ops {
		s.Insert(op)
	}
	return s
}

// Insert adds op unless its id is already present.
func (s Set[T]) Insert(op Op[T]) bool {
	id := op.Meta().OpID
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = op
	return true
}

func (s Set[T]) Has(opID string) bool {
	_, ok := s[opID]
	return ok
}

func (s Set[T]) IDs() mapset.Set[string] {
	ids := mapset.NewThreadUnsafeSetWithSize[string](len(s))
	for id := range s {
		ids.Add(id)
	}
	return ids
}

// Slice returns the ops in no particular order.
func (s Set[T]) Slice() []Op[T] {
	ops := make([]Op[T], 0, len(s))
	for _, op := range s {
		ops = append(ops, op)
	}
	return ops
}

// Sorted returns the ops in total order.
func (s Set[T]) Sorted(tsCmp CompareFunc[T]) []Op[T] {
	ops := s.Slice()
	Sort(tsCmp, ops)
	return ops
}

// Union returns a new set with everything in a and everything in b.
func Union[T any](a, b Set[T]) Set[T] {
	out := make(Set[T], len(a)+len(b))
	for id, op := range a {
		out[id] = op
	}
	for id, op := range b {
		if _, ok := out[id]; !ok {
			out[id] = op
		}
	}
	return out
}

// Difference returns the ops in b that a does not hold.
func Difference[T any](a, b Set[T]) Set[T] {
	missing := b.IDs().Difference(a.IDs())
	out := make(Set[T], missing.Cardinality())
	for _, id := range missing.ToSlice() {
		out[id] = b[id]
	}
	return out
}
