package ol

import (
	"cmp"
	"slices"
	"strings"
)

// CompareFunc is the injected total order over causal timestamps. It
// returns a negative number, zero or a positive number like cmp.Compare.
type CompareFunc[T any] func(a, b T) int

// Compare orders operations by timestamp, then by op id. Every replica
// computes the same answer without communicating.
func Compare[T any](tsCmp CompareFunc[T], a, b Op[T]) int {
	ma, mb := a.Meta(), b.Meta()
	if c := tsCmp(ma.Timestamp, mb.Timestamp); c != 0 {
		return c
	}
	return strings.Compare(ma.OpID, mb.OpID)
}

func Sort[T any](tsCmp CompareFunc[T], ops []Op[T]) {
	slices.SortFunc(ops, func(a, b Op[T]) int {
		return Compare(tsCmp, a, b)
	})
}

// CompareOrigin orders operations by origin replica, then by counter. Ops
// must already be valid.
func CompareOrigin[T any](a, b Op[T]) int {
	ra, ca, _ := ParseOpID(a.Meta().OpID)
	rb, cb, _ := ParseOpID(b.Meta().OpID)
	if c := strings.Compare(ra, rb); c != 0 {
		return c
	}
	return cmp.Compare(ca, cb)
}

// HLC is a hybrid logical clock stamp. Producing HLCs (and correcting for
// skew) happens outside this package.
type HLC struct {
	Wall    int64  `json:"wall" cbor:"wall"`
	Logical uint32 `json:"logical" cbor:"logical"`
}

func CompareHLC(a, b HLC) int {
	if c := cmp.Compare(a.Wall, b.Wall); c != 0 {
		return c
	}
	return cmp.Compare(a.Logical, b.Logical)
}
