package delta

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kevinxiao27/venue-crdt/ol"
)

var ErrOutOfOrder = errors.New("operation arrived before its predecessors")

// InOrder sorts ops by origin and counter and checks that each origin picks
// up right after the mark in have. Ops at or below the mark are kept; they
// are duplicates and apply as no-ops. A gap fails the whole batch, since
// applying it would raise the mark past ops the receiver never got. ops
// must already be valid.
func InOrder[T any](have ol.StateVector, ops []ol.Op[T]) ([]ol.Op[T], error) {
	sorted := slices.Clone(ops)
	slices.SortFunc(sorted, ol.CompareOrigin[T])

	next := ol.StateVector{}
	next.Merge(have)
	for _, op := range sorted {
		replica, counter, _ := ol.ParseOpID(op.Meta().OpID)
		if counter > next[replica]+1 {
			return nil, fmt.Errorf("%w: %s, have %s up to %d", ErrOutOfOrder, op.Meta().OpID, replica, next[replica])
		}
		next.Observe(replica, counter)
	}
	return sorted, nil
}
