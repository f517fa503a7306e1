package doc

import (
	"cmp"
	"math/rand/v2"
	"testing"

	"github.com/kevinxiao27/venue-crdt/checkout"
	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/kevinxiao27/venue-crdt/vec"
	"github.com/sanity-io/litter"
	"github.com/stretchr/testify/require"
)

var byTime ol.CompareFunc[int64] = cmp.Compare[int64]

var furniture = []string{"table", "chair", "sofa", "lamp", "stage"}

func newDoc(replicaID string) *Document[int64] {
	return New(replicaID, byTime)
}

func clone(t *testing.T, d *Document[int64]) *Document[int64] {
	t.Helper()
	c := newDoc(d.ReplicaID())
	_, err := c.Merge(d)
	require.NoError(t, err)
	return c
}

func randomVector(rng *rand.Rand) vec.Vector3 {
	return vec.Vector3{
		X: float64(rng.IntN(21)-10) / 4,
		Y: float64(rng.IntN(21)-10) / 4,
		Z: float64(rng.IntN(21)-10) / 4,
	}
}

// randomEdits issues n local edits against a small object pool. Timestamps
// are drawn from a narrow range so ties are common.
func randomEdits(t *testing.T, rng *rand.Rand, d *Document[int64], n int) {
	t.Helper()
	objects := []string{"o1", "o2", "o3", "o4"}
	for i := 0; i < n; i++ {
		ts := rng.Int64N(6)
		id := objects[rng.IntN(len(objects))]
		var err error
		switch rng.IntN(6) {
		case 0, 1:
			_, err = d.AddObject(ts, id, furniture[rng.IntN(len(furniture))], randomVector(rng), nil, nil)
		case 2:
			_, err = d.RemoveObject(ts, id)
		case 3:
			_, err = d.MoveObject(ts, id, randomVector(rng))
		case 4:
			_, err = d.RotateObject(ts, id, randomVector(rng))
		default:
			_, err = d.ScaleObject(ts, id, randomVector(rng))
		}
		require.NoError(t, err)
	}
}

// requireSameState asserts two documents hold the same log and derive the
// same objects, and that got's cache matches a rebuild.
func requireSameState(t *testing.T, want, got *Document[int64]) {
	t.Helper()
	require.Equal(t, want.OpCount(), got.OpCount())
	require.True(t, want.log.IDs().Equal(got.log.IDs()))

	wantObjs, gotObjs := want.Objects(), got.Objects()
	require.Len(t, gotObjs, len(wantObjs), litter.Sdump(wantObjs, gotObjs))
	for i := range wantObjs {
		require.True(t, wantObjs[i].ApproxEqual(gotObjs[i], checkout.Epsilon), litter.Sdump(wantObjs[i], gotObjs[i]))
	}
	require.NoError(t, got.Verify())
}

func permutations[T any](items []T, visit func([]T)) {
	var heap func(k int)
	heap = func(k int) {
		if k == 1 {
			visit(items)
			return
		}
		heap(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				items[i], items[k-1] = items[k-1], items[i]
			} else {
				items[0], items[k-1] = items[k-1], items[0]
			}
			heap(k - 1)
		}
	}
	heap(len(items))
}
