package doc

import (
	"math/rand/v2"
	"testing"

	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/kevinxiao27/venue-crdt/vec"
	"github.com/stretchr/testify/require"
)

// Every permutation of a small conflicting history must derive the same
// state.
func TestEveryPermutationConverges(t *testing.T) {
	a, b, c := ol.NewSequencer("A"), ol.NewSequencer("B"), ol.NewSequencer("C")
	ops := []ol.Op[int64]{
		ol.NewAdd[int64](a, 1, "o", "table", vec.Zero(), nil, nil),
		ol.NewAdd[int64](b, 1, "o", "chair", vec.Vector3{X: 1}, nil, nil),
		ol.NewMove[int64](a, 2, "o", vec.Vector3{X: -5}),
		ol.NewMove[int64](b, 2, "o", vec.Vector3{Z: 3}),
		ol.NewRemove[int64](c, 1, "o"),
		ol.NewScale[int64](c, 3, "o", vec.Vector3{Y: 0.25}),
		ol.NewAdd[int64](c, 2, "p", "lamp", vec.Vector3{Y: 2}, nil, nil),
	}

	reference := newDoc("ref")
	_, err := reference.ApplyBatch(ops)
	require.NoError(t, err)

	perm := make([]ol.Op[int64], len(ops))
	copy(perm, ops)
	permutations(perm, func(order []ol.Op[int64]) {
		d := newDoc("ref")
		for _, op := range order {
			_, err := d.Apply(op)
			require.NoError(t, err)
		}
		requireSameState(t, reference, d)
	})
}

func TestRandomOrderConverges(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	var ops []ol.Op[int64]
	for _, replica := range []string{"A", "B", "C"} {
		d := newDoc(replica)
		randomEdits(t, rng, d, 40)
		ops = append(ops, d.Ops()...)
	}

	reference := newDoc("ref")
	_, err := reference.ApplyBatch(ops)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		rng.Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })
		d := newDoc("ref")
		// deliver in uneven batches, some twice
		for start := 0; start < len(ops); {
			end := min(len(ops), start+1+rng.IntN(10))
			_, err := d.ApplyBatch(ops[start:end])
			require.NoError(t, err)
			if rng.IntN(3) == 0 {
				n, err := d.ApplyBatch(ops[start:end])
				require.NoError(t, err)
				require.Zero(t, n)
			}
			start = end
		}
		requireSameState(t, reference, d)
	}
}

func threeReplicas(t *testing.T, seed uint64) (*Document[int64], *Document[int64], *Document[int64]) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	a, b, c := newDoc("A"), newDoc("B"), newDoc("C")
	for _, d := range []*Document[int64]{a, b, c} {
		randomEdits(t, rng, d, 25)
	}
	// partially share history so each side has something the others lack
	_, err := b.Merge(a)
	require.NoError(t, err)
	randomEdits(t, rng, b, 10)
	randomEdits(t, rng, a, 10)
	return a, b, c
}

func merged(t *testing.T, into, from *Document[int64]) *Document[int64] {
	t.Helper()
	out := clone(t, into)
	_, err := out.Merge(from)
	require.NoError(t, err)
	return out
}

func TestMergeIsCommutative(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		a, b, _ := threeReplicas(t, seed)
		requireSameState(t, merged(t, a, b), merged(t, b, a))
	}
}

func TestMergeIsAssociative(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		a, b, c := threeReplicas(t, seed)
		left := merged(t, merged(t, a, b), c)
		right := merged(t, a, merged(t, b, c))
		requireSameState(t, left, right)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	a, b, _ := threeReplicas(t, 42)
	before := clone(t, a)

	n, err := a.Merge(a)
	require.NoError(t, err)
	require.Zero(t, n)
	requireSameState(t, before, a)

	_, err = a.Merge(b)
	require.NoError(t, err)
	once := clone(t, a)
	n, err = a.Merge(b)
	require.NoError(t, err)
	require.Zero(t, n)
	requireSameState(t, once, a)

	n, err = a.MergeOps(once.log)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCacheMatchesRebuild(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	a, b := newDoc("A"), newDoc("B")
	for round := 0; round < 20; round++ {
		randomEdits(t, rng, a, rng.IntN(5))
		randomEdits(t, rng, b, rng.IntN(5))
		require.NoError(t, a.Verify())
		if rng.IntN(2) == 0 {
			_, err := a.Merge(b)
			require.NoError(t, err)
		} else {
			_, err := b.Merge(a)
			require.NoError(t, err)
		}
		require.NoError(t, a.Verify())
		require.NoError(t, b.Verify())
	}
}
