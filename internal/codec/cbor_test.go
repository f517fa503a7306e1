package codec

import (
	"testing"

	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/kevinxiao27/venue-crdt/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	pos := vec.Vector3{X: 1.5, Y: -2, Z: 0}
	rec := ol.Record[ol.HLC]{
		Type:          ol.KindAdd,
		OpID:          "A:1",
		Timestamp:     ol.HLC{Wall: 1700000000000, Logical: 3},
		ReplicaID:     "A",
		ObjectID:      "stage-1",
		FurnitureType: "stage",
		Position:      &pos,
	}

	data, err := Marshal(rec)
	require.NoError(t, err)

	var back ol.Record[ol.HLC]
	require.NoError(t, Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestDeterministicEncoding(t *testing.T) {
	a := map[string]uint64{"b": 2, "a": 1, "c": 3}
	b := map[string]uint64{"c": 3, "a": 1, "b": 2}

	x, err := Marshal(a)
	require.NoError(t, err)
	y, err := Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, x, y)
}
