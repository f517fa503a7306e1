package vec

import (
	"math"

	"github.com/kevinxiao27/venue-crdt/util"
)

// Vector3 is a position, euler rotation or scale triple. Addition is the
// only operation the scene needs: every relative edit is a displacement.
type Vector3 struct {
	X float64 `json:"x" cbor:"x"`
	Y float64 `json:"y" cbor:"y"`
	Z float64 `json:"z" cbor:"z"`
}

func Zero() Vector3 { return Vector3{} }

func One() Vector3 { return Vector3{1, 1, 1} }

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sum adds every delta onto base. Order does not matter.
func Sum(base Vector3, deltas ...Vector3) Vector3 {
	return util.Reduce(deltas, func(d Vector3, acc Vector3) Vector3 {
		return acc.Add(d)
	}, base)
}

// ApproxEqual reports whether each component differs by at most eps.
func (v Vector3) ApproxEqual(o Vector3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps &&
		math.Abs(v.Y-o.Y) <= eps &&
		math.Abs(v.Z-o.Z) <= eps
}
