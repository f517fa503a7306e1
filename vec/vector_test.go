package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd(t *testing.T) {
	got := Vector3{1, 2, 3}.Add(Vector3{-1, 0.5, 4})
	assert.Equal(t, Vector3{0, 2.5, 7}, got)
}

func TestSumIsOrderIndependent(t *testing.T) {
	base := Vector3{1, 1, 1}
	a := Vector3{0.1, 0.2, 0.3}
	b := Vector3{-5, 0, 3}
	c := Vector3{1e-3, 7, -2}

	x := Sum(base, a, b, c)
	y := Sum(base, c, a, b)
	assert.True(t, x.ApproxEqual(y, 1e-9), "%v != %v", x, y)
	assert.Equal(t, base, Sum(base))
}

func TestApproxEqual(t *testing.T) {
	v := Vector3{1, 2, 3}
	assert.True(t, v.ApproxEqual(Vector3{1 + 1e-12, 2, 3}, 1e-9))
	assert.False(t, v.ApproxEqual(Vector3{1, 2.1, 3}, 1e-9))
	assert.Equal(t, Vector3{1, 1, 1}, One())
	assert.Equal(t, Vector3{}, Zero())
}
