package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func pointBounds(pts ...mgl32.Vec3) Bounds {
	var b Bounds
	for _, p := range pts {
		b.ExpandByPoint(p[0], p[1], p[2])
	}
	return b
}

func TestBounds_ExpandByPoint(t *testing.T) {
	var b Bounds
	assert.False(t, b.Valid)

	b.ExpandByPoint(1, 2, 3)
	assert.True(t, b.Valid)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Max)

	b.ExpandByPoint(-1, 5, 0)
	assert.Equal(t, mgl32.Vec3{-1, 2, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 5, 3}, b.Max)
	assert.Equal(t, mgl32.Vec3{0, 3.5, 1.5}, b.Center())
	assert.Equal(t, mgl32.Vec3{2, 3, 3}, b.Size())
	assert.Equal(t, float32(3), b.MaxExtent())

	b.Reset()
	assert.False(t, b.Valid)
}

func TestBounds_ExpandByBoundsInvalid(t *testing.T) {
	a := pointBounds(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2})
	before := a

	a.ExpandByBounds(Bounds{Min: mgl32.Vec3{-100, -100, -100}})
	assert.Equal(t, before, a, "invalid bounds must not change a valid one")

	var empty Bounds
	empty.ExpandByBounds(a)
	assert.Equal(t, a, empty)
}

func TestBounds_MergeOrderIndependent(t *testing.T) {
	parts := []Bounds{
		pointBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}),
		pointBounds(mgl32.Vec3{-3, 2, 0.5}),
		{},
		pointBounds(mgl32.Vec3{4, -1, 9}, mgl32.Vec3{2, 2, 2}),
	}
	orders := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}

	var want Bounds
	for i, order := range orders {
		var got Bounds
		for _, idx := range order {
			got.ExpandByBounds(parts[idx])
		}
		if i == 0 {
			want = got
			continue
		}
		assert.Equal(t, want, got, "order %v", order)
	}

	// (a+b)+c == a+(b+c)
	left := parts[0]
	left.ExpandByBounds(parts[1])
	left.ExpandByBounds(parts[3])

	right := parts[1]
	right.ExpandByBounds(parts[3])
	a := parts[0]
	a.ExpandByBounds(right)

	assert.Equal(t, left, a)
	assert.Equal(t, want, a)
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]float32{0, 0, 0, 1, -2, 3, 0.5, 4, -1})
	assert.True(t, b.Valid)
	assert.Equal(t, mgl32.Vec3{0, -2, -1}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 4, 3}, b.Max)

	assert.False(t, BoundsOf(nil).Valid)
}
