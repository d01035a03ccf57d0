package model

import "github.com/go-gl/mathgl/mgl32"

// Bounds is an axis-aligned bounding box.
// Min and Max are meaningful only when Valid is true.
type Bounds struct {
	Min   mgl32.Vec3
	Max   mgl32.Vec3
	Valid bool
}

// Reset marks the bounds empty.
func (b *Bounds) Reset() {
	*b = Bounds{}
}

// ExpandByPoint grows the box to contain (x, y, z).
func (b *Bounds) ExpandByPoint(x, y, z float32) {
	if !b.Valid {
		b.Min = mgl32.Vec3{x, y, z}
		b.Max = b.Min
		b.Valid = true
		return
	}
	b.Min = mgl32.Vec3{min(b.Min[0], x), min(b.Min[1], y), min(b.Min[2], z)}
	b.Max = mgl32.Vec3{max(b.Max[0], x), max(b.Max[1], y), max(b.Max[2], z)}
}

// ExpandByBounds merges other into b. Invalid bounds are ignored.
func (b *Bounds) ExpandByBounds(other Bounds) {
	if !other.Valid {
		return
	}
	if !b.Valid {
		*b = other
		return
	}
	b.ExpandByPoint(other.Min[0], other.Min[1], other.Min[2])
	b.ExpandByPoint(other.Max[0], other.Max[1], other.Max[2])
}

// Center returns (Min+Max)/2. Only defined when Valid.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the per-axis extent Max-Min. Only defined when Valid.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the largest of the three axis extents.
func (b Bounds) MaxExtent() float32 {
	s := b.Size()
	return max(s[0], s[1], s[2])
}

// BoundsOf returns the bounds of a flat xyz position array.
func BoundsOf(positions []float32) Bounds {
	var b Bounds
	for i := 0; i+2 < len(positions); i += 3 {
		b.ExpandByPoint(positions[i], positions[i+1], positions[i+2])
	}
	return b
}
