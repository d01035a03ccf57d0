package model

import "github.com/go-gl/mathgl/mgl32"

// fitSize is the world size the largest bounds extent maps to at scale 1.
const fitSize = 0.25

// Placement positions a loaded dataset in the world.
type Placement struct {
	Offset          mgl32.Vec3
	Scale           float32
	RotationDegrees float32 // about the model's vertical axis
}

// DefaultPlacement returns a placement with unit scale and no offset.
func DefaultPlacement() Placement {
	return Placement{Scale: 1}
}

// ComposeTransform builds the model matrix for bounds b:
//
//	anchor * Rx(-90) * T(offset) * Rz(-rotation) * S(fitSize*scale/maxExtent) * T(-cx, -cy, -minZ)
//
// The asset is centered horizontally and rests on its lowest point. Returns
// false when b is invalid or has zero extent.
func ComposeTransform(b Bounds, p Placement, anchor mgl32.Mat4) (mgl32.Mat4, bool) {
	if !b.Valid {
		return mgl32.Ident4(), false
	}
	maxSize := b.MaxExtent()
	if maxSize <= 0 {
		return mgl32.Ident4(), false
	}

	c := b.Center()
	s := fitSize * p.Scale / maxSize

	m := mgl32.HomogRotate3DX(mgl32.DegToRad(-90))
	m = m.Mul4(mgl32.Translate3D(p.Offset[0], p.Offset[1], p.Offset[2]))
	m = m.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(-p.RotationDegrees)))
	m = m.Mul4(mgl32.Scale3D(s, s, s))
	m = m.Mul4(mgl32.Translate3D(-c[0], -c[1], -b.Min[2]))

	return anchor.Mul4(m), true
}

// TransformComposer keeps the last good model matrix across frames.
type TransformComposer struct {
	matrix mgl32.Mat4
	valid  bool
}

// NewTransformComposer returns a composer holding the identity matrix.
func NewTransformComposer() *TransformComposer {
	return &TransformComposer{matrix: mgl32.Ident4()}
}

// Update recomposes the matrix. When b cannot produce a transform the
// previous matrix is kept and false is returned.
func (tc *TransformComposer) Update(b Bounds, p Placement, anchor mgl32.Mat4) bool {
	m, ok := ComposeTransform(b, p, anchor)
	if !ok {
		return false
	}
	tc.matrix = m
	tc.valid = true
	return true
}

// Matrix returns the current model matrix.
func (tc *TransformComposer) Matrix() mgl32.Mat4 {
	return tc.matrix
}

// Valid returns true once a transform has been composed from real bounds.
func (tc *TransformComposer) Valid() bool {
	return tc.valid
}
