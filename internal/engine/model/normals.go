package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshport/pkg/formats"
)

// minNormalLength is the accumulated length below which a normal is treated as zero.
const minNormalLength = 1e-12

// positionKey identifies a vertex position by the exact bit pattern of its
// components. +0 and -0 are distinct keys.
type positionKey [3]uint32

func keyOf(p [3]float32) positionKey {
	return positionKey{math.Float32bits(p[0]), math.Float32bits(p[1]), math.Float32bits(p[2])}
}

// SynthesizeNormals replaces the normal pool of a triangulated mesh with
// smooth per-position normals. Each triangle's unnormalized face normal
// (v1-v0)x(v2-v0) is summed into every vertex sharing its position; the sums
// are then normalized. Face normal indices keep the face's vertex order.
//
// Sums that cancel to zero stay zero vectors and are reported with a
// *DegenerateGeometryError; the mesh is still usable.
func SynthesizeNormals(o *formats.OBJ) error {
	slots := make(map[positionKey]int)
	var sums []mgl32.Vec3

	for fi := range o.Faces {
		f := &o.Faces[fi]
		v0 := mgl32.Vec3(o.Vertices[f.Vertices[0]])
		v1 := mgl32.Vec3(o.Vertices[f.Vertices[1]])
		v2 := mgl32.Vec3(o.Vertices[f.Vertices[2]])
		n := v1.Sub(v0).Cross(v2.Sub(v0))

		f.Normals = make([]int, len(f.Vertices))
		for k, vi := range f.Vertices {
			key := keyOf(o.Vertices[vi])
			slot, ok := slots[key]
			if !ok {
				slot = len(sums)
				slots[key] = slot
				sums = append(sums, mgl32.Vec3{})
			}
			sums[slot] = sums[slot].Add(n)
			f.Normals[k] = slot
		}
	}

	degenerate := 0
	o.Normals = make([][3]float32, len(sums))
	for i, s := range sums {
		l := s.Len()
		if l < minNormalLength {
			degenerate++
			continue
		}
		o.Normals[i] = s.Mul(1 / l)
	}

	if degenerate > 0 {
		return &DegenerateGeometryError{Count: degenerate}
	}
	return nil
}
