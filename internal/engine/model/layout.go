package model

import (
	"encoding/binary"
	"math"
)

// floatSize is the byte size of one attribute component.
const floatSize = 4

// Layout describes one vertex buffer holding positions, texcoords and
// normals back to back.
type Layout struct {
	PositionsOffset int
	TexCoordsOffset int
	NormalsOffset   int
	TotalBytes      int

	NumVertices  int // len(positions) / 3
	NumTexCoords int // len(texcoords) / 2
	NumNormals   int // len(normals) / 3
}

// PlanLayout computes the packed layout for the given attribute arrays.
// Empty arrays are allowed; their region has zero length and the consumer
// skips binding them.
func PlanLayout(positions, texcoords, normals []float32) Layout {
	l := Layout{
		NumVertices:  len(positions) / 3,
		NumTexCoords: len(texcoords) / 2,
		NumNormals:   len(normals) / 3,
	}
	l.PositionsOffset = 0
	l.TexCoordsOffset = l.PositionsOffset + len(positions)*floatSize
	l.NormalsOffset = l.TexCoordsOffset + len(texcoords)*floatSize
	l.TotalBytes = l.NormalsOffset + len(normals)*floatSize
	return l
}

// HasTexCoords returns true if the texcoord region is non-empty.
func (l Layout) HasTexCoords() bool { return l.NumTexCoords > 0 }

// HasNormals returns true if the normal region is non-empty.
func (l Layout) HasNormals() bool { return l.NumNormals > 0 }

// Pack writes the attribute arrays into one little-endian buffer at the
// layout's offsets. The arrays must be the ones the layout was planned for.
func (l Layout) Pack(positions, texcoords, normals []float32) []byte {
	buf := make([]byte, l.TotalBytes)
	putFloats(buf[l.PositionsOffset:l.TexCoordsOffset], positions)
	putFloats(buf[l.TexCoordsOffset:l.NormalsOffset], texcoords)
	putFloats(buf[l.NormalsOffset:l.TotalBytes], normals)
	return buf
}

// PackIndices writes indices as little-endian uint32.
func PackIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[i*floatSize:], math.Float32bits(f))
	}
}

// PlanGroupLayout fills g.Layout and g.IndexCount from the group's arrays.
func PlanGroupLayout(g *MaterialGroup) {
	g.Layout = PlanLayout(g.Positions, g.TexCoords, g.Normals)
	g.IndexCount = len(g.Indices)
}
