// Package model holds the in-memory asset model: bounds, normal synthesis,
// per-material grouping, buffer layout planning and model transforms.
package model

// Pass selects which material groups are submitted in a draw.
type Pass uint8

const (
	PassOpaque      Pass = 1 << iota // Groups with opacity exactly 1
	PassTransparent                  // Groups with opacity below 1
	PassAll         = PassOpaque | PassTransparent
)

// String returns a human-readable pass set.
func (p Pass) String() string {
	switch p {
	case PassOpaque:
		return "opaque"
	case PassTransparent:
		return "transparent"
	case PassAll:
		return "all"
	default:
		return "none"
	}
}

// GPUHandle holds the backend object names for an uploaded group.
type GPUHandle struct {
	VertexArray  uint32
	VertexBuffer uint32
	IndexBuffer  uint32
	Texture      uint32 // 0 when the group draws untextured
}

// IsZero returns true if nothing has been uploaded.
func (h GPUHandle) IsZero() bool {
	return h == GPUHandle{}
}

// MaterialGroup is the part of an asset drawn with one material.
// Positions, TexCoords, Normals and Indices are owned by the group until
// upload; ReleaseBuffers drops them and leaves the descriptor.
type MaterialGroup struct {
	Name        string
	Shading     Shading
	TexturePath string
	HasTexture  bool

	Positions []float32 // xyz per vertex
	TexCoords []float32 // uv per vertex, empty when the mesh has none
	Normals   []float32 // xyz per vertex
	Indices   []uint32  // triangle list into this group's vertices

	Layout     Layout
	IndexCount int
	Bounds     Bounds

	GPU GPUHandle
}

// ReleaseBuffers drops the CPU-side attribute and index arrays.
func (g *MaterialGroup) ReleaseBuffers() {
	g.Positions = nil
	g.TexCoords = nil
	g.Normals = nil
	g.Indices = nil
}

// HasBuffers returns true while the CPU-side arrays are still held.
func (g *MaterialGroup) HasBuffers() bool {
	return g.Positions != nil || g.Indices != nil
}

// DrawnIn reports whether the group belongs to any pass in p.
func (g *MaterialGroup) DrawnIn(p Pass) bool {
	if g.Shading.Opacity >= 1 {
		return p&PassOpaque != 0
	}
	return p&PassTransparent != 0
}

// LoadedAsset is one ingested input file.
type LoadedAsset struct {
	SourcePath string
	Bounds     Bounds
	Groups     []*MaterialGroup
}

// NumIndices returns the total index count across groups.
func (a *LoadedAsset) NumIndices() int {
	n := 0
	for _, g := range a.Groups {
		n += g.IndexCount
	}
	return n
}
