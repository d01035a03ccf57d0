package model

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshport/pkg/formats"
)

// Default shading used when a group has no material definition.
var (
	DefaultAmbient   = mgl32.Vec3{0.2, 0.2, 0.2}
	DefaultDiffuse   = mgl32.Vec3{0.5, 0.5, 0.5}
	DefaultSpecular  = mgl32.Vec3{0, 0, 0}
	DefaultShininess = float32(100)
	DefaultOpacity   = float32(1)
)

// Shading holds the lighting parameters of a material group.
type Shading struct {
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
	Opacity   float32 // clamped to [0, 1]
}

// DefaultShading returns the shading used for groups without a material.
func DefaultShading() Shading {
	return Shading{
		Ambient:   DefaultAmbient,
		Diffuse:   DefaultDiffuse,
		Specular:  DefaultSpecular,
		Shininess: DefaultShininess,
		Opacity:   DefaultOpacity,
	}
}

// ResolveShading converts a material definition to shading parameters.
// A nil material yields DefaultShading. When both ambient and diffuse are
// exactly black the colors are assumed undefined: a textured group gets
// white ambient and keeps its diffuse, an untextured one falls back to the
// default ambient and diffuse.
func ResolveShading(mat *formats.MTLMaterial, hasTexture bool) Shading {
	if mat == nil {
		return DefaultShading()
	}
	s := Shading{
		Ambient:   mgl32.Vec3(mat.Ambient),
		Diffuse:   mgl32.Vec3(mat.Diffuse),
		Specular:  mgl32.Vec3(mat.Specular),
		Shininess: mat.Shininess,
		Opacity:   mgl32.Clamp(mat.Opacity, 0, 1),
	}
	if s.Ambient == (mgl32.Vec3{}) && s.Diffuse == (mgl32.Vec3{}) {
		if hasTexture {
			s.Ambient = mgl32.Vec3{1, 1, 1}
		} else {
			s.Ambient = DefaultAmbient
			s.Diffuse = DefaultDiffuse
		}
	}
	return s
}

// ResolvedMaterial is a material definition plus its texture file resolved
// to a path on disk ("" when the material has no map_Kd).
type ResolvedMaterial struct {
	Material    *formats.MTLMaterial
	TexturePath string
}

// GroupMaterials splits a triangulated, vertex-indexed mesh into one group per
// material name, in order of first use. Faces without usemtl go to the group
// named "". Each group gets compacted vertex arrays, its own indices and
// bounds. exists reports whether a texture file is present; nil uses os.Stat.
func GroupMaterials(o *formats.OBJ, materials map[string]ResolvedMaterial, exists func(string) bool) []*MaterialGroup {
	if exists == nil {
		exists = fileExists
	}

	type builder struct {
		group *MaterialGroup
		remap map[int]uint32
	}
	var order []*builder
	byName := make(map[string]*builder)

	hasTex := len(o.TexCoords) > 0
	hasNrm := len(o.Normals) > 0

	for _, f := range o.Faces {
		b, ok := byName[f.Material]
		if !ok {
			b = &builder{
				group: newGroup(f.Material, materials, exists),
				remap: make(map[int]uint32),
			}
			byName[f.Material] = b
			order = append(order, b)
		}

		g := b.group
		for _, v := range f.Vertices {
			idx, seen := b.remap[v]
			if !seen {
				idx = uint32(len(g.Positions) / 3)
				b.remap[v] = idx
				p := o.Vertices[v]
				g.Positions = append(g.Positions, p[0], p[1], p[2])
				if hasTex {
					t := o.TexCoords[v]
					g.TexCoords = append(g.TexCoords, t[0], t[1])
				}
				if hasNrm {
					n := o.Normals[v]
					g.Normals = append(g.Normals, n[0], n[1], n[2])
				}
			}
			g.Indices = append(g.Indices, idx)
		}
	}

	groups := make([]*MaterialGroup, len(order))
	for i, b := range order {
		b.group.IndexCount = len(b.group.Indices)
		b.group.Bounds = BoundsOf(b.group.Positions)
		groups[i] = b.group
	}
	return groups
}

func newGroup(name string, materials map[string]ResolvedMaterial, exists func(string) bool) *MaterialGroup {
	g := &MaterialGroup{Name: name}
	rm, ok := materials[name]
	if !ok {
		g.Shading = DefaultShading()
		return g
	}
	if rm.TexturePath != "" && exists(rm.TexturePath) {
		g.TexturePath = rm.TexturePath
		g.HasTexture = true
	}
	g.Shading = ResolveShading(rm.Material, g.HasTexture)
	return g
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
