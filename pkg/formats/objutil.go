// Canonicalization helpers that bring a parsed OBJ into single-indexed form.
package formats

// Triangulate splits every polygon into a triangle fan (0, i, i+1).
// Winding order is preserved.
func Triangulate(o *OBJ) {
	if o.IsTriangulated() {
		return
	}
	out := make([]OBJFace, 0, len(o.Faces))
	for _, f := range o.Faces {
		n := len(f.Vertices)
		if n == 3 {
			out = append(out, f)
			continue
		}
		for i := 1; i+1 < n; i++ {
			tri := OBJFace{
				Vertices: []int{f.Vertices[0], f.Vertices[i], f.Vertices[i+1]},
				Material: f.Material,
				Groups:   f.Groups,
			}
			if f.TexCoords != nil {
				tri.TexCoords = []int{f.TexCoords[0], f.TexCoords[i], f.TexCoords[i+1]}
			}
			if f.Normals != nil {
				tri.Normals = []int{f.Normals[0], f.Normals[i], f.Normals[i+1]}
			}
			out = append(out, tri)
		}
	}
	o.Faces = out
}

// IsTriangulated returns true if every face has exactly 3 vertices.
func (o *OBJ) IsTriangulated() bool {
	for _, f := range o.Faces {
		if len(f.Vertices) != 3 {
			return false
		}
	}
	return true
}

// MakeTexCoordsUnique duplicates positions that are referenced with more than
// one texture coordinate, so that each position has exactly one texcoord.
// Returns the number of positions added.
func MakeTexCoordsUnique(o *OBJ) int {
	if len(o.TexCoords) == 0 {
		return 0
	}
	return makeUnique(o, func(f *OBJFace) []int { return f.TexCoords })
}

// MakeNormalsUnique duplicates positions that are referenced with more than
// one normal, so that each position has exactly one normal.
// Returns the number of positions added.
func MakeNormalsUnique(o *OBJ) int {
	if len(o.Normals) == 0 {
		return 0
	}
	return makeUnique(o, func(f *OBJFace) []int { return f.Normals })
}

// noAttribute stands for the attribute of a face that omitted it.
const noAttribute = -2

// makeUnique gives each (position, attribute) pair its own position slot.
// The first attribute seen for a position keeps the original slot. A face
// without the attribute counts as its own value, so those positions never
// share a slot with one that has it.
func makeUnique(o *OBJ, attr func(*OBJFace) []int) int {
	assigned := make([]int, len(o.Vertices))
	for i := range assigned {
		assigned[i] = -1
	}
	type pair struct{ v, a int }
	clones := make(map[pair]int)
	added := 0

	for fi := range o.Faces {
		f := &o.Faces[fi]
		a := attr(f)
		for k, v := range f.Vertices {
			want := noAttribute
			if a != nil {
				want = a[k]
			}
			switch assigned[v] {
			case -1:
				assigned[v] = want
			case want:
			default:
				key := pair{v, want}
				nv, ok := clones[key]
				if !ok {
					nv = len(o.Vertices)
					o.Vertices = append(o.Vertices, o.Vertices[v])
					clones[key] = nv
					added++
				}
				f.Vertices[k] = nv
			}
		}
	}
	return added
}

// MakeVertexIndexed aligns the texcoord and normal pools to the position pool,
// so one index addresses all three. Must run after MakeTexCoordsUnique and
// MakeNormalsUnique. Positions used by faces that omitted an attribute
// get zeros for it.
// An attribute pool that was empty stays empty.
func MakeVertexIndexed(o *OBJ) {
	n := len(o.Vertices)

	if len(o.TexCoords) > 0 {
		tex := make([][2]float32, n)
		for fi := range o.Faces {
			f := &o.Faces[fi]
			if f.TexCoords == nil {
				f.TexCoords = append([]int(nil), f.Vertices...)
				continue
			}
			for k, v := range f.Vertices {
				tex[v] = o.TexCoords[f.TexCoords[k]]
				f.TexCoords[k] = v
			}
		}
		o.TexCoords = tex
	}

	if len(o.Normals) > 0 {
		nrm := make([][3]float32, n)
		for fi := range o.Faces {
			f := &o.Faces[fi]
			if f.Normals == nil {
				f.Normals = append([]int(nil), f.Vertices...)
				continue
			}
			for k, v := range f.Vertices {
				nrm[v] = o.Normals[f.Normals[k]]
				f.Normals[k] = v
			}
		}
		o.Normals = nrm
	}
}
