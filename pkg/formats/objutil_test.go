package formats

import "testing"

func TestTriangulate(t *testing.T) {
	obj, err := ParseOBJ([]byte(quadOBJ))
	if err != nil {
		t.Fatal(err)
	}
	Triangulate(obj)

	if !obj.IsTriangulated() {
		t.Fatal("expected triangulated mesh")
	}
	if obj.NumFaces() != 2 {
		t.Fatalf("expected 2 triangles, got %d", obj.NumFaces())
	}

	want := [][]int{{0, 1, 2}, {0, 2, 3}}
	for fi, tri := range want {
		f := obj.Faces[fi]
		for k := range tri {
			if f.Vertices[k] != tri[k] {
				t.Errorf("face %d vertex %d: expected %d, got %d", fi, k, tri[k], f.Vertices[k])
			}
			if f.TexCoords[k] != tri[k] {
				t.Errorf("face %d texcoord %d: expected %d, got %d", fi, k, tri[k], f.TexCoords[k])
			}
		}
		if f.Material != "red" {
			t.Errorf("face %d lost its material", fi)
		}
	}
}

func TestMakeTexCoordsUnique(t *testing.T) {
	// Two triangles share vertices 2 and 3 (1-based) but with different texcoords
	data := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vt 0.5 0.5
f 1/1 2/2 3/3
f 1/5 3/3 4/4
`
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	added := MakeTexCoordsUnique(obj)
	if added != 1 {
		t.Fatalf("expected 1 duplicated vertex, got %d", added)
	}
	if obj.NumVertices() != 5 {
		t.Fatalf("expected 5 vertices, got %d", obj.NumVertices())
	}
	if obj.Faces[1].Vertices[0] != 4 {
		t.Errorf("expected second face to use the duplicate, got %d", obj.Faces[1].Vertices[0])
	}
	if obj.Vertices[4] != obj.Vertices[0] {
		t.Errorf("duplicate position differs: %v vs %v", obj.Vertices[4], obj.Vertices[0])
	}
	if obj.Faces[1].Vertices[1] != 2 {
		t.Errorf("shared vertex with same texcoord should not be duplicated")
	}
}

func TestMakeVertexIndexed(t *testing.T) {
	data := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.25 0.75
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
`
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	MakeTexCoordsUnique(obj)
	MakeNormalsUnique(obj)
	MakeVertexIndexed(obj)

	if obj.NumTexCoords() != 3 || obj.NumNormals() != 3 {
		t.Fatalf("expected attribute pools of 3, got %d/%d", obj.NumTexCoords(), obj.NumNormals())
	}
	for i := 0; i < 3; i++ {
		if obj.TexCoords[i] != [2]float32{0.25, 0.75} {
			t.Errorf("texcoord %d: %v", i, obj.TexCoords[i])
		}
		if obj.Normals[i] != [3]float32{0, 0, 1} {
			t.Errorf("normal %d: %v", i, obj.Normals[i])
		}
		f := obj.Faces[0]
		if f.TexCoords[i] != f.Vertices[i] || f.Normals[i] != f.Vertices[i] {
			t.Errorf("face attribute %d not aligned to vertex index", i)
		}
	}
}

func TestMakeVertexIndexed_NoAttributes(t *testing.T) {
	obj, err := ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	MakeVertexIndexed(obj)
	if obj.NumTexCoords() != 0 || obj.NumNormals() != 0 {
		t.Errorf("empty attribute pools should stay empty")
	}
	if obj.Faces[0].TexCoords != nil {
		t.Error("faces should not gain texcoord indices")
	}
}

func TestMakeVertexIndexed_FaceWithoutTexCoords(t *testing.T) {
	data := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0.1 0.1
vt 0.5 0.5
vt 0.9 0.9
f 1/1 2/2 3/3
f 2 4 3
`
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	added := MakeTexCoordsUnique(obj)
	MakeVertexIndexed(obj)

	// Positions 2 and 3 are shared with the textured face
	if added != 2 {
		t.Errorf("expected 2 duplicated vertices, got %d", added)
	}
	first, second := obj.Faces[0], obj.Faces[1]
	want := [][2]float32{{0.1, 0.1}, {0.5, 0.5}, {0.9, 0.9}}
	for k := range want {
		if got := obj.TexCoords[first.TexCoords[k]]; got != want[k] {
			t.Errorf("textured face vertex %d: expected %v, got %v", k, want[k], got)
		}
	}
	for k := range second.Vertices {
		if got := obj.TexCoords[second.TexCoords[k]]; got != [2]float32{} {
			t.Errorf("untextured face vertex %d: expected zeros, got %v", k, got)
		}
		for _, v := range first.Vertices {
			if second.Vertices[k] == v {
				t.Errorf("untextured face shares vertex %d with the textured face", v)
			}
		}
	}
}

func TestTriangulate_AlreadyTriangles(t *testing.T) {
	obj, err := ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	before := &obj.Faces[0]
	Triangulate(obj)
	if &obj.Faces[0] != before {
		t.Error("triangle-only mesh should be left in place")
	}
}
