// Package formats provides parsers for Wavefront OBJ meshes and MTL material libraries.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/meshport/pkg/encoding"
)

// OBJ format errors.
var (
	ErrMalformedLine  = errors.New("malformed line")
	ErrInvalidIndex   = errors.New("invalid index")
	ErrDegenerateFace = errors.New("face has fewer than 3 vertices")
	ErrMixedFace      = errors.New("face mixes vertices with and without attributes")
	ErrNoFaces        = errors.New("OBJ has no faces")
)

// maxLineSize bounds a single OBJ/MTL line (very long face lines appear in CAD exports).
const maxLineSize = 16 * 1024 * 1024

// SyntaxError reports a parse failure at a specific line.
type SyntaxError struct {
	Line int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Msg, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// OBJFace is a polygon referencing the OBJ attribute pools by 0-based index.
type OBJFace struct {
	Vertices  []int    // Indices into OBJ.Vertices
	TexCoords []int    // Indices into OBJ.TexCoords (nil when the face has none)
	Normals   []int    // Indices into OBJ.Normals (nil when the face has none)
	Material  string   // Active usemtl name ("" when untagged)
	Groups    []string // Active g names
}

// OBJ represents a parsed Wavefront OBJ file.
type OBJ struct {
	Vertices  [][3]float32 // Geometric vertex positions
	TexCoords [][2]float32 // Texture coordinates (u, v)
	Normals   [][3]float32 // Vertex normals
	Faces     []OBJFace    // Polygons in file order
	MtlLibs   []string     // Material library file names from mtllib
}

// NumVertices returns the number of positions in the vertex pool.
func (o *OBJ) NumVertices() int { return len(o.Vertices) }

// NumTexCoords returns the number of texture coordinates in the pool.
func (o *OBJ) NumTexCoords() int { return len(o.TexCoords) }

// NumNormals returns the number of normals in the pool.
func (o *OBJ) NumNormals() int { return len(o.Normals) }

// NumFaces returns the number of faces.
func (o *OBJ) NumFaces() int { return len(o.Faces) }

// objParser holds the running state while reading an OBJ file.
type objParser struct {
	obj      *OBJ
	line     int
	material string
	groups   []string
}

// ParseOBJ parses Wavefront OBJ data.
// Supported statements: v, vt, vn, f, usemtl, mtllib, g. Everything else
// (o, s, l, p, curves) is ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	p := &objParser{obj: &OBJ{}}

	scanner := bufio.NewScanner(bytes.NewReader(encoding.TrimBOM(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(encoding.ToUTF8(scanner.Bytes())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &SyntaxError{Line: p.line, Msg: "read", Err: err}
	}

	if len(p.obj.Faces) == 0 {
		return nil, ErrNoFaces
	}
	if err := p.obj.validate(); err != nil {
		return nil, err
	}
	return p.obj, nil
}

func (p *objParser) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := p.parseFloats(fields[1:], 3, "v")
		if err != nil {
			return err
		}
		p.obj.Vertices = append(p.obj.Vertices, [3]float32{v[0], v[1], v[2]})
	case "vn":
		v, err := p.parseFloats(fields[1:], 3, "vn")
		if err != nil {
			return err
		}
		p.obj.Normals = append(p.obj.Normals, [3]float32{v[0], v[1], v[2]})
	case "vt":
		v, err := p.parseFloats(fields[1:], 1, "vt")
		if err != nil {
			return err
		}
		tc := [2]float32{v[0], 0}
		if len(v) > 1 {
			tc[1] = v[1]
		}
		p.obj.TexCoords = append(p.obj.TexCoords, tc)
	case "f":
		return p.parseFace(fields[1:])
	case "usemtl":
		if len(fields) < 2 {
			return p.errorf("usemtl with no name", ErrMalformedLine)
		}
		p.material = strings.Join(fields[1:], " ")
	case "mtllib":
		if len(fields) < 2 {
			return p.errorf("mtllib with no file", ErrMalformedLine)
		}
		p.obj.MtlLibs = append(p.obj.MtlLibs, fields[1:]...)
	case "g":
		p.groups = append([]string(nil), fields[1:]...)
	}
	return nil
}

// parseFloats parses at least min float fields; extra optional components
// (the w of "v x y z w") are read but the caller decides what to keep.
func (p *objParser) parseFloats(fields []string, min int, what string) ([]float32, error) {
	if len(fields) < min {
		return nil, p.errorf(fmt.Sprintf("'%s' needs %d components", what, min), ErrMalformedLine)
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, p.errorf(fmt.Sprintf("'%s' component %q", what, f), err)
		}
		out[i] = float32(val)
	}
	return out, nil
}

// parseFace parses: f v1[/vt1][/vn1] v2[/vt2][/vn2] v3[/vt3][/vn3] ...
func (p *objParser) parseFace(fields []string) error {
	if len(fields) < 3 {
		return p.errorf("face", ErrDegenerateFace)
	}

	face := OBJFace{
		Vertices: make([]int, len(fields)),
		Material: p.material,
		Groups:   p.groups,
	}

	for k, field := range fields {
		parts := strings.Split(field, "/")

		v, err := p.resolveIndex(parts[0], len(p.obj.Vertices))
		if err != nil {
			return err
		}
		face.Vertices[k] = v

		hasTex := len(parts) > 1 && parts[1] != ""
		hasNorm := len(parts) > 2 && parts[2] != ""

		if err := p.collect(&face.TexCoords, hasTex, k, len(fields), parts, 1, len(p.obj.TexCoords)); err != nil {
			return err
		}
		if err := p.collect(&face.Normals, hasNorm, k, len(fields), parts, 2, len(p.obj.Normals)); err != nil {
			return err
		}
	}

	p.obj.Faces = append(p.obj.Faces, face)
	return nil
}

// collect appends an optional attribute index, requiring that either every
// vertex of the face carries the attribute or none does.
func (p *objParser) collect(dst *[]int, present bool, k, n int, parts []string, part, count int) error {
	if k == 0 {
		if present {
			*dst = make([]int, n)
		}
	} else if present != (*dst != nil) {
		return p.errorf("face", ErrMixedFace)
	}
	if !present {
		return nil
	}
	idx, err := p.resolveIndex(parts[part], count)
	if err != nil {
		return err
	}
	(*dst)[k] = idx
	return nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index to 0-based.
func (p *objParser) resolveIndex(s string, count int) (int, error) {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf(fmt.Sprintf("index %q", s), ErrInvalidIndex)
	}
	switch {
	case val > 0:
		return val - 1, nil
	case val < 0:
		// Negative index is relative to the last parsed element
		return count + val, nil
	default:
		return 0, p.errorf("index 0", ErrInvalidIndex)
	}
}

func (p *objParser) errorf(msg string, err error) error {
	return &SyntaxError{Line: p.line, Msg: msg, Err: err}
}

// validate checks every face index against the final pool sizes.
func (o *OBJ) validate() error {
	for fi, f := range o.Faces {
		if err := checkIndices(f.Vertices, len(o.Vertices)); err != nil {
			return fmt.Errorf("face %d vertex: %w", fi, err)
		}
		if err := checkIndices(f.TexCoords, len(o.TexCoords)); err != nil {
			return fmt.Errorf("face %d texcoord: %w", fi, err)
		}
		if err := checkIndices(f.Normals, len(o.Normals)); err != nil {
			return fmt.Errorf("face %d normal: %w", fi, err)
		}
	}
	return nil
}

func checkIndices(idx []int, count int) error {
	for _, i := range idx {
		if i < 0 || i >= count {
			return fmt.Errorf("%w: %d out of range [0,%d)", ErrInvalidIndex, i, count)
		}
	}
	return nil
}
