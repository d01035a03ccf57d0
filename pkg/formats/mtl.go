// MTL (Material Template Library) parser for OBJ material definitions.
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

// MTL format errors.
var (
	ErrNoCurrentMaterial = errors.New("statement outside of a newmtl block")
)

// MTLMaterial is a single newmtl block.
type MTLMaterial struct {
	Name       string
	Ambient    [3]float32 // Ka
	Diffuse    [3]float32 // Kd
	Specular   [3]float32 // Ks
	Shininess  float32    // Ns
	Opacity    float32    // d (or 1-Tr)
	Illum      int        // illum
	DiffuseMap string     // map_Kd file name as written
}

// HasDiffuseMap returns true if the material references a diffuse texture.
func (m *MTLMaterial) HasDiffuseMap() bool {
	return m.DiffuseMap != ""
}

// newMTLMaterial returns a material with the values a block has before any
// statement overrides them.
func newMTLMaterial(name string) MTLMaterial {
	return MTLMaterial{
		Name:      name,
		Shininess: 100,
		Opacity:   1,
	}
}

type mtlParser struct {
	materials []MTLMaterial
	current   *MTLMaterial
	line      int
}

// ParseMTL parses MTL data into materials in file order.
// A name defined twice appears twice; callers that index by name keep the last.
func ParseMTL(data []byte) ([]MTLMaterial, error) {
	p := &mtlParser{}

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
	p.flush()

	return p.materials, nil
}

func (p *mtlParser) flush() {
	if p.current != nil {
		p.materials = append(p.materials, *p.current)
		p.current = nil
	}
}

func (p *mtlParser) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	if fields[0] == "newmtl" {
		if len(fields) < 2 {
			return p.errorf("newmtl with no name", ErrMalformedLine)
		}
		p.flush()
		mat := newMTLMaterial(strings.Join(fields[1:], " "))
		p.current = &mat
		return nil
	}

	switch fields[0] {
	case "Ka", "Kd", "Ks", "Ns", "d", "Tr", "illum", "map_Kd":
	default:
		// Ke, Ni, bump maps and the rest are not used for shading
		return nil
	}
	if p.current == nil {
		return p.errorf(fields[0], ErrNoCurrentMaterial)
	}

	m := p.current
	args := fields[1:]
	switch fields[0] {
	case "Ka":
		return p.parseColor(args, &m.Ambient)
	case "Kd":
		return p.parseColor(args, &m.Diffuse)
	case "Ks":
		return p.parseColor(args, &m.Specular)
	case "Ns":
		v, err := p.parseScalar(args, "Ns")
		if err != nil {
			return err
		}
		m.Shininess = v
	case "d":
		// "d -halo 0.5" is accepted; the halo modifier is ignored
		if len(args) > 0 && args[0] == "-halo" {
			args = args[1:]
		}
		v, err := p.parseScalar(args, "d")
		if err != nil {
			return err
		}
		m.Opacity = v
	case "Tr":
		v, err := p.parseScalar(args, "Tr")
		if err != nil {
			return err
		}
		m.Opacity = 1 - v
	case "illum":
		v, err := p.parseScalar(args, "illum")
		if err != nil {
			return err
		}
		m.Illum = int(v)
	case "map_Kd":
		name := textureFileName(args)
		if name == "" {
			return p.errorf("map_Kd with no file", ErrMalformedLine)
		}
		m.DiffuseMap = name
	}
	return nil
}

// parseColor reads "r g b". A single component is replicated to all three.
// The "spectral" and "xyz" forms are not supported.
func (p *mtlParser) parseColor(args []string, dst *[3]float32) error {
	if len(args) == 0 {
		return p.errorf("color with no components", ErrMalformedLine)
	}
	if args[0] == "spectral" || args[0] == "xyz" {
		return p.errorf("color form "+args[0], ErrMalformedLine)
	}
	var c [3]float32
	for i := 0; i < 3; i++ {
		s := args[0]
		if i < len(args) {
			s = args[i]
		}
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return p.errorf(fmt.Sprintf("color component %q", s), err)
		}
		c[i] = float32(v)
	}
	*dst = c
	return nil
}

func (p *mtlParser) parseScalar(args []string, what string) (float32, error) {
	if len(args) == 0 {
		return 0, p.errorf(what+" with no value", ErrMalformedLine)
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, p.errorf(fmt.Sprintf("%s value %q", what, args[0]), err)
	}
	return float32(v), nil
}

func (p *mtlParser) errorf(msg string, err error) error {
	return &SyntaxError{Line: p.line, Msg: msg, Err: err}
}

// textureOptionArgs is the number of arguments each map_* option consumes.
// Options taking "u [v [w]]" consume up to 3 numeric values.
var textureOptionArgs = map[string]int{
	"-blendu":  1,
	"-blendv":  1,
	"-cc":      1,
	"-clamp":   1,
	"-imfchan": 1,
	"-texres":  1,
	"-bm":      1,
	"-boost":   1,
	"-type":    1,
	"-mm":      2,
	"-o":       3,
	"-s":       3,
	"-t":       3,
}

// textureFileName strips map_* options and returns the file name.
// File names containing spaces are rejoined.
func textureFileName(args []string) string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		n, ok := textureOptionArgs[args[i]]
		i++
		if !ok {
			continue
		}
		if n == 1 {
			if i < len(args)-1 {
				i++
			}
			continue
		}
		for k := 0; k < n && i < len(args)-1; k++ {
			if _, err := strconv.ParseFloat(args[i], 64); err != nil {
				break
			}
			i++
		}
	}
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}
