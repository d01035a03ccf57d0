// Package scene draws loaded mesh datasets.
package scene

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/engine/loader"
	"github.com/Faultbox/meshport/internal/engine/model"
	"github.com/Faultbox/meshport/internal/engine/scene/shaders"
	"github.com/Faultbox/meshport/internal/engine/shader"
	"github.com/Faultbox/meshport/internal/engine/texture"
	"github.com/Faultbox/meshport/internal/logger"
)

// Vertex attribute locations in object.vert.
const (
	attribPosition = 0
	attribTexCoord = 1
	attribNormal   = 2
)

// DefaultLightDirection is the world-space direction towards the light.
var DefaultLightDirection = mgl32.Vec4{0.250, 0.866, 0.433, 0}

var errEmptyGroup = errors.New("group has no vertices or indices")

// ObjectRenderer uploads material groups and draws them.
// It implements loader.Uploader and must be used on the GL thread.
type ObjectRenderer struct {
	program     *shader.Program
	fallbackTex uint32
	log         *zap.Logger

	LightDirection mgl32.Vec4
}

// NewObjectRenderer compiles the object shaders.
func NewObjectRenderer() (*ObjectRenderer, error) {
	prog, err := shader.NewProgram(shaders.ObjectVertexShader, shaders.ObjectFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("object shader: %w", err)
	}

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(white.Pix, []uint8{255, 255, 255, 255})

	return &ObjectRenderer{
		program:        prog,
		fallbackTex:    uploadTexture(white),
		log:            logger.Named("scene"),
		LightDirection: DefaultLightDirection,
	}, nil
}

// Upload creates the vertex array, buffers and texture for g.
// A texture that cannot be decoded is logged and g draws untextured.
func (r *ObjectRenderer) Upload(g *model.MaterialGroup) (model.GPUHandle, error) {
	l := g.Layout
	if l.TotalBytes == 0 || len(g.Indices) == 0 {
		return model.GPUHandle{}, fmt.Errorf("%q: %w", g.Name, errEmptyGroup)
	}

	var h model.GPUHandle
	gl.GenVertexArrays(1, &h.VertexArray)
	gl.BindVertexArray(h.VertexArray)

	vertices := l.Pack(g.Positions, g.TexCoords, g.Normals)
	gl.GenBuffers(1, &h.VertexBuffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.VertexBuffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices), unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(attribPosition, 3, gl.FLOAT, false, 0, uintptr(l.PositionsOffset))
	gl.EnableVertexAttribArray(attribPosition)
	if l.HasTexCoords() {
		gl.VertexAttribPointerWithOffset(attribTexCoord, 2, gl.FLOAT, false, 0, uintptr(l.TexCoordsOffset))
		gl.EnableVertexAttribArray(attribTexCoord)
	}
	if l.HasNormals() {
		gl.VertexAttribPointerWithOffset(attribNormal, 3, gl.FLOAT, false, 0, uintptr(l.NormalsOffset))
		gl.EnableVertexAttribArray(attribNormal)
	}

	indices := model.PackIndices(g.Indices)
	gl.GenBuffers(1, &h.IndexBuffer)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.IndexBuffer)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices), unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	if g.HasTexture {
		img, err := texture.Load(g.TexturePath)
		if err != nil {
			r.log.Warn("texture not loaded, drawing untextured",
				zap.String("group", g.Name),
				zap.String("texture", g.TexturePath),
				zap.Error(err),
			)
			g.HasTexture = false
		} else {
			texture.FlipVertical(img)
			h.Texture = uploadTexture(img)
		}
	}

	return h, nil
}

// Release deletes the GL objects in h.
func (r *ObjectRenderer) Release(h model.GPUHandle) {
	if h.VertexArray != 0 {
		gl.DeleteVertexArrays(1, &h.VertexArray)
	}
	if h.VertexBuffer != 0 {
		gl.DeleteBuffers(1, &h.VertexBuffer)
	}
	if h.IndexBuffer != 0 {
		gl.DeleteBuffers(1, &h.IndexBuffer)
	}
	if h.Texture != 0 {
		gl.DeleteTextures(1, &h.Texture)
	}
}

// Draw submits the groups of ds that belong to passes. Nothing is drawn
// until ds is ready.
func (r *ObjectRenderer) Draw(ds *loader.Dataset, modelMatrix, view, proj mgl32.Mat4, colorCorrection mgl32.Vec4, passes model.Pass) {
	if !ds.Ready {
		return
	}

	modelView := view.Mul4(modelMatrix)
	mvp := proj.Mul4(modelView)

	r.program.Use()
	r.program.SetMat4("uModelView", modelView)
	r.program.SetMat4("uMVP", mvp)
	r.program.SetVec3("uLightDir", viewLight(view, r.LightDirection))
	r.program.SetVec4("uColorCorrection", colorCorrection)
	r.program.SetInt("uTexture", 0)
	gl.ActiveTexture(gl.TEXTURE0)

	for _, a := range ds.Assets {
		for _, g := range a.Groups {
			if g.GPU.IsZero() || g.IndexCount == 0 || !g.DrawnIn(passes) {
				continue
			}
			r.setMaterial(g)
			gl.BindVertexArray(g.GPU.VertexArray)
			gl.DrawElements(gl.TRIANGLES, int32(g.IndexCount), gl.UNSIGNED_INT, nil)
		}
	}
	gl.BindVertexArray(0)
}

func (r *ObjectRenderer) setMaterial(g *model.MaterialGroup) {
	s := g.Shading
	r.program.SetVec3("uAmbient", s.Ambient)
	r.program.SetVec3("uDiffuse", s.Diffuse)
	r.program.SetVec3("uSpecular", s.Specular)
	r.program.SetFloat("uShininess", s.Shininess)
	r.program.SetFloat("uOpacity", s.Opacity)
	r.program.SetVec4("uObjectCorrection", objectCorrection(g))

	tex := r.fallbackTex
	if g.GPU.Texture != 0 {
		tex = g.GPU.Texture
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

// Destroy releases the shader program and fallback texture.
// Dataset groups are released through loader.Dataset.Release.
func (r *ObjectRenderer) Destroy() {
	if r.fallbackTex != 0 {
		gl.DeleteTextures(1, &r.fallbackTex)
		r.fallbackTex = 0
	}
	if r.program != nil {
		r.program.Delete()
		r.program = nil
	}
}

// viewLight transforms a world-space light direction to view space.
func viewLight(view mgl32.Mat4, dir mgl32.Vec4) mgl32.Vec3 {
	v := view.Mul4x1(mgl32.Vec4{dir[0], dir[1], dir[2], 0}).Vec3()
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

// objectCorrection is added to the sampled texel: textured groups keep the
// texture color, untextured ones saturate to white so shading comes from
// the material alone.
func objectCorrection(g *model.MaterialGroup) mgl32.Vec4 {
	if g.GPU.Texture != 0 {
		return mgl32.Vec4{0, 0, 0, 0}
	}
	return mgl32.Vec4{1, 1, 1, 1}
}

func uploadTexture(img *image.RGBA) uint32 {
	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	return texID
}

var _ loader.Uploader = (*ObjectRenderer)(nil)
