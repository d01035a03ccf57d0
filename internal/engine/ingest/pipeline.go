// Package ingest turns one OBJ file and its materials into a LoadedAsset.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/assets"
	"github.com/Faultbox/meshport/internal/engine/model"
	"github.com/Faultbox/meshport/internal/logger"
	"github.com/Faultbox/meshport/pkg/encoding"
	"github.com/Faultbox/meshport/pkg/formats"
)

// Pipeline ingests mesh files. It keeps no per-file state.
type Pipeline struct {
	finder *assets.Finder
	log    *zap.Logger
}

// New creates a pipeline that resolves referenced files through finder.
// A nil finder searches only next to each file.
func New(finder *assets.Finder) *Pipeline {
	if finder == nil {
		finder = assets.NewFinder()
	}
	return &Pipeline{
		finder: finder,
		log:    logger.Named("ingest"),
	}
}

// LoadFile reads, repairs and splits one OBJ file.
// Errors are *model.IOError or *model.ParseError.
func (p *Pipeline) LoadFile(path string) (*model.LoadedAsset, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}

	obj, err := formats.ParseOBJ(data)
	if err != nil {
		return nil, parseError(path, err)
	}
	polys := obj.NumFaces()
	formats.Triangulate(obj)

	synthesized := false
	if obj.NumNormals() == 0 {
		synthesized = true
		if err := model.SynthesizeNormals(obj); err != nil {
			var dge *model.DegenerateGeometryError
			if !errors.As(err, &dge) {
				return nil, err
			}
			p.log.Warn("zero-length normals left as zero vectors",
				zap.String("file", path),
				zap.Int("count", dge.Count),
			)
		}
	}

	dupTex := formats.MakeTexCoordsUnique(obj)
	dupNrm := formats.MakeNormalsUnique(obj)
	formats.MakeVertexIndexed(obj)

	materials, err := p.resolveMaterials(obj, path)
	if err != nil {
		return nil, err
	}

	asset := &model.LoadedAsset{
		SourcePath: path,
		Groups:     model.GroupMaterials(obj, materials, nil),
	}
	for _, g := range asset.Groups {
		model.PlanGroupLayout(g)
		asset.Bounds.ExpandByBounds(g.Bounds)
	}

	hits, misses := p.finder.CacheStats()
	p.log.Debug("asset ingested",
		zap.String("file", path),
		zap.Int("polygons", polys),
		zap.Int("triangles", obj.NumFaces()),
		zap.Int("vertices", obj.NumVertices()),
		zap.Int("split_vertices", dupTex+dupNrm),
		zap.Bool("normals_synthesized", synthesized),
		zap.Int("groups", len(asset.Groups)),
		zap.Int("lookup_hits", hits),
		zap.Int("lookup_misses", misses),
		zap.Duration("took", time.Since(start)),
	)
	return asset, nil
}

// resolveMaterials loads every mtllib of obj. A library that cannot be found
// is skipped with a warning; one that cannot be parsed fails the asset.
// Later definitions of a name replace earlier ones.
func (p *Pipeline) resolveMaterials(obj *formats.OBJ, objPath string) (map[string]model.ResolvedMaterial, error) {
	materials := make(map[string]model.ResolvedMaterial)
	objDir := filepath.Dir(objPath)

	for _, lib := range obj.MtlLibs {
		mtlPath, err := p.finder.Find(lib, objDir)
		if err != nil {
			p.log.Warn("material library not found, using default shading",
				zap.String("file", objPath),
				zap.String("mtllib", lib),
				zap.Error(err),
			)
			continue
		}

		data, err := os.ReadFile(mtlPath)
		if err != nil {
			return nil, &model.IOError{Path: mtlPath, Err: err}
		}
		mats, err := formats.ParseMTL(data)
		if err != nil {
			return nil, parseError(mtlPath, err)
		}

		mtlDir := filepath.Dir(mtlPath)
		for i := range mats {
			m := mats[i]
			materials[m.Name] = model.ResolvedMaterial{
				Material:    &m,
				TexturePath: p.resolveTexture(m.DiffuseMap, mtlDir),
			}
		}
	}
	return materials, nil
}

// resolveTexture maps a map_Kd value to a path. The result may not exist;
// GroupMaterials checks that.
func (p *Pipeline) resolveTexture(ref, mtlDir string) string {
	if ref == "" {
		return ""
	}
	name := filepath.FromSlash(encoding.NormalizePath(ref))
	if filepath.IsAbs(name) {
		return name
	}
	direct := filepath.Join(mtlDir, name)
	if found, err := p.finder.Find(name, mtlDir); err == nil {
		return found
	}
	return direct
}

// parseError wraps a formats error, keeping the line number when known.
func parseError(path string, err error) error {
	pe := &model.ParseError{Path: path, Err: err}
	var se *formats.SyntaxError
	if errors.As(err, &se) {
		pe.Line = se.Line
	}
	return pe
}

// Describe returns a one-line summary of an asset.
func Describe(a *model.LoadedAsset) string {
	s := a.Bounds.Size()
	return fmt.Sprintf("%s: %d groups, %d indices, size %.3gx%.3gx%.3g",
		filepath.Base(a.SourcePath), len(a.Groups), a.NumIndices(), s[0], s[1], s[2])
}
