package mesh

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/accel/asset"
	"github.com/achilleasa/accel/log"
	"github.com/achilleasa/accel/types"
)

var (
	ErrBadMagic          = errors.New("mesh: not a triangle soup file")
	ErrUnsupportedFormat = errors.New("mesh: unsupported file format")
)

// A Mesh is a triangle soup. Triangle i uses vertices Indices[3i],
// Indices[3i+1] and Indices[3i+2], or vertices 3i, 3i+1 and 3i+2 when the
// mesh has no indices.
type Mesh struct {
	Vertices []types.Vec3
	Indices  []uint32
}

// Number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) == 0 {
		return len(m.Vertices) / 3
	}
	return len(m.Indices) / 3
}

// Index of a triangle corner in Vertices.
func (m *Mesh) VertexIndex(tri, corner int) uint32 {
	if len(m.Indices) == 0 {
		return uint32(3*tri + corner)
	}
	return m.Indices[3*tri+corner]
}

// Mesh bounds.
func (m *Mesh) Box() types.AABB {
	return types.AABBFromPoints(m.Vertices...)
}

// Load a mesh from a resource. The format is selected by the resource
// extension: ".tris" for triangle soups and ".obj" for wavefront files.
func Load(res *asset.Resource) (*Mesh, error) {
	logger := log.New("mesh")
	logger.Noticef(`loading mesh from "%s"`, res.Path())
	start := time.Now()

	var m *Mesh
	var err error
	switch res.Ext() {
	case ".tris":
		m, err = Read(res)
	case ".obj":
		m, err = ReadWavefront(res)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, res.Ext())
	}
	if err != nil {
		return nil, err
	}

	logger.Noticef("loaded %d triangles (%d vertices) in %d ms", m.TriangleCount(), len(m.Vertices), time.Since(start).Nanoseconds()/1e6)
	return m, nil
}

// Open and load a mesh from a file path or URL.
func LoadFile(pathToMesh string) (*Mesh, error) {
	res, err := asset.NewResource(pathToMesh, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Load(res)
}
