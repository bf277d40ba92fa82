package model

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-amp/common"
)

// ErrEmptyMesh is returned when a mesh has no triangles to draw or bucket.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// Mesh is a loaded triangle soup with its bounding box. It is immutable after NewMesh.
type Mesh struct {
	name      string
	triangles []common.Triangle
	extent    common.ModelExtent
}

// NewMesh wraps triangles and computes the extent. The extent starts at the origin, so the
// bounding box always contains (0,0,0) whether or not the mesh does.
//
// Parameters:
//   - name: the mesh name, usually its source path
//   - triangles: the mesh triangles in winding order
//
// Returns:
//   - *Mesh: the mesh
//   - error: ErrEmptyMesh if triangles is empty
func NewMesh(name string, triangles []common.Triangle) (*Mesh, error) {
	if len(triangles) == 0 {
		return nil, ErrEmptyMesh
	}
	m := &Mesh{name: name, triangles: triangles}
	for _, tri := range triangles {
		for _, v := range tri {
			m.extent.Grow([3]float32{v.Pos[0], v.Pos[1], v.Pos[2]})
		}
	}
	return m, nil
}

func (m *Mesh) Name() string {
	return m.name
}

// Triangles returns the mesh triangles. Callers must not modify the slice.
func (m *Mesh) Triangles() []common.Triangle {
	return m.triangles
}

func (m *Mesh) Extent() common.ModelExtent {
	return m.extent
}

// VertexCount returns the number of vertices in the non-indexed vertex stream.
func (m *Mesh) VertexCount() int {
	return 3 * len(m.triangles)
}

// VertexBytes returns the vertex stream as it is laid out in the vertex buffer.
// Triangle is a plain array of Vertex, so the triangle slice already is the stream.
func (m *Mesh) VertexBytes() []byte {
	return common.SliceToBytes(m.triangles)
}
