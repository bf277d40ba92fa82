package common

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single mesh vertex as laid out in the GPU vertex and triangle buffers.
// Position and normal are padded to 16 bytes each so the struct matches the std430
// layout of vec4<f32> pairs, giving a 32 byte stride.
type Vertex struct {
	Pos    [4]float32
	Normal [4]float32
}

const (
	// VertexSize is the byte size of Vertex.
	VertexSize = 32

	// TriangleSize is the byte size of Triangle.
	TriangleSize = 3 * VertexSize
)

// NewVertex builds a Vertex from a position and a normal, zeroing the padding lanes.
//
// Parameters:
//   - pos: the vertex position
//   - normal: the vertex normal
//
// Returns:
//   - Vertex: the padded vertex
func NewVertex(pos, normal mgl32.Vec3) Vertex {
	return Vertex{
		Pos:    [4]float32{pos[0], pos[1], pos[2], 0},
		Normal: [4]float32{normal[0], normal[1], normal[2], 0},
	}
}

// Position returns the vertex position without its padding lane.
func (v Vertex) Position() mgl32.Vec3 {
	return mgl32.Vec3{v.Pos[0], v.Pos[1], v.Pos[2]}
}

// Triangle is three vertices in winding order. Equality is structural and order-sensitive,
// so two triangles with the same vertices in a different order are distinct.
type Triangle [3]Vertex

// ModelExtent is the axis-aligned bounding box of a loaded mesh.
type ModelExtent struct {
	Min [3]float32
	Max [3]float32
}

// Size returns the per-axis extent lengths.
func (e ModelExtent) Size() [3]float32 {
	return [3]float32{e.Max[0] - e.Min[0], e.Max[1] - e.Min[1], e.Max[2] - e.Min[2]}
}

// Grow expands the extent so it contains p.
func (e *ModelExtent) Grow(p [3]float32) {
	for axis := 0; axis < 3; axis++ {
		e.Min[axis] = min(e.Min[axis], p[axis])
		e.Max[axis] = max(e.Max[axis], p[axis])
	}
}

// Contains reports whether p lies inside the extent, bounds included.
func (e ModelExtent) Contains(p [3]float32) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < e.Min[axis] || p[axis] > e.Max[axis] {
			return false
		}
	}
	return true
}

func (e ModelExtent) String() string {
	return fmt.Sprintf("[%.3f %.3f %.3f] .. [%.3f %.3f %.3f]",
		e.Min[0], e.Min[1], e.Min[2], e.Max[0], e.Max[1], e.Max[2])
}

// Transform is the per-frame camera uniform shared by the compute, vertex and fragment stages.
// The vec3 fields carry a padding float so the struct matches the WGSL uniform layout (224 bytes).
type Transform struct {
	Model       mgl32.Mat4
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	CameraPos   [3]float32
	_           float32
	CameraFront [3]float32
	_           float32
}

// TransformSize is the byte size of Transform on the GPU.
const TransformSize = 224
