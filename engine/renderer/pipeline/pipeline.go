package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// SetLayout names one of the bind group layouts shared by the two pipelines. Every set holds a
// single buffer at binding 0.
type SetLayout int

const (
	SetAmplitude SetLayout = iota
	SetTriangles
	SetMidpoints
	SetSizes
	SetTransform
)

var (
	// ComputeSets is the set order of the compute pipeline layout.
	ComputeSets = []SetLayout{SetAmplitude, SetTriangles, SetMidpoints, SetSizes, SetTransform}

	// GraphicsSets is the set order of the graphics pipeline layout.
	GraphicsSets = []SetLayout{SetTransform, SetAmplitude}
)

func (s SetLayout) String() string {
	switch s {
	case SetAmplitude:
		return "amplitude"
	case SetTriangles:
		return "triangles"
	case SetMidpoints:
		return "midpoints"
	case SetSizes:
		return "sizes"
	case SetTransform:
		return "transform"
	default:
		return fmt.Sprintf("set(%d)", int(s))
	}
}

// Visibility returns the stages that may access the set.
func (s SetLayout) Visibility() wgpu.ShaderStage {
	switch s {
	case SetTransform:
		return wgpu.ShaderStageVertex | wgpu.ShaderStageFragment | wgpu.ShaderStageCompute
	case SetAmplitude:
		return wgpu.ShaderStageCompute | wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageCompute
	}
}

// BufferType returns the binding type of the set's buffer.
func (s SetLayout) BufferType() wgpu.BufferBindingType {
	switch s {
	case SetTransform:
		return wgpu.BufferBindingTypeUniform
	case SetAmplitude:
		return wgpu.BufferBindingTypeStorage
	default:
		return wgpu.BufferBindingTypeReadOnlyStorage
	}
}

// addressSpace and access are the WGSL declaration the set must be bound with.
func (s SetLayout) addressSpace() (space, access string) {
	switch s.BufferType() {
	case wgpu.BufferBindingTypeUniform:
		return "uniform", "read"
	case wgpu.BufferBindingTypeStorage:
		return "storage", "read_write"
	default:
		return "storage", "read"
	}
}

// Descriptor returns the layout descriptor for the set.
func (s SetLayout) Descriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: s.String() + " layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: s.Visibility(),
				Buffer: wgpu.BufferBindingLayout{
					Type: s.BufferType(),
				},
			},
		},
	}
}

// VertexLayout is the single vertex binding: common.Vertex with the position at location 0 and
// the normal at location 1.
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: common.VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 16, ShaderLocation: 1},
		},
	}
}

// BlendState is straight alpha blending that keeps the source alpha.
func BlendState() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorZero,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// Pipelines holds the compute and graphics pipelines together with the set layouts their bind
// groups are created from. Everything is released together.
type Pipelines struct {
	Compute  *wgpu.ComputePipeline
	Graphics *wgpu.RenderPipeline

	// WorkgroupSize is the compute shader's @workgroup_size.
	WorkgroupSize [3]uint32

	layouts map[SetLayout]*wgpu.BindGroupLayout
	arena   *resource.Arena
}

// Layout returns the bind group layout for a set.
func (p *Pipelines) Layout(s SetLayout) *wgpu.BindGroupLayout {
	return p.layouts[s]
}

// Dispatch returns the workgroup count covering dims cells, rounding up on every axis.
//
// Parameters:
//   - dims: the amplitude volume dimensions
//
// Returns:
//   - [3]uint32: the workgroup count per axis
func (p *Pipelines) Dispatch(dims [3]int) [3]uint32 {
	var out [3]uint32
	for i := range out {
		wg := max(p.WorkgroupSize[i], 1)
		out[i] = (uint32(dims[i]) + wg - 1) / wg
	}
	return out
}

// Release frees the pipelines, their layouts and their shader modules.
func (p *Pipelines) Release() {
	if p.arena != nil {
		p.arena.Release()
	}
	p.Compute = nil
	p.Graphics = nil
	p.layouts = nil
}
