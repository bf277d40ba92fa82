package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDevice records every descriptor and returns nil objects, which the arena skips on release.
type captureDevice struct {
	modules  []*wgpu.ShaderModuleDescriptor
	layouts  []wgpu.BindGroupLayoutDescriptor
	pipes    []*wgpu.PipelineLayoutDescriptor
	render   *wgpu.RenderPipelineDescriptor
	compute  *wgpu.ComputePipelineDescriptor
	failWith string
}

func (d *captureDevice) fail(label string) error {
	if d.failWith != "" && d.failWith == label {
		return errors.New("device lost")
	}
	return nil
}

func (d *captureDevice) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	d.modules = append(d.modules, desc)
	return nil, d.fail(desc.Label)
}

func (d *captureDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.layouts = append(d.layouts, *desc)
	return nil, d.fail(desc.Label)
}

func (d *captureDevice) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	d.pipes = append(d.pipes, desc)
	return nil, d.fail(desc.Label)
}

func (d *captureDevice) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	d.render = desc
	return nil, d.fail(desc.Label)
}

func (d *captureDevice) CreateComputePipeline(desc *wgpu.ComputePipelineDescriptor) (*wgpu.ComputePipeline, error) {
	d.compute = desc
	return nil, d.fail(desc.Label)
}

func loadShaders(t *testing.T) *shader.Set {
	t.Helper()
	set, err := shader.LoadSet("../../../shaders", "amp")
	require.NoError(t, err)
	return set
}

func TestShippedShadersMatchLayouts(t *testing.T) {
	assert.NoError(t, Validate(loadShaders(t)))
}

func TestBuildCreatesSharedLayoutsAndFixedState(t *testing.T) {
	dev := &captureDevice{}
	p, err := NewFactory(dev, WithColorFormat(wgpu.TextureFormatRGBA8Unorm)).Build(loadShaders(t))
	require.NoError(t, err)
	defer p.Release()

	require.Len(t, dev.layouts, len(ComputeSets))
	for i, s := range ComputeSets {
		entry := dev.layouts[i].Entries[0]
		assert.Equal(t, uint32(0), entry.Binding, s.String())
		assert.Equal(t, s.BufferType(), entry.Buffer.Type, s.String())
	}
	assert.Equal(t, wgpu.BufferBindingTypeUniform, dev.layouts[SetTransform].Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, dev.layouts[SetAmplitude].Entries[0].Buffer.Type)
	assert.NotZero(t, dev.layouts[SetAmplitude].Entries[0].Visibility&wgpu.ShaderStageFragment)

	require.Len(t, dev.pipes, 2)
	assert.Len(t, dev.pipes[0].BindGroupLayouts, 5)
	assert.Len(t, dev.pipes[1].BindGroupLayouts, 2)
	assert.Len(t, dev.modules, 3)

	require.NotNil(t, dev.compute)
	assert.Equal(t, "main", dev.compute.Compute.EntryPoint)
	assert.Equal(t, [3]uint32{4, 4, 4}, p.WorkgroupSize)

	r := dev.render
	require.NotNil(t, r)
	assert.Equal(t, "vs_main", r.Vertex.EntryPoint)
	assert.Equal(t, "fs_main", r.Fragment.EntryPoint)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, r.Primitive.Topology)
	assert.Equal(t, wgpu.CullModeNone, r.Primitive.CullMode)
	assert.Equal(t, wgpu.FrontFaceCCW, r.Primitive.FrontFace)
	assert.Equal(t, uint32(1), r.Multisample.Count)
	assert.Equal(t, wgpu.CompareFunctionLess, r.DepthStencil.DepthCompare)
	assert.True(t, r.DepthStencil.DepthWriteEnabled)

	target := r.Fragment.Targets[0]
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, target.Format)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, target.Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, target.Blend.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorOne, target.Blend.Alpha.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorZero, target.Blend.Alpha.DstFactor)

	vl := r.Vertex.Buffers[0]
	assert.Equal(t, uint64(32), vl.ArrayStride)
	require.Len(t, vl.Attributes, 2)
	assert.Equal(t, uint64(16), vl.Attributes[1].Offset)
	assert.Equal(t, uint32(1), vl.Attributes[1].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, vl.Attributes[0].Format)
}

func TestBuildWrapsCreationFailure(t *testing.T) {
	dev := &captureDevice{failWith: "amp graphics"}
	_, err := NewFactory(dev).Build(loadShaders(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create graphics pipeline layout")
	assert.Nil(t, dev.render)
}

func TestValidateRejectsMismatchedDeclarations(t *testing.T) {
	set := loadShaders(t)
	bad, err := shader.Parse("bad.compute", shader.StageCompute, `
@group(0) @binding(0) var<storage, read> amp: array<f32>;
@group(1) @binding(1) var<storage, read> triangles: array<f32>;
@group(5) @binding(0) var<storage, read> extra: array<f32>;
@compute @workgroup_size(4, 4, 4) fn main() {}
`)
	require.NoError(t, err)
	set.Compute = bad

	err = Validate(set)
	require.ErrorIs(t, err, ErrLayoutMismatch)
	msg := err.Error()
	assert.Contains(t, msg, "amp is var<storage, read>")
	assert.Contains(t, msg, "binding 0 of @group(1)")
	assert.Contains(t, msg, "outside [0,5)")
	assert.Contains(t, msg, "@group(3) sizes is not declared")
}

func TestValidateRejectsAmplitudeInVertexStage(t *testing.T) {
	set := loadShaders(t)
	vs, err := shader.Parse("bad.vertex", shader.StageVertex, `
@group(0) @binding(0) var<uniform> transform: mat4x4<f32>;
@group(1) @binding(0) var<storage, read_write> amp: array<f32>;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }
`)
	require.NoError(t, err)
	set.Vertex = vs

	err = Validate(set)
	assert.ErrorContains(t, err, "not visible to the vertex stage")
}

func TestDispatchRoundsUp(t *testing.T) {
	p := &Pipelines{WorkgroupSize: [3]uint32{4, 4, 4}}
	assert.Equal(t, [3]uint32{3, 2, 1}, p.Dispatch([3]int{10, 5, 2}))
	assert.Equal(t, [3]uint32{1, 1, 1}, p.Dispatch([3]int{4, 4, 4}))
}
