package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-amp/log"
	"github.com/cogentcore/webgpu/wgpu"
)

var logger = log.New("pipeline")

// Device is the subset of *wgpu.Device the factory creates objects with.
type Device interface {
	CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error)
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)
	CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error)
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)
	CreateComputePipeline(desc *wgpu.ComputePipelineDescriptor) (*wgpu.ComputePipeline, error)
}

var _ Device = (*wgpu.Device)(nil)

// Factory builds the amplitude compute pipeline and the mesh graphics pipeline.
type Factory interface {
	// Build validates the shader set against the fixed layouts and creates both pipelines.
	// On failure every object created so far is released.
	//
	// Parameters:
	//   - set: the vertex, fragment and compute stages
	//
	// Returns:
	//   - *Pipelines: the created pipelines and their set layouts
	//   - error: ErrLayoutMismatch, or a creation failure wrapped with the object name
	Build(set *shader.Set) (*Pipelines, error)
}

type factory struct {
	device      Device
	label       string
	colorFormat wgpu.TextureFormat
	depthFormat wgpu.TextureFormat
}

var _ Factory = &factory{}

// NewFactory creates a Factory that allocates on device.
//
// Parameters:
//   - device: the device to create pipelines on
//   - opts: options for the color and depth formats
//
// Returns:
//   - Factory: the factory
func NewFactory(device Device, opts ...FactoryOption) Factory {
	f := &factory{
		device:      device,
		label:       "amp",
		colorFormat: wgpu.TextureFormatBGRA8UnormSrgb,
		depthFormat: wgpu.TextureFormatDepth24Plus,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *factory) Build(set *shader.Set) (*Pipelines, error) {
	if err := Validate(set); err != nil {
		return nil, err
	}

	p := &Pipelines{
		WorkgroupSize: set.Compute.WorkgroupSize(),
		layouts:       make(map[SetLayout]*wgpu.BindGroupLayout, len(ComputeSets)),
		arena:         resource.NewArena(f.label + " pipelines"),
	}
	if err := f.build(p, set); err != nil {
		p.Release()
		return nil, err
	}

	logger.Infof("created compute pipeline (workgroup %v) and graphics pipeline (%v)", p.WorkgroupSize, f.colorFormat)
	return p, nil
}

func (f *factory) build(p *Pipelines, set *shader.Set) error {
	for _, s := range ComputeSets {
		desc := s.Descriptor()
		desc.Label = f.label + " " + desc.Label
		layout, err := f.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("create %s bind group layout: %w", s, err)
		}
		resource.Own(p.arena, layout, (*wgpu.BindGroupLayout).Release)
		p.layouts[s] = layout
	}

	var err error
	if p.Compute, err = f.buildCompute(p, set.Compute); err != nil {
		return err
	}
	if p.Graphics, err = f.buildGraphics(p, set.Vertex, set.Fragment); err != nil {
		return err
	}
	return nil
}

func (f *factory) module(p *Pipelines, s shader.Shader) (*wgpu.ShaderModule, error) {
	m, err := f.device.CreateShaderModule(s.Module())
	if err != nil {
		return nil, fmt.Errorf("create %s shader module %s: %w", s.Stage(), s.Key(), err)
	}
	resource.Own(p.arena, m, (*wgpu.ShaderModule).Release)
	return m, nil
}

func (f *factory) layout(p *Pipelines, name string, sets []SetLayout) (*wgpu.PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(sets))
	for i, s := range sets {
		layouts[i] = p.layouts[s]
	}
	pl, err := f.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            f.label + " " + name,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline layout: %w", name, err)
	}
	resource.Own(p.arena, pl, (*wgpu.PipelineLayout).Release)
	return pl, nil
}

func (f *factory) buildCompute(p *Pipelines, cs shader.Shader) (*wgpu.ComputePipeline, error) {
	module, err := f.module(p, cs)
	if err != nil {
		return nil, err
	}
	layout, err := f.layout(p, "compute", ComputeSets)
	if err != nil {
		return nil, err
	}

	created, err := f.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  f.label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: cs.EntryPoint(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	resource.Own(p.arena, created, (*wgpu.ComputePipeline).Release)
	return created, nil
}

func (f *factory) buildGraphics(p *Pipelines, vsh, fsh shader.Shader) (*wgpu.RenderPipeline, error) {
	vs, err := f.module(p, vsh)
	if err != nil {
		return nil, err
	}
	fs, err := f.module(p, fsh)
	if err != nil {
		return nil, err
	}
	layout, err := f.layout(p, "graphics", GraphicsSets)
	if err != nil {
		return nil, err
	}

	// Viewport and scissor are always dynamic in WebGPU and are set per pass.
	created, err := f.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  f.label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vsh.EntryPoint(),
			Buffers:    []wgpu.VertexBufferLayout{VertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fsh.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    f.colorFormat,
					Blend:     BlendState(),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            f.depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	resource.Own(p.arena, created, (*wgpu.RenderPipeline).Release)
	return created, nil
}
