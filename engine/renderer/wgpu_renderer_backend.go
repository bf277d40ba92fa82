package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/buffer_manager"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/frame_scheduler"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/swapchain"
	"github.com/cogentcore/webgpu/wgpu"
)

// clearColor is the background of every frame.
var clearColor = wgpu.Color{R: 0.2, G: 0.3, B: 0.3, A: 1.0}

// setDatasets maps each storage set to the dataset bound into it.
var setDatasets = map[pipeline.SetLayout]buffer_manager.Dataset{
	pipeline.SetAmplitude: buffer_manager.DatasetAmplitude,
	pipeline.SetTriangles: buffer_manager.DatasetTriangles,
	pipeline.SetMidpoints: buffer_manager.DatasetMidpoints,
	pipeline.SetSizes:     buffer_manager.DatasetSizes,
}

type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	// core owns the instance, surface, adapter and device.
	core     *resource.Arena
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	caps        swapchain.Capabilities
	plan        swapchain.Plan
	presentMode wgpu.PresentMode

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	// The following are set by bind once the scene and pipelines exist.

	pipelines       *pipeline.Pipelines
	storageGroups   map[pipeline.SetLayout]bind_group_provider.BindGroupProvider
	transformGroups []bind_group_provider.BindGroupProvider
	vertexBuffer    *wgpu.Buffer
	vertexCount     uint32
	dispatch        [3]uint32

	// slot is the frame slot the scheduler is recording, set before each tick.
	slot int

	slotFences   []*queueFence
	computeFence *queueFence

	// Frame state between Acquire and Present.
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var (
	_ frame_scheduler.Backend = &wgpuRendererBackendImpl{}
	_ buffer_manager.Device   = &wgpuRendererBackendImpl{}
)

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, presentMode wgpu.PresentMode, framesInFlight int) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		core:        resource.NewArena("wgpu core"),
		instance:    wgpu.CreateInstance(nil),
		presentMode: presentMode,
	}
	resource.Own(b.core, b.instance, (*wgpu.Instance).Release)

	b.surface = b.instance.CreateSurface(surfaceDescriptor)
	resource.Own(b.core, b.surface, (*wgpu.Surface).Release)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.core.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a
	resource.Own(b.core, b.adapter, (*wgpu.Adapter).Release)

	// The compute pipeline binds five groups, one more than the default limit.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		b.core.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	resource.Own(b.core, b.device, (*wgpu.Device).Release)
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.caps = swapchain.Capabilities{
		Formats:      capabilities.Formats,
		PresentModes: capabilities.PresentModes,
		AlphaModes:   capabilities.AlphaModes,
		MaxDimension: limits.MaxTextureDimension2D,
	}

	poll := func() { b.device.Poll(true, nil) }
	b.computeFence = newQueueFence("compute", poll)
	b.slotFences = make([]*queueFence, max(framesInFlight, 1))
	for i := range b.slotFences {
		b.slotFences[i] = newQueueFence(fmt.Sprintf("frame[%d]", i), poll)
	}
	return b, nil
}

// configure applies a swapchain plan for the given size and rebuilds the depth attachment.
func (b *wgpuRendererBackendImpl) configure(width, height int) error {
	plan, err := swapchain.NewPlan(b.caps, width, height, b.presentMode)
	if err != nil {
		return fmt.Errorf("plan swapchain: %w", err)
	}
	b.surface.Configure(b.adapter, b.device, plan.Configuration())
	b.plan = plan

	b.releaseDepth()
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              plan.Width,
			Height:             plan.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	b.depthTexture = depthTexture
	b.depthView, err = depthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create depth view: %w", err)
	}
	logger.Infof("swapchain configured: %s", plan)
	return nil
}

func (b *wgpuRendererBackendImpl) releaseDepth() {
	if b.depthView != nil {
		b.depthView.Release()
		b.depthView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameTexture != nil {
		b.frameTexture.Release()
		b.frameTexture = nil
	}
}

// bind creates the bind groups of both pipelines over the uploaded buffers.
func (b *wgpuRendererBackendImpl) bind(p *pipeline.Pipelines, bufs buffer_manager.BufferManager, vertexCount int, dims [3]int) error {
	b.releaseGroups()
	b.pipelines = p
	b.storageGroups = make(map[pipeline.SetLayout]bind_group_provider.BindGroupProvider, len(setDatasets))

	for set, ds := range setDatasets {
		binding, ok := bufs.Binding(ds)
		if !ok {
			return fmt.Errorf("bind %s: %s buffer not uploaded", set, ds)
		}
		g, err := b.provider(set.String(), p.Layout(set), binding)
		if err != nil {
			return err
		}
		b.storageGroups[set] = g
	}

	b.transformGroups = make([]bind_group_provider.BindGroupProvider, bufs.FramesInFlight())
	for slot := range b.transformGroups {
		g, err := b.provider(fmt.Sprintf("transform[%d]", slot), p.Layout(pipeline.SetTransform), bufs.TransformBinding(slot))
		if err != nil {
			return err
		}
		b.transformGroups[slot] = g
	}

	vertices, ok := bufs.Binding(buffer_manager.DatasetVertices)
	if !ok {
		return errors.New("bind: vertex buffer not uploaded")
	}
	vb, err := rawBuffer(vertices.Buffer)
	if err != nil {
		return err
	}
	b.vertexBuffer = vb
	b.vertexCount = uint32(vertexCount)
	b.dispatch = p.Dispatch(dims)
	logger.Infof("bound %d vertices, dispatching %v workgroups per frame", vertexCount, b.dispatch)
	return nil
}

func (b *wgpuRendererBackendImpl) provider(label string, layout *wgpu.BindGroupLayout, binding buffer_manager.Binding) (bind_group_provider.BindGroupProvider, error) {
	raw, err := rawBuffer(binding.Buffer)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", label, err)
	}
	g := bind_group_provider.NewBindGroupProvider(label,
		bind_group_provider.WithBindGroupLayout(layout),
		bind_group_provider.WithBuffer(0, raw, binding.Offset, binding.Size),
	)
	if err := g.Init(b.device); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *wgpuRendererBackendImpl) releaseGroups() {
	for _, g := range b.storageGroups {
		g.Release()
	}
	for _, g := range b.transformGroups {
		g.Release()
	}
	b.storageGroups = nil
	b.transformGroups = nil
	b.vertexBuffer = nil
}

// computeGroups returns the compute sets in layout order for slot.
func (b *wgpuRendererBackendImpl) computeGroups(slot int) []*wgpu.BindGroup {
	groups := make([]*wgpu.BindGroup, len(pipeline.ComputeSets))
	for i, set := range pipeline.ComputeSets {
		if set == pipeline.SetTransform {
			groups[i] = b.transformGroups[slot].BindGroup()
			continue
		}
		groups[i] = b.storageGroups[set].BindGroup()
	}
	return groups
}

func (b *wgpuRendererBackendImpl) loaded() bool {
	return b.pipelines != nil && b.vertexBuffer != nil
}

// The following implement buffer_manager.Device.

func (b *wgpuRendererBackendImpl) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	var (
		buf *wgpu.Buffer
		err error
	)
	if desc.Contents != nil {
		buf, err = b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Contents,
			Usage:    toBufferUsage(desc.Usage),
		})
	} else {
		buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            desc.Label,
			Size:             desc.Size,
			Usage:            toBufferUsage(desc.Usage),
			MappedAtCreation: false,
		})
	}
	if err != nil {
		return nil, err
	}
	return newGPUBuffer(buf, desc), nil
}

func (b *wgpuRendererBackendImpl) CopyBuffer(src, dst resource.Buffer, size uint64) error {
	s, err := rawBuffer(src)
	if err != nil {
		return err
	}
	d, err := rawBuffer(dst)
	if err != nil {
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()
	encoder.CopyBufferToBuffer(s, 0, d, 0, size)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)
	b.device.Poll(true, nil)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(dst resource.Buffer, offset uint64, data []byte) error {
	d, err := rawBuffer(dst)
	if err != nil {
		return err
	}
	return b.queue.WriteBuffer(d, offset, data)
}

func (b *wgpuRendererBackendImpl) ReadBuffer(src resource.Buffer, size uint64) ([]byte, error) {
	s, err := rawBuffer(src)
	if err != nil {
		return nil, err
	}

	var (
		mapped bool
		status wgpu.BufferMapAsyncStatus
	)
	s.MapAsync(wgpu.MapModeRead, 0, size, func(st wgpu.BufferMapAsyncStatus) {
		mapped = true
		status = st
	})
	b.device.Poll(true, nil)
	if err := mapResult(src.Label(), mapped, status); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	copy(out, s.GetMappedRange(0, uint(size)))
	s.Unmap()
	return out, nil
}

// The following implement frame_scheduler.Backend.

func (b *wgpuRendererBackendImpl) SlotFence(slot int) frame_scheduler.Fence {
	return b.slotFences[slot]
}

func (b *wgpuRendererBackendImpl) ComputeFence() frame_scheduler.Fence {
	return b.computeFence
}

func (b *wgpuRendererBackendImpl) SubmitCompute(signal *frame_scheduler.Semaphore) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded() {
		return errNotLoaded
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipelines.Compute)
	for i, g := range b.computeGroups(b.slot) {
		pass.SetBindGroup(uint32(i), g, nil)
	}
	pass.DispatchWorkgroups(b.dispatch[0], b.dispatch[1], b.dispatch[2])
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)

	b.computeFence.submitted()
	signal.Signal()
	return nil
}

func (b *wgpuRendererBackendImpl) Acquire(signal *frame_scheduler.Semaphore) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return classifyAcquireError(err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.frameTexture = surfaceTexture
	b.frameView = view
	signal.Signal()
	return nil
}

func (b *wgpuRendererBackendImpl) SubmitGraphics(slot int, signal *frame_scheduler.Semaphore) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded() {
		return errNotLoaded
	}
	if b.frameView == nil {
		return errors.New("no swapchain image acquired")
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.releaseFrame()
		return err
	}
	defer encoder.Release()

	// The compute submission precedes this one on the same queue, so its amplitude writes are
	// visible to the fragment stage without an explicit barrier.
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.frameView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(b.pipelines.Graphics)
	pass.SetViewport(0, 0, float32(b.plan.Width), float32(b.plan.Height), 0, 1)
	pass.SetScissorRect(0, 0, b.plan.Width, b.plan.Height)
	pass.SetVertexBuffer(0, b.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetBindGroup(0, b.transformGroups[slot].BindGroup(), nil)
	pass.SetBindGroup(1, b.storageGroups[pipeline.SetAmplitude].BindGroup(), nil)
	pass.Draw(b.vertexCount, 1, 0, 0)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		b.releaseFrame()
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)

	b.slotFences[slot].submitted()
	signal.Signal()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() (frame_scheduler.PresentResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture == nil {
		return frame_scheduler.PresentOptimal, errors.New("no swapchain image to present")
	}
	b.surface.Present()
	b.releaseFrame()
	return frame_scheduler.PresentOptimal, nil
}

func (b *wgpuRendererBackendImpl) RecreateSwapchain(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	return b.configure(width, height)
}

// Release frees everything the backend created, newest first.
func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	b.releaseGroups()
	if b.pipelines != nil {
		b.pipelines.Release()
		b.pipelines = nil
	}
	b.releaseDepth()
	b.core.Release()
}
