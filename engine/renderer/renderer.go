package renderer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/engine/model"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/buffer_manager"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/frame_scheduler"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-amp/log"
	"github.com/cogentcore/webgpu/wgpu"
)

var logger = log.New("renderer")

// Surface is the window side of the renderer: something that can describe a WebGPU surface
// and report its framebuffer size.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backendType RendererBackendType
	backend     *wgpuRendererBackendImpl
	buffers     buffer_manager.BufferManager
	scheduler   frame_scheduler.FrameScheduler

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	framesInFlight       int
	frameHook            func(slot int) error

	loaded bool
}

// Renderer draws a single mesh with its amplitude overlay.
//
// It owns the WebGPU device, the device buffers of the scene, the compute and graphics pipelines
// and the frame scheduler that sequences them. Load must succeed before the first Tick.
type Renderer interface {
	// Load uploads the scene, builds both pipelines from the shader set and binds the uploaded
	// buffers to them.
	//
	// Parameters:
	//   - data: the mesh, spatial index and amplitude volume to upload
	//   - set: the vertex, fragment and compute shaders
	//
	// Returns:
	//   - error: an upload, validation or pipeline creation error
	Load(data buffer_manager.SceneData, set *shader.Set) error

	// Tick renders one frame through the scheduler.
	//
	// Parameters:
	//   - ctx: checked before each blocking wait
	//
	// Returns:
	//   - error: a fatal frame error
	Tick(ctx context.Context) error

	// NotifyResize records a new framebuffer size, applied before the next acquire.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	NotifyResize(width, height int)

	// ValidateAmplitude reads the amplitude buffer back and compares it with the host volume.
	// It must run before the first Tick, since every compute pass rewrites the device values.
	//
	// Parameters:
	//   - host: the host copy uploaded by Load
	//
	// Returns:
	//   - model.AmpReport: the comparison
	//   - error: a readback error
	ValidateAmplitude(host *model.AmpVolume) (model.AmpReport, error)

	// Buffers returns the device buffer manager.
	Buffers() buffer_manager.BufferManager

	// Scheduler returns the frame scheduler.
	Scheduler() frame_scheduler.FrameScheduler

	// Release waits for the device to go idle and frees every GPU object.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer brings up a device for surface and configures the swapchain at the surface size.
//
// Parameters:
//   - surface: the window surface to present to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer, with nothing loaded
//   - error: a device or swapchain creation error
func NewRenderer(surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		backendType:    BackendTypeWGPU,
		presentMode:    wgpu.PresentModeMailbox,
		framesInFlight: frame_scheduler.DefaultFramesInFlight,
	}
	for _, opt := range options {
		opt(r)
	}

	switch r.backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.presentMode, r.framesInFlight)
		if err != nil {
			return nil, fmt.Errorf("create renderer backend: %w", err)
		}
		r.backend = b
	}

	if err := r.backend.configure(surface.Width(), surface.Height()); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("configure surface: %w", err)
	}

	r.buffers = buffer_manager.NewBufferManager(r.backend, r.framesInFlight)
	r.scheduler = frame_scheduler.NewFrameScheduler(r.backend, surface.Width(), surface.Height(),
		frame_scheduler.WithFramesInFlight(r.framesInFlight),
		frame_scheduler.WithBeforeRecord(r.beforeRecord),
	)
	return r, nil
}

func (r *renderer) beforeRecord(slot int) error {
	r.backend.slot = slot
	if r.frameHook != nil {
		return r.frameHook(slot)
	}
	return nil
}

func (r *renderer) Load(data buffer_manager.SceneData, set *shader.Set) error {
	if data.Mesh == nil || data.Index == nil || data.Amp == nil {
		return errors.New("load scene: mesh, index and amplitude volume are all required")
	}
	if err := r.buffers.Upload(data); err != nil {
		return fmt.Errorf("upload scene: %w", err)
	}

	factory := pipeline.NewFactory(r.backend.device, pipeline.WithColorFormat(r.backend.plan.Format))
	p, err := factory.Build(set)
	if err != nil {
		return fmt.Errorf("build pipelines: %w", err)
	}
	if err := r.backend.bind(p, r.buffers, data.Mesh.VertexCount(), data.Amp.Dims); err != nil {
		return fmt.Errorf("bind scene: %w", err)
	}
	r.loaded = true
	logger.Noticef("loaded %s: %d triangles, %d amplitude cells", data.Mesh.Name(), len(data.Mesh.Triangles()), data.Amp.Len())
	return nil
}

func (r *renderer) Tick(ctx context.Context) error {
	if !r.loaded {
		return errNotLoaded
	}
	return r.scheduler.Tick(ctx)
}

func (r *renderer) NotifyResize(width, height int) {
	r.scheduler.NotifyResize(width, height)
}

func (r *renderer) ValidateAmplitude(host *model.AmpVolume) (model.AmpReport, error) {
	if !r.loaded {
		return model.AmpReport{}, errNotLoaded
	}
	return r.buffers.ValidateAmplitude(host)
}

func (r *renderer) Buffers() buffer_manager.BufferManager {
	return r.buffers
}

func (r *renderer) Scheduler() frame_scheduler.FrameScheduler {
	return r.scheduler
}

func (r *renderer) Release() {
	r.backend.device.Poll(true, nil)
	r.buffers.Release()
	r.backend.Release()
	r.loaded = false
}
