package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the preferred surface present mode. The swapchain falls back to FIFO
// when the surface does not support it.
//
// Parameters:
//   - mode: the preferred present mode
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode wgpu.PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithFramesInFlight sets how many frames may be recorded ahead of the GPU. Each slot gets its
// own transform buffer and fence.
//
// Parameters:
//   - n: the frame slot count, raised to 1 when lower
//
// Returns:
//   - RendererBuilderOption: a function that applies the frames-in-flight option to a renderer
func WithFramesInFlight(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.framesInFlight = max(n, 1)
	}
}

// WithFrameHook sets a function that runs at the start of every frame, after the slot's fence
// has been waited on. Writing the slot's transform here is safe.
//
// Parameters:
//   - fn: called with the slot being recorded
//
// Returns:
//   - RendererBuilderOption: a function that applies the frame hook option to a renderer
func WithFrameHook(fn func(slot int) error) RendererBuilderOption {
	return func(r *renderer) {
		r.frameHook = fn
	}
}
