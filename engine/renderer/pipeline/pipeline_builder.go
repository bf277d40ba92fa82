package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// FactoryOption is a functional option used to configure a Factory during construction.
type FactoryOption func(*factory)

// WithColorFormat sets the format of the graphics pipeline's color target. It must match the
// configured surface format.
//
// Parameters:
//   - format: the swapchain texture format
//
// Returns:
//   - FactoryOption: a function that sets the color target format
func WithColorFormat(format wgpu.TextureFormat) FactoryOption {
	return func(f *factory) {
		f.colorFormat = format
	}
}

// WithDepthFormat sets the depth attachment format.
//
// Parameters:
//   - format: the depth texture format
//
// Returns:
//   - FactoryOption: a function that sets the depth format
func WithDepthFormat(format wgpu.TextureFormat) FactoryOption {
	return func(f *factory) {
		f.depthFormat = format
	}
}

// WithLabel sets the prefix used for every object label.
func WithLabel(label string) FactoryOption {
	return func(f *factory) {
		f.label = label
	}
}
