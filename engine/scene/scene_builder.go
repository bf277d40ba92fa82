package scene

import (
	"github.com/Carmen-Shannon/oxy-amp/engine/loader"
	"github.com/Carmen-Shannon/oxy-amp/engine/spatial"
)

// SceneBuilderOption is a functional option for configuring scene preparation.
type SceneBuilderOption func(*scene)

// WithLoader sets the loader used to read the model. When unset an OBJ loader is created from
// the flip and worker options.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoader(l loader.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.loader = l
	}
}

// WithFlipY sets whether the default loader negates y on load.
func WithFlipY(flip bool) SceneBuilderOption {
	return func(s *scene) {
		s.flipY = flip
	}
}

// WithWorkers sets the worker count for face assembly and bucketing.
//
// Parameters:
//   - n: the worker count, raised to 1 when lower
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}

// WithCellSize sets the amplitude cell edge length.
func WithCellSize(size float32) SceneBuilderOption {
	return func(s *scene) {
		s.cellSize = size
	}
}

// WithInitialAmplitude sets the value every amplitude cell starts with.
func WithInitialAmplitude(v float32) SceneBuilderOption {
	return func(s *scene) {
		s.initialAmp = v
	}
}

// WithBuilderOptions passes extra options to the spatial index builder.
func WithBuilderOptions(opts ...spatial.BuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.builderOverride = append(s.builderOverride, opts...)
	}
}
