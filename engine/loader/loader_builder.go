package loader

import "github.com/Carmen-Shannon/oxy-amp/engine/model"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFlipY is an option builder that controls whether the y coordinate of vertex positions
// is negated on load. Normals read from the file are kept as written. Enabled by default.
//
// Parameters:
//   - flip: true to negate position y
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithFlipY(flip bool) LoaderBuilderOption {
	return func(l *loader) {
		l.flipY = flip
	}
}

// WithWorkers is an option builder that sets how many goroutines assemble faces into triangles.
//
// Parameters:
//   - n: the worker count, values below 1 are treated as 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithMesh is an option builder that pre-populates the mesh cache.
//
// Parameters:
//   - key: the cache key for the mesh
//   - m: the mesh to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithMesh(key string, m *model.Mesh) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[key] = m
	}
}
