package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-amp/engine/model"
	"github.com/Carmen-Shannon/oxy-amp/log"
)

var logger = log.New("loader")

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeOBJ selects the Wavefront OBJ loader backend.
	BackendTypeOBJ LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string]*model.Mesh

	backend loaderBackend

	flipY   bool
	workers int
}

// Loader loads meshes from disk or streams and caches them by name.
type Loader interface {
	// Load imports a mesh file and caches the result. A path that was loaded before is served
	// from the cache.
	//
	// Parameters:
	//   - path: the file path to the mesh file
	//
	// Returns:
	//   - *model.Mesh: the loaded mesh
	//   - error: error if the file cannot be read or parsed, or holds no triangles
	Load(path string) (*model.Mesh, error)

	// LoadReader imports a mesh from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded mesh
	//   - r: the reader providing mesh data
	//
	// Returns:
	//   - *model.Mesh: the loaded mesh
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader) (*model.Mesh, error)

	// Get retrieves a cached mesh by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *model.Mesh: the cached mesh or nil
	Get(name string) *model.Mesh

	// Meshes returns a copy of the mesh cache.
	//
	// Returns:
	//   - map[string]*model.Mesh: all cached meshes keyed by name
	Meshes() map[string]*model.Mesh
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeOBJ)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		meshCache: make(map[string]*model.Mesh),
		flipY:     true,
		workers:   1,
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeOBJ:
		l.backend = newOBJLoaderBackend(l.flipY, l.workers)
	}
	return l
}

func (l *loader) Load(path string) (*model.Mesh, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	if err := l.checkExtension(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	defer f.Close()

	return l.load(path, f)
}

func (l *loader) LoadReader(name string, r io.Reader) (*model.Mesh, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	return l.load(name, r)
}

func (l *loader) load(name string, r io.Reader) (*model.Mesh, error) {
	start := time.Now()
	triangles, err := l.backend.Load(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	m, err := model.NewMesh(name, triangles)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	logger.Noticef("loaded %s: %d triangles, extent %s (%s)", name, len(triangles), m.Extent(), time.Since(start))

	l.mu.Lock()
	l.meshCache[name] = m
	l.mu.Unlock()
	return m, nil
}

func (l *loader) Get(name string) *model.Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Meshes() map[string]*model.Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*model.Mesh, len(l.meshCache))
	for k, v := range l.meshCache {
		result[k] = v
	}
	return result
}

func (l *loader) checkExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range l.backend.Extensions() {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported model format %q for %s", ext, path)
}
