package scene

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-amp/engine/loader"
	"github.com/Carmen-Shannon/oxy-amp/engine/model"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/buffer_manager"
	"github.com/Carmen-Shannon/oxy-amp/engine/spatial"
	"github.com/Carmen-Shannon/oxy-amp/log"
	"github.com/olekukonko/tablewriter"
)

var logger = log.New("scene")

// Scene is the host side of a render: one mesh, its spatial index and the amplitude volume over
// its bounding box. It is built once and never modified.
type Scene interface {
	// Name returns the mesh name, usually its path.
	Name() string

	// Mesh returns the loaded mesh.
	Mesh() *model.Mesh

	// Index returns the spatial index built over the mesh.
	Index() *spatial.Index

	// Amp returns the authoritative host copy of the amplitude volume.
	Amp() *model.AmpVolume

	// Data returns the datasets the renderer uploads.
	Data() buffer_manager.SceneData

	// WriteSummary prints the extent, the amplitude grid, the midpoints, a table of the
	// non-empty buckets and the replication factor.
	//
	// Parameters:
	//   - w: the destination
	WriteSummary(w io.Writer)
}

type scene struct {
	mesh  *model.Mesh
	index *spatial.Index
	amp   *model.AmpVolume

	loader          loader.Loader
	flipY           bool
	workers         int
	cellSize        float32
	initialAmp      float32
	builderOverride []spatial.BuilderOption
}

var _ Scene = &scene{}

// NewScene loads the mesh at path, buckets it and sizes the amplitude volume.
//
// Parameters:
//   - path: the model file
//   - options: functional options to configure loading and indexing
//
// Returns:
//   - Scene: the prepared scene
//   - error: an asset, indexing or volume error, wrapped with the step that failed
func NewScene(path string, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		flipY:      true,
		workers:    1,
		cellSize:   model.DefaultCellSize,
		initialAmp: -1,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.loader == nil {
		s.loader = loader.NewLoader(loader.BackendTypeOBJ, loader.WithFlipY(s.flipY), loader.WithWorkers(s.workers))
	}

	start := time.Now()
	mesh, err := s.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	s.mesh = mesh

	builder := spatial.NewBuilder(append([]spatial.BuilderOption{spatial.WithWorkers(s.workers)}, s.builderOverride...)...)
	if s.index, err = builder.Build(mesh.Triangles(), mesh.Extent()); err != nil {
		return nil, fmt.Errorf("build spatial index: %w", err)
	}

	if s.amp, err = model.NewAmpVolume(mesh.Extent(), s.cellSize, s.initialAmp); err != nil {
		return nil, fmt.Errorf("size amplitude volume: %w", err)
	}

	logger.Infof("prepared %s in %s: extent %s, amplitude grid %v", path, time.Since(start), mesh.Extent(), s.amp.Dims)
	return s, nil
}

func (s *scene) Name() string {
	return s.mesh.Name()
}

func (s *scene) Mesh() *model.Mesh {
	return s.mesh
}

func (s *scene) Index() *spatial.Index {
	return s.index
}

func (s *scene) Amp() *model.AmpVolume {
	return s.amp
}

func (s *scene) Data() buffer_manager.SceneData {
	return buffer_manager.SceneData{Mesh: s.mesh, Index: s.index, Amp: s.amp}
}

func (s *scene) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "model:       %s\n", s.mesh.Name())
	fmt.Fprintf(w, "triangles:   %d\n", len(s.mesh.Triangles()))
	fmt.Fprintf(w, "extent:      %s\n", s.mesh.Extent())
	fmt.Fprintf(w, "amplitude:   %dx%dx%d cells of %g (%d total)\n",
		s.amp.Dims[0], s.amp.Dims[1], s.amp.Dims[2], s.amp.CellSize, s.amp.Len())
	for axis, name := range []string{"x", "y", "z"} {
		fmt.Fprintf(w, "midpoints %s: %v\n", name, s.index.Midpoints[axis])
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Bucket", "X", "Y", "Z", "Triangles", "Offset"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	offset := 0
	for id, n := range s.index.Sizes {
		if n > 0 {
			x, y, z := spatial.BucketCoords(id)
			table.Append([]string{
				strconv.Itoa(id), strconv.Itoa(x), strconv.Itoa(y), strconv.Itoa(z),
				strconv.FormatUint(uint64(n), 10), strconv.Itoa(offset),
			})
		}
		offset += int(n)
	}
	table.Render()

	st := s.index.Stats
	fmt.Fprintf(w, "buckets:     %d of %d non-empty\n", st.NonEmpty, spatial.BucketCount)
	fmt.Fprintf(w, "replication: %.3f (%d placed / %d input)\n", st.Replication(), st.Placed, st.Input)
	if st.OutOfRange > 0 {
		fmt.Fprintf(w, "clamped:     %d vertices outside the extent\n", st.OutOfRange)
	}
}
