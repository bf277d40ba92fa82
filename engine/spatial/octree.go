package spatial

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/Carmen-Shannon/oxy-amp/log"
)

const (
	// Subdivisions is the number of intervals per axis.
	Subdivisions = 8

	// BucketCount is the number of cells in the bucket grid.
	BucketCount = Subdivisions * Subdivisions * Subdivisions

	// defaultChunkSize is the number of triangles handed to one worker task.
	defaultChunkSize = 4096
)

var logger = log.New("spatial")

// Midpoints holds the Subdivisions+1 interval boundaries for each of the x, y and z axes.
type Midpoints [3][]float32

// Flatten concatenates the x, y and z boundaries into the layout read by the compute shader.
func (m Midpoints) Flatten() []float32 {
	out := make([]float32, 0, 3*(Subdivisions+1))
	for axis := 0; axis < 3; axis++ {
		out = append(out, m[axis]...)
	}
	return out
}

// Locate returns the bucket coordinates holding p and whether any axis had to be clamped.
func (m Midpoints) Locate(p [3]float32) (cell [3]int, clamped bool) {
	for axis := 0; axis < 3; axis++ {
		k, c := locate(m[axis], p[axis])
		cell[axis] = k
		clamped = clamped || c
	}
	return cell, clamped
}

// BucketID flattens bucket coordinates as x + 8y + 64z.
func BucketID(x, y, z int) int {
	return x + Subdivisions*y + Subdivisions*Subdivisions*z
}

// BucketCoords is the inverse of BucketID.
func BucketCoords(id int) (x, y, z int) {
	return id % Subdivisions, (id / Subdivisions) % Subdivisions, id / (Subdivisions * Subdivisions)
}

// Stats describes how a build distributed its input.
type Stats struct {
	// Input is the number of triangles passed to Build.
	Input int
	// Placed is the length of the flattened triangle buffer.
	Placed int
	// OutOfRange counts vertices that fell outside the extent and were clamped.
	OutOfRange int
	// NonEmpty is the number of buckets holding at least one triangle.
	NonEmpty int
}

// Replication returns the average number of buckets each input triangle landed in.
func (s Stats) Replication() float64 {
	if s.Input == 0 {
		return 0
	}
	return float64(s.Placed) / float64(s.Input)
}

// Index is the immutable result of a spatial build.
type Index struct {
	Midpoints Midpoints
	// Triangles concatenates the contents of buckets 0..BucketCount-1 in order.
	Triangles []common.Triangle
	// Sizes holds the triangle count of every bucket.
	Sizes [BucketCount]uint32
	Stats Stats
}

// Offset returns the position in Triangles where bucket id starts.
func (idx *Index) Offset(id int) int {
	total := 0
	for i := 0; i < id; i++ {
		total += int(idx.Sizes[i])
	}
	return total
}

// Bucket returns the triangles held by bucket id.
func (idx *Index) Bucket(id int) []common.Triangle {
	start := idx.Offset(id)
	return idx.Triangles[start : start+int(idx.Sizes[id])]
}

// Builder buckets triangles into the fixed grid.
type Builder struct {
	workers   int
	chunkSize int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithWorkers sets how many goroutines bucket triangles in parallel.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithChunkSize sets the number of triangles in one worker task.
func WithChunkSize(n int) BuilderOption {
	return func(b *Builder) {
		b.chunkSize = n
	}
}

// NewBuilder creates a Builder. By default bucketing runs on a single worker.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - *Builder: the configured builder
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{workers: 1, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(b)
	}
	b.workers = max(b.workers, 1)
	b.chunkSize = max(b.chunkSize, 1)
	return b
}

// chunkResult holds one worker's per-bucket triangle lists. Keeping the lists per chunk and
// merging them in chunk order makes the output independent of scheduling.
type chunkResult struct {
	buckets    [BucketCount][]common.Triangle
	outOfRange int
}

// Build subdivides the extent, assigns every triangle to each bucket containing one of its
// vertices, and flattens the buckets in id order. A bucket never holds two structurally
// equal triangles.
//
// Parameters:
//   - triangles: the full mesh triangle list
//   - extent: the mesh bounding box
//
// Returns:
//   - *Index: the built index
//   - error: an error if an axis of the extent cannot be subdivided
func (b *Builder) Build(triangles []common.Triangle, extent common.ModelExtent) (*Index, error) {
	start := time.Now()
	idx := &Index{}
	for axis := 0; axis < 3; axis++ {
		bounds, err := Bisect(extent.Min[axis], extent.Max[axis], Subdivisions)
		if err != nil {
			return nil, fmt.Errorf("bisect axis %d: %w", axis, err)
		}
		idx.Midpoints[axis] = bounds
	}

	chunks := b.bucketChunks(triangles, idx.Midpoints)

	seen := make([]map[common.Triangle]struct{}, BucketCount)
	buckets := make([][]common.Triangle, BucketCount)
	for _, chunk := range chunks {
		idx.Stats.OutOfRange += chunk.outOfRange
		for id, tris := range chunk.buckets {
			for _, tri := range tris {
				if seen[id] == nil {
					seen[id] = make(map[common.Triangle]struct{})
				}
				if _, dup := seen[id][tri]; dup {
					continue
				}
				seen[id][tri] = struct{}{}
				buckets[id] = append(buckets[id], tri)
			}
		}
	}

	for id, tris := range buckets {
		idx.Sizes[id] = uint32(len(tris))
		idx.Triangles = append(idx.Triangles, tris...)
		if len(tris) > 0 {
			idx.Stats.NonEmpty++
		}
	}
	idx.Stats.Input = len(triangles)
	idx.Stats.Placed = len(idx.Triangles)

	if idx.Stats.OutOfRange > 0 {
		logger.Warningf("%d vertices were outside the extent and clamped to edge buckets", idx.Stats.OutOfRange)
	}
	logger.Infof("bucketed %d triangles into %d entries across %d buckets in %s",
		idx.Stats.Input, idx.Stats.Placed, idx.Stats.NonEmpty, time.Since(start))
	return idx, nil
}

// bucketChunks splits the triangles into contiguous chunks and buckets each one on the worker pool.
func (b *Builder) bucketChunks(triangles []common.Triangle, mids Midpoints) []*chunkResult {
	n := (len(triangles) + b.chunkSize - 1) / b.chunkSize
	results := make([]*chunkResult, n)
	if n == 0 {
		return results
	}
	if b.workers == 1 || n == 1 {
		for i := range results {
			results[i] = bucketChunk(triangles[i*b.chunkSize:min((i+1)*b.chunkSize, len(triangles))], mids)
		}
		return results
	}

	pool := worker.NewDynamicWorkerPool(b.workers, n, time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := range results {
		lo, hi := i*b.chunkSize, min((i+1)*b.chunkSize, len(triangles))
		id := i
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				results[id] = bucketChunk(triangles[lo:hi], mids)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return results
}

func bucketChunk(triangles []common.Triangle, mids Midpoints) *chunkResult {
	res := &chunkResult{}
	for _, tri := range triangles {
		var placed [3]int
		count := 0
		for _, v := range tri {
			cell, clamped := mids.Locate([3]float32{v.Pos[0], v.Pos[1], v.Pos[2]})
			if clamped {
				res.outOfRange++
			}
			id := BucketID(cell[0], cell[1], cell[2])
			dup := false
			for j := 0; j < count; j++ {
				if placed[j] == id {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			placed[count] = id
			count++
			res.buckets[id] = append(res.buckets[id], tri)
		}
	}
	return res
}
