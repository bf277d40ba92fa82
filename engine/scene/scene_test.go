package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-amp/engine/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wedgeOBJ = `v 0 0 0
v 100 0 0
v 100 50 20
f 1 2 3
`

func writeModel(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestNewScenePreparesAllDatasets(t *testing.T) {
	path := writeModel(t, "wedge.obj", wedgeOBJ)
	s, err := NewScene(path, WithFlipY(false), WithWorkers(4), WithInitialAmplitude(0.5))
	require.NoError(t, err)

	assert.Equal(t, path, s.Name())
	assert.Equal(t, [3]int{10, 5, 2}, s.Amp().Dims)
	assert.Equal(t, 100, s.Amp().Len())
	assert.Equal(t, float32(0.5), s.Amp().Values[99])

	idx := s.Index()
	assert.Equal(t, uint32(1), idx.Sizes[spatial.BucketID(0, 0, 0)])
	assert.Equal(t, uint32(1), idx.Sizes[spatial.BucketID(7, 0, 0)])
	assert.Equal(t, uint32(1), idx.Sizes[spatial.BucketID(7, 7, 7)])
	assert.Equal(t, 3, idx.Stats.NonEmpty)
	assert.Len(t, idx.Triangles, 3)

	data := s.Data()
	assert.Same(t, s.Mesh(), data.Mesh)
	assert.Same(t, s.Index(), data.Index)
	assert.Same(t, s.Amp(), data.Amp)
}

func TestWriteSummary(t *testing.T) {
	s, err := NewScene(writeModel(t, "wedge.obj", wedgeOBJ), WithFlipY(false))
	require.NoError(t, err)

	var buf bytes.Buffer
	s.WriteSummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "10x5x2 cells of 10 (100 total)")
	assert.Contains(t, out, "3 of 512 non-empty")
	assert.Contains(t, out, "replication: 3.000 (3 placed / 1 input)")
	assert.Contains(t, out, "TRIANGLES")
	assert.Contains(t, out, "511")
	assert.NotContains(t, out, "clamped")
}

func TestNewSceneWrapsFailures(t *testing.T) {
	_, err := NewScene(filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorContains(t, err, "load model")

	flat := writeModel(t, "flat.obj", "v 0 0 0\nv 100 0 0\nv 100 50 0\nf 1 2 3\n")
	_, err = NewScene(flat, WithFlipY(false))
	assert.ErrorContains(t, err, "build spatial index")
}
