package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# unit quad in the xz plane
o quad
v 0 0 0
v 2 0 0
v 2 0 2
v 0 0 2
vn 0 1 0
vt 0 0
f 1//1 2//1 3//1 4//1
`

func TestLoadReaderTriangulatesQuads(t *testing.T) {
	l := NewLoader(BackendTypeOBJ, WithFlipY(false))
	m, err := l.LoadReader("quad", strings.NewReader(quadOBJ))
	require.NoError(t, err)

	tris := m.Triangles()
	require.Len(t, tris, 2)
	assert.Equal(t, [4]float32{0, 0, 0, 0}, tris[0][0].Pos)
	assert.Equal(t, [4]float32{2, 0, 0, 0}, tris[0][1].Pos)
	assert.Equal(t, [4]float32{2, 0, 2, 0}, tris[0][2].Pos)
	assert.Equal(t, [4]float32{0, 0, 2, 0}, tris[1][2].Pos)
	assert.Equal(t, [4]float32{0, 1, 0, 0}, tris[1][0].Normal)
	assert.Equal(t, [3]float32{2, 0, 2}, m.Extent().Max)
}

func TestFlipYNegatesPositionsOnly(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)
	m, err := l.LoadReader("quad", strings.NewReader(strings.ReplaceAll(quadOBJ, "v 2 0 2", "v 2 3 2")))
	require.NoError(t, err)

	tris := m.Triangles()
	assert.Equal(t, float32(-3), tris[0][2].Pos[1])
	assert.Equal(t, float32(1), tris[0][0].Normal[1])
	assert.Equal(t, float32(-3), m.Extent().Min[1])
	assert.Equal(t, float32(0), m.Extent().Max[1])
}

func TestMissingNormalsGenerateFlatNormal(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	m, err := NewLoader(BackendTypeOBJ, WithFlipY(false)).LoadReader("tri", strings.NewReader(src))
	require.NoError(t, err)

	for _, v := range m.Triangles()[0] {
		assert.Equal(t, [4]float32{0, 0, 1, 0}, v.Normal)
	}
}

func TestNegativeAndTexturedIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvn 0 0 1\nf -3/1/1 -2/1/1 -1/1/1\n"
	m, err := NewLoader(BackendTypeOBJ, WithFlipY(false)).LoadReader("tri", strings.NewReader(src))
	require.NoError(t, err)

	tri := m.Triangles()[0]
	assert.Equal(t, [4]float32{1, 0, 0, 0}, tri[1].Pos)
	assert.Equal(t, [4]float32{0, 0, 1, 0}, tri[2].Normal)
}

func TestParseErrorsCarryLineNumbers(t *testing.T) {
	cases := map[string]string{
		"index out of range": "v 0 0 0\nf 1 2 3\n",
		"mixed corner forms": "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2 3\n",
		"short vertex":       "v 0 0\n",
		"two corner face":    "v 0 0 0\nv 1 0 0\nf 1 2\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader(BackendTypeOBJ).LoadReader("bad.obj", strings.NewReader(src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.obj:")
		})
	}
}

func TestEmptyMeshIsAnError(t *testing.T) {
	_, err := NewLoader(BackendTypeOBJ).LoadReader("empty", strings.NewReader("v 0 0 0\n"))
	assert.Error(t, err)
}

func TestLoadCachesByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))

	l := NewLoader(BackendTypeOBJ)
	first, err := l.Load(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, l.Get(path))
	assert.Len(t, l.Meshes(), 1)
}

func TestLoadRejectsUnknownExtensionAndMissingFile(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)
	_, err := l.Load("scene.gltf")
	assert.ErrorContains(t, err, "unsupported model format")

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.obj"))
	assert.Error(t, err)
}

func TestParallelAssemblyPreservesFaceOrder(t *testing.T) {
	var sb strings.Builder
	faces := facesPerTask*2 + 17
	for i := 0; i < faces; i++ {
		fmt.Fprintf(&sb, "v %d 0 0\nv %d 1 0\nv %d 0 1\nf -3 -2 -1\n", i, i, i)
	}

	sequential, err := NewLoader(BackendTypeOBJ).LoadReader("a", strings.NewReader(sb.String()))
	require.NoError(t, err)
	parallel, err := NewLoader(BackendTypeOBJ, WithWorkers(4)).LoadReader("b", strings.NewReader(sb.String()))
	require.NoError(t, err)

	require.Len(t, parallel.Triangles(), faces)
	assert.Equal(t, sequential.Triangles(), parallel.Triangles())
	for i, tri := range parallel.Triangles() {
		assert.Equal(t, float32(i), tri[0].Pos[0])
	}
}
