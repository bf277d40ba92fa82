package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeSrc = `
struct Transform { model: mat4x4<f32> }

@group(4) @binding(0) var<uniform> transform: Transform;
@group(0) @binding(0) var<storage, read_write> amp: array<f32>;
@group(1) @binding(0) var<storage, read> triangles: array<vec4<f32>>;
// @group(9) @binding(0) var<storage> commented: array<f32>;
/* @group(8) @binding(0) var<storage> blocked: array<f32>; /* nested */ */
@group(2) @binding(0) var<storage> mids: array<f32>;

@compute @workgroup_size(4, 2)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {}
`

func TestParseComputeShader(t *testing.T) {
	s, err := Parse("amp.compute", StageCompute, computeSrc)
	require.NoError(t, err)

	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, [3]uint32{4, 2, 1}, s.WorkgroupSize())
	assert.Equal(t, "amp.compute", s.Module().Label)
	assert.Equal(t, computeSrc, s.Module().WGSLDescriptor.Code)

	decls := s.Declarations()
	require.Len(t, decls, 4)
	assert.Equal(t, Declaration{Group: 0, Binding: 0, AddressSpace: "storage", Access: "read_write", Name: "amp", Type: "array<f32>"}, decls[0])
	assert.True(t, decls[0].Writable())
	assert.Equal(t, "read", decls[1].Access)
	assert.Equal(t, "array<vec4<f32>>", decls[1].Type)
	assert.Equal(t, "read", decls[2].Access)
	assert.Equal(t, "uniform", decls[3].AddressSpace)
	assert.Equal(t, 4, decls[3].Group)
}

func TestParseVertexAndFragmentEntryPoints(t *testing.T) {
	src := `
@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(pos, 1.0); }

@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`
	vs, err := Parse("v", StageVertex, src)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, [3]uint32{}, vs.WorkgroupSize())

	fs, err := Parse("f", StageFragment, src)
	require.NoError(t, err)
	assert.Equal(t, "fs_main", fs.EntryPoint())

	_, err = Parse("c", StageCompute, src)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestParseRejectsDuplicateBinding(t *testing.T) {
	src := `
@group(0) @binding(0) var<storage> a: array<f32>;
@group(0) @binding(0) var<storage> b: array<f32>;
@compute @workgroup_size(1) fn main() {}
`
	_, err := Parse("dup", StageCompute, src)
	assert.ErrorContains(t, err, "declared twice")
}

func TestLoadSet(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"amp_vert.wgsl": "@vertex fn vs() -> @builtin(position) vec4<f32> { return vec4<f32>(); }",
		"amp_frag.wgsl": "@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(); }",
		"amp_comp.wgsl": "@compute @workgroup_size(8) fn cs() {}",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	set, err := LoadSet(dir, "amp")
	require.NoError(t, err)
	assert.Equal(t, "vs", set.Vertex.EntryPoint())
	assert.Equal(t, "fs", set.Fragment.EntryPoint())
	assert.Equal(t, "cs", set.Compute.EntryPoint())
	assert.Equal(t, [3]uint32{8, 1, 1}, set.Compute.WorkgroupSize())
	assert.Equal(t, "amp.compute", set.Compute.Key())
}

func TestLoadSetMissingStage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "amp_vert.wgsl"), []byte("@vertex fn vs() {}"), 0o644))

	_, err := LoadSet(dir, "amp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amp_frag.wgsl")
}
