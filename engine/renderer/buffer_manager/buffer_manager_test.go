package buffer_manager

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/Carmen-Shannon/oxy-amp/engine/model"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-amp/engine/spatial"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	desc     resource.BufferDescriptor
	data     []byte
	released int
}

func (b *fakeBuffer) Label() string         { return b.desc.Label }
func (b *fakeBuffer) Size() uint64          { return b.desc.Size }
func (b *fakeBuffer) Usage() resource.Usage { return b.desc.Usage }
func (b *fakeBuffer) Release()              { b.released++ }

type fakeDevice struct {
	buffers  []*fakeBuffer
	copies   int
	failOn   string
	corrupt  bool
	writeLog []string
}

func (d *fakeDevice) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	if desc.Label == d.failOn {
		return nil, errors.New("out of device memory")
	}
	b := &fakeBuffer{desc: desc, data: make([]byte, desc.Size)}
	copy(b.data, desc.Contents)
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *fakeDevice) CopyBuffer(src, dst resource.Buffer, size uint64) error {
	s, t := src.(*fakeBuffer), dst.(*fakeBuffer)
	if !s.desc.Usage.Has(resource.UsageCopySrc) || !t.desc.Usage.Has(resource.UsageCopyDst) {
		return errors.New("copy usage violation")
	}
	copy(t.data[:size], s.data[:size])
	d.copies++
	return nil
}

func (d *fakeDevice) WriteBuffer(dst resource.Buffer, offset uint64, data []byte) error {
	b := dst.(*fakeBuffer)
	copy(b.data[offset:], data)
	d.writeLog = append(d.writeLog, b.desc.Label)
	return nil
}

func (d *fakeDevice) ReadBuffer(src resource.Buffer, size uint64) ([]byte, error) {
	b := src.(*fakeBuffer)
	if !b.desc.Usage.Has(resource.UsageMapRead) {
		return nil, errors.New("buffer is not mappable")
	}
	out := append([]byte(nil), b.data[:size]...)
	if d.corrupt {
		out[len(out)-1] ^= 0xff
	}
	return out, nil
}

func (d *fakeDevice) find(label string) *fakeBuffer {
	for _, b := range d.buffers {
		if b.desc.Label == label {
			return b
		}
	}
	return nil
}

func scene(t *testing.T) SceneData {
	t.Helper()
	n := mgl32.Vec3{0, 1, 0}
	tris := []common.Triangle{
		{common.NewVertex(mgl32.Vec3{1, 1, 1}, n), common.NewVertex(mgl32.Vec3{30, 1, 1}, n), common.NewVertex(mgl32.Vec3{1, 30, 20}, n)},
		{common.NewVertex(mgl32.Vec3{40, 2, 2}, n), common.NewVertex(mgl32.Vec3{5, 30, 2}, n), common.NewVertex(mgl32.Vec3{2, 2, 25}, n)},
	}
	mesh, err := model.NewMesh("test", tris)
	require.NoError(t, err)
	idx, err := spatial.NewBuilder().Build(mesh.Triangles(), mesh.Extent())
	require.NoError(t, err)
	amp, err := model.NewAmpVolume(mesh.Extent(), 10, -1)
	require.NoError(t, err)
	return SceneData{Mesh: mesh, Index: idx, Amp: amp}
}

func TestUploadSizesBuffersExactly(t *testing.T) {
	dev := &fakeDevice{}
	m := NewBufferManager(dev, 2)
	data := scene(t)
	require.NoError(t, m.Upload(data))

	expect := map[Dataset]uint64{
		DatasetVertices:  uint64(96 * len(data.Mesh.Triangles())),
		DatasetTriangles: uint64(96 * len(data.Index.Triangles)),
		DatasetMidpoints: 27 * 4,
		DatasetSizes:     512 * 4,
		DatasetAmplitude: uint64(model.AmpHeaderSize + 4*data.Amp.Len()),
	}
	for ds, size := range expect {
		b, ok := m.Binding(ds)
		require.True(t, ok, ds.String())
		assert.Equal(t, size, b.Size, ds.String())
		assert.Equal(t, size, b.Buffer.Size(), ds.String())
	}
	assert.Equal(t, uint64(common.TransformSize), m.TransformBinding(1).Size)
	assert.Equal(t, 4, dev.copies)
}

func TestUploadPlacesStaticDataThroughStaging(t *testing.T) {
	dev := &fakeDevice{}
	m := NewBufferManager(dev, 1)
	data := scene(t)
	require.NoError(t, m.Upload(data))

	sizes := dev.find("sizes")
	require.NotNil(t, sizes)
	assert.Equal(t, common.SliceToBytes(data.Index.Sizes[:]), sizes.data)
	assert.True(t, sizes.desc.Usage.Has(resource.UsageStorage|resource.UsageCopyDst))
	assert.Nil(t, sizes.desc.Contents)

	for _, label := range []string{"triangles staging", "midpoints staging", "sizes staging", "amplitude staging"} {
		staging := dev.find(label)
		require.NotNil(t, staging, label)
		assert.Equal(t, 1, staging.released, label)
	}

	vertices := dev.find("vertices")
	require.NotNil(t, vertices)
	assert.Equal(t, data.Mesh.VertexBytes(), vertices.data)
	assert.True(t, vertices.desc.Usage.Has(resource.UsageVertex|resource.UsageCopyDst))
}

func TestAmplitudeRoundTripMatchesHost(t *testing.T) {
	dev := &fakeDevice{}
	m := NewBufferManager(dev, 2)
	data := scene(t)
	require.NoError(t, m.Upload(data))

	report, err := m.ValidateAmplitude(data.Amp)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, data.Amp.Len(), report.Cells)
	assert.Equal(t, data.Amp.Len(), report.Irregular)
	assert.Equal(t, 1, dev.find("amplitude readback").released)

	dev.corrupt = true
	report, err = m.ValidateAmplitude(data.Amp)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Mismatches)
	assert.Equal(t, data.Amp.Len()-1, report.FirstMismatch)
}

func TestWriteTransformTargetsSlot(t *testing.T) {
	dev := &fakeDevice{}
	m := NewBufferManager(dev, 2)
	require.NoError(t, m.Upload(scene(t)))

	tr := common.Transform{CameraPos: [3]float32{1, 2, 3}}
	require.NoError(t, m.WriteTransform(1, &tr))

	buf := dev.find("transform[1]")
	assert.Equal(t, common.StructToBytes(&tr), buf.data)
	assert.Equal(t, "transform[1]", dev.writeLog[len(dev.writeLog)-1])

	assert.Error(t, m.WriteTransform(2, &tr))
}

func TestCreationFailureIsWrapped(t *testing.T) {
	dev := &fakeDevice{failOn: "midpoints"}
	m := NewBufferManager(dev, 2)
	err := m.Upload(scene(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create midpoints buffer")
	assert.Contains(t, err.Error(), "out of device memory")
}

func TestUploadStaticRejectsEmpty(t *testing.T) {
	m := NewBufferManager(&fakeDevice{}, 1)
	_, err := m.UploadStatic(DatasetTriangles, nil, resource.UsageStorage)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestReleaseFreesEveryBufferOnce(t *testing.T) {
	dev := &fakeDevice{}
	m := NewBufferManager(dev, 2)
	require.NoError(t, m.Upload(scene(t)))
	m.Release()

	for _, b := range dev.buffers {
		assert.Equal(t, 1, b.released, b.desc.Label)
	}
	_, ok := m.Binding(DatasetAmplitude)
	assert.False(t, ok)
}
