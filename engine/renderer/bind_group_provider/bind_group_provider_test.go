package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	desc *wgpu.BindGroupDescriptor
	err  error
}

func (d *fakeDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	d.desc = desc
	return nil, d.err
}

func TestInitBuildsEntriesInBindingOrder(t *testing.T) {
	layout := &wgpu.BindGroupLayout{}
	p := NewBindGroupProvider("transform[1]",
		WithBindGroupLayout(layout),
		WithBuffer(2, nil, 0, 0),
		WithBuffer(0, nil, 64, 224),
	)

	dev := &fakeDevice{}
	require.NoError(t, p.Init(dev))
	require.NotNil(t, dev.desc)
	assert.Equal(t, "transform[1]", dev.desc.Label)
	assert.Same(t, layout, dev.desc.Layout)

	require.Len(t, dev.desc.Entries, 2)
	assert.Equal(t, uint32(0), dev.desc.Entries[0].Binding)
	assert.Equal(t, uint64(64), dev.desc.Entries[0].Offset)
	assert.Equal(t, uint64(224), dev.desc.Entries[0].Size)
	assert.Equal(t, uint32(2), dev.desc.Entries[1].Binding)
	assert.Equal(t, uint64(wgpu.WholeSize), dev.desc.Entries[1].Size)
}

func TestInitRequiresLayoutAndBuffers(t *testing.T) {
	err := NewBindGroupProvider("amp", WithBuffer(0, nil, 0, 0)).Init(&fakeDevice{})
	assert.ErrorIs(t, err, ErrNoLayout)

	err = NewBindGroupProvider("amp", WithBindGroupLayout(&wgpu.BindGroupLayout{})).Init(&fakeDevice{})
	assert.ErrorContains(t, err, "no buffers bound")
}

func TestInitWrapsDeviceError(t *testing.T) {
	p := NewBindGroupProvider("amp", WithBindGroupLayout(&wgpu.BindGroupLayout{}), WithBuffer(0, nil, 0, 0))
	err := p.Init(&fakeDevice{err: errors.New("validation error")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create amp bind group")
	assert.Nil(t, p.BindGroup())
	p.Release()
}
