package bind_group_provider

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoLayout is returned by Init when the provider was built without a layout.
var ErrNoLayout = errors.New("bind group provider has no layout")

// Device is the subset of *wgpu.Device a provider needs to create its bind group.
type Device interface {
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)
}

var _ Device = (*wgpu.Device)(nil)

// bufferEntry is a buffer range bound at one binding index.
type bufferEntry struct {
	buffer *wgpu.Buffer
	offset uint64
	size   uint64
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroupLayout is borrowed from the pipelines and is never released here.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers are borrowed from the buffer manager, keyed by binding index.
	buffers map[int]bufferEntry

	// bindGroup is created by Init and owned by the provider.
	bindGroup *wgpu.BindGroup
}

// BindGroupProvider describes one bind group: a layout plus the buffer ranges bound into it.
// The renderer calls Init once the layout and buffers exist, then binds BindGroup() in its passes.
//
// Usage pattern:
//  1. The renderer creates a provider with the set layout and the dataset buffers
//  2. The renderer calls Init(device) to create the GPU bind group
//  3. Passes bind BindGroup() at the set index of their pipeline
//  4. Release frees the bind group; layouts and buffers belong to their own owners
type BindGroupProvider interface {
	// Release frees the bind group. It is safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Init creates the GPU bind group from the layout and buffers.
	//
	// Parameters:
	//   - device: the device to create the bind group on
	//
	// Returns:
	//   - error: ErrNoLayout, or the device error wrapped with the label
	Init(device Device) error

	// BindGroup returns the created bind group, or nil before Init.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the group is created against.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Entries returns the bind group entries in binding order.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per bound buffer
	Entries() []wgpu.BindGroupEntry
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label used for the bind group
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]bufferEntry),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Init(device Device) error {
	if p.bindGroupLayout == nil {
		return fmt.Errorf("init %s: %w", p.label, ErrNoLayout)
	}
	if len(p.buffers) == 0 {
		return fmt.Errorf("init %s: no buffers bound", p.label)
	}
	p.Release()

	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.bindGroupLayout,
		Entries: p.Entries(),
	})
	if err != nil {
		return fmt.Errorf("create %s bind group: %w", p.label, err)
	}
	p.bindGroup = bg
	return nil
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	bindings := make([]int, 0, len(p.buffers))
	for b := range p.buffers {
		bindings = append(bindings, b)
	}
	sort.Ints(bindings)

	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	for _, b := range bindings {
		e := p.buffers[b]
		size := e.size
		if size == 0 {
			size = wgpu.WholeSize
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(b),
			Buffer:  e.buffer,
			Offset:  e.offset,
			Size:    size,
		})
	}
	return entries
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}
