package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/frame_scheduler"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// usageFlags maps resource usage bits to their WebGPU equivalents.
var usageFlags = []struct {
	usage resource.Usage
	flag  wgpu.BufferUsage
}{
	{resource.UsageMapRead, wgpu.BufferUsageMapRead},
	{resource.UsageCopySrc, wgpu.BufferUsageCopySrc},
	{resource.UsageCopyDst, wgpu.BufferUsageCopyDst},
	{resource.UsageVertex, wgpu.BufferUsageVertex},
	{resource.UsageUniform, wgpu.BufferUsageUniform},
	{resource.UsageStorage, wgpu.BufferUsageStorage},
}

func toBufferUsage(u resource.Usage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for _, f := range usageFlags {
		if u.Has(f.usage) {
			out |= f.flag
		}
	}
	return out
}

// gpuBuffer is a device buffer owned through a resource.Handle.
type gpuBuffer struct {
	handle *resource.Handle[*wgpu.Buffer]
	label  string
	size   uint64
	usage  resource.Usage
}

var _ resource.Buffer = &gpuBuffer{}

func newGPUBuffer(buf *wgpu.Buffer, desc resource.BufferDescriptor) *gpuBuffer {
	return &gpuBuffer{
		handle: resource.NewHandle(buf, (*wgpu.Buffer).Release),
		label:  desc.Label,
		size:   desc.Size,
		usage:  desc.Usage,
	}
}

func (b *gpuBuffer) Label() string         { return b.label }
func (b *gpuBuffer) Size() uint64          { return b.size }
func (b *gpuBuffer) Usage() resource.Usage { return b.usage }
func (b *gpuBuffer) Release()              { b.handle.Release() }
func (b *gpuBuffer) Raw() *wgpu.Buffer     { return b.handle.Get() }

// rawBuffer unwraps a resource.Buffer created by this backend.
func rawBuffer(b resource.Buffer) (*wgpu.Buffer, error) {
	gb, ok := b.(*gpuBuffer)
	if !ok || gb.Raw() == nil {
		return nil, fmt.Errorf("buffer %q is not a live device buffer", b.Label())
	}
	return gb.Raw(), nil
}

// queueFence maps a fence onto queue submission order. A submission marks it in flight and a
// wait polls the device until the queue drains.
type queueFence struct {
	name     string
	poll     func()
	signaled bool
	inFlight bool
}

var _ frame_scheduler.Fence = &queueFence{}

func newQueueFence(name string, poll func()) *queueFence {
	return &queueFence{name: name, poll: poll, signaled: true}
}

func (f *queueFence) submitted() {
	f.inFlight = true
}

func (f *queueFence) Reset() {
	f.signaled = false
}

func (f *queueFence) Wait(ctx context.Context) error {
	if f.signaled {
		return nil
	}
	if !f.inFlight {
		return fmt.Errorf("%s: %w", f.name, frame_scheduler.ErrFenceUnsubmitted)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.poll()
	f.inFlight = false
	f.signaled = true
	return nil
}

// staleSurface lists the acquire failures that a reconfigure recovers from.
var staleSurface = []string{"outdated", "out of date", "lost", "timeout"}

// classifyAcquireError wraps failures that a swapchain rebuild fixes in ErrSurfaceOutOfDate.
func classifyAcquireError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, s := range staleSurface {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %w", frame_scheduler.ErrSurfaceOutOfDate, err)
		}
	}
	return err
}

// errMapPending is returned when a readback map callback never ran during the device poll.
var errMapPending = errors.New("buffer map did not complete")

// mapResult turns the outcome of a MapAsync callback into an error.
func mapResult(label string, mapped bool, status wgpu.BufferMapAsyncStatus) error {
	if !mapped {
		return fmt.Errorf("map %s: %w", label, errMapPending)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("map %s: status %v", label, status)
	}
	return nil
}

// errNotLoaded is returned by frame operations before Load has completed.
var errNotLoaded = errors.New("renderer has no scene loaded")
