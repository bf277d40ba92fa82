package renderer

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoAdapters is returned when the WebGPU instance reports no adapters at all.
var ErrNoAdapters = errors.New("no WebGPU adapters found")

// AdapterInfo describes one adapter the WebGPU instance can open.
type AdapterInfo struct {
	Name    string
	Vendor  string
	Driver  string
	Type    string
	Backend string
}

// ListAdapters enumerates the adapters visible to a fresh WebGPU instance without opening a
// surface or device.
//
// Returns:
//   - []AdapterInfo: one entry per adapter, in enumeration order
//   - error: ErrNoAdapters if none were found
func ListAdapters() ([]AdapterInfo, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}

	out := make([]AdapterInfo, 0, len(adapters))
	for _, a := range adapters {
		info := a.GetInfo()
		out = append(out, AdapterInfo{
			Name:    fmt.Sprint(info.Name),
			Vendor:  fmt.Sprint(info.VendorName),
			Driver:  fmt.Sprint(info.DriverDescription),
			Type:    fmt.Sprint(info.AdapterType),
			Backend: fmt.Sprint(info.BackendType),
		})
		a.Release()
	}
	return out, nil
}
