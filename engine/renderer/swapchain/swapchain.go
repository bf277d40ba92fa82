package swapchain

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoFormats is returned when the surface reports no supported formats.
	ErrNoFormats = errors.New("surface supports no texture formats")

	// ErrUnknownPresentMode is returned by ParsePresentMode for unrecognised names.
	ErrUnknownPresentMode = errors.New("unknown present mode")
)

// PreferredFormat is chosen whenever the surface supports it.
const PreferredFormat = wgpu.TextureFormatBGRA8UnormSrgb

// Capabilities is what the surface and device allow.
type Capabilities struct {
	Formats      []wgpu.TextureFormat
	PresentModes []wgpu.PresentMode
	AlphaModes   []wgpu.CompositeAlphaMode
	// MaxDimension is the device's MaxTextureDimension2D.
	MaxDimension uint32
}

// Plan is a resolved swapchain configuration.
type Plan struct {
	Format      wgpu.TextureFormat
	PresentMode wgpu.PresentMode
	AlphaMode   wgpu.CompositeAlphaMode
	Width       uint32
	Height      uint32
}

// NewPlan resolves format, present mode and extent against the surface capabilities.
//
// Parameters:
//   - caps: the surface capabilities
//   - width, height: the framebuffer size
//   - preferred: the configured present mode, used when the surface supports it
//
// Returns:
//   - Plan: the configuration to apply
//   - error: ErrNoFormats if the surface has no formats
func NewPlan(caps Capabilities, width, height int, preferred wgpu.PresentMode) (Plan, error) {
	format, err := ChooseFormat(caps.Formats)
	if err != nil {
		return Plan{}, err
	}
	w, h := ClampExtent(width, height, caps.MaxDimension)
	p := Plan{
		Format:      format,
		PresentMode: ChoosePresentMode(caps.PresentModes, preferred),
		Width:       w,
		Height:      h,
	}
	if len(caps.AlphaModes) > 0 {
		p.AlphaMode = caps.AlphaModes[0]
	}
	return p, nil
}

// Configuration returns the surface configuration for the plan.
func (p Plan) Configuration() *wgpu.SurfaceConfiguration {
	return &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      p.Format,
		Width:       p.Width,
		Height:      p.Height,
		PresentMode: p.PresentMode,
		AlphaMode:   p.AlphaMode,
	}
}

func (p Plan) String() string {
	return fmt.Sprintf("%dx%d %v %s", p.Width, p.Height, p.Format, PresentModeName(p.PresentMode))
}

// ChooseFormat prefers BGRA8 sRGB and otherwise takes the first supported format.
func ChooseFormat(formats []wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	if len(formats) == 0 {
		return wgpu.TextureFormatUndefined, ErrNoFormats
	}
	if slices.Contains(formats, PreferredFormat) {
		return PreferredFormat, nil
	}
	return formats[0], nil
}

// ChoosePresentMode picks preferred if supported, then mailbox, and finally FIFO, which every
// surface supports.
func ChoosePresentMode(modes []wgpu.PresentMode, preferred wgpu.PresentMode) wgpu.PresentMode {
	for _, m := range []wgpu.PresentMode{preferred, wgpu.PresentModeMailbox} {
		if slices.Contains(modes, m) {
			return m
		}
	}
	return wgpu.PresentModeFifo
}

// ClampExtent clamps a framebuffer size to [1, maxDim] on both axes. A maxDim of 0 means
// no upper bound.
func ClampExtent(width, height int, maxDim uint32) (uint32, uint32) {
	upper := int(maxDim)
	if maxDim == 0 {
		upper = int(^uint32(0) >> 1)
	}
	return uint32(common.Clamp(width, 1, upper)), uint32(common.Clamp(height, 1, upper))
}

// ParsePresentMode maps a configuration name to a present mode.
//
// Parameters:
//   - name: one of "mailbox", "fifo" or "immediate", case-insensitive
//
// Returns:
//   - wgpu.PresentMode: the mode
//   - error: ErrUnknownPresentMode for any other name
func ParsePresentMode(name string) (wgpu.PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mailbox":
		return wgpu.PresentModeMailbox, nil
	case "fifo", "vsync":
		return wgpu.PresentModeFifo, nil
	case "immediate", "uncapped":
		return wgpu.PresentModeImmediate, nil
	default:
		return wgpu.PresentModeFifo, fmt.Errorf("%w: %q", ErrUnknownPresentMode, name)
	}
}

// PresentModeName is the inverse of ParsePresentMode.
func PresentModeName(m wgpu.PresentMode) string {
	switch m {
	case wgpu.PresentModeMailbox:
		return "mailbox"
	case wgpu.PresentModeFifo:
		return "fifo"
	case wgpu.PresentModeImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("present-mode(%d)", int(m))
	}
}
