package swapchain

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseFormat(t *testing.T) {
	f, err := ChooseFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb})
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, f)

	f, err = ChooseFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatBGRA8Unorm})
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, f)

	_, err = ChooseFormat(nil)
	assert.ErrorIs(t, err, ErrNoFormats)
}

func TestChoosePresentMode(t *testing.T) {
	all := []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeMailbox, wgpu.PresentModeImmediate}
	assert.Equal(t, wgpu.PresentModeImmediate, ChoosePresentMode(all, wgpu.PresentModeImmediate))
	assert.Equal(t, wgpu.PresentModeMailbox, ChoosePresentMode([]wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeMailbox}, wgpu.PresentModeImmediate))
	assert.Equal(t, wgpu.PresentModeFifo, ChoosePresentMode([]wgpu.PresentMode{wgpu.PresentModeFifo}, wgpu.PresentModeMailbox))
	assert.Equal(t, wgpu.PresentModeFifo, ChoosePresentMode(nil, wgpu.PresentModeMailbox))
}

func TestClampExtent(t *testing.T) {
	w, h := ClampExtent(0, -5, 8192)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)

	w, h = ClampExtent(10000, 600, 8192)
	assert.Equal(t, uint32(8192), w)
	assert.Equal(t, uint32(600), h)

	w, _ = ClampExtent(20000, 1, 0)
	assert.Equal(t, uint32(20000), w)
}

func TestNewPlan(t *testing.T) {
	caps := Capabilities{
		Formats:      []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb},
		PresentModes: []wgpu.PresentMode{wgpu.PresentModeFifo},
		AlphaModes:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque},
		MaxDimension: 4096,
	}
	p, err := NewPlan(caps, 1920, 0, wgpu.PresentModeMailbox)
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, p.Format)
	assert.Equal(t, wgpu.PresentModeFifo, p.PresentMode)
	assert.Equal(t, uint32(1920), p.Width)
	assert.Equal(t, uint32(1), p.Height)

	cfg := p.Configuration()
	assert.Equal(t, wgpu.TextureUsageRenderAttachment, cfg.Usage)
	assert.Equal(t, wgpu.CompositeAlphaModeOpaque, cfg.AlphaMode)
	assert.Equal(t, p.Width, cfg.Width)
}

func TestParsePresentMode(t *testing.T) {
	for name, want := range map[string]wgpu.PresentMode{
		"mailbox":   wgpu.PresentModeMailbox,
		"FIFO":      wgpu.PresentModeFifo,
		"vsync":     wgpu.PresentModeFifo,
		"immediate": wgpu.PresentModeImmediate,
	} {
		got, err := ParsePresentMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParsePresentMode("triple")
	assert.ErrorIs(t, err, ErrUnknownPresentMode)
	assert.Equal(t, "mailbox", PresentModeName(wgpu.PresentModeMailbox))
}
