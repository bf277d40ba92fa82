package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResizedForwardsFramebufferSize(t *testing.T) {
	var got [][2]int
	w := &engineWindow{width: 800, height: 600}
	w.SetResizeCallback(func(width, height int) {
		got = append(got, [2]int{width, height})
	})

	w.resized(1024, 768)
	w.resized(0, 0)

	assert.Equal(t, [][2]int{{1024, 768}, {0, 0}}, got)
	assert.Equal(t, 0, w.Width())
	assert.Equal(t, 0, w.Height())
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	calls := 0
	w.SetUpdateCallback(func() error {
		calls++
		return nil
	})

	assert.False(t, w.IsRunning())
	assert.False(t, w.Pressed(87))
	assert.Nil(t, w.SurfaceDescriptor())
	assert.NoError(t, w.Run())
	assert.Zero(t, calls)
	assert.ErrorIs(t, w.Close(), errNotInitialized)
	w.RequestClose()
}
