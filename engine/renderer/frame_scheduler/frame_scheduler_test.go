package frame_scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFence struct {
	name     string
	signaled bool
	log      *[]string
}

func (f *fakeFence) Wait(context.Context) error {
	if !f.signaled {
		return fmt.Errorf("%s: %w", f.name, ErrFenceUnsubmitted)
	}
	*f.log = append(*f.log, "wait "+f.name)
	return nil
}

func (f *fakeFence) Reset() {
	f.signaled = false
}

// scriptedBackend signals fences and semaphores the way a queue would and records every call.
type scriptedBackend struct {
	log     []string
	slots   []*fakeFence
	compute *fakeFence

	acquireErrs []error
	presents    []PresentResult
	recreated   [][2]int
}

func newScriptedBackend(frames int) *scriptedBackend {
	b := &scriptedBackend{}
	for i := 0; i < frames; i++ {
		b.slots = append(b.slots, &fakeFence{name: fmt.Sprintf("slot%d", i), signaled: true, log: &b.log})
	}
	b.compute = &fakeFence{name: "compute", signaled: true, log: &b.log}
	return b
}

func (b *scriptedBackend) SlotFence(slot int) Fence { return b.slots[slot] }
func (b *scriptedBackend) ComputeFence() Fence      { return b.compute }

func (b *scriptedBackend) SubmitCompute(signal *Semaphore) error {
	b.log = append(b.log, "compute")
	b.compute.signaled = true
	signal.Signal()
	return nil
}

func (b *scriptedBackend) Acquire(signal *Semaphore) error {
	b.log = append(b.log, "acquire")
	if len(b.acquireErrs) > 0 {
		err := b.acquireErrs[0]
		b.acquireErrs = b.acquireErrs[1:]
		if err != nil {
			return err
		}
	}
	signal.Signal()
	return nil
}

func (b *scriptedBackend) SubmitGraphics(slot int, signal *Semaphore) error {
	b.log = append(b.log, fmt.Sprintf("graphics%d", slot))
	b.slots[slot].signaled = true
	signal.Signal()
	return nil
}

func (b *scriptedBackend) Present() (PresentResult, error) {
	b.log = append(b.log, "present")
	if len(b.presents) > 0 {
		r := b.presents[0]
		b.presents = b.presents[1:]
		return r, nil
	}
	return PresentOptimal, nil
}

func (b *scriptedBackend) RecreateSwapchain(width, height int) error {
	b.log = append(b.log, "recreate")
	b.recreated = append(b.recreated, [2]int{width, height})
	return nil
}

func TestTickOrdersComputeBeforeGraphics(t *testing.T) {
	b := newScriptedBackend(2)
	var hooked []int
	s := NewFrameScheduler(b, 800, 600, WithBeforeRecord(func(slot int) error {
		hooked = append(hooked, slot)
		b.log = append(b.log, "hook")
		return nil
	}))

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []string{"wait slot0", "hook", "compute", "wait compute", "acquire", "graphics0", "present"}, b.log)
	assert.Equal(t, StatePresented, s.State())
	assert.Equal(t, []int{0}, hooked)
	assert.Equal(t, uint64(1), s.PresentedFrames())
}

func TestSlotCyclesRoundRobin(t *testing.T) {
	b := newScriptedBackend(2)
	s := NewFrameScheduler(b, 800, 600, WithFramesInFlight(2))

	var slots []int
	for i := 0; i < 5; i++ {
		slots = append(slots, s.Slot())
		require.NoError(t, s.Tick(context.Background()))
		assert.Less(t, s.Slot(), s.FramesInFlight())
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0}, slots)
	assert.Equal(t, uint64(5), s.PresentedFrames())
}

func TestAcquireOutOfDateRecreatesAndDropsFrame(t *testing.T) {
	b := newScriptedBackend(2)
	b.acquireErrs = []error{ErrSurfaceOutOfDate}
	s := NewFrameScheduler(b, 800, 600)

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, uint64(0), s.PresentedFrames())
	assert.Equal(t, 0, s.Slot())
	assert.Equal(t, uint64(1), s.Recreations())
	assert.Equal(t, StateComputeComplete, s.State())
	assert.NotContains(t, b.log, "graphics0")
	assert.True(t, b.slots[0].signaled)

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, uint64(1), s.PresentedFrames())
	assert.Equal(t, 1, s.Slot())
}

func TestAcquireFailureIsFatal(t *testing.T) {
	b := newScriptedBackend(2)
	b.acquireErrs = []error{errors.New("device lost")}
	s := NewFrameScheduler(b, 800, 600)

	err := s.Tick(context.Background())
	assert.ErrorContains(t, err, "acquire swapchain image: device lost")
	assert.Empty(t, b.recreated)
}

func TestSuboptimalPresentRecreates(t *testing.T) {
	for _, r := range []PresentResult{PresentSuboptimal, PresentOutOfDate} {
		b := newScriptedBackend(2)
		b.presents = []PresentResult{r}
		s := NewFrameScheduler(b, 800, 600)

		require.NoError(t, s.Tick(context.Background()))
		assert.Equal(t, [][2]int{{800, 600}}, b.recreated)
		assert.Equal(t, uint64(1), s.PresentedFrames())
	}
}

func TestResizeIsConsumedBeforeAcquire(t *testing.T) {
	b := newScriptedBackend(2)
	s := NewFrameScheduler(b, 800, 600)
	s.NotifyResize(1024, 768)

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, [][2]int{{1024, 768}}, b.recreated)
	assert.Equal(t, []string{"wait slot0", "compute", "wait compute", "recreate", "acquire", "graphics0", "present"}, b.log)

	w, h := s.Extent()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
}

func TestZeroAreaResizeSkipsTicks(t *testing.T) {
	b := newScriptedBackend(2)
	s := NewFrameScheduler(b, 800, 600)
	s.NotifyResize(0, 600)

	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, b.log)

	s.NotifyResize(640, 480)
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, [][2]int{{640, 480}}, b.recreated)
	assert.Equal(t, uint64(1), s.PresentedFrames())
}

func TestMissingSignalIsReported(t *testing.T) {
	b := newScriptedBackend(1)
	b.slots[0].signaled = false
	s := NewFrameScheduler(b, 800, 600, WithFramesInFlight(1))

	err := s.Tick(context.Background())
	assert.ErrorIs(t, err, ErrFenceUnsubmitted)
}

func TestCancelledContextStopsBeforeWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newScriptedBackend(2)
	err := NewFrameScheduler(b, 800, 600).Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.log)
}

func TestSemaphoreWaitConsumesSignal(t *testing.T) {
	sem := NewSemaphore("test")
	assert.ErrorIs(t, sem.Wait(), ErrSemaphoreUnsignaled)
	sem.Signal()
	assert.True(t, sem.Signaled())
	assert.NoError(t, sem.Wait())
	assert.False(t, sem.Signaled())
}
