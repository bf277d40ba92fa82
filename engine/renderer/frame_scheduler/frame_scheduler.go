package frame_scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/log"
)

var logger = log.New("scheduler")

// ErrSurfaceOutOfDate is returned by Backend.Acquire when the swapchain no longer matches the
// surface and must be recreated before an image can be acquired.
var ErrSurfaceOutOfDate = errors.New("surface out of date")

// DefaultFramesInFlight is the number of frame slots used when none is configured.
const DefaultFramesInFlight = 2

// State is the position of the scheduler within a tick.
type State int

const (
	StateIdle State = iota
	StateComputeSubmitted
	StateComputeComplete
	StateGraphicsSubmitted
	StatePresented
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputeSubmitted:
		return "compute-submitted"
	case StateComputeComplete:
		return "compute-complete"
	case StateGraphicsSubmitted:
		return "graphics-submitted"
	case StatePresented:
		return "presented"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PresentResult is the outcome of a successful present.
type PresentResult int

const (
	PresentOptimal PresentResult = iota
	PresentSuboptimal
	PresentOutOfDate
)

// Backend records and submits the GPU work of one frame. Every method is called from the
// frame loop thread.
type Backend interface {
	// SlotFence returns the fence signaled when the graphics work of slot retires.
	SlotFence(slot int) Fence

	// ComputeFence returns the fence signaled when the compute work retires.
	ComputeFence() Fence

	// SubmitCompute records and submits the amplitude dispatch, then signals signal and the
	// compute fence.
	SubmitCompute(signal *Semaphore) error

	// Acquire acquires the next swapchain image and signals signal.
	//
	// Returns:
	//   - error: ErrSurfaceOutOfDate when the swapchain must be recreated first
	Acquire(signal *Semaphore) error

	// SubmitGraphics records and submits the mesh pass into the acquired image using the
	// resources of slot, then signals signal and the slot fence.
	SubmitGraphics(slot int, signal *Semaphore) error

	// Present queues the acquired image for display.
	Present() (PresentResult, error)

	// RecreateSwapchain reconfigures the surface and rebuilds size-dependent attachments.
	RecreateSwapchain(width, height int) error
}

// FrameScheduler drives the compute-then-graphics sequence of each frame.
type FrameScheduler interface {
	// Tick runs one frame:
	//  1. wait on the slot fence and run the before-record hook
	//  2. submit compute and wait for it to retire
	//  3. acquire an image, recreating the swapchain and returning early when it is out of date
	//  4. submit graphics into the image and present it
	//  5. recreate the swapchain when presentation reports it stale or a resize is pending
	//  6. advance the slot
	//
	// Parameters:
	//   - ctx: checked before each blocking wait
	//
	// Returns:
	//   - error: a fatal submission or recreation error
	Tick(ctx context.Context) error

	// NotifyResize records a new framebuffer size. The swapchain is recreated before the
	// next acquire, or skipped while either dimension is zero.
	NotifyResize(width, height int)

	// Slot returns the frame slot the next tick will use.
	Slot() int

	// FramesInFlight returns the number of frame slots.
	FramesInFlight() int

	// PresentedFrames returns how many frames have been presented.
	PresentedFrames() uint64

	// Recreations returns how many times the swapchain has been recreated.
	Recreations() uint64

	// State returns where the last tick stopped.
	State() State

	// Extent returns the framebuffer size the swapchain was last asked for.
	Extent() (int, int)
}

type frameScheduler struct {
	backend        Backend
	framesInFlight int
	beforeRecord   func(slot int) error

	slot        int
	state       State
	presented   uint64
	recreations uint64

	width, height int
	resizePending bool

	computeFinished *Semaphore
	imageAvailable  *Semaphore
	renderFinished  *Semaphore
}

var _ FrameScheduler = &frameScheduler{}

// NewFrameScheduler creates a scheduler over backend.
//
// Parameters:
//   - backend: the GPU backend
//   - width, height: the initial framebuffer size
//   - opts: options for the frames-in-flight count and the before-record hook
//
// Returns:
//   - FrameScheduler: the scheduler, starting at slot 0 in the idle state
func NewFrameScheduler(backend Backend, width, height int, opts ...FrameSchedulerOption) FrameScheduler {
	s := &frameScheduler{
		backend:         backend,
		framesInFlight:  DefaultFramesInFlight,
		width:           width,
		height:          height,
		computeFinished: NewSemaphore("compute finished"),
		imageAvailable:  NewSemaphore("image available"),
		renderFinished:  NewSemaphore("render finished"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *frameScheduler) Tick(ctx context.Context) error {
	if s.resizePending && (s.width <= 0 || s.height <= 0) {
		return nil
	}

	slotFence := s.backend.SlotFence(s.slot)
	if err := s.wait(ctx, slotFence); err != nil {
		return fmt.Errorf("wait frame fence %d: %w", s.slot, err)
	}
	s.state = StateIdle

	if s.beforeRecord != nil {
		if err := s.beforeRecord(s.slot); err != nil {
			return fmt.Errorf("prepare frame %d: %w", s.slot, err)
		}
	}

	computeFence := s.backend.ComputeFence()
	computeFence.Reset()
	if err := s.backend.SubmitCompute(s.computeFinished); err != nil {
		return fmt.Errorf("submit compute: %w", err)
	}
	s.state = StateComputeSubmitted

	if err := s.wait(ctx, computeFence); err != nil {
		return fmt.Errorf("wait compute fence: %w", err)
	}
	if err := s.computeFinished.Wait(); err != nil {
		return fmt.Errorf("compute: %w", err)
	}
	s.state = StateComputeComplete

	if s.resizePending {
		if err := s.recreate("resize"); err != nil {
			return err
		}
	}

	if err := s.backend.Acquire(s.imageAvailable); err != nil {
		if errors.Is(err, ErrSurfaceOutOfDate) {
			return s.recreate("acquire out of date")
		}
		return fmt.Errorf("acquire swapchain image: %w", err)
	}
	if err := s.imageAvailable.Wait(); err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	slotFence.Reset()
	if err := s.backend.SubmitGraphics(s.slot, s.renderFinished); err != nil {
		return fmt.Errorf("submit graphics %d: %w", s.slot, err)
	}
	s.state = StateGraphicsSubmitted

	if err := s.renderFinished.Wait(); err != nil {
		return fmt.Errorf("graphics: %w", err)
	}
	result, err := s.backend.Present()
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	s.state = StatePresented

	switch {
	case result == PresentOutOfDate:
		err = s.recreate("present out of date")
	case result == PresentSuboptimal:
		err = s.recreate("present suboptimal")
	case s.resizePending:
		err = s.recreate("resize")
	}
	if err != nil {
		return err
	}

	s.slot = (s.slot + 1) % s.framesInFlight
	s.presented++
	return nil
}

func (s *frameScheduler) wait(ctx context.Context, f Fence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.Wait(ctx)
}

func (s *frameScheduler) recreate(reason string) error {
	logger.Infof("recreating swapchain at %dx%d: %s", s.width, s.height, reason)
	if err := s.backend.RecreateSwapchain(s.width, s.height); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	s.resizePending = false
	s.recreations++
	return nil
}

func (s *frameScheduler) NotifyResize(width, height int) {
	s.width, s.height = width, height
	s.resizePending = true
	logger.Debugf("resize to %dx%d pending", width, height)
}

func (s *frameScheduler) Slot() int {
	return s.slot
}

func (s *frameScheduler) FramesInFlight() int {
	return s.framesInFlight
}

func (s *frameScheduler) PresentedFrames() uint64 {
	return s.presented
}

func (s *frameScheduler) Recreations() uint64 {
	return s.recreations
}

func (s *frameScheduler) State() State {
	return s.state
}

func (s *frameScheduler) Extent() (int, int) {
	return s.width, s.height
}
