package frame_scheduler

// FrameSchedulerOption is a functional option used to configure a FrameScheduler during construction.
type FrameSchedulerOption func(*frameScheduler)

// WithFramesInFlight sets the number of frame slots. Values below 1 are raised to 1.
//
// Parameters:
//   - n: the number of frames that may be in flight
//
// Returns:
//   - FrameSchedulerOption: a function that sets the frames-in-flight count
func WithFramesInFlight(n int) FrameSchedulerOption {
	return func(s *frameScheduler) {
		s.framesInFlight = max(n, 1)
	}
}

// WithBeforeRecord sets a hook that runs once the slot fence has been waited on and before
// any work is recorded. The engine uses it to write the slot's transform.
//
// Parameters:
//   - fn: called with the current slot; an error aborts the tick
//
// Returns:
//   - FrameSchedulerOption: a function that sets the hook
func WithBeforeRecord(fn func(slot int) error) FrameSchedulerOption {
	return func(s *frameScheduler) {
		s.beforeRecord = fn
	}
}
