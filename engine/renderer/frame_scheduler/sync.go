package frame_scheduler

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSemaphoreUnsignaled is returned when a semaphore is waited on before anything signaled it.
	ErrSemaphoreUnsignaled = errors.New("semaphore waited before it was signaled")

	// ErrFenceUnsubmitted is returned when a reset fence is waited on with no submission that
	// would signal it.
	ErrFenceUnsubmitted = errors.New("fence waited with no pending submission")
)

// Fence is a host-visible completion signal for one queue submission.
type Fence interface {
	// Wait blocks until the fence is signaled. It returns immediately when it already is.
	Wait(ctx context.Context) error

	// Reset returns the fence to the unsignaled state.
	Reset()
}

// Semaphore orders two submissions. The producer signals it and the consumer waits on it,
// which consumes the signal.
type Semaphore struct {
	name     string
	signaled bool
}

// NewSemaphore creates an unsignaled semaphore.
func NewSemaphore(name string) *Semaphore {
	return &Semaphore{name: name}
}

func (s *Semaphore) Name() string {
	return s.name
}

// Signal marks the semaphore signaled.
func (s *Semaphore) Signal() {
	s.signaled = true
}

// Signaled reports whether a signal is pending.
func (s *Semaphore) Signaled() bool {
	return s.signaled
}

// Wait consumes a pending signal.
//
// Returns:
//   - error: ErrSemaphoreUnsignaled if nothing signaled the semaphore
func (s *Semaphore) Wait() error {
	if !s.signaled {
		return fmt.Errorf("%s: %w", s.name, ErrSemaphoreUnsignaled)
	}
	s.signaled = false
	return nil
}
