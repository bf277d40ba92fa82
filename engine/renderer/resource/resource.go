package resource

import "sync"

// Releaser is anything that frees a device object.
type Releaser interface {
	Release()
}

// Handle owns a native device object and the function that frees it. Release is idempotent
// and a released handle returns the zero value from Get.
type Handle[T comparable] struct {
	mu       sync.Mutex
	value    T
	release  func(T)
	released bool
}

// NewHandle wraps value. A zero value is held but never passed to release.
//
// Parameters:
//   - value: the native object
//   - release: the function that frees it
//
// Returns:
//   - *Handle[T]: the owning handle
func NewHandle[T comparable](value T, release func(T)) *Handle[T] {
	return &Handle[T]{value: value, release: release}
}

// Get returns the wrapped object, or the zero value after Release.
func (h *Handle[T]) Get() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		var zero T
		return zero
	}
	return h.value
}

// Released reports whether Release has run.
func (h *Handle[T]) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

func (h *Handle[T]) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	var zero T
	if h.release != nil && h.value != zero {
		h.release(h.value)
	}
	h.value = zero
}

// Arena owns a set of device objects and frees them in reverse order of registration,
// so objects are always released before the objects they were created from.
type Arena struct {
	mu    sync.Mutex
	label string
	items []Releaser
}

// NewArena creates an empty arena.
//
// Parameters:
//   - label: a name used in diagnostics
//
// Returns:
//   - *Arena: the arena
func NewArena(label string) *Arena {
	return &Arena{label: label}
}

func (a *Arena) Label() string {
	return a.label
}

// Track registers r for release.
func (a *Arena) Track(r Releaser) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, r)
}

// Len returns the number of tracked objects.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Release frees every tracked object, newest first, and empties the arena.
func (a *Arena) Release() {
	a.mu.Lock()
	items := a.items
	a.items = nil
	a.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Release()
	}
}

// Own wraps value in a Handle tracked by the arena.
//
// Parameters:
//   - a: the owning arena
//   - value: the native object
//   - release: the function that frees it
//
// Returns:
//   - *Handle[T]: the tracked handle
func Own[T comparable](a *Arena, value T, release func(T)) *Handle[T] {
	h := NewHandle(value, release)
	a.Track(h)
	return h
}
