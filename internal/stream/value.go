package stream

import "sync"

// Value is an observable slot: it holds the current value and notifies
// subscribers of every change. New subscribers receive the current value
// first. Each subscription buffers a single value, so a slow reader only
// ever sees the latest one.
type Value[T any] struct {
	// hub fans notifications out to subscribers.
	hub *Hub[T]

	// mu orders Store against Subscribe so that no update falls between
	// replaying the current value and registering the subscriber.
	mu sync.RWMutex
	// current is the latest stored value.
	current T
	// closed is set by Close.
	closed bool
}

// NewValue creates a slot holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		hub:     NewHub[T](1),
		current: initial,
	}
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.current
}

// Store replaces the current value and notifies subscribers.
func (v *Value[T]) Store(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = value
	v.hub.Publish(value)
}

// Subscribe returns a subscription that immediately holds the current value.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	sub := v.hub.Subscribe()
	if !v.closed {
		offer(sub.ch, v.current)
	}

	return sub
}

// Close ends every subscription.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	v.hub.Close(nil)
}
