// Package stream provides the channel plumbing between producers and the
// danger engine: Hub, a hot multicast fan-out that never blocks producers,
// and Value, an observable slot holding a current value plus change
// notifications.
package stream

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is reported by subscriptions of a hub closed without an explicit cause.
var ErrClosed = errors.New("stream closed")

// Source is anything a consumer can subscribe to.
type Source[T any] interface {
	Subscribe() *Subscription[T]
}

// Hub delivers every published value to all current subscribers.
//
// Each subscriber owns a buffered channel. When a buffer is full the oldest
// queued value is dropped to make room, so Publish never blocks.
type Hub[T any] struct {
	// buffer is the channel capacity of each subscription.
	buffer int

	// mu protects the fields below. Publish holds it for reading so that Close
	// and unsubscribe never close a channel a publisher is sending to.
	mu sync.RWMutex
	// subs are the live subscriptions keyed by id.
	subs map[uint64]*Subscription[T]
	// nextID is the id handed to the next subscription.
	nextID uint64
	// closed is set once Close has run.
	closed bool
	// err is the terminal cause reported to subscribers after Close.
	err error

	// dropped counts values discarded because a subscriber was slow.
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscriptions buffer up to buffer values.
// A non-positive buffer is raised to one.
func NewHub[T any](buffer int) *Hub[T] {
	if buffer < 1 {
		buffer = 1
	}

	return &Hub[T]{
		buffer: buffer,
		subs:   make(map[uint64]*Subscription[T]),
	}
}

// Subscribe registers a new subscriber. Subscribing to a closed hub returns a
// subscription whose channel is already closed.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription[T]{
		hub: h,
		id:  h.nextID,
		ch:  make(chan T, h.buffer),
	}
	h.nextID++

	if h.closed {
		close(sub.ch)
		return sub
	}

	h.subs[sub.id] = sub

	return sub
}

// Publish offers value to every subscriber and returns how many queued values
// were dropped to make room.
func (h *Hub[T]) Publish(value T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0
	}

	var dropped int
	for _, sub := range h.subs {
		dropped += offer(sub.ch, value)
	}

	h.dropped.Add(uint64(dropped))

	return dropped
}

// Dropped returns the total number of values discarded for slow subscribers.
func (h *Hub[T]) Dropped() uint64 {
	return h.dropped.Load()
}

// Close ends the stream. Subscribers see their channel closed and Err
// returns cause, or ErrClosed when cause is nil. Close is idempotent.
func (h *Hub[T]) Close(cause error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	if cause == nil {
		cause = ErrClosed
	}

	h.closed = true
	h.err = cause

	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}

// unsubscribe removes a subscription and closes its channel.
func (h *Hub[T]) unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}

	delete(h.subs, sub.id)
	close(sub.ch)
}

// terminalErr returns the cause recorded by Close.
func (h *Hub[T]) terminalErr() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.err
}

// offer sends value without blocking, evicting the oldest queued value when
// the channel is full. It returns the number of values dropped.
func offer[T any](ch chan T, value T) int {
	select {
	case ch <- value:
		return 0
	default:
	}

	dropped := 0

	select {
	case <-ch:
		dropped++
	default:
	}

	select {
	case ch <- value:
	default:
		// The consumer drained and another publisher refilled; the new value loses.
		dropped++
	}

	return dropped
}

// Subscription is one consumer's view of a Hub.
type Subscription[T any] struct {
	// hub is the owning hub.
	hub *Hub[T]
	// id identifies the subscription inside the hub.
	id uint64
	// ch carries the values.
	ch chan T
}

// C returns the channel of values. It is closed when the hub closes or the
// subscription is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Err returns why the hub ended, or nil while it is still open or when the
// subscription was closed by its owner.
func (s *Subscription[T]) Err() error {
	return s.hub.terminalErr()
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.hub.unsubscribe(s)
}
