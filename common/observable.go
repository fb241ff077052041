package common

import (
	"slices"
	"sync"
)

// Subscription identifies a callback registered on an Observable.
type Subscription uint64

// Observable holds a value and notifies subscribers when it changes.
// Callbacks run on the goroutine that called Set, after the lock is released,
// in the order they were subscribed.
type Observable[T comparable] struct {
	mu          *sync.Mutex
	value       T
	next        Subscription
	subscribers map[Subscription]func(T)
}

// NewObservable creates an Observable holding initial.
//
// Parameters:
//   - initial: the starting value
//
// Returns:
//   - *Observable[T]: the new observable
func NewObservable[T comparable](initial T) *Observable[T] {
	return &Observable[T]{
		mu:          &sync.Mutex{},
		value:       initial,
		subscribers: make(map[Subscription]func(T)),
	}
}

// Value returns the current value.
func (o *Observable[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set stores v and notifies subscribers if it differs from the current value.
//
// Parameters:
//   - v: the new value
//
// Returns:
//   - bool: true if the value changed and subscribers were notified
func (o *Observable[T]) Set(v T) bool {
	o.mu.Lock()
	if o.value == v {
		o.mu.Unlock()
		return false
	}
	o.value = v
	callbacks := o.snapshot()
	o.mu.Unlock()

	for _, cb := range callbacks {
		cb(v)
	}
	return true
}

// SetWithoutNotify stores v without notifying anyone.
func (o *Observable[T]) SetWithoutNotify(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = v
}

// Subscribe registers fn to be called with every new value.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - Subscription: a handle for Unsubscribe
func (o *Observable[T]) Subscribe(fn func(T)) Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.subscribers[o.next] = fn
	return o.next
}

// Unsubscribe removes a callback. Unknown subscriptions are ignored.
func (o *Observable[T]) Unsubscribe(s Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subscribers, s)
}

// Clear removes every subscriber.
func (o *Observable[T]) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.subscribers)
}

// Subscribers returns the number of registered callbacks.
func (o *Observable[T]) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subscribers)
}

// snapshot copies the callbacks in subscription order. Caller must hold the mutex.
func (o *Observable[T]) snapshot() []func(T) {
	keys := make([]Subscription, 0, len(o.subscribers))
	for k := range o.subscribers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]func(T), len(keys))
	for i, k := range keys {
		out[i] = o.subscribers[k]
	}
	return out
}
