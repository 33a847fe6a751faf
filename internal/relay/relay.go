// Package relay hands a live stream channel from its producer to exactly one
// consumer.
package relay

import "sync"

// Handoff passes a stream channel, registered under a key, to the first consumer
// that claims it. Later claims for the same key block until the producer retires
// the stream, so they can fall back to persisted data instead of splitting the
// live feed.
//
// The intended use is streaming the confrontation finale over SSE. The producer
// is the goroutine spawned by the POST that finishes the confrontation, the first
// consumer is the player's event-stream request, and later claims come from
// reconnects. A reconnect that misses the live stream re-renders from the stored
// resolution.
type Handoff[K comparable, T any] struct {
	mu      sync.Mutex
	live    map[K]chan T
	handed  map[K]bool
	waiting map[K][]chan chan T
}

func NewHandoff[K comparable, T any]() *Handoff[K, T] {
	return &Handoff[K, T]{
		live:    make(map[K]chan T),
		handed:  make(map[K]bool),
		waiting: make(map[K][]chan chan T),
	}
}

// Stage registers the live stream under the key. Staging a key again replaces the
// earlier stream and forgets who claimed it.
func (h *Handoff[K, T]) Stage(key K, stream chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live[key] = stream
	h.handed[key] = false
}

// Claim asks for the stream registered under the key. The returned channel yields
// the stream to the first claimant. For later claimants it stays silent until
// Retire closes it. When nothing is staged under the key it is closed right away.
//
// Receiving from the returned channel therefore tells the consumer one of two
// things: here is the live stream, or the stream is over and the persisted state
// has the whole story.
func (h *Handoff[K, T]) Claim(key K) chan chan T {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make(chan chan T, 1)
	stream, ok := h.live[key]
	if !ok {
		close(result)
		return result
	}
	if !h.handed[key] {
		h.handed[key] = true
		result <- stream
		return result
	}
	h.waiting[key] = append(h.waiting[key], result)
	return result
}

// Retire removes the stream under the key and releases every waiting claimant.
// The producer should close the stream channel itself before retiring, otherwise
// the claimant that holds it would block forever.
//
// Retire only acts when stream is still the one staged under the key. A producer
// that outlived a replacement staging must not tear down its successor.
func (h *Handoff[K, T]) Retire(key K, stream chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live[key] != stream {
		return
	}
	delete(h.live, key)
	delete(h.handed, key)
	for _, waiter := range h.waiting[key] {
		close(waiter)
	}
	delete(h.waiting, key)
}
