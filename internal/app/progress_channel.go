package app

import (
	"context"
	"sync"
)

// ProgressChannel is a bounded FIFO queue connecting concurrent producers with
// a single consumer. Send blocks while the buffer is full. Close unblocks all
// waiting producers; items sent before Close stay in the buffer until
// received or drained.
type ProgressChannel[T any] struct {
	items     chan T
	closed    chan struct{}
	closeOnce sync.Once
}

// NewProgressChannel creates ProgressChannel with given capacity.
// Capacity lower than 1 is treated as 1.
func NewProgressChannel[T any](size int) *ProgressChannel[T] {
	if size < 1 {
		size = 1
	}

	return &ProgressChannel[T]{
		items:  make(chan T, size),
		closed: make(chan struct{}),
	}
}

// Send puts item into the channel, waiting for free space if needed.
// Returns false if the channel was closed or ctx was canceled before the item
// could be buffered.
func (c *ProgressChannel[T]) Send(ctx context.Context, item T) bool {
	select {
	case <-c.closed:
		return false
	case <-ctx.Done():
		return false
	default:
	}

	select {
	case c.items <- item:
		return true
	case <-c.closed:
		return false
	case <-ctx.Done():
		return false
	}
}

// Receive returns the oldest buffered item, waiting for one if needed.
// Returns false when ctx is canceled or the channel is closed and empty.
func (c *ProgressChannel[T]) Receive(ctx context.Context) (T, bool) {
	var zero T
	if ctx.Err() != nil {
		return zero, false
	}

	select {
	case item := <-c.items:
		return item, true
	case <-ctx.Done():
		return zero, false
	case <-c.closed:
	}

	select {
	case item := <-c.items:
		return item, true
	default:
		return zero, false
	}
}

// Close stops accepting items. Safe to call many times.
func (c *ProgressChannel[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// Drain discards all buffered items and returns their number.
func (c *ProgressChannel[T]) Drain() int {
	var n int
	for {
		select {
		case <-c.items:
			n++
		default:
			return n
		}
	}
}

// Len returns the number of buffered items.
func (c *ProgressChannel[T]) Len() int {
	return len(c.items)
}

// Cap returns the channel capacity.
func (c *ProgressChannel[T]) Cap() int {
	return cap(c.items)
}
