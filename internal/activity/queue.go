package activity

import (
	"context"
	"sync/atomic"
)

// queue decouples Observe from slow sinks. Items are dropped, not blocked
// on, when the buffer is full.
type queue[T any] struct {
	items   chan T
	dropped atomic.Uint64
}

func newQueue[T any](size int) *queue[T] {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &queue[T]{items: make(chan T, size)}
}

const defaultQueueSize = 1024

func (q *queue[T]) offer(item T) bool {
	select {
	case q.items <- item:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// drain calls handle for every item until ctx is cancelled, then for
// whatever is still buffered.
func (q *queue[T]) drain(ctx context.Context, handle func(T)) {
	for {
		select {
		case item := <-q.items:
			handle(item)
		case <-ctx.Done():
			for {
				select {
				case item := <-q.items:
					handle(item)
				default:
					return
				}
			}
		}
	}
}
