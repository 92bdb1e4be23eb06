package port

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/midiplexer/internal/midi"
)

const defaultInputBuffer = 256

// queue is the Input implementation shared by every driver. Drivers feed it
// from their own goroutine or callback.
type queue struct {
	name string
	msgs chan midi.Message

	done      chan struct{}
	closeOnce sync.Once
	onClose   func() error

	failed   chan struct{}
	failOnce sync.Once
	err      error

	dropped atomic.Uint64
}

func newQueue(name string, size int, onClose func() error) *queue {
	return &queue{
		name:    name,
		msgs:    make(chan midi.Message, size),
		done:    make(chan struct{}),
		failed:  make(chan struct{}),
		onClose: onClose,
	}
}

func (q *queue) Name() string { return q.name }

// push blocks until the message is queued or the port is closed.
func (q *queue) push(msg midi.Message) bool {
	select {
	case q.msgs <- msg:
		return true
	case <-q.done:
		return false
	}
}

// offer queues the message without blocking and drops it when the buffer is full.
func (q *queue) offer(msg midi.Message) bool {
	select {
	case q.msgs <- msg:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// fail records the first terminal read error. Buffered messages are still
// delivered before the error is reported.
func (q *queue) fail(err error) {
	q.failOnce.Do(func() {
		q.err = err
		close(q.failed)
	})
}

func (q *queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Dropped reports how many messages were discarded because the buffer was full.
func (q *queue) Dropped() uint64 { return q.dropped.Load() }

func (q *queue) next() (midi.Message, bool) {
	select {
	case msg := <-q.msgs:
		return msg, true
	default:
		return midi.Message{}, false
	}
}

func (q *queue) Poll(ctx context.Context, wait time.Duration) (midi.Message, bool, error) {
	if msg, ok := q.next(); ok {
		return msg, true, nil
	}
	if q.closed() {
		return midi.Message{}, false, ErrClosed
	}
	select {
	case <-q.failed:
		return midi.Message{}, false, q.err
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case msg := <-q.msgs:
		return msg, true, nil
	case <-timer.C:
		return midi.Message{}, false, nil
	case <-q.failed:
		if msg, ok := q.next(); ok {
			return msg, true, nil
		}
		return midi.Message{}, false, q.err
	case <-q.done:
		return midi.Message{}, false, ErrClosed
	case <-ctx.Done():
		return midi.Message{}, false, ctx.Err()
	}
}

func (q *queue) Receive(ctx context.Context) (midi.Message, error) {
	if msg, ok := q.next(); ok {
		return msg, nil
	}

	select {
	case msg := <-q.msgs:
		return msg, nil
	case <-q.failed:
		if msg, ok := q.next(); ok {
			return msg, nil
		}
		return midi.Message{}, q.err
	case <-q.done:
		return midi.Message{}, ErrClosed
	case <-ctx.Done():
		return midi.Message{}, ctx.Err()
	}
}

func (q *queue) Close() error {
	var err error
	q.closeOnce.Do(func() {
		close(q.done)
		if q.onClose != nil {
			err = q.onClose()
		}
	})
	return err
}
