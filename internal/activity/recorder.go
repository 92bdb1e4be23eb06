package activity

import (
	"context"
	"time"

	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
)

const recordTimeout = 2 * time.Second

// Recorder persists events to a Repository from a background goroutine.
type Recorder struct {
	repo   Repository
	queue  *queue[Event]
	logger *logging.Logger
}

// NewRecorder creates a Recorder buffering up to size events.
func NewRecorder(repo Repository, size int, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		repo:   repo,
		queue:  newQueue[Event](size),
		logger: logger.With("component", "activity_recorder"),
	}
}

// Observe queues e for persistence, dropping it when the queue is full.
func (r *Recorder) Observe(e Event) {
	r.queue.offer(e)
}

// Dropped reports how many events were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.queue.dropped.Load()
}

// Run writes queued events until ctx is cancelled, then flushes the rest.
func (r *Recorder) Run(ctx context.Context) {
	r.queue.drain(ctx, r.store)
}

func (r *Recorder) store(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := Entry{Event: e}
	if err := r.repo.Create(ctx, &entry); err != nil {
		r.logger.Error("failed to record activity", "kind", e.Kind, "error", err)
	}
}
