package client

import (
	"context"

	"github.com/nerrad567/midiplexer/internal/track"
)

// Dispatch queues ev for the worker. It blocks while the event buffer is
// full.
func (w *Worker) Dispatch(ctx context.Context, ev Event) error {
	select {
	case w.events <- ev:
		return nil
	case <-w.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues cmd without waiting for its reply.
func (w *Worker) Send(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return ErrUnknownCommand
	}
	select {
	case w.commands <- cmd:
		return nil
	case <-w.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, w *Worker, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-w.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// CreateTrack adds or replaces a track.
func (w *Worker) CreateTrack(ctx context.Context, label string, cfg track.Config) error {
	reply := make(chan error, 1)
	if err := w.Send(ctx, CreateTrack{Label: label, Config: cfg, Reply: reply}); err != nil {
		return err
	}
	err, waitErr := await(ctx, w, reply)
	if waitErr != nil {
		return waitErr
	}
	return err
}

// ListTracks returns every track in insertion order.
func (w *Worker) ListTracks(ctx context.Context) ([]TrackInfo, error) {
	reply := make(chan []TrackInfo, 1)
	if err := w.Send(ctx, ListTracks{Reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, w, reply)
}

// Config returns the persisted view of the client.
func (w *Worker) Config(ctx context.Context) (Config, error) {
	reply := make(chan Config, 1)
	if err := w.Send(ctx, ConfigRequest{Reply: reply}); err != nil {
		return Config{}, err
	}
	return await(ctx, w, reply)
}

// Playing returns the labels of playing tracks.
func (w *Worker) Playing(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	if err := w.Send(ctx, PlayingRequest{Reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, w, reply)
}

// ToggleRecord arms the named track.
func (w *Worker) ToggleRecord(ctx context.Context, label string) error {
	reply := make(chan error, 1)
	if err := w.Send(ctx, ToggleRecord{Label: label, Reply: reply}); err != nil {
		return err
	}
	err, waitErr := await(ctx, w, reply)
	if waitErr != nil {
		return waitErr
	}
	return err
}
