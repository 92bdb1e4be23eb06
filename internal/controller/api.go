package controller

import "context"

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

// Register starts learning the next message as label and returns the
// channel the outcome will be delivered on.
func (w *Worker) Register(ctx context.Context, label string) (<-chan Learned, error) {
	reply := make(chan Learned, 1)
	if err := w.Send(ctx, Register{Label: label, Reply: reply}); err != nil {
		return nil, err
	}
	return reply, nil
}

// Config returns the persisted view of the controller.
func (w *Worker) Config(ctx context.Context) (Config, error) {
	reply := make(chan Config, 1)
	if err := w.Send(ctx, ConfigRequest{Reply: reply}); err != nil {
		return Config{}, err
	}
	return await(ctx, w, reply)
}

// Signals returns a copy of the signal map.
func (w *Worker) Signals(ctx context.Context) (SignalMap, error) {
	reply := make(chan SignalMap, 1)
	if err := w.Send(ctx, SignalsRequest{Reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, w, reply)
}
