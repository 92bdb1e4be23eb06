package controller

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/midi"
	"github.com/nerrad567/midiplexer/internal/port"
)

const (
	// DefaultPollInterval bounds how long one poll waits for input.
	DefaultPollInterval = 8 * time.Millisecond

	defaultCommandBuffer = 16
)

// Options tunes a Worker. The zero value is usable.
type Options struct {
	Logger        *logging.Logger
	Observer      activity.Observer
	PollInterval  time.Duration
	CommandBuffer int
}

// Worker reads one controller port and turns known messages into signals.
//
// portMu serializes device reads between the poll loop and learning, so a
// message is either routed or learned, never both.
type Worker struct {
	name     string
	portType string
	in       port.Input

	portMu sync.Mutex

	mu      sync.RWMutex
	signals SignalMap

	out      chan<- Signal
	commands chan Command
	done     chan struct{}
	learning sync.WaitGroup

	pollInterval time.Duration
	lastErr      string

	logger   *logging.Logger
	observer activity.Observer
}

// NewWorker creates a worker for cfg that emits signals on out. The worker
// takes ownership of in and closes it when Run returns.
func NewWorker(cfg Config, in port.Input, out chan<- Signal, opts Options) *Worker {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = defaultCommandBuffer
	}
	return &Worker{
		name:         cfg.Name,
		portType:     cfg.Type,
		in:           in,
		signals:      cfg.SignalMap.Clone(),
		out:          out,
		commands:     make(chan Command, opts.CommandBuffer),
		done:         make(chan struct{}),
		pollInterval: opts.PollInterval,
		logger:       opts.Logger.With("component", "controller", "controller", cfg.Name),
		observer:     opts.Observer,
	}
}

// Name returns the controller name.
func (w *Worker) Name() string { return w.name }

// Type returns the port type the controller was opened with.
func (w *Worker) Type() string { return w.portType }

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run alternates between draining commands and polling the port until ctx
// is cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		w.learning.Wait()
		if err := w.in.Close(); err != nil {
			w.logger.Warn("closing input port", "error", err)
		}
	}()

	w.logger.Debug("controller worker started", "signals", len(w.signals))
	for ctx.Err() == nil {
		w.drainCommands(ctx)
		w.poll(ctx)
	}
	w.logger.Debug("controller worker stopped")
}

func (w *Worker) drainCommands(ctx context.Context) bool {
	worked := false
	for {
		select {
		case cmd := <-w.commands:
			w.handleCommand(ctx, cmd)
			worked = true
		default:
			return worked
		}
	}
}

func (w *Worker) handleCommand(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case Register:
		w.learning.Add(1)
		go func() {
			defer w.learning.Done()
			c.Reply <- w.learn(ctx, c.Label)
		}()
	case ConfigRequest:
		c.Reply <- w.config()
	case SignalsRequest:
		w.mu.RLock()
		c.Reply <- w.signals.Clone()
		w.mu.RUnlock()
	default:
		w.logger.Warn("unknown command", "command", cmd)
	}
}

// poll waits up to the poll interval for one message. While a registration
// holds the port it only sleeps.
func (w *Worker) poll(ctx context.Context) {
	if !w.portMu.TryLock() {
		sleep(ctx, w.pollInterval)
		return
	}

	msg, ok, err := w.in.Poll(ctx, w.pollInterval)
	var label string
	var mapped bool
	var signature string
	if ok {
		signature = msg.Hex()
		w.mu.RLock()
		label, mapped = w.signals.Lookup(signature)
		w.mu.RUnlock()
	}
	w.portMu.Unlock()

	if err != nil {
		w.readError(ctx, err)
		return
	}
	w.lastErr = ""
	if !ok {
		return
	}

	if !mapped {
		w.logger.Debug("received message with no entry in signal map", "signature", signature)
		activity.Emit(w.observer, activity.Event{
			Kind:       activity.KindUnmappedSignal,
			Controller: w.name,
			Signal:     signature,
		})
		return
	}

	w.logger.Debug("received signal", "signature", signature, "signal", label)
	select {
	case w.out <- Signal{Controller: w.name, Label: label, Signature: signature}:
	case <-ctx.Done():
	}
}

// readError logs a device error once per distinct message and backs off.
func (w *Worker) readError(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	if msg := err.Error(); msg != w.lastErr {
		w.lastErr = msg
		w.logger.Error("reading controller port", "error", err)
	}
	sleep(ctx, w.pollInterval)
}

// learn blocks for one message and maps its signature to label.
func (w *Worker) learn(ctx context.Context, label string) Learned {
	w.portMu.Lock()
	defer w.portMu.Unlock()

	w.logger.Info("pausing input to register signal", "signal", label)
	msg, err := w.in.Receive(ctx)
	if err != nil {
		return Learned{Label: label, Err: err}
	}
	return w.insert(label, msg)
}

func (w *Worker) insert(label string, msg midi.Message) Learned {
	signature := msg.Hex()

	w.mu.Lock()
	if label == "" {
		label = w.signals.NextLabel()
	}
	w.signals[signature] = label
	w.mu.Unlock()

	w.logger.Info("registered signal", "signature", signature, "signal", label)
	return Learned{Label: label, Signature: signature}
}

func (w *Worker) config() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Config{Name: w.name, Type: w.portType, SignalMap: w.signals.Clone()}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
