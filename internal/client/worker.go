package client

import (
	"context"
	"errors"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/port"
	"github.com/nerrad567/midiplexer/internal/track"
)

const (
	defaultCommandBuffer = 16
	defaultEventBuffer   = 256
)

// Options tunes a Worker. The zero value is usable.
type Options struct {
	Logger        *logging.Logger
	Observer      activity.Observer
	CommandBuffer int
	EventBuffer   int
}

// Worker owns one client's tracks and output port. All track state is
// touched only by the goroutine running Run.
type Worker struct {
	name         string
	portType     string
	toggleRecord bool

	out    port.Output
	tracks map[string]*track.Track
	order  []string

	commands chan Command
	events   chan Event
	done     chan struct{}

	logger   *logging.Logger
	observer activity.Observer
}

// NewWorker builds a worker from cfg, creating its tracks in label order.
// The worker takes ownership of out and closes it when Run returns.
func NewWorker(cfg Config, out port.Output, opts Options) (*Worker, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = defaultCommandBuffer
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}

	w := &Worker{
		name:         cfg.Name,
		portType:     cfg.Type,
		toggleRecord: cfg.ToggleRecord,
		out:          out,
		tracks:       make(map[string]*track.Track, len(cfg.Tracks)),
		commands:     make(chan Command, opts.CommandBuffer),
		events:       make(chan Event, opts.EventBuffer),
		done:         make(chan struct{}),
		logger:       opts.Logger.With("component", "client", "client", cfg.Name),
		observer:     opts.Observer,
	}

	for _, label := range cfg.Labels() {
		if err := w.createTrack(label, cfg.Tracks[label]); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Name returns the client name.
func (w *Worker) Name() string { return w.name }

// Type returns the port type the client was opened with.
func (w *Worker) Type() string { return w.portType }

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run processes commands and events until ctx is cancelled. Pending
// commands are always handled before the next event.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		if err := w.out.Close(); err != nil {
			w.logger.Warn("closing output port", "error", err)
		}
	}()

	w.logger.Debug("client worker started", "tracks", len(w.order))
	for {
		w.drainCommands()

		select {
		case <-ctx.Done():
			w.logger.Debug("client worker stopped")
			return
		case cmd := <-w.commands:
			w.handleCommand(cmd)
		case ev := <-w.events:
			w.drainCommands()
			w.handleEvent(ev)
		}
	}
}

// drainCommands handles every queued command and reports whether there
// were any.
func (w *Worker) drainCommands() bool {
	worked := false
	for {
		select {
		case cmd := <-w.commands:
			w.handleCommand(cmd)
			worked = true
		default:
			return worked
		}
	}
}

func (w *Worker) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case CreateTrack:
		c.Reply <- w.createTrack(c.Label, c.Config)
	case ListTracks:
		c.Reply <- w.listTracks()
	case ConfigRequest:
		c.Reply <- w.config()
	case PlayingRequest:
		c.Reply <- w.playing()
	case ToggleRecord:
		c.Reply <- w.arm(c.Label)
	default:
		w.logger.Warn("unknown command", "command", cmd)
	}
}

// handleEvent applies one event. Labels are resolved before any track is
// touched, so an unknown label abandons the whole event.
func (w *Worker) handleEvent(ev Event) {
	if ev.All && ev.State == track.Toggle {
		return
	}

	var selected []*track.Track
	if ev.All {
		for _, label := range w.order {
			selected = append(selected, w.tracks[label])
		}
	} else {
		for _, label := range ev.Tracks {
			t, ok := w.tracks[label]
			if !ok {
				err := &NoSuchTrackError{Client: w.name, Label: label}
				w.logger.Warn("event names unknown track", "track", label, "state", ev.State.String())
				w.emit(activity.Event{
					Kind:    activity.KindDispatchError,
					Client:  w.name,
					Track:   label,
					Message: err.Error(),
				})
				return
			}
			selected = append(selected, t)
		}
	}

	if ev.State == track.Toggle {
		for _, t := range selected {
			w.trigger(t, track.Toggle)
		}
		return
	}

	in := make(map[string]bool, len(selected))
	for _, t := range selected {
		in[t.Label()] = true
		w.trigger(t, ev.State)
	}
	opposite := ev.State.Opposite()
	for _, label := range w.order {
		if !in[label] {
			w.trigger(w.tracks[label], opposite)
		}
	}
}

func (w *Worker) trigger(t *track.Track, state track.State) {
	sent, err := t.Trigger(state, w.out)
	if err != nil {
		w.logger.Error("track send failed", "track", t.Label(), "state", state.String(), "error", err)
		w.emit(activity.Event{
			Kind:    activity.KindDispatchError,
			Client:  w.name,
			Track:   t.Label(),
			Message: err.Error(),
		})
		return
	}
	if !sent {
		return
	}

	ev := activity.Event{
		Kind:    activity.KindTrackChanged,
		Client:  w.name,
		Track:   t.Label(),
		Playing: t.Playing(),
	}
	if msg, err := t.Message(t.Playing()); err == nil {
		ev.Message = msg.Hex()
	}
	w.emit(ev)
}

func (w *Worker) createTrack(label string, cfg track.Config) error {
	if label == "" {
		return errors.New("client: track label is required")
	}
	t, err := track.New(label, cfg, w.toggleRecord)
	if err != nil {
		return err
	}
	if _, exists := w.tracks[label]; !exists {
		w.order = append(w.order, label)
	}
	w.tracks[label] = t
	return nil
}

func (w *Worker) listTracks() []TrackInfo {
	infos := make([]TrackInfo, 0, len(w.order))
	for _, label := range w.order {
		t := w.tracks[label]
		infos = append(infos, TrackInfo{
			Label:   label,
			Kind:    t.Kind(),
			Playing: t.Playing(),
			Armed:   t.Armed(),
		})
	}
	return infos
}

func (w *Worker) config() Config {
	cfg := Config{
		Name:         w.name,
		Type:         w.portType,
		ToggleRecord: w.toggleRecord,
		Tracks:       make(map[string]track.Config, len(w.tracks)),
	}
	for label, t := range w.tracks {
		cfg.Tracks[label] = t.Config()
	}
	return cfg
}

func (w *Worker) playing() []string {
	labels := []string{}
	for _, label := range w.order {
		if w.tracks[label].Playing() {
			labels = append(labels, label)
		}
	}
	return labels
}

func (w *Worker) arm(label string) error {
	t, ok := w.tracks[label]
	if !ok {
		return &NoSuchTrackError{Client: w.name, Label: label}
	}
	t.Arm()
	return nil
}

func (w *Worker) emit(e activity.Event) {
	activity.Emit(w.observer, e)
}
