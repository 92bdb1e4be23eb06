package plexer

import (
	"context"

	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/routing"
	"github.com/nerrad567/midiplexer/internal/track"
)

// Submit queues cmd without waiting for its reply.
func (p *Plexer) Submit(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return ErrUnknownCommand
	}
	select {
	case p.commands <- cmd:
		return nil
	case <-p.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func call[T any](ctx context.Context, p *Plexer, cmd Command, reply chan Result[T]) (T, error) {
	var zero T
	if err := p.Submit(ctx, cmd); err != nil {
		return zero, err
	}
	select {
	case r := <-reply:
		return r.Value, r.Err
	case <-p.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func newReply[T any]() chan Result[T] { return make(chan Result[T], 1) }

// AddController opens a controller port and starts its worker.
func (p *Plexer) AddController(ctx context.Context, name, portType string) error {
	r := newReply[none]()
	_, err := call(ctx, p, AddController{Name: name, Type: portType, Reply: r}, r)
	return err
}

// AddClient opens a client port and starts its worker.
func (p *Plexer) AddClient(ctx context.Context, name, portType string, toggleRecord bool) error {
	r := newReply[none]()
	_, err := call(ctx, p, AddClient{Name: name, Type: portType, ToggleRecord: toggleRecord, Reply: r}, r)
	return err
}

// ClientAddTrack adds or replaces a track on a client.
func (p *Plexer) ClientAddTrack(ctx context.Context, clientName, label string, cfg track.Config) error {
	r := newReply[none]()
	_, err := call(ctx, p, ClientAddTrack{Client: clientName, Label: label, Config: cfg, Reply: r}, r)
	return err
}

// ClientListTracks lists a client's tracks in insertion order.
func (p *Plexer) ClientListTracks(ctx context.Context, clientName string) ([]client.TrackInfo, error) {
	r := newReply[[]client.TrackInfo]()
	return call(ctx, p, ClientListTracks{Client: clientName, Reply: r}, r)
}

// RegisterSignal asks a controller to learn its next message. The returned
// channel delivers the outcome once a message arrives.
func (p *Plexer) RegisterSignal(ctx context.Context, controllerName, label string) (<-chan controller.Learned, error) {
	learned := make(chan controller.Learned, 1)
	r := newReply[none]()
	if _, err := call(ctx, p, RegisterSignal{Controller: controllerName, Label: label, Learned: learned, Reply: r}, r); err != nil {
		return nil, err
	}
	return learned, nil
}

// RegisterModeSwitch learns the next message as a mode switch.
func (p *Plexer) RegisterModeSwitch(ctx context.Context, controllerName, label string) (<-chan controller.Learned, error) {
	learned := make(chan controller.Learned, 1)
	r := newReply[none]()
	if _, err := call(ctx, p, RegisterModeSwitch{Controller: controllerName, Label: label, Learned: learned, Reply: r}, r); err != nil {
		return nil, err
	}
	return learned, nil
}

// AssignModeSwitch makes an existing signal flip the mode.
func (p *Plexer) AssignModeSwitch(ctx context.Context, controllerName, signal string) error {
	r := newReply[none]()
	_, err := call(ctx, p, AssignModeSwitch{Controller: controllerName, Signal: signal, Reply: r}, r)
	return err
}

// AddTrackToScene adds a member to a scene.
func (p *Plexer) AddTrackToScene(ctx context.Context, scene, clientName, label string) error {
	r := newReply[none]()
	_, err := call(ctx, p, AddTrackToScene{Scene: scene, Client: clientName, Track: label, Reply: r}, r)
	return err
}

// AssignTrack maps a signal to a track in trigger mode.
func (p *Plexer) AssignTrack(ctx context.Context, controllerName, signal, clientName, label string) error {
	r := newReply[none]()
	_, err := call(ctx, p, AssignTrack{Controller: controllerName, Signal: signal, Client: clientName, Track: label, Reply: r}, r)
	return err
}

// AssignScene maps a signal to a scene in scene mode.
func (p *Plexer) AssignScene(ctx context.Context, controllerName, signal, scene string) error {
	r := newReply[none]()
	_, err := call(ctx, p, AssignScene{Controller: controllerName, Signal: signal, Scene: scene, Reply: r}, r)
	return err
}

// CreateSceneFromCurrent records every playing track as scene.
func (p *Plexer) CreateSceneFromCurrent(ctx context.Context, scene string) (routing.TrackList, error) {
	r := newReply[routing.TrackList]()
	return call(ctx, p, CreateSceneFromCurrent{Scene: scene, Reply: r}, r)
}

// ToggleRecord arms a client's track.
func (p *Plexer) ToggleRecord(ctx context.Context, clientName, label string) error {
	r := newReply[none]()
	_, err := call(ctx, p, ToggleRecord{Client: clientName, Track: label, Reply: r}, r)
	return err
}

// ActivateScene activates a scene.
func (p *Plexer) ActivateScene(ctx context.Context, scene string) error {
	r := newReply[none]()
	_, err := call(ctx, p, ActivateScene{Scene: scene, Reply: r}, r)
	return err
}

// Save writes the routing document and returns the path written.
func (p *Plexer) Save(ctx context.Context, path string) (string, error) {
	r := newReply[string]()
	return call(ctx, p, Save{Path: path, Reply: r}, r)
}

// Load replaces the running setup with a routing document.
func (p *Plexer) Load(ctx context.Context, path string) (string, error) {
	r := newReply[string]()
	return call(ctx, p, Load{Path: path, Reply: r}, r)
}

// Scenes returns a copy of every scene.
func (p *Plexer) Scenes(ctx context.Context) (map[string]routing.TrackList, error) {
	r := newReply[map[string]routing.TrackList]()
	return call(ctx, p, ScenesQuery{Reply: r}, r)
}

// TriggerMap returns a copy of the trigger map.
func (p *Plexer) TriggerMap(ctx context.Context) (map[string]map[string]routing.TrackList, error) {
	r := newReply[map[string]map[string]routing.TrackList]()
	return call(ctx, p, TriggerMapQuery{Reply: r}, r)
}

// SceneMap returns a copy of the scene map.
func (p *Plexer) SceneMap(ctx context.Context) (map[string]map[string]string, error) {
	r := newReply[map[string]map[string]string]()
	return call(ctx, p, SceneMapQuery{Reply: r}, r)
}

// ModeSwitch returns a copy of the mode switch table.
func (p *Plexer) ModeSwitch(ctx context.Context) (map[string][]string, error) {
	r := newReply[map[string][]string]()
	return call(ctx, p, ModeSwitchQuery{Reply: r}, r)
}

// Controllers lists controllers.
func (p *Plexer) Controllers(ctx context.Context) ([]ControllerInfo, error) {
	r := newReply[[]ControllerInfo]()
	return call(ctx, p, ControllersQuery{Reply: r}, r)
}

// Clients lists clients with their tracks.
func (p *Plexer) Clients(ctx context.Context) ([]ClientInfo, error) {
	r := newReply[[]ClientInfo]()
	return call(ctx, p, ClientsQuery{Reply: r}, r)
}

// CurrentStatus returns the status synchronously.
func (p *Plexer) CurrentStatus(ctx context.Context) (Status, error) {
	r := newReply[Status]()
	return call(ctx, p, StatusQuery{Reply: r}, r)
}
