package plexer

import (
	"fmt"
	"os"

	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/routing"
	"github.com/nerrad567/midiplexer/internal/track"
)

// defaultModeSwitchLabel names a mode switch registered without a label.
const defaultModeSwitchLabel = "modeswitch"

type none = struct{}

func reply[T any](ch chan Result[T], v T, err error) {
	if ch != nil {
		ch <- Result[T]{Value: v, Err: err}
	}
}

func (p *Plexer) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case AddController:
		reply(c.Reply, none{}, p.addController(c.Name, c.Type))
	case AddClient:
		reply(c.Reply, none{}, p.addClient(c.Name, c.Type, c.ToggleRecord))
	case ClientAddTrack:
		reply(c.Reply, none{}, p.clientAddTrack(c.Client, c.Label, c.Config))
	case ClientListTracks:
		tracks, err := p.clientListTracks(c.Client)
		reply(c.Reply, tracks, err)
	case RegisterSignal:
		reply(c.Reply, none{}, p.registerSignal(c.Controller, c.Label, c.Learned))
	case RegisterModeSwitch:
		reply(c.Reply, none{}, p.registerModeSwitch(c.Controller, c.Label, c.Learned))
	case AssignModeSwitch:
		reply(c.Reply, none{}, p.assignModeSwitch(c.Controller, c.Signal))
	case AddTrackToScene:
		reply(c.Reply, none{}, p.addTrackToScene(c.Scene, c.Client, c.Track))
	case AssignTrack:
		reply(c.Reply, none{}, p.assignTrack(c.Controller, c.Signal, c.Client, c.Track))
	case AssignScene:
		reply(c.Reply, none{}, p.assignScene(c.Controller, c.Signal, c.Scene))
	case CreateSceneFromCurrent:
		members, err := p.createSceneFromCurrent(c.Scene)
		reply(c.Reply, members, err)
	case ToggleRecord:
		reply(c.Reply, none{}, p.toggleRecord(c.Client, c.Track))
	case ActivateScene:
		reply(c.Reply, none{}, p.activateSceneCommand(c.Scene))
	case Save:
		path, err := p.save(c.Path)
		reply(c.Reply, path, err)
	case Load:
		path, err := p.load(c.Path)
		reply(c.Reply, path, err)
	case ScenesQuery:
		reply(c.Reply, p.tables.Clone().Scenes, nil)
	case TriggerMapQuery:
		reply(c.Reply, p.tables.Clone().TriggerMap, nil)
	case SceneMapQuery:
		reply(c.Reply, p.tables.Clone().SceneMap, nil)
	case ModeSwitchQuery:
		reply(c.Reply, p.tables.Clone().ModeSwitch, nil)
	case ControllersQuery:
		reply(c.Reply, p.listControllers(), nil)
	case ClientsQuery:
		reply(c.Reply, p.listClients(), nil)
	case StatusQuery:
		reply(c.Reply, p.currentStatus(), nil)
	default:
		p.logger.Warn("unknown command", "command", fmt.Sprintf("%T", cmd))
	}
}

func (p *Plexer) addController(name, portType string) error {
	if name == "" {
		return fmt.Errorf("%w: controller name is required", ErrInvalidArgument)
	}
	if _, exists := p.controllers[name]; exists {
		return fmt.Errorf("%w: controller %q", ErrDuplicateName, name)
	}
	if err := p.startController(controller.Config{Name: name, Type: portType, SignalMap: controller.SignalMap{}}); err != nil {
		return fmt.Errorf("adding controller %q: %w", name, err)
	}
	p.logger.Info("added controller", "controller", name, "type", portType)
	p.dirty = true
	return nil
}

func (p *Plexer) addClient(name, portType string, toggleRecord bool) error {
	if name == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidArgument)
	}
	if _, exists := p.clients[name]; exists {
		return fmt.Errorf("%w: client %q", ErrDuplicateName, name)
	}
	cfg := client.Config{Name: name, Type: portType, ToggleRecord: toggleRecord, Tracks: map[string]track.Config{}}
	if err := p.startClient(cfg); err != nil {
		return fmt.Errorf("adding client %q: %w", name, err)
	}
	p.logger.Info("added client", "client", name, "type", portType, "toggle_record", toggleRecord)
	p.dirty = true
	return nil
}

func (p *Plexer) clientHandle(name string) (*clientHandle, error) {
	h, ok := p.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchClient, name)
	}
	return h, nil
}

func (p *Plexer) controllerHandle(name string) (*controllerHandle, error) {
	h, ok := p.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchController, name)
	}
	return h, nil
}

func (p *Plexer) clientAddTrack(name, label string, cfg track.Config) error {
	h, err := p.clientHandle(name)
	if err != nil {
		return err
	}
	if label == "" {
		return fmt.Errorf("%w: track label is required", ErrInvalidArgument)
	}

	if h.worker == nil {
		if err := cfg.Validate(); err != nil {
			return err
		}
		h.cfg.Tracks[label] = cfg.Clone()
	} else {
		ctx, cancel := p.queryCtx()
		defer cancel()
		if err := h.worker.CreateTrack(ctx, label, cfg); err != nil {
			return queryErr(err)
		}
	}
	p.dirty = true
	return nil
}

func (p *Plexer) clientListTracks(name string) ([]client.TrackInfo, error) {
	h, err := p.clientHandle(name)
	if err != nil {
		return nil, err
	}
	if h.worker == nil {
		return offlineTracks(h.cfg), nil
	}
	ctx, cancel := p.queryCtx()
	defer cancel()
	tracks, err := h.worker.ListTracks(ctx)
	return tracks, queryErr(err)
}

func offlineTracks(cfg client.Config) []client.TrackInfo {
	labels := cfg.Labels()
	infos := make([]client.TrackInfo, 0, len(labels))
	for _, label := range labels {
		infos = append(infos, client.TrackInfo{Label: label, Kind: cfg.Tracks[label].Type})
	}
	return infos
}

func (p *Plexer) registerSignal(name, label string, learned chan controller.Learned) error {
	h, err := p.controllerHandle(name)
	if err != nil {
		return err
	}
	if h.worker == nil {
		return fmt.Errorf("%w: controller %q", ErrOffline, name)
	}
	if learned == nil {
		learned = make(chan controller.Learned, 1)
	}
	ctx, cancel := p.queryCtx()
	defer cancel()
	if err := h.worker.Send(ctx, controller.Register{Label: label, Reply: learned}); err != nil {
		return queryErr(err)
	}
	p.logger.Info("registering signal", "controller", name, "signal", label)
	p.dirty = true
	return nil
}

func (p *Plexer) registerModeSwitch(name, label string, learned chan controller.Learned) error {
	if label == "" {
		label = defaultModeSwitchLabel
	}
	if err := p.registerSignal(name, label, learned); err != nil {
		return err
	}
	p.tables.AssignModeSwitch(name, label)
	return nil
}

// validateSignal checks that controller knows signal. Offline controllers
// are checked against their stored map.
func (p *Plexer) validateSignal(name, signal string) error {
	h, err := p.controllerHandle(name)
	if err != nil {
		return err
	}
	signals := h.cfg.SignalMap
	if h.worker != nil {
		ctx, cancel := p.queryCtx()
		defer cancel()
		signals, err = h.worker.Signals(ctx)
		if err != nil {
			return queryErr(err)
		}
	}
	if !signals.HasLabel(signal) {
		return &controller.NoSuchSignalError{Controller: name, Signal: signal}
	}
	return nil
}

func (p *Plexer) assignModeSwitch(name, signal string) error {
	if err := p.validateSignal(name, signal); err != nil {
		return err
	}
	p.tables.AssignModeSwitch(name, signal)
	p.dirty = true
	return nil
}

func (p *Plexer) addTrackToScene(scene, clientName, label string) error {
	if scene == "" || clientName == "" || label == "" {
		return fmt.Errorf("%w: scene, client and track are required", ErrInvalidArgument)
	}
	p.tables.AddTrackToScene(scene, clientName, label)
	p.dirty = true
	return nil
}

func (p *Plexer) assignTrack(name, signal, clientName, label string) error {
	if clientName == "" || label == "" {
		return fmt.Errorf("%w: client and track are required", ErrInvalidArgument)
	}
	if err := p.validateSignal(name, signal); err != nil {
		return err
	}
	p.tables.AssignTrack(name, signal, clientName, label)
	p.dirty = true
	return nil
}

func (p *Plexer) assignScene(name, signal, scene string) error {
	if scene == "" {
		return fmt.Errorf("%w: scene is required", ErrInvalidArgument)
	}
	if err := p.validateSignal(name, signal); err != nil {
		return err
	}
	p.tables.AssignScene(name, signal, scene)
	p.dirty = true
	return nil
}

// createSceneFromCurrent records the playing tracks of every running client.
func (p *Plexer) createSceneFromCurrent(scene string) (routing.TrackList, error) {
	if scene == "" {
		return nil, fmt.Errorf("%w: scene is required", ErrInvalidArgument)
	}
	members := make(routing.TrackList)
	for _, name := range p.clientOrder {
		h := p.clients[name]
		if h.worker == nil {
			continue
		}
		ctx, cancel := p.queryCtx()
		playing, err := h.worker.Playing(ctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("client %q: %w", name, queryErr(err))
		}
		if len(playing) > 0 {
			members[name] = playing
		}
	}
	p.tables.SetScene(scene, members)
	p.logger.Info("created scene from current state", "scene", scene, "clients", len(members))
	p.dirty = true
	return members.Clone(), nil
}

func (p *Plexer) toggleRecord(name, label string) error {
	h, err := p.clientHandle(name)
	if err != nil {
		return err
	}
	if h.worker == nil {
		return fmt.Errorf("%w: client %q", ErrOffline, name)
	}
	ctx, cancel := p.queryCtx()
	defer cancel()
	return queryErr(h.worker.ToggleRecord(ctx, label))
}

func (p *Plexer) activateSceneCommand(scene string) error {
	if err := p.activateScene(scene); err != nil {
		return fmt.Errorf("%w: %q", err, scene)
	}
	return nil
}

func (p *Plexer) listControllers() []ControllerInfo {
	infos := make([]ControllerInfo, 0, len(p.controllerOrder))
	for _, name := range p.controllerOrder {
		h := p.controllers[name]
		info := ControllerInfo{Config: h.cfg, Online: h.worker != nil}
		if h.worker != nil {
			if cfg, err := p.controllerConfig(h); err == nil {
				info.Config = cfg
			} else {
				p.logger.Warn("controller did not answer", "controller", name, "error", err)
			}
		}
		info.SignalMap = info.SignalMap.Clone()
		infos = append(infos, info)
	}
	return infos
}

func (p *Plexer) listClients() []ClientInfo {
	infos := make([]ClientInfo, 0, len(p.clientOrder))
	for _, name := range p.clientOrder {
		h := p.clients[name]
		info := ClientInfo{
			Name:         name,
			Type:         h.cfg.Type,
			ToggleRecord: h.cfg.ToggleRecord,
			Online:       h.worker != nil,
			Tracks:       offlineTracks(h.cfg),
		}
		if h.worker != nil {
			if tracks, err := p.clientListTracks(name); err == nil {
				info.Tracks = tracks
			} else {
				p.logger.Warn("client did not answer", "client", name, "error", err)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func (p *Plexer) controllerConfig(h *controllerHandle) (controller.Config, error) {
	if h.worker == nil {
		return h.cfg, nil
	}
	ctx, cancel := p.queryCtx()
	defer cancel()
	cfg, err := h.worker.Config(ctx)
	return cfg, queryErr(err)
}

func (p *Plexer) clientConfig(h *clientHandle) (client.Config, error) {
	if h.worker == nil {
		return h.cfg.Clone(), nil
	}
	ctx, cancel := p.queryCtx()
	defer cancel()
	cfg, err := h.worker.Config(ctx)
	return cfg, queryErr(err)
}

// snapshot assembles the routing document from the tables and the live
// configuration of every worker.
func (p *Plexer) snapshot() (*routing.Document, error) {
	doc := routing.NewDocument()
	doc.Tables = p.tables.Clone()
	for _, name := range p.clientOrder {
		cfg, err := p.clientConfig(p.clients[name])
		if err != nil {
			return nil, fmt.Errorf("client %q: %w", name, err)
		}
		doc.Clients = append(doc.Clients, cfg)
	}
	for _, name := range p.controllerOrder {
		cfg, err := p.controllerConfig(p.controllers[name])
		if err != nil {
			return nil, fmt.Errorf("controller %q: %w", name, err)
		}
		doc.Controllers = append(doc.Controllers, cfg)
	}
	return doc, nil
}

func (p *Plexer) save(path string) (string, error) {
	if path == "" {
		path = p.routingFile
	}
	if path == "" {
		return "", fmt.Errorf("%w: no routing file to save to", ErrInvalidArgument)
	}
	doc, err := p.snapshot()
	if err != nil {
		return "", fmt.Errorf("saving routing file: %w", err)
	}
	if err := routing.Save(path, doc); err != nil {
		return "", err
	}
	p.routingFile = path
	p.dirty = false
	p.logger.Info("saved routing file", "path", path)
	return path, nil
}

// load replaces every device and table with the file's contents. A file
// that cannot be read leaves the running setup untouched.
func (p *Plexer) load(path string) (string, error) {
	if path == "" {
		path = p.routingFile
	}
	if path == "" {
		return "", fmt.Errorf("%w: no routing file to load", ErrInvalidArgument)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("loading routing file: %w", err)
	}
	doc, err := routing.Load(path)
	if err != nil {
		return "", err
	}

	p.stopWorkers()
	p.discardSignals()
	p.startWorkers()
	p.mode = Trigger
	p.build(doc)
	p.routingFile = path
	p.dirty = false
	p.logger.Info("loaded routing file", "path", path,
		"clients", len(p.clientOrder), "controllers", len(p.controllerOrder))
	return path, nil
}

// discardSignals drops signals emitted by workers that have been stopped.
func (p *Plexer) discardSignals() {
	for {
		select {
		case <-p.signals:
		default:
			return
		}
	}
}
