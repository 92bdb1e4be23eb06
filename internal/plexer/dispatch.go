package plexer

import (
	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/track"
)

// handleSignal routes one signal and reports whether it switched the mode.
// The mode switch table is consulted before the mode's own table.
func (p *Plexer) handleSignal(sig controller.Signal) bool {
	if p.tables.IsModeSwitch(sig.Controller, sig.Label) {
		p.mode = p.mode.Toggle()
		p.logger.Info("changed mode", "mode", p.mode.String(), "controller", sig.Controller, "signal", sig.Label)
		p.emit(activity.Event{
			Kind:       activity.KindModeChanged,
			Controller: sig.Controller,
			Signal:     sig.Label,
			Mode:       p.mode.String(),
		})
		return true
	}

	switch p.mode {
	case Trigger:
		targets, ok := p.tables.TriggerTargets(sig.Controller, sig.Label)
		if !ok {
			p.unmapped(sig)
			return false
		}
		p.signalRouted(sig)
		for _, name := range targets.Clients() {
			for _, label := range targets[name] {
				p.dispatch(name, client.Event{Tracks: []string{label}, State: track.Toggle})
			}
		}
	case Scene:
		scene, ok := p.tables.SceneFor(sig.Controller, sig.Label)
		if !ok {
			p.unmapped(sig)
			return false
		}
		p.signalRouted(sig)
		if err := p.activateScene(scene); err != nil {
			p.logger.Warn("signal names a missing scene", "controller", sig.Controller, "signal", sig.Label, "scene", scene)
		}
	}
	return false
}

func (p *Plexer) signalRouted(sig controller.Signal) {
	p.logger.Debug("routing signal", "controller", sig.Controller, "signal", sig.Label, "mode", p.mode.String())
	p.emit(activity.Event{
		Kind:       activity.KindSignal,
		Controller: sig.Controller,
		Signal:     sig.Label,
		Mode:       p.mode.String(),
	})
}

func (p *Plexer) unmapped(sig controller.Signal) {
	p.logger.Debug("signal not in map for mode", "controller", sig.Controller, "signal", sig.Label, "mode", p.mode.String())
	p.emit(activity.Event{
		Kind:       activity.KindUnmappedSignal,
		Controller: sig.Controller,
		Signal:     sig.Label,
		Mode:       p.mode.String(),
	})
}

// activateScene plays the scene's members on every running client and
// stops everything else. Clients the scene names but that are not running
// are skipped.
func (p *Plexer) activateScene(label string) error {
	members, ok := p.tables.Scene(label)
	if !ok {
		return ErrNoSuchScene
	}

	p.logger.Info("activating scene", "scene", label)
	for _, name := range p.clientOrder {
		if p.clients[name].worker == nil {
			continue
		}
		if tracks, in := members[name]; in {
			p.dispatch(name, client.Event{Tracks: append([]string(nil), tracks...), State: track.Play})
		} else {
			p.dispatch(name, client.Event{All: true, State: track.Stop})
		}
	}
	p.emit(activity.Event{Kind: activity.KindSceneActivated, Scene: label, Mode: p.mode.String()})
	return nil
}

// dispatch hands ev to a running client. Unknown and offline clients are
// logged and skipped.
func (p *Plexer) dispatch(name string, ev client.Event) {
	h, ok := p.clients[name]
	if !ok || h.worker == nil {
		p.logger.Warn("event for unavailable client", "client", name)
		p.emit(activity.Event{
			Kind:    activity.KindDispatchError,
			Client:  name,
			Message: ErrNoSuchClient.Error(),
		})
		return
	}
	if err := h.worker.Dispatch(p.workerCtx, ev); err != nil {
		p.logger.Error("dispatching event", "client", name, "error", err)
	}
}

func (p *Plexer) emit(e activity.Event) {
	activity.Emit(p.opts.Observer, e)
}
