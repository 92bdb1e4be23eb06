package plexer

import (
	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/routing"
	"github.com/nerrad567/midiplexer/internal/track"
)

// Result carries a command's outcome back to the caller.
type Result[T any] struct {
	Value T
	Err   error
}

// Command is a control-plane request. Commands are applied one at a time,
// in arrival order, by the plexer goroutine.
type Command interface {
	isCommand()
}

// AddController opens an input port and starts a controller worker.
type AddController struct {
	Name  string
	Type  string
	Reply chan Result[struct{}]
}

// AddClient opens an output port and starts a client worker.
type AddClient struct {
	Name         string
	Type         string
	ToggleRecord bool
	Reply        chan Result[struct{}]
}

// ClientAddTrack adds or replaces a track on a client.
type ClientAddTrack struct {
	Client string
	Label  string
	Config track.Config
	Reply  chan Result[struct{}]
}

// ClientListTracks lists a client's tracks.
type ClientListTracks struct {
	Client string
	Reply  chan Result[[]client.TrackInfo]
}

// RegisterSignal asks a controller to learn its next message as Label.
// Reply is answered as soon as the request is forwarded; the learned
// signature arrives later on Learned, which may be nil.
type RegisterSignal struct {
	Controller string
	Label      string
	Learned    chan controller.Learned
	Reply      chan Result[struct{}]
}

// RegisterModeSwitch learns the next message as Label and makes it the
// controller's mode switch.
type RegisterModeSwitch struct {
	Controller string
	Label      string
	Learned    chan controller.Learned
	Reply      chan Result[struct{}]
}

// AssignModeSwitch makes an existing signal flip the mode.
type AssignModeSwitch struct {
	Controller string
	Signal     string
	Reply      chan Result[struct{}]
}

// AddTrackToScene adds a member to a scene, creating the scene if needed.
type AddTrackToScene struct {
	Scene  string
	Client string
	Track  string
	Reply  chan Result[struct{}]
}

// AssignTrack maps a signal to a track in trigger mode.
type AssignTrack struct {
	Controller string
	Signal     string
	Client     string
	Track      string
	Reply      chan Result[struct{}]
}

// AssignScene maps a signal to a scene in scene mode.
type AssignScene struct {
	Controller string
	Signal     string
	Scene      string
	Reply      chan Result[struct{}]
}

// CreateSceneFromCurrent records every playing track as Scene.
type CreateSceneFromCurrent struct {
	Scene string
	Reply chan Result[routing.TrackList]
}

// ToggleRecord arms a client's track.
type ToggleRecord struct {
	Client string
	Track  string
	Reply  chan Result[struct{}]
}

// ActivateScene activates a scene as if its signal had been received.
type ActivateScene struct {
	Scene string
	Reply chan Result[struct{}]
}

// Save writes the routing document. An empty Path means the current file.
type Save struct {
	Path  string
	Reply chan Result[string]
}

// Load replaces every device and table with the contents of Path. An empty
// Path means the current file.
type Load struct {
	Path  string
	Reply chan Result[string]
}

// ScenesQuery returns a copy of the scenes.
type ScenesQuery struct {
	Reply chan Result[map[string]routing.TrackList]
}

// TriggerMapQuery returns a copy of the trigger map.
type TriggerMapQuery struct {
	Reply chan Result[map[string]map[string]routing.TrackList]
}

// SceneMapQuery returns a copy of the scene map.
type SceneMapQuery struct {
	Reply chan Result[map[string]map[string]string]
}

// ModeSwitchQuery returns a copy of the mode switch table.
type ModeSwitchQuery struct {
	Reply chan Result[map[string][]string]
}

// ControllersQuery lists controllers.
type ControllersQuery struct {
	Reply chan Result[[]ControllerInfo]
}

// ClientsQuery lists clients with their tracks.
type ClientsQuery struct {
	Reply chan Result[[]ClientInfo]
}

// StatusQuery returns the current status.
type StatusQuery struct {
	Reply chan Result[Status]
}

// ControllerInfo describes a controller for display.
type ControllerInfo struct {
	controller.Config
	Online bool `json:"online"`
}

// ClientInfo describes a client for display.
type ClientInfo struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	ToggleRecord bool               `json:"toggle_record"`
	Online       bool               `json:"online"`
	Tracks       []client.TrackInfo `json:"tracks"`
}

func (AddController) isCommand()          {}
func (AddClient) isCommand()              {}
func (ClientAddTrack) isCommand()         {}
func (ClientListTracks) isCommand()       {}
func (RegisterSignal) isCommand()         {}
func (RegisterModeSwitch) isCommand()     {}
func (AssignModeSwitch) isCommand()       {}
func (AddTrackToScene) isCommand()        {}
func (AssignTrack) isCommand()            {}
func (AssignScene) isCommand()            {}
func (CreateSceneFromCurrent) isCommand() {}
func (ToggleRecord) isCommand()           {}
func (ActivateScene) isCommand()          {}
func (Save) isCommand()                   {}
func (Load) isCommand()                   {}
func (ScenesQuery) isCommand()            {}
func (TriggerMapQuery) isCommand()        {}
func (SceneMapQuery) isCommand()          {}
func (ModeSwitchQuery) isCommand()        {}
func (ControllersQuery) isCommand()       {}
func (ClientsQuery) isCommand()           {}
func (StatusQuery) isCommand()            {}
